package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/auctionforge/engine/internal/auction/domain"
	"github.com/auctionforge/engine/internal/shared/lock"
)

// memStore is a single in-memory backing store shared by the fake
// repositories, guarded by one mutex so concurrent tests stay race-free.
type memStore struct {
	mu       sync.Mutex
	auctions map[uuid.UUID]*domain.Auction
	bids     map[uuid.UUID][]*domain.Bid
	mandates map[uuid.UUID]map[uuid.UUID]*domain.AutoBidMandate
	dutch    map[uuid.UUID]*domain.DutchState
	seq      int64
}

func newMemStore() *memStore {
	return &memStore{
		auctions: make(map[uuid.UUID]*domain.Auction),
		bids:     make(map[uuid.UUID][]*domain.Bid),
		mandates: make(map[uuid.UUID]map[uuid.UUID]*domain.AutoBidMandate),
		dutch:    make(map[uuid.UUID]*domain.DutchState),
	}
}

// memTxRunner satisfies domain.TxRunner without a database; the fake
// repositories ignore the nil transaction handle.
type memTxRunner struct{}

func (memTxRunner) WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type memAuctionRepo struct{ s *memStore }

func (r *memAuctionRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.Auction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *a
	r.s.auctions[a.ID] = &cp
	return nil
}

func (r *memAuctionRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.auctions[id]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memAuctionRepo) ListActive(ctx context.Context) ([]*domain.Auction, error) {
	return r.list(time.Now(), true)
}

func (r *memAuctionRepo) ListEnded(ctx context.Context) ([]*domain.Auction, error) {
	return r.list(time.Now(), false)
}

func (r *memAuctionRepo) list(now time.Time, active bool) ([]*domain.Auction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Auction
	for _, a := range r.s.auctions {
		ended := now.After(a.EndTime)
		if d, ok := r.s.dutch[a.ID]; ok && d.Sold() {
			ended = true
		}
		open := !ended && !now.Before(a.StartTime)
		if (active && open) || (!active && ended) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memAuctionRepo) SetCurrentBid(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.auctions[id]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	a.CurrentBid = amount
	return nil
}

type memBidRepo struct{ s *memStore }

func (r *memBidRepo) Append(ctx context.Context, tx pgx.Tx, b *domain.Bid) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq++
	b.Seq = r.s.seq
	cp := *b
	r.s.bids[b.AuctionID] = append(r.s.bids[b.AuctionID], &cp)
	return nil
}

func (r *memBidRepo) Leader(ctx context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var top *domain.Bid
	for _, b := range r.s.bids[auctionID] {
		if top == nil || b.Amount > top.Amount || (b.Amount == top.Amount && b.Seq < top.Seq) {
			top = b
		}
	}
	if top == nil {
		return nil, nil
	}
	cp := *top
	return &cp, nil
}

func (r *memBidRepo) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Bid, 0, len(r.s.bids[auctionID]))
	for _, b := range r.s.bids[auctionID] {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

type memMandateRepo struct{ s *memStore }

func (r *memMandateRepo) Upsert(ctx context.Context, m *domain.AutoBidMandate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.mandates[m.AuctionID]; !ok {
		r.s.mandates[m.AuctionID] = make(map[uuid.UUID]*domain.AutoBidMandate)
	}
	cp := *m
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	// Replacing a mandate updates its terms but keeps its original creation
	// time, so its tie-break position survives the replacement.
	if prev, ok := r.s.mandates[m.AuctionID][m.BidderID]; ok {
		cp.CreatedAt = prev.CreatedAt
	}
	r.s.mandates[m.AuctionID][m.BidderID] = &cp
	return nil
}

func (r *memMandateRepo) Delete(ctx context.Context, auctionID, bidderID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.mandates[auctionID], bidderID)
	return nil
}

func (r *memMandateRepo) Get(ctx context.Context, auctionID, bidderID uuid.UUID) (*domain.AutoBidMandate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.mandates[auctionID][bidderID]
	if !ok {
		return nil, domain.ErrMandateNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMandateRepo) Eligible(ctx context.Context, auctionID uuid.UUID, leading float64, leaderID uuid.UUID) ([]*domain.AutoBidMandate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.AutoBidMandate
	for _, m := range r.s.mandates[auctionID] {
		if m.MaxAmount > leading && m.BidderID != leaderID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MaxAmount != out[j].MaxAmount {
			return out[i].MaxAmount > out[j].MaxAmount
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type memDutchRepo struct{ s *memStore }

func (r *memDutchRepo) Create(ctx context.Context, tx pgx.Tx, d *domain.DutchState) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *d
	r.s.dutch[d.AuctionID] = &cp
	return nil
}

func (r *memDutchRepo) Get(ctx context.Context, auctionID uuid.UUID) (*domain.DutchState, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.dutch[auctionID]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memDutchRepo) UpdatePrice(ctx context.Context, auctionID uuid.UUID, price float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.dutch[auctionID]
	if !ok || d.Sold() {
		return domain.ErrAlreadySold
	}
	d.CurrentPrice = price
	return nil
}

func (r *memDutchRepo) SetWinner(ctx context.Context, auctionID, winnerID uuid.UUID, finalPrice float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.dutch[auctionID]
	if !ok || d.Sold() {
		return domain.ErrAlreadySold
	}
	d.WinnerID = &winnerID
	d.FinalPrice = &finalPrice
	return nil
}

func (r *memDutchRepo) ListUnsold(ctx context.Context) ([]*domain.DutchState, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.DutchState
	for _, d := range r.s.dutch {
		if !d.Sold() {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeBroadcaster records emissions in order.
type fakeBroadcaster struct {
	mu      sync.Mutex
	events  []domain.Event
	unicast []domain.Event
}

func (f *fakeBroadcaster) Emit(ev domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeBroadcaster) EmitTo(userID uuid.UUID, ev domain.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unicast = append(f.unicast, ev)
}

func (f *fakeBroadcaster) broadcasts() []domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Event(nil), f.events...)
}

func (f *fakeBroadcaster) unicasts() []domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Event(nil), f.unicast...)
}

type fakeScheduler struct {
	mu        sync.Mutex
	started   []uuid.UUID
	cancelled []uuid.UUID
}

func (f *fakeScheduler) Start(auctionID uuid.UUID, interval time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, auctionID)
}

func (f *fakeScheduler) Cancel(auctionID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, auctionID)
}

// testEnv bundles the fakes and fully wired use cases for one test.
type testEnv struct {
	store     *memStore
	auctions  *memAuctionRepo
	bids      *memBidRepo
	mandates  *memMandateRepo
	dutch     *memDutchRepo
	bc        *fakeBroadcaster
	scheduler *fakeScheduler

	createUC     *CreateAuctionUseCase
	listUC       *ListAuctionsUseCase
	submitUC     *SubmitBidUseCase
	mandateUC    *MandateUseCase
	buyUC        *BuyDutchUseCase
	settlementUC *SettlementUseCase
	resolver     *AutoBidResolver
}

func newTestEnv() *testEnv {
	store := newMemStore()
	env := &testEnv{
		store:     store,
		auctions:  &memAuctionRepo{s: store},
		bids:      &memBidRepo{s: store},
		mandates:  &memMandateRepo{s: store},
		dutch:     &memDutchRepo{s: store},
		bc:        &fakeBroadcaster{},
		scheduler: &fakeScheduler{},
	}
	tx := memTxRunner{}
	guard := NewAuctionGuard(lock.NewKeyed(), 2*time.Second, 1, 10*time.Millisecond)
	env.resolver = NewAutoBidResolver(env.bids, env.auctions, env.mandates, tx, env.bc)
	env.createUC = NewCreateAuctionUseCase(env.auctions, env.dutch, tx, env.scheduler)
	env.listUC = NewListAuctionsUseCase(env.auctions, env.dutch)
	env.submitUC = NewSubmitBidUseCase(env.auctions, env.bids, tx, guard, env.resolver, env.bc, 5)
	env.mandateUC = NewMandateUseCase(env.auctions, env.mandates, 1)
	env.buyUC = NewBuyDutchUseCase(env.auctions, env.dutch, guard, env.bc, env.scheduler)
	env.settlementUC = NewSettlementUseCase(env.auctions, env.bids, env.dutch)
	return env
}

// seedAscending stores an ascending auction open around time.Now.
func (env *testEnv) seedAscending(ownerID uuid.UUID) *domain.Auction {
	a := &domain.Auction{
		ID:        uuid.New(),
		Title:     "lot",
		OwnerID:   ownerID,
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
		Kind:      domain.KindAscending,
	}
	_ = env.auctions.Create(context.Background(), nil, a)
	return a
}

// seedDutch stores a Dutch auction open around time.Now, priced at price.
func (env *testEnv) seedDutch(ownerID uuid.UUID, price float64) *domain.Auction {
	a := &domain.Auction{
		ID:        uuid.New(),
		Title:     "lot",
		OwnerID:   ownerID,
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
		Kind:      domain.KindDutch,
	}
	_ = env.auctions.Create(context.Background(), nil, a)
	_ = env.dutch.Create(context.Background(), nil, &domain.DutchState{
		AuctionID:    a.ID,
		StartPrice:   price,
		CurrentPrice: price,
		PriceDrop:    50,
		DropInterval: time.Minute,
	})
	return a
}
