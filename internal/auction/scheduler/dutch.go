package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auctionforge/engine/internal/auction/domain"
	"github.com/auctionforge/engine/internal/shared/lock"
	"github.com/auctionforge/engine/internal/shared/logger"
)

var log = logger.GetLogger()

// Scheduler owns one price-decay timer per active Dutch auction. Timers are
// started when the auction is created, rehydrated from persisted state at
// process start, and cancelled when the auction reaches a terminal state.
//
// Every tick re-checks start/end/winner from the store rather than trusting
// elapsed-time arithmetic, which keeps behavior correct across restarts.
type Scheduler struct {
	auctionRepo domain.AuctionRepository
	dutchRepo   domain.DutchStateRepository
	locks       *lock.Keyed
	bc          domain.Broadcaster
	lockWait    time.Duration
	now         func() time.Time

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

func New(
	auctionRepo domain.AuctionRepository,
	dutchRepo domain.DutchStateRepository,
	locks *lock.Keyed,
	bc domain.Broadcaster,
	lockWait time.Duration,
) *Scheduler {
	return &Scheduler{
		auctionRepo: auctionRepo,
		dutchRepo:   dutchRepo,
		locks:       locks,
		bc:          bc,
		lockWait:    lockWait,
		now:         time.Now,
		cancels:     make(map[uuid.UUID]context.CancelFunc),
	}
}

// Rehydrate restarts timers for every unsold Dutch auction found in the
// store. Must run once at process start before traffic is accepted.
func (s *Scheduler) Rehydrate(ctx context.Context) error {
	states, err := s.dutchRepo.ListUnsold(ctx)
	if err != nil {
		return err
	}
	restarted := 0
	for _, state := range states {
		auction, err := s.auctionRepo.GetByID(ctx, state.AuctionID)
		if err != nil {
			log.Error("rehydrate: auction lookup failed",
				zap.String("auctionID", state.AuctionID.String()),
				zap.Error(err),
			)
			continue
		}
		if domain.DeriveStatus(auction, state, s.now()) == domain.StatusEnded {
			continue
		}
		s.Start(state.AuctionID, state.DropInterval)
		restarted++
	}
	log.Info("dutch schedulers rehydrated", zap.Int("timers", restarted))
	return nil
}

// Start registers and launches the decay timer for one auction. Starting an
// auction that already has a timer is a no-op.
func (s *Scheduler) Start(auctionID uuid.UUID, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.cancels[auctionID]; running {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancels[auctionID] = cancel
	go s.run(ctx, auctionID, interval)
	log.Info("dutch price-decay timer started",
		zap.String("auctionID", auctionID.String()),
		zap.Duration("interval", interval),
	)
}

// Cancel stops and releases the timer for one auction, if any.
func (s *Scheduler) Cancel(auctionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.cancels[auctionID]; ok {
		cancel()
		delete(s.cancels, auctionID)
	}
}

// Shutdown cancels every running timer.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cancel := range s.cancels {
		cancel()
		delete(s.cancels, id)
	}
}

func (s *Scheduler) run(ctx context.Context, auctionID uuid.UUID, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.tick(auctionID) {
				s.Cancel(auctionID)
				return
			}
		}
	}
}

// tick performs one price drop under the auction's critical section and
// reports whether the auction reached a terminal state. Store errors are
// logged and the timer keeps running so the next tick can retry.
func (s *Scheduler) tick(auctionID uuid.UUID) (done bool) {
	ctx, cancel := context.WithTimeout(context.Background(), s.lockWait)
	defer cancel()

	release, err := s.locks.Acquire(ctx, auctionID.String())
	if err != nil {
		// Contended with a bid or buy; the next tick will get its turn.
		return false
	}
	defer release()

	auction, err := s.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		log.Error("dutch tick: auction lookup failed",
			zap.String("auctionID", auctionID.String()),
			zap.Error(err),
		)
		return false
	}
	state, err := s.dutchRepo.Get(ctx, auctionID)
	if err != nil {
		log.Error("dutch tick: state lookup failed",
			zap.String("auctionID", auctionID.String()),
			zap.Error(err),
		)
		return false
	}

	now := s.now()
	if now.Before(auction.StartTime) {
		return false
	}
	if state.Sold() || now.After(auction.EndTime) {
		return true
	}
	if state.CurrentPrice <= 0 {
		return true
	}

	newPrice := state.NextPrice()
	if err := s.dutchRepo.UpdatePrice(ctx, auctionID, newPrice); err != nil {
		log.Error("dutch tick: price update failed",
			zap.String("auctionID", auctionID.String()),
			zap.Error(err),
		)
		return false
	}

	log.Info("dutch price dropped",
		zap.String("auctionID", auctionID.String()),
		zap.Float64("newPrice", newPrice),
	)
	s.bc.Emit(domain.Event{
		Type:      domain.EventPriceUpdated,
		AuctionID: auctionID,
		Payload:   domain.PriceUpdatedPayload{NewPrice: newPrice},
	})

	return newPrice <= 0
}
