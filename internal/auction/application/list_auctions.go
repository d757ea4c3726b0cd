package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/auctionforge/engine/internal/auction/domain"
)

// ListFilter selects which partition of auctions to return.
type ListFilter string

const (
	FilterActive ListFilter = "active"
	FilterEnded  ListFilter = "ended"
)

// AuctionView pairs an auction with its status derived at read time. Status
// derivation needs the Dutch state: a sold Dutch auction is ended even while
// its time window is still open.
type AuctionView struct {
	Auction *domain.Auction
	Status  domain.Status
}

// ListAuctionsUseCase exposes the registry's partitioned reads. Both reads
// go straight to the store: bid timing correctness depends on always
// observing true auction state, so there is no cache in front.
type ListAuctionsUseCase struct {
	auctionRepo domain.AuctionRepository
	dutchRepo   domain.DutchStateRepository
	now         func() time.Time
}

func NewListAuctionsUseCase(auctionRepo domain.AuctionRepository, dutchRepo domain.DutchStateRepository) *ListAuctionsUseCase {
	return &ListAuctionsUseCase{
		auctionRepo: auctionRepo,
		dutchRepo:   dutchRepo,
		now:         time.Now,
	}
}

func (uc *ListAuctionsUseCase) Execute(ctx context.Context, filter ListFilter) ([]*AuctionView, error) {
	var (
		auctions []*domain.Auction
		err      error
	)
	switch filter {
	case FilterEnded:
		auctions, err = uc.auctionRepo.ListEnded(ctx)
	case FilterActive, "":
		auctions, err = uc.auctionRepo.ListActive(ctx)
	default:
		return nil, fmt.Errorf("unknown auction filter %q", filter)
	}
	if err != nil {
		return nil, err
	}

	now := uc.now()
	views := make([]*AuctionView, 0, len(auctions))
	for _, a := range auctions {
		v, err := uc.view(ctx, a, now)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (uc *ListAuctionsUseCase) Get(ctx context.Context, id uuid.UUID) (*AuctionView, error) {
	a, err := uc.auctionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.view(ctx, a, uc.now())
}

func (uc *ListAuctionsUseCase) view(ctx context.Context, a *domain.Auction, now time.Time) (*AuctionView, error) {
	var state *domain.DutchState
	if a.Kind == domain.KindDutch {
		s, err := uc.dutchRepo.Get(ctx, a.ID)
		if err != nil {
			return nil, fmt.Errorf("load dutch state for %s: %w", a.ID, err)
		}
		state = s
	}
	return &AuctionView{Auction: a, Status: domain.DeriveStatus(a, state, now)}, nil
}
