package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/auctionforge/engine/internal/auction/domain"
)

// SettlementDTO is the outcome of an ended auction as seen by one viewer.
type SettlementDTO struct {
	AuctionID  uuid.UUID   `json:"auction_id"`
	HasWinner  bool        `json:"has_winner"`
	WinnerID   *uuid.UUID  `json:"winner_id,omitempty"`
	FinalPrice float64     `json:"final_price"`
	Role       domain.Role `json:"role"`
}

// SettlementUseCase computes auction outcomes at read time. It has no side
// effects and returns the same answer every time it is asked.
type SettlementUseCase struct {
	auctionRepo domain.AuctionRepository
	bidRepo     domain.BidRepository
	dutchRepo   domain.DutchStateRepository
	now         func() time.Time
}

func NewSettlementUseCase(auctionRepo domain.AuctionRepository, bidRepo domain.BidRepository, dutchRepo domain.DutchStateRepository) *SettlementUseCase {
	return &SettlementUseCase{
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		dutchRepo:   dutchRepo,
		now:         time.Now,
	}
}

func (uc *SettlementUseCase) Execute(ctx context.Context, auctionID, viewerID uuid.UUID) (*SettlementDTO, error) {
	auction, err := uc.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("settlement: load auction %s: %w", auctionID, err)
	}

	var outcome domain.Outcome
	participated := false

	switch auction.Kind {
	case domain.KindDutch:
		state, err := uc.dutchRepo.Get(ctx, auctionID)
		if err != nil {
			return nil, fmt.Errorf("settlement: load state %s: %w", auctionID, err)
		}
		if domain.DeriveStatus(auction, state, uc.now()) != domain.StatusEnded {
			return nil, domain.ErrAuctionNotEnded
		}
		outcome = domain.SettleDutch(state)
	default:
		if domain.DeriveStatus(auction, nil, uc.now()) != domain.StatusEnded {
			return nil, domain.ErrAuctionNotEnded
		}
		bids, err := uc.bidRepo.ListByAuction(ctx, auctionID)
		if err != nil {
			return nil, fmt.Errorf("settlement: load bids %s: %w", auctionID, err)
		}
		outcome = domain.SettleAscending(bids)
		for _, b := range bids {
			if b.BidderID == viewerID {
				participated = true
				break
			}
		}
	}

	dto := &SettlementDTO{
		AuctionID:  auctionID,
		HasWinner:  outcome.HasWinner,
		FinalPrice: outcome.FinalPrice,
		Role:       domain.RoleFor(auction, outcome, viewerID, participated),
	}
	if outcome.HasWinner {
		id := outcome.WinnerID
		dto.WinnerID = &id
	}
	return dto, nil
}
