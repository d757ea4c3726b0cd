package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auctionforge/engine/internal/auction/domain"
)

// SaleResult reports a completed Dutch purchase.
type SaleResult struct {
	AuctionID  uuid.UUID
	WinnerID   uuid.UUID
	FinalPrice float64
}

// BuyDutchUseCase accepts the current price of a Dutch auction. The buy and
// the scheduler tick contend for the same per-auction critical section:
// whichever commits first wins, and of two concurrent buyers exactly one
// succeeds.
type BuyDutchUseCase struct {
	auctionRepo domain.AuctionRepository
	dutchRepo   domain.DutchStateRepository
	guard       *AuctionGuard
	bc          domain.Broadcaster
	scheduler   DutchScheduler
	now         func() time.Time
}

func NewBuyDutchUseCase(
	auctionRepo domain.AuctionRepository,
	dutchRepo domain.DutchStateRepository,
	guard *AuctionGuard,
	bc domain.Broadcaster,
	scheduler DutchScheduler,
) *BuyDutchUseCase {
	return &BuyDutchUseCase{
		auctionRepo: auctionRepo,
		dutchRepo:   dutchRepo,
		guard:       guard,
		bc:          bc,
		scheduler:   scheduler,
		now:         time.Now,
	}
}

func (uc *BuyDutchUseCase) Execute(ctx context.Context, auctionID, buyerID uuid.UUID) (*SaleResult, error) {
	release, err := uc.guard.acquire(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	defer release()

	auction, err := uc.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("buy dutch: load auction %s: %w", auctionID, err)
	}
	if auction.Kind != domain.KindDutch {
		return nil, uc.reject(auctionID, buyerID, domain.ErrWrongAuctionKind)
	}
	if buyerID == auction.OwnerID {
		return nil, uc.reject(auctionID, buyerID, domain.ErrOwnerSelfBuy)
	}

	state, err := uc.dutchRepo.Get(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("buy dutch: load state %s: %w", auctionID, err)
	}
	if state.Sold() {
		return nil, uc.reject(auctionID, buyerID, domain.ErrAlreadySold)
	}
	now := uc.now()
	if now.Before(auction.StartTime) {
		return nil, uc.reject(auctionID, buyerID, domain.ErrAuctionNotActive)
	}
	if now.After(auction.EndTime) {
		return nil, uc.reject(auctionID, buyerID, domain.ErrAuctionEnded)
	}

	finalPrice := state.CurrentPrice
	if err := uc.dutchRepo.SetWinner(ctx, auctionID, buyerID, finalPrice); err != nil {
		return nil, fmt.Errorf("buy dutch: set winner for %s: %w", auctionID, err)
	}

	log.Info("dutch auction sold",
		zap.String("auctionID", auctionID.String()),
		zap.String("winnerID", buyerID.String()),
		zap.Float64("finalPrice", finalPrice),
	)
	uc.bc.Emit(domain.Event{
		Type:      domain.EventSold,
		AuctionID: auctionID,
		Payload: domain.SoldPayload{
			WinnerID:   buyerID,
			FinalPrice: finalPrice,
		},
	})
	uc.scheduler.Cancel(auctionID)

	return &SaleResult{AuctionID: auctionID, WinnerID: buyerID, FinalPrice: finalPrice}, nil
}

func (uc *BuyDutchUseCase) reject(auctionID, buyerID uuid.UUID, reason error) error {
	log.Warn("dutch buy rejected",
		zap.String("auctionID", auctionID.String()),
		zap.String("buyerID", buyerID.String()),
		zap.Error(reason),
	)
	uc.bc.EmitTo(buyerID, domain.Event{
		Type:      domain.EventBidRejected,
		AuctionID: auctionID,
		Payload: domain.BidRejectedPayload{
			RequesterID: buyerID,
			Reason:      reason.Error(),
		},
	})
	return reason
}
