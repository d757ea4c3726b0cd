package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/auctionforge/engine/internal/auction/domain"
	"github.com/auctionforge/engine/internal/shared/logger"
)

var log = logger.GetLogger()

// SubmitBidDTO is the input for placing a manual bid on an ascending auction.
type SubmitBidDTO struct {
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	Amount    float64
}

// AutoBidStep is one automatic counter-bid produced by the resolver cascade.
type AutoBidStep struct {
	BidderID uuid.UUID `json:"bidder_id"`
	Amount   float64   `json:"amount"`
}

// BidResult reports an accepted bid together with the cascade it triggered.
type BidResult struct {
	AuctionID        uuid.UUID
	PreviousLeaderID *uuid.UUID
	NewLeaderID      uuid.UUID
	Amount           float64
	AutoBids         []AutoBidStep
}

// SubmitBidUseCase appends manual bids to the ascending ledger. The leader
// lookup, insert, leading-amount update and the full autobid cascade run
// inside one per-auction critical section, so no two bids for the same
// auction can both observe the same leading amount and both succeed.
type SubmitBidUseCase struct {
	auctionRepo domain.AuctionRepository
	bidRepo     domain.BidRepository
	tx          domain.TxRunner
	guard       *AuctionGuard
	resolver    *AutoBidResolver
	bc          domain.Broadcaster
	minBidFloor float64
	now         func() time.Time
}

func NewSubmitBidUseCase(
	auctionRepo domain.AuctionRepository,
	bidRepo domain.BidRepository,
	tx domain.TxRunner,
	guard *AuctionGuard,
	resolver *AutoBidResolver,
	bc domain.Broadcaster,
	minBidFloor float64,
) *SubmitBidUseCase {
	return &SubmitBidUseCase{
		auctionRepo: auctionRepo,
		bidRepo:     bidRepo,
		tx:          tx,
		guard:       guard,
		resolver:    resolver,
		bc:          bc,
		minBidFloor: minBidFloor,
		now:         time.Now,
	}
}

func (uc *SubmitBidUseCase) Execute(ctx context.Context, cmd SubmitBidDTO) (*BidResult, error) {
	if cmd.Amount <= 0 {
		return nil, uc.reject(cmd, domain.ErrInvalidAmount)
	}

	release, err := uc.guard.acquire(ctx, cmd.AuctionID)
	if err != nil {
		return nil, err
	}
	defer release()

	auction, err := uc.auctionRepo.GetByID(ctx, cmd.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("submit bid: load auction %s: %w", cmd.AuctionID, err)
	}
	if auction.Kind != domain.KindAscending {
		return nil, uc.reject(cmd, domain.ErrWrongAuctionKind)
	}
	if cmd.BidderID == auction.OwnerID {
		return nil, uc.reject(cmd, domain.ErrOwnerSelfBid)
	}
	if domain.DeriveStatus(auction, nil, uc.now()) != domain.StatusActive {
		return nil, uc.reject(cmd, domain.ErrAuctionNotActive)
	}
	if !domain.MeetsFloor(cmd.Amount, uc.minBidFloor) || !domain.AmountExceeds(cmd.Amount, auction.CurrentBid) {
		return nil, uc.reject(cmd, domain.ErrBidTooLow)
	}

	prev, err := uc.bidRepo.Leader(ctx, cmd.AuctionID)
	if err != nil {
		return nil, fmt.Errorf("submit bid: leader lookup for %s: %w", cmd.AuctionID, err)
	}

	bid := domain.NewBid(uuid.New(), cmd.AuctionID, cmd.BidderID, cmd.Amount, false, uc.now())
	err = uc.tx.WithinTx(ctx, func(tx pgx.Tx) error {
		if err := uc.bidRepo.Append(ctx, tx, bid); err != nil {
			return err
		}
		return uc.auctionRepo.SetCurrentBid(ctx, tx, cmd.AuctionID, cmd.Amount)
	})
	if err != nil {
		return nil, fmt.Errorf("submit bid: append for %s: %w", cmd.AuctionID, err)
	}

	result := &BidResult{
		AuctionID:   cmd.AuctionID,
		NewLeaderID: cmd.BidderID,
		Amount:      cmd.Amount,
	}
	var prevID *uuid.UUID
	if prev != nil {
		id := prev.BidderID
		prevID = &id
		result.PreviousLeaderID = &id
	}

	log.Info("bid accepted",
		zap.String("auctionID", cmd.AuctionID.String()),
		zap.String("bidderID", cmd.BidderID.String()),
		zap.Float64("amount", cmd.Amount),
	)
	uc.bc.Emit(domain.Event{
		Type:      domain.EventBidAccepted,
		AuctionID: cmd.AuctionID,
		Payload: domain.BidAcceptedPayload{
			BidderID:         cmd.BidderID,
			Amount:           cmd.Amount,
			PreviousLeaderID: prevID,
			Automatic:        false,
		},
	})

	auction.CurrentBid = cmd.Amount
	steps, cascadeErr := uc.resolver.Run(ctx, auction, cmd.Amount, cmd.BidderID)
	result.AutoBids = steps
	if cascadeErr != nil {
		// Committed cascade steps stand; the next bid or tick re-evaluates
		// remaining mandates from true state.
		return result, fmt.Errorf("submit bid: autobid cascade for %s: %w", cmd.AuctionID, cascadeErr)
	}

	return result, nil
}

func (uc *SubmitBidUseCase) reject(cmd SubmitBidDTO, reason error) error {
	log.Warn("bid rejected",
		zap.String("auctionID", cmd.AuctionID.String()),
		zap.String("bidderID", cmd.BidderID.String()),
		zap.Float64("amount", cmd.Amount),
		zap.Error(reason),
	)
	uc.bc.EmitTo(cmd.BidderID, domain.Event{
		Type:      domain.EventBidRejected,
		AuctionID: cmd.AuctionID,
		Payload: domain.BidRejectedPayload{
			RequesterID: cmd.BidderID,
			Reason:      reason.Error(),
		},
	})
	return reason
}
