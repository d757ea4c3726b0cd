package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auctionforge/engine/internal/auction/domain"
)

// CreateMandateDTO carries a standing auto-bid instruction.
type CreateMandateDTO struct {
	AuctionID uuid.UUID
	BidderID  uuid.UUID
	MaxAmount float64
	Increment float64
}

// MandateUseCase creates and deletes auto-bid mandates. Creation upserts:
// a second mandate for the same (auction, bidder) pair atomically replaces
// the first. Deletion is idempotent.
type MandateUseCase struct {
	auctionRepo  domain.AuctionRepository
	mandateRepo  domain.MandateRepository
	minIncrement float64
	now          func() time.Time
}

func NewMandateUseCase(auctionRepo domain.AuctionRepository, mandateRepo domain.MandateRepository, minIncrement float64) *MandateUseCase {
	return &MandateUseCase{
		auctionRepo:  auctionRepo,
		mandateRepo:  mandateRepo,
		minIncrement: minIncrement,
		now:          time.Now,
	}
}

func (uc *MandateUseCase) Create(ctx context.Context, cmd CreateMandateDTO) error {
	auction, err := uc.auctionRepo.GetByID(ctx, cmd.AuctionID)
	if err != nil {
		return fmt.Errorf("create mandate: load auction %s: %w", cmd.AuctionID, err)
	}
	if auction.Kind != domain.KindAscending {
		return domain.ErrWrongAuctionKind
	}
	if cmd.BidderID == auction.OwnerID {
		return domain.ErrOwnerSelfBid
	}
	if domain.DeriveStatus(auction, nil, uc.now()) == domain.StatusEnded {
		return domain.ErrAuctionNotActive
	}
	if !domain.AmountExceeds(cmd.MaxAmount, auction.CurrentBid) {
		return domain.ErrBidTooLow
	}

	mandate, err := domain.NewAutoBidMandate(cmd.AuctionID, cmd.BidderID, cmd.MaxAmount, cmd.Increment, uc.minIncrement)
	if err != nil {
		return err
	}
	if err := uc.mandateRepo.Upsert(ctx, mandate); err != nil {
		return fmt.Errorf("create mandate: upsert for %s: %w", cmd.AuctionID, err)
	}

	log.Info("auto-bid mandate stored",
		zap.String("auctionID", cmd.AuctionID.String()),
		zap.String("bidderID", cmd.BidderID.String()),
		zap.Float64("maxAmount", cmd.MaxAmount),
		zap.Float64("increment", cmd.Increment),
	)
	return nil
}

func (uc *MandateUseCase) Delete(ctx context.Context, auctionID, bidderID uuid.UUID) error {
	if err := uc.mandateRepo.Delete(ctx, auctionID, bidderID); err != nil {
		return fmt.Errorf("delete mandate for %s: %w", auctionID, err)
	}
	log.Info("auto-bid mandate deleted",
		zap.String("auctionID", auctionID.String()),
		zap.String("bidderID", bidderID.String()),
	)
	return nil
}

func (uc *MandateUseCase) Get(ctx context.Context, auctionID, bidderID uuid.UUID) (*domain.AutoBidMandate, error) {
	return uc.mandateRepo.Get(ctx, auctionID, bidderID)
}
