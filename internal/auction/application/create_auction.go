package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/auctionforge/engine/internal/auction/domain"
)

// DutchScheduler is the slice of the price-decay scheduler the use cases
// need: start a timer when a Dutch auction is created, cancel it on sale.
type DutchScheduler interface {
	Start(auctionID uuid.UUID, interval time.Duration)
	Cancel(auctionID uuid.UUID)
}

// CreateAuctionDTO carries the auction spec. The Dutch fields are ignored
// for ascending auctions.
type CreateAuctionDTO struct {
	Title        string
	Description  string
	OwnerID      uuid.UUID
	StartTime    time.Time
	EndTime      time.Time
	Kind         domain.Kind
	StartPrice   float64
	PriceDrop    float64
	DropInterval time.Duration
}

// CreateAuctionUseCase persists a new auction and, for Dutch auctions, its
// decay state plus the per-auction timer, in one transaction.
type CreateAuctionUseCase struct {
	auctionRepo domain.AuctionRepository
	dutchRepo   domain.DutchStateRepository
	tx          domain.TxRunner
	scheduler   DutchScheduler
}

func NewCreateAuctionUseCase(
	auctionRepo domain.AuctionRepository,
	dutchRepo domain.DutchStateRepository,
	tx domain.TxRunner,
	scheduler DutchScheduler,
) *CreateAuctionUseCase {
	return &CreateAuctionUseCase{
		auctionRepo: auctionRepo,
		dutchRepo:   dutchRepo,
		tx:          tx,
		scheduler:   scheduler,
	}
}

func (uc *CreateAuctionUseCase) Execute(ctx context.Context, cmd CreateAuctionDTO) (uuid.UUID, error) {
	if cmd.Kind != domain.KindAscending && cmd.Kind != domain.KindDutch {
		return uuid.Nil, domain.ErrWrongAuctionKind
	}

	auction, err := domain.NewAuction(uuid.New(), cmd.Title, cmd.Description, cmd.OwnerID, cmd.StartTime, cmd.EndTime, cmd.Kind)
	if err != nil {
		return uuid.Nil, err
	}

	var state *domain.DutchState
	if cmd.Kind == domain.KindDutch {
		state, err = domain.NewDutchState(auction.ID, cmd.StartPrice, cmd.PriceDrop, cmd.DropInterval)
		if err != nil {
			return uuid.Nil, err
		}
	}

	err = uc.tx.WithinTx(ctx, func(tx pgx.Tx) error {
		if err := uc.auctionRepo.Create(ctx, tx, auction); err != nil {
			return err
		}
		if state != nil {
			return uc.dutchRepo.Create(ctx, tx, state)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("create auction: %w", err)
	}

	if state != nil {
		uc.scheduler.Start(auction.ID, state.DropInterval)
	}

	log.Info("auction created",
		zap.String("auctionID", auction.ID.String()),
		zap.String("kind", string(cmd.Kind)),
		zap.Time("endTime", cmd.EndTime),
	)
	return auction.ID, nil
}
