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

// AutoBidResolver applies the chain of automatic counter-bids triggered by a
// new leading bid. It always runs inside the caller's per-auction critical
// section, so the whole cascade becomes visible atomically.
//
// Each step strictly raises the leading amount and a mandate's ceiling is
// fixed, so every mandate drops out of eligibility after finitely many steps
// and the loop terminates.
type AutoBidResolver struct {
	bidRepo     domain.BidRepository
	auctionRepo domain.AuctionRepository
	mandateRepo domain.MandateRepository
	tx          domain.TxRunner
	bc          domain.Broadcaster
	now         func() time.Time
}

func NewAutoBidResolver(
	bidRepo domain.BidRepository,
	auctionRepo domain.AuctionRepository,
	mandateRepo domain.MandateRepository,
	tx domain.TxRunner,
	bc domain.Broadcaster,
) *AutoBidResolver {
	return &AutoBidResolver{
		bidRepo:     bidRepo,
		auctionRepo: auctionRepo,
		mandateRepo: mandateRepo,
		tx:          tx,
		bc:          bc,
		now:         time.Now,
	}
}

// Run cascades from the given leading amount and leader until no mandate is
// eligible. Steps already committed are never rolled back: on a mid-cascade
// failure the error is returned together with the completed steps.
func (r *AutoBidResolver) Run(ctx context.Context, auction *domain.Auction, leading float64, leaderID uuid.UUID) ([]AutoBidStep, error) {
	var steps []AutoBidStep

	for {
		// The auction may run out mid-cascade; halt without error.
		if domain.DeriveStatus(auction, nil, r.now()) != domain.StatusActive {
			log.Info("autobid cascade halted, auction no longer active",
				zap.String("auctionID", auction.ID.String()),
				zap.Int("steps", len(steps)),
			)
			return steps, nil
		}

		candidates, err := r.mandateRepo.Eligible(ctx, auction.ID, leading, leaderID)
		if err != nil {
			return steps, fmt.Errorf("eligible mandates: %w", err)
		}
		if len(candidates) == 0 {
			return steps, nil
		}

		m := candidates[0]
		if m.BidderID == auction.OwnerID {
			// Ownership is checked at mandate creation; re-verify anyway and
			// drop the mandate rather than let the owner outbid the floor.
			log.Warn("owner mandate encountered, removing",
				zap.String("auctionID", auction.ID.String()),
				zap.String("bidderID", m.BidderID.String()),
			)
			if err := r.mandateRepo.Delete(ctx, auction.ID, m.BidderID); err != nil {
				return steps, fmt.Errorf("remove owner mandate: %w", err)
			}
			continue
		}

		amount := m.NextAmount(leading)
		prevLeader := leaderID
		bid := domain.NewBid(uuid.New(), auction.ID, m.BidderID, amount, true, r.now())
		err = r.tx.WithinTx(ctx, func(tx pgx.Tx) error {
			if err := r.bidRepo.Append(ctx, tx, bid); err != nil {
				return err
			}
			return r.auctionRepo.SetCurrentBid(ctx, tx, auction.ID, amount)
		})
		if err != nil {
			return steps, fmt.Errorf("append automatic bid: %w", err)
		}

		steps = append(steps, AutoBidStep{BidderID: m.BidderID, Amount: amount})
		log.Info("automatic bid accepted",
			zap.String("auctionID", auction.ID.String()),
			zap.String("bidderID", m.BidderID.String()),
			zap.Float64("amount", amount),
		)
		r.bc.Emit(domain.Event{
			Type:      domain.EventBidAccepted,
			AuctionID: auction.ID,
			Payload: domain.BidAcceptedPayload{
				BidderID:         m.BidderID,
				Amount:           amount,
				PreviousLeaderID: &prevLeader,
				Automatic:        true,
			},
		})

		leading = amount
		leaderID = m.BidderID
		auction.CurrentBid = amount
	}
}
