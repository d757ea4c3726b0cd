package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auctionforge/engine/internal/auction/domain"
	"github.com/auctionforge/engine/internal/shared/lock"
)

// AuctionGuard enters the per-auction critical section. Every bid, buy and
// scheduler tick for one auction goes through here; operations on different
// auctions never contend.
type AuctionGuard struct {
	locks   *lock.Keyed
	wait    time.Duration
	retries int
	backoff time.Duration
}

func NewAuctionGuard(locks *lock.Keyed, wait time.Duration, retries int, backoff time.Duration) *AuctionGuard {
	return &AuctionGuard{locks: locks, wait: wait, retries: retries, backoff: backoff}
}

// acquire blocks up to wait per attempt, retrying a bounded number of times
// with backoff. Exhaustion surfaces as domain.ErrContended so callers know
// resubmission may succeed.
func (g *AuctionGuard) acquire(ctx context.Context, auctionID uuid.UUID) (func(), error) {
	key := auctionID.String()
	for attempt := 0; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, g.wait)
		release, err := g.locks.Acquire(attemptCtx, key)
		cancel()
		if err == nil {
			return release, nil
		}
		if !errors.Is(err, lock.ErrAcquireTimeout) {
			return nil, err
		}
		if attempt >= g.retries {
			log.Warn("auction critical section contended, giving up",
				zap.String("auctionID", key),
				zap.Int("attempts", attempt+1),
			)
			return nil, domain.ErrContended
		}
		select {
		case <-time.After(g.backoff):
		case <-ctx.Done():
			return nil, domain.ErrContended
		}
	}
}
