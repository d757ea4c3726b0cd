package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/auctionforge/engine/internal/auction/domain"
)

// MandateRepositoryPostgres persists auto-bid mandates, one per
// (auction, bidder) pair.
type MandateRepositoryPostgres struct {
	pool *pgxpool.Pool
}

func NewMandateRepositoryPostgres(pool *pgxpool.Pool) *MandateRepositoryPostgres {
	return &MandateRepositoryPostgres{pool: pool}
}

// Upsert replaces any previous mandate for the same pair in one statement.
// The original created_at is kept on replace: a replacement updates the
// mandate's terms, not its position in the equal-ceiling tie-break.
func (r *MandateRepositoryPostgres) Upsert(ctx context.Context, m *domain.AutoBidMandate) error {
	query := `INSERT INTO auto_bid_mandates (auction_id, bidder_id, max_amount, increment)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (auction_id, bidder_id)
	          DO UPDATE SET max_amount = EXCLUDED.max_amount,
	                        increment  = EXCLUDED.increment`
	_, err := r.pool.Exec(ctx, query, m.AuctionID, m.BidderID, m.MaxAmount, m.Increment)
	if err != nil {
		return fmt.Errorf("upsert mandate: %w", err)
	}
	return nil
}

// Delete removes the mandate. Deleting a missing mandate is not an error.
func (r *MandateRepositoryPostgres) Delete(ctx context.Context, auctionID, bidderID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM auto_bid_mandates WHERE auction_id = $1 AND bidder_id = $2`,
		auctionID, bidderID,
	)
	if err != nil {
		return fmt.Errorf("delete mandate: %w", err)
	}
	return nil
}

func (r *MandateRepositoryPostgres) Get(ctx context.Context, auctionID, bidderID uuid.UUID) (*domain.AutoBidMandate, error) {
	query := `SELECT auction_id, bidder_id, max_amount, increment, created_at
	          FROM auto_bid_mandates WHERE auction_id = $1 AND bidder_id = $2`
	var m domain.AutoBidMandate
	err := r.pool.QueryRow(ctx, query, auctionID, bidderID).Scan(
		&m.AuctionID, &m.BidderID, &m.MaxAmount, &m.Increment, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMandateNotFound
		}
		return nil, fmt.Errorf("select mandate: %w", err)
	}
	return &m, nil
}

// Eligible returns mandates able to outbid the leading amount, excluding the
// leader's own, highest ceiling first and earliest created on ties.
func (r *MandateRepositoryPostgres) Eligible(ctx context.Context, auctionID uuid.UUID, leading float64, leaderID uuid.UUID) ([]*domain.AutoBidMandate, error) {
	query := `SELECT auction_id, bidder_id, max_amount, increment, created_at
	          FROM auto_bid_mandates
	          WHERE auction_id = $1 AND max_amount > $2 AND bidder_id <> $3
	          ORDER BY max_amount DESC, created_at ASC`
	rows, err := r.pool.Query(ctx, query, auctionID, leading, leaderID)
	if err != nil {
		return nil, fmt.Errorf("list eligible mandates: %w", err)
	}
	defer rows.Close()

	var mandates []*domain.AutoBidMandate
	for rows.Next() {
		var m domain.AutoBidMandate
		if err := rows.Scan(&m.AuctionID, &m.BidderID, &m.MaxAmount, &m.Increment, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan mandate: %w", err)
		}
		mandates = append(mandates, &m)
	}
	return mandates, rows.Err()
}
