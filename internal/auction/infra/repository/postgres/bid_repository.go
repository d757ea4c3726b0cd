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

// BidRepositoryPostgres persists the append-only bid ledger.
type BidRepositoryPostgres struct {
	pool *pgxpool.Pool
}

func NewBidRepositoryPostgres(pool *pgxpool.Pool) *BidRepositoryPostgres {
	return &BidRepositoryPostgres{pool: pool}
}

// Append inserts the bid and fills in the sequence number the store assigned.
func (r *BidRepositoryPostgres) Append(ctx context.Context, tx pgx.Tx, b *domain.Bid) error {
	query := `INSERT INTO bids (id, auction_id, bidder_id, amount, automatic, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING seq`
	err := tx.QueryRow(ctx, query,
		b.ID, b.AuctionID, b.BidderID, b.Amount, b.Automatic, b.CreatedAt,
	).Scan(&b.Seq)
	if err != nil {
		return fmt.Errorf("insert bid: %w", err)
	}
	return nil
}

// Leader returns the winning bid so far: highest amount, earliest sequence on
// ties. Nil when no bids exist.
func (r *BidRepositoryPostgres) Leader(ctx context.Context, auctionID uuid.UUID) (*domain.Bid, error) {
	query := `SELECT id, auction_id, bidder_id, amount, seq, automatic, created_at
	          FROM bids WHERE auction_id = $1
	          ORDER BY amount DESC, seq ASC
	          LIMIT 1`
	var b domain.Bid
	err := r.pool.QueryRow(ctx, query, auctionID).Scan(
		&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.Seq, &b.Automatic, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select leader: %w", err)
	}
	return &b, nil
}

func (r *BidRepositoryPostgres) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*domain.Bid, error) {
	query := `SELECT id, auction_id, bidder_id, amount, seq, automatic, created_at
	          FROM bids WHERE auction_id = $1
	          ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		var b domain.Bid
		if err := rows.Scan(&b.ID, &b.AuctionID, &b.BidderID, &b.Amount, &b.Seq, &b.Automatic, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, &b)
	}
	return bids, rows.Err()
}
