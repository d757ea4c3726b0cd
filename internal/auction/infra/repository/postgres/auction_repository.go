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

// AuctionRepositoryPostgres persists auctions in PostgreSQL.
type AuctionRepositoryPostgres struct {
	pool *pgxpool.Pool
}

func NewAuctionRepositoryPostgres(pool *pgxpool.Pool) *AuctionRepositoryPostgres {
	return &AuctionRepositoryPostgres{pool: pool}
}

const auctionColumns = `id, title, description, owner_id, start_time, end_time, kind, current_bid, created_at`

func scanAuction(row pgx.Row) (*domain.Auction, error) {
	var a domain.Auction
	err := row.Scan(
		&a.ID, &a.Title, &a.Description, &a.OwnerID,
		&a.StartTime, &a.EndTime, &a.Kind, &a.CurrentBid, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AuctionRepositoryPostgres) Create(ctx context.Context, tx pgx.Tx, a *domain.Auction) error {
	query := `INSERT INTO auctions (id, title, description, owner_id, start_time, end_time, kind, current_bid)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := tx.Exec(ctx, query,
		a.ID, a.Title, a.Description, a.OwnerID,
		a.StartTime, a.EndTime, a.Kind, a.CurrentBid,
	)
	if err != nil {
		return fmt.Errorf("insert auction: %w", err)
	}
	return nil
}

func (r *AuctionRepositoryPostgres) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`
	a, err := scanAuction(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("select auction: %w", err)
	}
	return a, nil
}

// ListActive returns auctions whose window is open now. Dutch auctions with a
// winner are excluded; selling ends them early.
func (r *AuctionRepositoryPostgres) ListActive(ctx context.Context) ([]*domain.Auction, error) {
	query := `SELECT a.id, a.title, a.description, a.owner_id, a.start_time, a.end_time, a.kind, a.current_bid, a.created_at
	          FROM auctions a
	          LEFT JOIN dutch_states d ON d.auction_id = a.id
	          WHERE a.start_time <= NOW() AND a.end_time >= NOW() AND d.winner_id IS NULL
	          ORDER BY a.end_time ASC`
	return r.list(ctx, query)
}

func (r *AuctionRepositoryPostgres) ListEnded(ctx context.Context) ([]*domain.Auction, error) {
	query := `SELECT a.id, a.title, a.description, a.owner_id, a.start_time, a.end_time, a.kind, a.current_bid, a.created_at
	          FROM auctions a
	          LEFT JOIN dutch_states d ON d.auction_id = a.id
	          WHERE a.end_time < NOW() OR d.winner_id IS NOT NULL
	          ORDER BY a.end_time DESC`
	return r.list(ctx, query)
}

func (r *AuctionRepositoryPostgres) list(ctx context.Context, query string) ([]*domain.Auction, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan auction: %w", err)
		}
		auctions = append(auctions, a)
	}
	return auctions, rows.Err()
}

func (r *AuctionRepositoryPostgres) SetCurrentBid(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount float64) error {
	tag, err := tx.Exec(ctx, `UPDATE auctions SET current_bid = $2 WHERE id = $1`, id, amount)
	if err != nil {
		return fmt.Errorf("update current bid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAuctionNotFound
	}
	return nil
}
