package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/auctionforge/engine/internal/auction/domain"
)

// DutchStateRepositoryPostgres persists Dutch auction pricing state.
type DutchStateRepositoryPostgres struct {
	pool *pgxpool.Pool
}

func NewDutchStateRepositoryPostgres(pool *pgxpool.Pool) *DutchStateRepositoryPostgres {
	return &DutchStateRepositoryPostgres{pool: pool}
}

func (r *DutchStateRepositoryPostgres) Create(ctx context.Context, tx pgx.Tx, d *domain.DutchState) error {
	query := `INSERT INTO dutch_states (auction_id, start_price, current_price, price_drop, drop_interval_seconds)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := tx.Exec(ctx, query,
		d.AuctionID, d.StartPrice, d.CurrentPrice, d.PriceDrop, int64(d.DropInterval/time.Second),
	)
	if err != nil {
		return fmt.Errorf("insert dutch state: %w", err)
	}
	return nil
}

func (r *DutchStateRepositoryPostgres) Get(ctx context.Context, auctionID uuid.UUID) (*domain.DutchState, error) {
	query := `SELECT auction_id, start_price, current_price, price_drop, drop_interval_seconds, winner_id, final_price
	          FROM dutch_states WHERE auction_id = $1`
	d, err := scanDutchState(r.pool.QueryRow(ctx, query, auctionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, fmt.Errorf("select dutch state: %w", err)
	}
	return d, nil
}

func (r *DutchStateRepositoryPostgres) UpdatePrice(ctx context.Context, auctionID uuid.UUID, price float64) error {
	// Never touch a sold auction; its price is frozen at the sale.
	tag, err := r.pool.Exec(ctx,
		`UPDATE dutch_states SET current_price = $2 WHERE auction_id = $1 AND winner_id IS NULL`,
		auctionID, price,
	)
	if err != nil {
		return fmt.Errorf("update dutch price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadySold
	}
	return nil
}

// SetWinner freezes the winner and final price. The WHERE clause makes the
// first buyer win; any later attempt affects zero rows.
func (r *DutchStateRepositoryPostgres) SetWinner(ctx context.Context, auctionID, winnerID uuid.UUID, finalPrice float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE dutch_states SET winner_id = $2, final_price = $3 WHERE auction_id = $1 AND winner_id IS NULL`,
		auctionID, winnerID, finalPrice,
	)
	if err != nil {
		return fmt.Errorf("set dutch winner: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadySold
	}
	return nil
}

func (r *DutchStateRepositoryPostgres) ListUnsold(ctx context.Context) ([]*domain.DutchState, error) {
	query := `SELECT auction_id, start_price, current_price, price_drop, drop_interval_seconds, winner_id, final_price
	          FROM dutch_states WHERE winner_id IS NULL`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list unsold dutch states: %w", err)
	}
	defer rows.Close()

	var states []*domain.DutchState
	for rows.Next() {
		d, err := scanDutchState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dutch state: %w", err)
		}
		states = append(states, d)
	}
	return states, rows.Err()
}

func scanDutchState(row pgx.Row) (*domain.DutchState, error) {
	var d domain.DutchState
	var intervalSeconds int64
	err := row.Scan(
		&d.AuctionID, &d.StartPrice, &d.CurrentPrice, &d.PriceDrop,
		&intervalSeconds, &d.WinnerID, &d.FinalPrice,
	)
	if err != nil {
		return nil, err
	}
	d.DropInterval = time.Duration(intervalSeconds) * time.Second
	return &d, nil
}
