package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// TxRunner scopes multi-statement writes to one store transaction. Methods
// that take a pgx.Tx must be called inside WithinTx; fakes may pass nil.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

type AuctionRepository interface {
	Create(ctx context.Context, tx pgx.Tx, a *Auction) error
	GetByID(ctx context.Context, id uuid.UUID) (*Auction, error)
	// ListActive returns auctions whose window is open now, excluding Dutch
	// auctions that have been sold.
	ListActive(ctx context.Context) ([]*Auction, error)
	ListEnded(ctx context.Context) ([]*Auction, error)
	SetCurrentBid(ctx context.Context, tx pgx.Tx, id uuid.UUID, amount float64) error
}

type BidRepository interface {
	// Append inserts the bid and fills in its store-assigned Seq.
	Append(ctx context.Context, tx pgx.Tx, b *Bid) error
	// Leader returns the current leading bid (highest amount, earliest seq on
	// ties) or nil when the ledger is empty.
	Leader(ctx context.Context, auctionID uuid.UUID) (*Bid, error)
	ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]*Bid, error)
}

type MandateRepository interface {
	// Upsert atomically replaces any existing mandate for the same
	// (auction, bidder) pair.
	Upsert(ctx context.Context, m *AutoBidMandate) error
	Delete(ctx context.Context, auctionID, bidderID uuid.UUID) error
	Get(ctx context.Context, auctionID, bidderID uuid.UUID) (*AutoBidMandate, error)
	// Eligible returns mandates with max_amount above leading, excluding the
	// current leader, ordered by max_amount descending then creation time
	// ascending.
	Eligible(ctx context.Context, auctionID uuid.UUID, leading float64, leaderID uuid.UUID) ([]*AutoBidMandate, error)
}

type DutchStateRepository interface {
	Create(ctx context.Context, tx pgx.Tx, d *DutchState) error
	Get(ctx context.Context, auctionID uuid.UUID) (*DutchState, error)
	UpdatePrice(ctx context.Context, auctionID uuid.UUID, price float64) error
	// SetWinner freezes winner and final price, failing with ErrAlreadySold
	// when a winner is already set.
	SetWinner(ctx context.Context, auctionID, winnerID uuid.UUID, finalPrice float64) error
	// ListUnsold returns states without a winner, for scheduler rehydration
	// at process start.
	ListUnsold(ctx context.Context) ([]*DutchState, error)
}
