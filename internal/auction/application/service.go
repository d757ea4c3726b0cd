package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/auctionforge/engine/internal/auction/domain"
)

// AuctionService is the application surface of the auction module, exposed
// to the transport layers (HTTP and WebSocket).
type AuctionService interface {
	CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (uuid.UUID, error)
	ListAuctions(ctx context.Context, filter ListFilter) ([]*AuctionView, error)
	GetAuction(ctx context.Context, id uuid.UUID) (*AuctionView, error)
	SubmitBid(ctx context.Context, cmd SubmitBidDTO) (*BidResult, error)
	CreateMandate(ctx context.Context, cmd CreateMandateDTO) error
	DeleteMandate(ctx context.Context, auctionID, bidderID uuid.UUID) error
	GetMandate(ctx context.Context, auctionID, bidderID uuid.UUID) (*domain.AutoBidMandate, error)
	BuyDutch(ctx context.Context, auctionID, buyerID uuid.UUID) (*SaleResult, error)
	Settlement(ctx context.Context, auctionID, viewerID uuid.UUID) (*SettlementDTO, error)
}

type auctionService struct {
	createUC     *CreateAuctionUseCase
	listUC       *ListAuctionsUseCase
	submitBidUC  *SubmitBidUseCase
	mandateUC    *MandateUseCase
	buyDutchUC   *BuyDutchUseCase
	settlementUC *SettlementUseCase
}

func NewAuctionService(
	createUC *CreateAuctionUseCase,
	listUC *ListAuctionsUseCase,
	submitBidUC *SubmitBidUseCase,
	mandateUC *MandateUseCase,
	buyDutchUC *BuyDutchUseCase,
	settlementUC *SettlementUseCase,
) AuctionService {
	return &auctionService{
		createUC:     createUC,
		listUC:       listUC,
		submitBidUC:  submitBidUC,
		mandateUC:    mandateUC,
		buyDutchUC:   buyDutchUC,
		settlementUC: settlementUC,
	}
}

func (s *auctionService) CreateAuction(ctx context.Context, cmd CreateAuctionDTO) (uuid.UUID, error) {
	return s.createUC.Execute(ctx, cmd)
}

func (s *auctionService) ListAuctions(ctx context.Context, filter ListFilter) ([]*AuctionView, error) {
	return s.listUC.Execute(ctx, filter)
}

func (s *auctionService) GetAuction(ctx context.Context, id uuid.UUID) (*AuctionView, error) {
	return s.listUC.Get(ctx, id)
}

func (s *auctionService) SubmitBid(ctx context.Context, cmd SubmitBidDTO) (*BidResult, error) {
	return s.submitBidUC.Execute(ctx, cmd)
}

func (s *auctionService) CreateMandate(ctx context.Context, cmd CreateMandateDTO) error {
	return s.mandateUC.Create(ctx, cmd)
}

func (s *auctionService) DeleteMandate(ctx context.Context, auctionID, bidderID uuid.UUID) error {
	return s.mandateUC.Delete(ctx, auctionID, bidderID)
}

func (s *auctionService) GetMandate(ctx context.Context, auctionID, bidderID uuid.UUID) (*domain.AutoBidMandate, error) {
	return s.mandateUC.Get(ctx, auctionID, bidderID)
}

func (s *auctionService) BuyDutch(ctx context.Context, auctionID, buyerID uuid.UUID) (*SaleResult, error) {
	return s.buyDutchUC.Execute(ctx, auctionID, buyerID)
}

func (s *auctionService) Settlement(ctx context.Context, auctionID, viewerID uuid.UUID) (*SettlementDTO, error) {
	return s.settlementUC.Execute(ctx, auctionID, viewerID)
}
