package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auctionforge/engine/internal/auction/application"
	"github.com/auctionforge/engine/internal/auction/domain"
	"github.com/auctionforge/engine/internal/identity"
	"github.com/auctionforge/engine/internal/shared/logger"
)

var log = logger.GetLogger()

// AuctionHandler exposes the auction service over HTTP.
type AuctionHandler struct {
	service application.AuctionService
}

func NewAuctionHandler(service application.AuctionService) *AuctionHandler {
	return &AuctionHandler{service: service}
}

// RegisterRoutes mounts the auction endpoints on the given router. The router
// must already carry the auth middleware.
func (h *AuctionHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/auctions", h.createAuction)
	router.Get("/auctions", h.listAuctions)
	router.Get("/auctions/:id", h.getAuction)
	router.Post("/auctions/:id/bids", h.submitBid)
	router.Put("/auctions/:id/autobid", h.createMandate)
	router.Get("/auctions/:id/autobid", h.getMandate)
	router.Delete("/auctions/:id/autobid", h.deleteMandate)
	router.Post("/auctions/:id/buy", h.buyDutch)
	router.Get("/auctions/:id/settlement", h.getSettlement)
}

type createAuctionRequest struct {
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	Kind                string    `json:"kind"`
	StartPrice          float64   `json:"start_price,omitempty"`
	PriceDrop           float64   `json:"price_drop,omitempty"`
	DropIntervalSeconds int64     `json:"drop_interval_seconds,omitempty"`
}

type bidRequest struct {
	Amount float64 `json:"amount"`
}

type mandateRequest struct {
	MaxAmount float64 `json:"max_amount"`
	Increment float64 `json:"increment"`
}

type auctionResponse struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	OwnerID     uuid.UUID     `json:"owner_id"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     time.Time     `json:"end_time"`
	Kind        domain.Kind   `json:"kind"`
	Status      domain.Status `json:"status"`
	CurrentBid  float64       `json:"current_bid"`
}

func toAuctionResponse(v *application.AuctionView) auctionResponse {
	a := v.Auction
	return auctionResponse{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		OwnerID:     a.OwnerID,
		StartTime:   a.StartTime,
		EndTime:     a.EndTime,
		Kind:        a.Kind,
		Status:      v.Status,
		CurrentBid:  a.CurrentBid,
	}
}

func (h *AuctionHandler) createAuction(c *fiber.Ctx) error {
	ownerID, ok := identity.UserID(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	var req createAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	id, err := h.service.CreateAuction(c.Context(), application.CreateAuctionDTO{
		Title:        req.Title,
		Description:  req.Description,
		OwnerID:      ownerID,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Kind:         domain.Kind(req.Kind),
		StartPrice:   req.StartPrice,
		PriceDrop:    req.PriceDrop,
		DropInterval: time.Duration(req.DropIntervalSeconds) * time.Second,
	})
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

func (h *AuctionHandler) listAuctions(c *fiber.Ctx) error {
	filter := application.ListFilter(c.Query("status"))
	switch filter {
	case "", application.FilterActive, application.FilterEnded:
	default:
		return badRequest(c, "status must be active or ended")
	}
	auctions, err := h.service.ListAuctions(c.Context(), filter)
	if err != nil {
		return mapDomainError(c, err)
	}
	out := make([]auctionResponse, 0, len(auctions))
	for _, v := range auctions {
		out = append(out, toAuctionResponse(v))
	}
	return c.JSON(out)
}

func (h *AuctionHandler) getAuction(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	auction, err := h.service.GetAuction(c.Context(), id)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(toAuctionResponse(auction))
}

func (h *AuctionHandler) submitBid(c *fiber.Ctx) error {
	bidderID, ok := identity.UserID(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	var req bidRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.service.SubmitBid(c.Context(), application.SubmitBidDTO{
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    req.Amount,
	})
	if err != nil && result == nil {
		return mapDomainError(c, err)
	}
	if err != nil {
		// The bid committed but the cascade stopped early; report what stood.
		log.Error("bid accepted with incomplete cascade",
			zap.String("auctionID", auctionID.String()),
			zap.Error(err),
		)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"auction_id": result.AuctionID,
		"amount":     result.Amount,
		"leader_id":  result.NewLeaderID,
		"auto_bids":  result.AutoBids,
	})
}

func (h *AuctionHandler) createMandate(c *fiber.Ctx) error {
	bidderID, ok := identity.UserID(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	var req mandateRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	err = h.service.CreateMandate(c.Context(), application.CreateMandateDTO{
		AuctionID: auctionID,
		BidderID:  bidderID,
		MaxAmount: req.MaxAmount,
		Increment: req.Increment,
	})
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuctionHandler) getMandate(c *fiber.Ctx) error {
	bidderID, ok := identity.UserID(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	mandate, err := h.service.GetMandate(c.Context(), auctionID, bidderID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{
		"auction_id": mandate.AuctionID,
		"max_amount": mandate.MaxAmount,
		"increment":  mandate.Increment,
		"created_at": mandate.CreatedAt,
	})
}

func (h *AuctionHandler) deleteMandate(c *fiber.Ctx) error {
	bidderID, ok := identity.UserID(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	if err := h.service.DeleteMandate(c.Context(), auctionID, bidderID); err != nil {
		return mapDomainError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuctionHandler) buyDutch(c *fiber.Ctx) error {
	buyerID, ok := identity.UserID(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	sale, err := h.service.BuyDutch(c.Context(), auctionID, buyerID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(fiber.Map{
		"auction_id":  sale.AuctionID,
		"winner_id":   sale.WinnerID,
		"final_price": sale.FinalPrice,
	})
}

func (h *AuctionHandler) getSettlement(c *fiber.Ctx) error {
	viewerID, ok := identity.UserID(c)
	if !ok {
		return fiber.ErrUnauthorized
	}
	auctionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return badRequest(c, "invalid auction id")
	}
	settlement, err := h.service.Settlement(c.Context(), auctionID, viewerID)
	if err != nil {
		return mapDomainError(c, err)
	}
	return c.JSON(settlement)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// mapDomainError translates domain sentinels to HTTP statuses. Contention is
// 503 with Retry-After so well-behaved clients resubmit instead of giving up.
func mapDomainError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrAuctionNotFound), errors.Is(err, domain.ErrMandateNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrAlreadySold):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case domain.IsRetryable(err):
		c.Set(fiber.HeaderRetryAfter, "1")
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case domain.IsValidation(err):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Error("internal error", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}
