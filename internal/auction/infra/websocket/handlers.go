package websocket

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auctionforge/engine/internal/auction/application"
	"github.com/auctionforge/engine/internal/auction/domain"
	"github.com/auctionforge/engine/internal/shared/logger"
	ws "github.com/auctionforge/engine/internal/shared/websocket"
)

var log = logger.GetLogger()

// MessageHandler consumes inbound hub frames and dispatches them to the
// auction service. Run one instance per process.
type MessageHandler struct {
	hub     *ws.Hub
	service application.AuctionService
}

func NewMessageHandler(hub *ws.Hub, service application.AuctionService) *MessageHandler {
	return &MessageHandler{hub: hub, service: service}
}

// Run drains the hub's inbound channel until ctx is cancelled. Each frame is
// handled in its own goroutine so a contended auction cannot stall the rest.
func (h *MessageHandler) Run(ctx context.Context) {
	log.Info("websocket message handler started")
	for {
		select {
		case <-ctx.Done():
			log.Info("websocket message handler shutting down")
			return
		case msg := <-h.hub.InboundMessages:
			go h.handle(ctx, msg)
		}
	}
}

func (h *MessageHandler) handle(ctx context.Context, msg *ws.ClientMessage) {
	auctionID, err := uuid.Parse(msg.Client.AuctionID)
	if err != nil {
		h.replyError(msg.Client, "invalid auction id")
		return
	}
	userID, err := uuid.Parse(msg.Client.UserID)
	if err != nil {
		h.replyError(msg.Client, "invalid user id")
		return
	}

	var in InboundMessage
	if err := json.Unmarshal(msg.Data, &in); err != nil {
		h.replyError(msg.Client, "malformed message")
		return
	}

	switch in.Type {
	case MessageTypeBid:
		_, err := h.service.SubmitBid(ctx, application.SubmitBidDTO{
			AuctionID: auctionID,
			BidderID:  userID,
			Amount:    in.Amount,
		})
		// Validation rejections are unicast by the use case already; only
		// retryable contention needs a direct reply here.
		if err != nil && domain.IsRetryable(err) {
			h.replyError(msg.Client, err.Error())
		}
		if err != nil && !domain.IsValidation(err) && !domain.IsRetryable(err) {
			log.Error("websocket bid failed",
				zap.String("auctionID", msg.Client.AuctionID),
				zap.Error(err),
			)
		}

	case MessageTypeBuy:
		_, err := h.service.BuyDutch(ctx, auctionID, userID)
		if err != nil && domain.IsRetryable(err) {
			h.replyError(msg.Client, err.Error())
		}
		if err != nil && !domain.IsValidation(err) && !domain.IsRetryable(err) {
			log.Error("websocket buy failed",
				zap.String("auctionID", msg.Client.AuctionID),
				zap.Error(err),
			)
		}

	default:
		h.replyError(msg.Client, "unknown message type")
	}
}

func (h *MessageHandler) replyError(client *ws.Client, reason string) {
	data, err := json.Marshal(ErrorMessage{Type: "error", Error: reason})
	if err != nil {
		return
	}
	// Send channels belong to the hub loop, which closes them when it drops a
	// client; routing through the hub keeps this safe for clients that
	// disconnect while the frame is in flight.
	h.hub.SendToUser(client.UserID, data)
}
