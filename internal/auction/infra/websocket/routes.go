package websocket

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	ws "github.com/auctionforge/engine/internal/shared/websocket"
)

// RegisterRoutes mounts the live auction stream. The router must already
// carry the auth middleware; clients authenticate the upgrade request with a
// token query parameter.
func (h *MessageHandler) RegisterRoutes(ctx context.Context, router fiber.Router) {
	router.Use("/ws/auctions/:id", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws/auctions/:id", websocket.New(h.handleConnection(ctx)))
}

func (h *MessageHandler) handleConnection(ctx context.Context) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		auctionID, err := uuid.Parse(conn.Params("id"))
		if err != nil {
			_ = conn.Close()
			return
		}
		userID, ok := conn.Locals("userID").(uuid.UUID)
		if !ok {
			_ = conn.Close()
			return
		}

		client := &ws.Client{
			Hub:       h.hub,
			Conn:      conn,
			Send:      make(chan []byte, 64),
			AuctionID: auctionID.String(),
			UserID:    userID.String(),
			ID:        uuid.NewString(),
		}
		h.hub.RegisterClient(client)

		go client.WritePump(ctx)
		// ReadPump blocks; the fiber handler must not return while the
		// connection is in use.
		client.ReadPump(ctx)
	}
}
