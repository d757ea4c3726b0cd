package broadcast

import (
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/auctionforge/engine/internal/auction/domain"
	"github.com/auctionforge/engine/internal/shared/websocket"
)

// HubSink pushes events to the WebSocket hub. Broadcast events go to every
// client watching the auction; unicast events go to one user's connections.
type HubSink struct {
	hub *websocket.Hub
}

func NewHubSink(hub *websocket.Hub) *HubSink {
	return &HubSink{hub: hub}
}

func (s *HubSink) Deliver(ev domain.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error("hub sink: marshal failed",
			zap.String("type", string(ev.Type)),
			zap.Error(err),
		)
		return
	}
	s.hub.BroadcastToAuction(ev.AuctionID.String(), data)
}

func (s *HubSink) DeliverTo(userID uuid.UUID, ev domain.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error("hub sink: marshal failed",
			zap.String("type", string(ev.Type)),
			zap.Error(err),
		)
		return
	}
	s.hub.SendToUser(userID.String(), data)
}
