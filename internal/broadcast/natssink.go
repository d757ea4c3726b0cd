package broadcast

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/auctionforge/engine/internal/auction/domain"
)

const natsSubjectPrefix = "auction.events."

// NATSSink mirrors every broadcast event onto NATS so other services can
// follow auction activity without holding a WebSocket. Publishing is
// fire-and-forget; rejections are unicast-only and never reach the bus.
type NATSSink struct {
	conn *nats.Conn
}

func NewNATSSink(conn *nats.Conn) *NATSSink {
	return &NATSSink{conn: conn}
}

func (s *NATSSink) Deliver(ev domain.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error("nats sink: marshal failed",
			zap.String("type", string(ev.Type)),
			zap.Error(err),
		)
		return
	}
	subject := natsSubjectPrefix + ev.AuctionID.String()
	if err := s.conn.Publish(subject, data); err != nil {
		log.Error("nats sink: publish failed",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
