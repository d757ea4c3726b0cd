package broadcast

import (
	"context"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/auctionforge/engine/internal/auction/domain"
	"github.com/auctionforge/engine/internal/shared/logger"
)

var log = logger.GetLogger()

// Sink receives every broadcast event, in emit order.
type Sink interface {
	Deliver(ev domain.Event)
}

// UnicastSink can additionally deliver to a single user, used for
// rejections, which never go to the wider channel.
type UnicastSink interface {
	DeliverTo(userID uuid.UUID, ev domain.Event)
}

type delivery struct {
	ev domain.Event
	to *uuid.UUID
}

// Coordinator serializes event emission: everything funnels through one
// channel and one Run loop, so subscribers observe events in the order the
// underlying state mutations were committed. Delivery is best-effort; a
// full queue drops the event rather than block a critical section.
type Coordinator struct {
	sinks []Sink
	queue chan delivery
}

func NewCoordinator(sinks ...Sink) *Coordinator {
	return &Coordinator{
		sinks: sinks,
		queue: make(chan delivery, 1024),
	}
}

// Run drains the queue until ctx is cancelled. Start it once, before any
// emitter is wired up.
func (c *Coordinator) Run(ctx context.Context) {
	log.Info("broadcast coordinator started")
	for {
		select {
		case <-ctx.Done():
			log.Info("broadcast coordinator shutting down")
			return
		case d := <-c.queue:
			if d.to != nil {
				for _, s := range c.sinks {
					if u, ok := s.(UnicastSink); ok {
						u.DeliverTo(*d.to, d.ev)
					}
				}
				continue
			}
			for _, s := range c.sinks {
				s.Deliver(d.ev)
			}
		}
	}
}

// Emit queues ev for fan-out to all subscribers. The assigned ULID is
// monotonic within the process, mirroring commit order.
func (c *Coordinator) Emit(ev domain.Event) {
	ev.ID = ulid.Make().String()
	select {
	case c.queue <- delivery{ev: ev}:
	default:
		log.Error("broadcast queue full, event dropped",
			zap.String("type", string(ev.Type)),
			zap.String("auctionID", ev.AuctionID.String()),
		)
	}
}

// EmitTo queues ev for the given user only.
func (c *Coordinator) EmitTo(userID uuid.UUID, ev domain.Event) {
	ev.ID = ulid.Make().String()
	select {
	case c.queue <- delivery{ev: ev, to: &userID}:
	default:
		log.Error("broadcast queue full, unicast event dropped",
			zap.String("type", string(ev.Type)),
			zap.String("userID", userID.String()),
		)
	}
}
