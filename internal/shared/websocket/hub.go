package websocket

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/auctionforge/engine/internal/shared/logger"
)

var log = logger.GetLogger()

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Hub keeps the client registry and routes outbound frames. Clients are
// grouped by the auction they watch and indexed by user for unicast.
type Hub struct {
	clients map[string]map[*Client]bool // auction id -> clients
	byUser  map[string]map[*Client]bool // user id -> clients

	broadcast  chan *Message
	unicast    chan *UserMessage
	register   chan *Client
	unregister chan *Client

	// InboundMessages is consumed by module-specific handlers.
	InboundMessages chan *ClientMessage
}

// Client is one WebSocket connection.
type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
	// AuctionID is the auction this client is watching.
	AuctionID string
	// UserID of the authenticated peer.
	UserID string
	ID     string
}

type Message struct {
	AuctionID string
	Data      []byte
}

type UserMessage struct {
	UserID string
	Data   []byte
}

// ClientMessage wraps an inbound frame with the client that sent it.
type ClientMessage struct {
	Client *Client
	Data   []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:         make(map[string]map[*Client]bool),
		byUser:          make(map[string]map[*Client]bool),
		broadcast:       make(chan *Message, 256),
		unicast:         make(chan *UserMessage, 256),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		InboundMessages: make(chan *ClientMessage, 256),
	}
}

// Run starts the hub loop; call it once in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	log.Info("websocket hub started")
	for {
		select {
		case <-ctx.Done():
			log.Info("websocket hub shutting down")
			return

		case client := <-h.register:
			if _, ok := h.clients[client.AuctionID]; !ok {
				h.clients[client.AuctionID] = make(map[*Client]bool)
			}
			h.clients[client.AuctionID][client] = true
			if _, ok := h.byUser[client.UserID]; !ok {
				h.byUser[client.UserID] = make(map[*Client]bool)
			}
			h.byUser[client.UserID][client] = true
			log.Info("client registered",
				zap.String("clientID", client.ID),
				zap.String("auctionID", client.AuctionID),
				zap.String("userID", client.UserID),
			)

		case client := <-h.unregister:
			h.drop(client)

		case msg := <-h.broadcast:
			for client := range h.clients[msg.AuctionID] {
				select {
				case client.Send <- msg.Data:
				default:
					// Slow or gone; evict so one client cannot stall the hub.
					h.drop(client)
					log.Warn("client evicted on failed send",
						zap.String("clientID", client.ID),
						zap.String("auctionID", client.AuctionID),
					)
				}
			}

		case msg := <-h.unicast:
			for client := range h.byUser[msg.UserID] {
				select {
				case client.Send <- msg.Data:
				default:
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	group, ok := h.clients[client.AuctionID]
	if !ok || !group[client] {
		return
	}
	delete(group, client)
	if len(group) == 0 {
		delete(h.clients, client.AuctionID)
	}
	if users, ok := h.byUser[client.UserID]; ok {
		delete(users, client)
		if len(users) == 0 {
			delete(h.byUser, client.UserID)
		}
	}
	close(client.Send)
	log.Info("client unregistered",
		zap.String("clientID", client.ID),
		zap.String("auctionID", client.AuctionID),
	)
}

// RegisterClient queues a new client for registration.
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	default:
		log.Error("register channel full, dropping client", zap.String("clientID", client.ID))
		_ = client.Conn.Close()
	}
}

// UnregisterClient queues a client for removal.
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	default:
	}
}

// BroadcastToAuction sends data to every client watching the auction.
func (h *Hub) BroadcastToAuction(auctionID string, data []byte) {
	select {
	case h.broadcast <- &Message{AuctionID: auctionID, Data: data}:
	default:
		log.Error("broadcast channel full, message dropped", zap.String("auctionID", auctionID))
	}
}

// SendToUser sends data to every connection of one user.
func (h *Hub) SendToUser(userID string, data []byte) {
	select {
	case h.unicast <- &UserMessage{UserID: userID, Data: data}:
	default:
		log.Error("unicast channel full, message dropped", zap.String("userID", userID))
	}
}

// ReadPump reads frames from the peer and hands them to the inbound channel.
// Run one per client, in its own goroutine.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("websocket read error",
					zap.String("clientID", c.ID),
					zap.Error(err),
				)
			}
			return
		}

		select {
		case c.Hub.InboundMessages <- &ClientMessage{Client: c, Data: message}:
		default:
			log.Error("inbound channel full, dropping message",
				zap.String("clientID", c.ID),
				zap.String("auctionID", c.AuctionID),
			)
		}
	}
}

// WritePump pumps messages from the hub to the websocket connection and
// keeps the connection alive with pings. One writer per connection.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.UnregisterClient(c)
		c.Conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return

		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("websocket write error",
					zap.String("clientID", c.ID),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
