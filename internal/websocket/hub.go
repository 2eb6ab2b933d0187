package notifyws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/saeid-a/CoachBooking/internal/models"
)

var ErrHubBusy = errors.New("notification hub is busy")

// Hub fans stored notifications out to every open socket of the recipient.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[models.AccountID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	outbound   chan *models.Notification
	quit       chan struct{}
}

type conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type Client struct {
	hub    *Hub
	conn   conn
	caller models.Caller
	send   chan []byte

	// mu guards send against reply racing the hub closing it.
	mu     sync.Mutex
	closed bool
}

type acker interface {
	MarkRead(ctx context.Context, caller models.Caller, notificationID int64) (*models.Notification, error)
}

type Event struct {
	Type           string               `json:"type"`
	Notification   *models.Notification `json:"notification,omitempty"`
	NotificationID int64                `json:"notification_id,omitempty"`
	Message        string               `json:"message,omitempty"`
	Timestamp      string               `json:"timestamp"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[models.AccountID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan *models.Notification, 64),
		quit:       make(chan struct{}),
	}
}

func NewClient(hub *Hub, conn conn, caller models.Caller) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		caller: caller,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.caller.AccountID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.caller.AccountID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			h.drop(client)
		case notification := <-h.outbound:
			h.deliver(notification)
		case <-h.quit:
			for accountID, set := range h.clients {
				for client := range set {
					client.closeSend()
					_ = client.conn.Close()
				}
				delete(h.clients, accountID)
			}
			return
		}
	}
}

func (h *Hub) Stop() {
	close(h.quit)
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Push queues a stored notification for live delivery. It never blocks; a
// full queue is reported and the notification stays in the inbox.
func (h *Hub) Push(_ context.Context, notification *models.Notification) error {
	select {
	case h.outbound <- notification:
		return nil
	default:
		return ErrHubBusy
	}
}

func (h *Hub) drop(client *Client) {
	set, ok := h.clients[client.caller.AccountID]
	if !ok {
		return
	}
	if _, exists := set[client]; exists {
		delete(set, client)
		client.closeSend()
	}
	if len(set) == 0 {
		delete(h.clients, client.caller.AccountID)
	}
}

func (h *Hub) deliver(notification *models.Notification) {
	payload, err := encodeEvent(Event{Type: "notification", Notification: notification})
	if err != nil {
		log.Printf("notification hub encode: %v", err)
		return
	}

	for client := range h.clients[notification.UserID] {
		select {
		case client.send <- payload:
		default:
			log.Printf("notification hub: dropping notification %d for slow client of user %d", notification.ID, notification.UserID)
		}
	}
}

func encodeEvent(event Event) ([]byte, error) {
	if event.Timestamp == "" {
		event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return json.Marshal(event)
}

// ReadPump handles inbound frames. The only supported frame is
// {"type":"ack","notification_id":N}, which marks the notification read.
func (c *Client) ReadPump(service acker) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var incoming struct {
			Type           string `json:"type"`
			NotificationID int64  `json:"notification_id"`
		}
		if err := json.Unmarshal(payload, &incoming); err != nil {
			c.reply(Event{Type: "error", Message: "invalid message payload"})
			continue
		}
		if incoming.Type != "ack" {
			c.reply(Event{Type: "error", Message: "unsupported message type"})
			continue
		}
		if incoming.NotificationID <= 0 {
			c.reply(Event{Type: "error", Message: "invalid notification id"})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err = service.MarkRead(ctx, c.caller, incoming.NotificationID)
		cancel()
		if err != nil {
			c.reply(Event{Type: "error", NotificationID: incoming.NotificationID, Message: "failed to acknowledge notification"})
			continue
		}
		c.reply(Event{Type: "ack", NotificationID: incoming.NotificationID})
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// closeSend ends WritePump. Only the Run goroutine calls it.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// reply goes through the send channel so WritePump stays the only writer.
// After shutdown the reply is dropped.
func (c *Client) reply(event Event) {
	payload, err := encodeEvent(event)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- payload:
	default:
	}
}
