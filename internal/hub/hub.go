package hub

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"campus_cruiser/internal/models"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
}

// NotificationHub fans broadcast notifications out to every connected client.
type NotificationHub struct {
	clients   map[Conn]bool
	broadcast chan models.Notification
	done      chan struct{}
	closed    bool
	mu        sync.Mutex
}

// NewNotificationHub creates a hub and starts its broadcast loop.
func NewNotificationHub() *NotificationHub {
	h := &NotificationHub{
		clients:   make(map[Conn]bool),
		broadcast: make(chan models.Notification, 100),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *NotificationHub) run() {
	defer close(h.done)
	for msg := range h.broadcast {
		h.mu.Lock()
		targets := make([]Conn, 0, len(h.clients))
		for c := range h.clients {
			targets = append(targets, c)
		}
		h.mu.Unlock()

		for _, c := range targets {
			if err := c.WriteJSON(msg); err != nil {
				if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
					logrus.WithField("conn_ptr", fmt.Sprintf("%p", c)).Info("Client connection closed during broadcast, unregistering.")
				} else {
					logrus.WithError(err).WithField("conn_ptr", fmt.Sprintf("%p", c)).Warn("Failed to send notification to client.")
				}
				h.Unregister(c)
			}
		}
	}
}

func (h *NotificationHub) Register(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = true
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", c)).Info("Client registered with NotificationHub.")
}

func (h *NotificationHub) Unregister(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", c)).Info("Client unregistered from NotificationHub.")
}

// Clients returns the number of registered connections.
func (h *NotificationHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish queues n for delivery. It never blocks; when the queue is full the
// message is dropped for live clients (it is still persisted by the caller).
// Publishing after Close is a no-op.
func (h *NotificationHub) Publish(n models.Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		logrus.WithField("notification_id", n.ID).Debug("NotificationHub closed, not broadcasting.")
		return
	}
	select {
	case h.broadcast <- n:
	default:
		logrus.WithField("notification_id", n.ID).Warn("Notification broadcast channel full, dropping message.")
	}
}

// Close stops the broadcast loop after pending messages are delivered.
// Further calls return once the loop has stopped.
func (h *NotificationHub) Close() {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.broadcast)
	}
	h.mu.Unlock()
	<-h.done
}
