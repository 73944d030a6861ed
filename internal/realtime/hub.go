// Package realtime streams shuttle slot occupancy to the riders of each slot.
package realtime

import (
	"sync"
	"time"

	"campuslink/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	EventOccupancy = "occupancy" // 좌석 수 변경 (탑승자에게만)
	EventReleased  = "released"  // 더 이상 이 슬롯의 탑승자가 아님
	EventConnected = "connected"
	EventPong      = "pong"
)

const (
	sendBuffer = 16
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Event is one message on a subscriber's stream.
type Event struct {
	Type      string          `json:"type"`
	Slot      *models.SlotKey `json:"slot,omitempty"`
	Occupancy *int            `json:"occupancy,omitempty"`
}

type subscriber struct {
	send chan Event
}

// Hub fans slot updates out to subscribed users. Occupancy goes only to
// current riders of the slot.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{} // user id -> streams
	riders map[string]map[string]bool          // slot id -> last published riders
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[*subscriber]struct{}),
		riders: make(map[string]map[string]bool),
		logger: logger.Named("realtime_hub"),
	}
}

// Subscribe opens a stream for userID. The returned func closes it.
func (h *Hub) Subscribe(userID string) (<-chan Event, func()) {
	sub := &subscriber{send: make(chan Event, sendBuffer)}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.send, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], sub)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(sub.send)
		})
	}
}

// PublishOccupancy sends the new rider count to every rider of the slot and a
// release event to users who left it since the last publish.
func (h *Hub) PublishOccupancy(key models.SlotKey, members []string) {
	id := key.ID()
	current := make(map[string]bool, len(members))
	for _, m := range members {
		current[m] = true
	}
	count := len(members)

	h.mu.Lock()
	previous := h.riders[id]
	if len(current) == 0 {
		delete(h.riders, id)
	} else {
		h.riders[id] = current
	}
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for userID := range current {
		h.deliver(userID, Event{Type: EventOccupancy, Slot: &key, Occupancy: &count})
	}
	for userID := range previous {
		if !current[userID] {
			h.deliver(userID, Event{Type: EventReleased, Slot: &key})
		}
	}
}

// deliver must be called with h.mu held. Slow streams drop events.
func (h *Hub) deliver(userID string, ev Event) {
	for sub := range h.subs[userID] {
		select {
		case sub.send <- ev:
		default:
			h.logger.Warn("Subscriber too slow, dropping event",
				zap.String("user_id", userID),
				zap.String("type", ev.Type))
		}
	}
}

// Subscribers counts open streams.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, streams := range h.subs {
		n += len(streams)
	}
	return n
}

type inbound struct {
	Type string `json:"type"`
}

// ServeConn pumps events to an upgraded connection until either side closes.
func (h *Hub) ServeConn(conn *websocket.Conn, userID string) {
	events, unsubscribe := h.Subscribe(userID)
	defer unsubscribe()
	defer conn.Close()

	pings := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			var msg inbound
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type == "ping" {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	if err := h.write(conn, Event{Type: EventConnected}); err != nil {
		return
	}
	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := h.write(conn, ev); err != nil {
				h.logger.Debug("WebSocket write failed", zap.String("user_id", userID), zap.Error(err))
				return
			}
		case <-pings:
			if err := h.write(conn, Event{Type: EventPong}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) write(conn *websocket.Conn, ev Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}
