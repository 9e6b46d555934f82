package live

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// Event types
const (
	EventTableUpdate = "table_update"
	EventOrderUpdate = "order_update"
	EventWaiterCall  = "waiter_call"
	EventStockAlert  = "stock_alert"
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Conn is the part of *websocket.Conn the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Hub fans events out to every connected staff screen.
type Hub struct {
	clients map[Conn]string // conn -> role
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[Conn]string)}
}

func (h *Hub) Register(conn Conn, role string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = role
}

func (h *Hub) Unregister(conn Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.drop(conn)
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) BroadcastTableUpdate(table interface{}) {
	h.Broadcast(Message{Event: EventTableUpdate, Data: table})
}

func (h *Hub) BroadcastOrderUpdate(order interface{}) {
	h.Broadcast(Message{Event: EventOrderUpdate, Data: order})
}

func (h *Hub) BroadcastWaiterCall(call interface{}) {
	h.Broadcast(Message{Event: EventWaiterCall, Data: call})
}

// BroadcastStockAlert only reaches the given roles; an empty list reaches everyone.
func (h *Hub) BroadcastStockAlert(alert interface{}, roles ...string) {
	h.send(Message{Event: EventStockAlert, Data: alert}, roles)
}

func (h *Hub) Broadcast(msg Message) {
	h.send(msg, nil)
}

func (h *Hub) send(msg Message, roles []string) {
	if h == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Errorf("live: marshal %s: %v", msg.Event, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	utils.InfoLogger.Debugf("live: broadcasting %s to %d clients", msg.Event, len(h.clients))
	for conn, role := range h.clients {
		if !matchRole(role, roles) {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Warnf("live: dropping %s client: %v", role, err)
			h.drop(conn)
		}
	}
}

// drop must be called with the mutex held.
func (h *Hub) drop(conn Conn) {
	if _, ok := h.clients[conn]; !ok {
		return
	}
	delete(h.clients, conn)
	_ = conn.Close()
}

func matchRole(role string, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
