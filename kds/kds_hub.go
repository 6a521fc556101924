package kds

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/fantasteak-pos/models"
	"github.com/yeremiapane/fantasteak-pos/utils"
)

// Event types
const (
	EventOrdersChanged = "orders_changed"
	EventOrderStatus   = "order_status"
	EventPrintResult   = "print_result"
)

const (
	writeWait  = 5 * time.Second
	sendBuffer = 16
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// OrdersSnapshot is pushed after every projection refresh.
type OrdersSnapshot struct {
	Count  int            `json:"count"`
	Orders []models.Order `json:"orders"`
}

type client struct {
	conn *websocket.Conn
	role string
	send chan []byte
}

// Hub holds the screens connected to this console and pushes projection
// changes to them. Each screen has its own queue and writer goroutine; a
// screen whose queue is full is dropped instead of stalling the broadcast.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]*client)}
}

func (h *Hub) RegisterClient(conn *websocket.Conn, role string) {
	cl := &client{conn: conn, role: role, send: make(chan []byte, sendBuffer)}
	h.mutex.Lock()
	h.clients[conn] = cl
	h.mutex.Unlock()
	go h.writePump(cl)
	utils.InfoLogger.WithField("role", role).Info("Screen connected")
}

func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.remove(conn)
}

func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// BroadcastOrdersChanged sends the fresh projection to every screen.
func (h *Hub) BroadcastOrdersChanged(orders []models.Order) {
	h.send(Message{
		Event: EventOrdersChanged,
		Data:  OrdersSnapshot{Count: len(orders), Orders: orders},
	}, "")
}

// BroadcastOrderStatus announces a single status change made on this console.
func (h *Hub) BroadcastOrderStatus(order models.Order) {
	h.send(Message{Event: EventOrderStatus, Data: order}, "")
}

// BroadcastToRole sends msg only to screens unlocked as role.
func (h *Hub) BroadcastToRole(role string, msg Message) {
	h.send(msg, role)
}

func (h *Hub) send(msg Message, role string) {
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Error marshaling message")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	queued := 0
	for conn, cl := range h.clients {
		if role != "" && cl.role != role {
			continue
		}
		select {
		case cl.send <- data:
			queued++
		default:
			utils.ErrorLogger.WithField("role", cl.role).Warn("Dropping screen with full send queue")
			h.remove(conn)
		}
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"event":   msg.Event,
		"clients": queued,
	}).Debug("Broadcast")
}

func (h *Hub) writePump(cl *client) {
	for data := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.WithField("role", cl.role).WithError(err).Warn("Dropping screen after failed write")
			h.UnregisterClient(cl.conn)
			return
		}
	}
}

// remove must be called with the hub lock held.
func (h *Hub) remove(conn *websocket.Conn) {
	cl, ok := h.clients[conn]
	if !ok {
		return
	}
	delete(h.clients, conn)
	close(cl.send)
	conn.Close()
}
