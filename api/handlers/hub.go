package handlers

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is a single item on a live stream
type Event struct {
	Type string      `json:"event"`
	Data interface{} `json:"data"`
}

// Stream keys. A subscriber to a key receives events published to that key in
// publish order; no ordering is guaranteed across keys.
func chatKey(studentID string) string   { return "chat:" + studentID }
func notifyKey(studentID string) string { return "notify:" + studentID }

const conversationsKey = "chats"

// Hub fans out events to live subscribers. Subscribe returns a cancel
// function; a subscription's lifetime is tied to the websocket that opened
// it.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func(Event)
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[int]func(Event))}
}

// Subscribe registers fn for events published to key and returns the cancel
// handle. fn is invoked synchronously in publish order.
func (h *Hub) Subscribe(key string, fn func(Event)) (cancel func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	if h.subs[key] == nil {
		h.subs[key] = make(map[int]func(Event))
	}
	h.subs[key][id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[key], id)
		if len(h.subs[key]) == 0 {
			delete(h.subs, key)
		}
	}
}

// Publish delivers ev to every subscriber of key
func (h *Hub) Publish(key string, ev Event) {
	h.mu.Lock()
	fns := make([]func(Event), 0, len(h.subs[key]))
	for _, fn := range h.subs[key] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// wsConn serializes writes to a single websocket connection
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeEvent(ev Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(ev)
}

// serveStream upgrades the request, subscribes the socket to key and blocks
// until the peer goes away. Unsubscribes on disconnect.
func (h *Hub) serveStream(w http.ResponseWriter, r *http.Request, key string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}
	ws := &wsConn{conn: conn}

	cancel := h.Subscribe(key, func(ev Event) {
		if err := ws.writeEvent(ev); err != nil {
			zap.S().Debugw("websocket write failed", "key", key, "error", err)
		}
	})
	defer cancel()
	zap.S().Debugw("stream subscribed", "key", key)

	// Drain the connection until the peer closes it
	for {
		if _, _, err := conn.NextReader(); err != nil {
			conn.Close()
			break
		}
	}
	zap.S().Debugw("stream closed", "key", key)
}

// ChatStreamHandler subscribes the caller to a single conversation's message
// stream. GET /ws/chat?studentId=<id>
func (h *Hub) ChatStreamHandler(w http.ResponseWriter, r *http.Request) {
	studentID := r.URL.Query().Get("studentId")
	if studentID == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "studentId required"}`))
		return
	}
	h.serveStream(w, r, chatKey(studentID))
}

// ConversationsStreamHandler subscribes the admin panel to the conversation
// index stream. GET /ws/chats
func (h *Hub) ConversationsStreamHandler(w http.ResponseWriter, r *http.Request) {
	h.serveStream(w, r, conversationsKey)
}

// NotificationsStreamHandler subscribes the dashboard badge to a student's
// notification stream. GET /ws/notifications?studentId=<id>
func (h *Hub) NotificationsStreamHandler(w http.ResponseWriter, r *http.Request) {
	studentID := r.URL.Query().Get("studentId")
	if studentID == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "studentId required"}`))
		return
	}
	h.serveStream(w, r, notifyKey(studentID))
}
