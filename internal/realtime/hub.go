package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// Event types sent over WebSocket
const (
	EventBoardChanged     = "board_changed"
	EventCardMoved        = "card_moved"
	EventCardApproved     = "card_approved"
	EventMemberAdded      = "member_added"
	EventMemberRemoved    = "member_removed"
	EventWorkflowChanged  = "workflow_changed"
	EventWorkflowApproved = "workflow_approved"
	EventNotification     = "notification"
)

// Event is the JSON message sent to connected clients
type Event struct {
	Type    string      `json:"type"`
	BoardID string      `json:"boardId,omitempty"`
	UserID  string      `json:"userId"`
	Data    interface{} `json:"data,omitempty"`
}

// connection wraps a websocket connection with its user ID
type connection struct {
	conn   *websocket.Conn
	userID uuid.UUID
	mu     sync.Mutex
}

func (c *connection) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Hub manages WebSocket connections, grouped per board room and per user.
type Hub struct {
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*connection]bool // boardID -> set of connections
	users map[uuid.UUID]map[*connection]bool // userID -> set of connections
}

func NewHub() *Hub {
	return &Hub{
		rooms: make(map[uuid.UUID]map[*connection]bool),
		users: make(map[uuid.UUID]map[*connection]bool),
	}
}

// Global hub instance
var WS = NewHub()

// JoinBoard registers a connection in a board room and blocks until the
// client disconnects.
func (h *Hub) JoinBoard(boardID, userID uuid.UUID, ws *websocket.Conn) {
	conn := &connection{conn: ws, userID: userID}

	h.mu.Lock()
	if h.rooms[boardID] == nil {
		h.rooms[boardID] = make(map[*connection]bool)
	}
	h.rooms[boardID][conn] = true
	log.Printf("WS register: user %s joined board %s (total: %d)", userID, boardID, len(h.rooms[boardID]))
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if conns, ok := h.rooms[boardID]; ok {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.rooms, boardID)
			}
		}
		h.mu.Unlock()
	}()

	readLoop(ws)
}

// JoinUser registers a user-level connection (the notification socket) and
// blocks until the client disconnects.
func (h *Hub) JoinUser(userID uuid.UUID, ws *websocket.Conn) {
	conn := &connection{conn: ws, userID: userID}

	h.mu.Lock()
	if h.users[userID] == nil {
		h.users[userID] = make(map[*connection]bool)
	}
	h.users[userID][conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if conns, ok := h.users[userID]; ok {
			delete(conns, conn)
			if len(conns) == 0 {
				delete(h.users, userID)
			}
		}
		h.mu.Unlock()
	}()

	readLoop(ws)
}

// readLoop drains client messages (pings/keepalives) until the socket closes.
func readLoop(ws *websocket.Conn) {
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}

// Broadcast sends an event to all connections in a board room, excluding
// the acting user.
func (h *Hub) Broadcast(boardID, excludeUserID uuid.UUID, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.rooms[boardID]
	if !ok {
		return
	}

	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("WS broadcast marshal error: %v", err)
		return
	}

	for c := range conns {
		if c.userID == excludeUserID {
			continue
		}
		if err := c.write(msg); err != nil {
			log.Printf("WS write error: %v", err)
		}
	}
}

// EmitToUser sends an event to every connection of a single user.
func (h *Hub) EmitToUser(userID uuid.UUID, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns, ok := h.users[userID]
	if !ok {
		return
	}

	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("WS emit marshal error: %v", err)
		return
	}

	for c := range conns {
		if err := c.write(msg); err != nil {
			log.Printf("WS write error: %v", err)
		}
	}
}
