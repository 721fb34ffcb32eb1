package app

import (
	"encoding/json"
	"sync"

	"pairva_message_service/internal/message/domain"
	"pairva_message_service/pkg/logger"

	"github.com/gofiber/websocket/v2"
)

// Client one live authenticated connection, writes are serialized because
// the underlying websocket conn does not allow concurrent writers
type Client struct {
	UserID string

	conn *websocket.Conn
	mu   sync.Mutex
}

// NewClient wrap an upgraded connection
func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{UserID: userID, conn: conn}
}

// Send push one outbound event, best effort
func (c *Client) Send(resp domain.WSResponse) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// Close close the underlying connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.Close(); err != nil {
		logger.Log.Errorf("close connection err:", err)
	}
}

// SessionRegistry in-memory user -> connection and room membership, owned by
// the gateway and mutated only from its handlers, one process one registry,
// horizontal scaling needs sticky routing or an external shared registry
type SessionRegistry struct {
	mu sync.RWMutex

	clients   map[string]*Client             // userID -> connection
	rooms     map[string]map[string]struct{} // roomID -> user set
	userRooms map[string]map[string]struct{} // userID -> room set
}

// NewSessionRegistry create an empty registry
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		clients:   make(map[string]*Client),
		rooms:     make(map[string]map[string]struct{}),
		userRooms: make(map[string]map[string]struct{}),
	}
}

// Register record the user's connection, the replaced one (one active
// connection per user) is returned so the caller can close it
func (r *SessionRegistry) Register(c *Client) *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.clients[c.UserID]
	r.clients[c.UserID] = c
	return old
}

// Unregister drop the user's connection and every room membership, a stale
// connection (already replaced by a newer one) is ignored
func (r *SessionRegistry) Unregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.clients[c.UserID]
	if !ok || current != c {
		return
	}
	delete(r.clients, c.UserID)
	for roomID := range r.userRooms[c.UserID] {
		delete(r.rooms[roomID], c.UserID)
		if len(r.rooms[roomID]) == 0 {
			delete(r.rooms, roomID)
		}
	}
	delete(r.userRooms, c.UserID)
}

// JoinRoom add the user to one room
func (r *SessionRegistry) JoinRoom(roomID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[userID]; !ok {
		return
	}
	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[string]struct{})
	}
	r.rooms[roomID][userID] = struct{}{}
	if r.userRooms[userID] == nil {
		r.userRooms[userID] = make(map[string]struct{})
	}
	r.userRooms[userID][roomID] = struct{}{}
}

// LeaveRoom remove the user from one room
func (r *SessionRegistry) LeaveRoom(roomID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms[roomID], userID)
	if len(r.rooms[roomID]) == 0 {
		delete(r.rooms, roomID)
	}
	delete(r.userRooms[userID], roomID)
}

// RoomClients snapshot of the connections currently joined to roomID
func (r *SessionRegistry) RoomClients(roomID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.rooms[roomID]))
	for userID := range r.rooms[roomID] {
		if c, ok := r.clients[userID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Rooms snapshot of the rooms userID is joined to
func (r *SessionRegistry) Rooms(userID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.userRooms[userID]))
	for roomID := range r.userRooms[userID] {
		out = append(out, roomID)
	}
	return out
}

// Client get the user's live connection
func (r *SessionRegistry) Client(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

// IsOnline check the user holds a live connection on this process
func (r *SessionRegistry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[userID]
	return ok
}
