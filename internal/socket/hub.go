// internal/socket/hub.go
package socket

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Notification messages
	MessageNotification      MessageType = "notification"
	MessageNotificationCount MessageType = "notification_count"

	// Desk messages
	MessageDeskUpdated MessageType = "desk_updated"
	MessageDeskDeleted MessageType = "desk_deleted"

	// Membership messages
	MessageMemberAdded           MessageType = "member_added"
	MessageMemberRemoved         MessageType = "member_removed"
	MessageMemberRequestCreated  MessageType = "member_request_created"
	MessageMemberRequestResolved MessageType = "member_request_resolved"

	// Friend messages
	MessageFriendRequestUpdated MessageType = "friend_request_updated"

	// System messages
	MessagePing  MessageType = "ping"
	MessagePong  MessageType = "pong"
	MessageAck   MessageType = "ack"
	MessageError MessageType = "error"
)

const (
	userRoomPrefix = "user:"
	deskRoomPrefix = "desk:"
)

// UserRoom is the personal room every client joins on connect.
func UserRoom(userID string) string { return userRoomPrefix + userID }

// DeskRoom is the room of a desk's connected members.
func DeskRoom(deskID string) string { return deskRoomPrefix + deskID }

// Message represents a WebSocket message
type Message struct {
	Type      MessageType            `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// MembershipChecker decides whether a user may subscribe to a desk room.
type MembershipChecker interface {
	IsMember(ctx context.Context, deskID, userID string) (bool, error)
}

// Client represents a connected WebSocket client
type Client struct {
	ID       string
	UserID   string
	Conn     *websocket.Conn
	Hub      *Hub
	Send     chan []byte
	Rooms    map[string]bool // user:<id>, desk:<id>
	mu       sync.Mutex
	lastPing time.Time
}

// Hub maintains the set of active clients and routes messages to users and rooms.
type Hub struct {
	clients     map[*Client]bool
	userClients map[string]map[*Client]bool
	roomClients map[string]map[*Client]bool

	register      chan *Client
	unregister    chan *Client
	roomBroadcast chan *RoomMessage
	directMessage chan *DirectMessage
	done          chan struct{}
	stopOnce      sync.Once

	membership MembershipChecker

	mu sync.RWMutex
}

// RoomMessage represents a message to be sent to a specific room
type RoomMessage struct {
	Room    string
	Message []byte
	Exclude string // User ID to exclude from broadcast
}

// DirectMessage represents a message to be sent to a specific user
type DirectMessage struct {
	UserID  string
	Message []byte
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		userClients:   make(map[string]map[*Client]bool),
		roomClients:   make(map[string]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		roomBroadcast: make(chan *RoomMessage, 256),
		directMessage: make(chan *DirectMessage, 256),
		done:          make(chan struct{}),
	}
}

// SetMembershipChecker installs the desk room authorizer. Without one, desk rooms cannot be joined.
func (h *Hub) SetMembershipChecker(m MembershipChecker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.membership = m
}

// Run starts the hub's main loop. It returns after Stop is called.
func (h *Hub) Run() {
	log.Println("[Hub] WebSocket hub started")

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case rm := <-h.roomBroadcast:
			h.broadcastToRoom(rm)

		case dm := <-h.directMessage:
			h.sendToUser(dm)

		case <-pingTicker.C:
			h.pingClients()

		case <-h.done:
			h.closeAll()
			log.Println("[Hub] WebSocket hub stopped")
			return
		}
	}
}

// Stop terminates Run and closes every client's send channel.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if h.userClients[client.UserID] == nil {
		h.userClients[client.UserID] = make(map[*Client]bool)
	}
	h.userClients[client.UserID][client] = true

	// Every client listens on its personal room.
	h.joinLocked(client, UserRoom(client.UserID))

	log.Printf("[Hub] ✅ Client registered: user=%s, id=%s, total_clients=%d",
		client.UserID, client.ID, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	if clients, ok := h.userClients[client.UserID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.userClients, client.UserID)
		}
	}

	client.mu.Lock()
	for room := range client.Rooms {
		if clients, ok := h.roomClients[room]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.roomClients, room)
			}
		}
	}
	client.mu.Unlock()

	close(client.Send)
	log.Printf("[Hub] ❌ Client disconnected: user=%s, id=%s, total_clients=%d",
		client.UserID, client.ID, len(h.clients))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.Send)
	}
	h.clients = make(map[*Client]bool)
	h.userClients = make(map[string]map[*Client]bool)
	h.roomClients = make(map[string]map[*Client]bool)
}

// deliver queues message on every client in set, dropping clients whose buffer is full.
func (h *Hub) deliver(set map[*Client]bool, message []byte, exclude string) int {
	sent := 0
	for client := range set {
		if exclude != "" && client.UserID == exclude {
			continue
		}
		select {
		case client.Send <- message:
			sent++
		default:
			go func(c *Client) {
				select {
				case h.unregister <- c:
				case <-h.done:
				}
			}(client)
		}
	}
	return sent
}

func (h *Hub) broadcastToRoom(rm *RoomMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.roomClients[rm.Room]
	if !ok {
		return
	}
	sent := h.deliver(clients, rm.Message, rm.Exclude)
	log.Printf("[Hub] Broadcast to room %s: sent to %d clients", rm.Room, sent)
}

func (h *Hub) sendToUser(dm *DirectMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.userClients[dm.UserID]
	if !ok {
		return
	}
	h.deliver(clients, dm.Message, "")
}

func (h *Hub) pingClients() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, _ := json.Marshal(Message{Type: MessagePing, Timestamp: time.Now()})
	h.deliver(h.clients, data, "")
}

// ============================================
// Public Methods for Room Management
// ============================================

// CanJoin reports whether the client's user may subscribe to room.
func (h *Hub) CanJoin(ctx context.Context, userID, room string) bool {
	switch {
	case strings.HasPrefix(room, userRoomPrefix):
		return room == UserRoom(userID)
	case strings.HasPrefix(room, deskRoomPrefix):
		deskID := strings.TrimPrefix(room, deskRoomPrefix)
		h.mu.RLock()
		checker := h.membership
		h.mu.RUnlock()
		if checker == nil || deskID == "" {
			return false
		}
		ok, err := checker.IsMember(ctx, deskID, userID)
		if err != nil {
			log.Printf("[Hub] membership check failed: user=%s, desk=%s: %v", userID, deskID, err)
			return false
		}
		return ok
	default:
		return false
	}
}

func (h *Hub) joinLocked(client *Client, room string) {
	client.mu.Lock()
	client.Rooms[room] = true
	client.mu.Unlock()

	if h.roomClients[room] == nil {
		h.roomClients[room] = make(map[*Client]bool)
	}
	h.roomClients[room][client] = true
}

// JoinRoom adds a client to a room. Callers check CanJoin first.
func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.joinLocked(client, room)
	log.Printf("[Hub] 👥 Client joined room: user=%s, room=%s", client.UserID, room)
}

// LeaveRoom removes a client from a room
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.mu.Lock()
	delete(client.Rooms, room)
	client.mu.Unlock()

	if clients, ok := h.roomClients[room]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.roomClients, room)
		}
	}

	log.Printf("[Hub] 👋 Client left room: user=%s, room=%s", client.UserID, room)
}

// EvictFromRoom removes every connection of userID from room, e.g. after the
// user lost access to a desk.
func (h *Hub) EvictFromRoom(userID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.roomClients[room]
	if !ok {
		return
	}
	for client := range clients {
		if client.UserID != userID {
			continue
		}
		client.mu.Lock()
		delete(client.Rooms, room)
		client.mu.Unlock()
		delete(clients, client)
	}
	if len(clients) == 0 {
		delete(h.roomClients, room)
	}
}

// ============================================
// Public Methods for Sending Messages
// ============================================

func encode(msgType MessageType, payload map[string]interface{}) ([]byte, bool) {
	data, err := json.Marshal(Message{Type: msgType, Payload: payload, Timestamp: time.Now()})
	if err != nil {
		log.Printf("[Hub] Error marshaling message: %v", err)
		return nil, false
	}
	return data, true
}

// SendToUser sends a message to every connection of a user
func (h *Hub) SendToUser(userID string, msgType MessageType, payload map[string]interface{}) {
	data, ok := encode(msgType, payload)
	if !ok {
		return
	}
	select {
	case h.directMessage <- &DirectMessage{UserID: userID, Message: data}:
	case <-h.done:
	}
}

// SendToRoom broadcasts a message to all clients in a room
func (h *Hub) SendToRoom(room string, msgType MessageType, payload map[string]interface{}, excludeUserID string) {
	data, ok := encode(msgType, payload)
	if !ok {
		return
	}
	select {
	case h.roomBroadcast <- &RoomMessage{Room: room, Message: data, Exclude: excludeUserID}:
	case <-h.done:
	}
}

// ============================================
// Query Methods
// ============================================

// IsUserOnline checks if a user is currently connected
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, ok := h.userClients[userID]
	return ok
}

// GetRoomClients returns the number of clients in a room
func (h *Hub) GetRoomClients(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.roomClients[room]; ok {
		return len(clients)
	}
	return 0
}

// GetConnectedClientsCount returns total connected clients
func (h *Hub) GetConnectedClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
