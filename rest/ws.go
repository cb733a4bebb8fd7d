package rest

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	jobboard "github.com/jobhive/jobhive"
)

// wsEnvelope is the frame pushed to connected clients.
type wsEnvelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Hub fans chat events out to websocket subscribers. It implements
// jobboard.Broadcaster; rooms are created on first join and removed when
// the last member leaves.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*websocket.Conn]struct{}
	logger jobboard.Logger
}

func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]map[*websocket.Conn]struct{}),
		logger: jobboard.NewDefaultLogger(),
	}
}

func (h *Hub) WithLogger(logger jobboard.Logger) *Hub {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Emit marshals the payload once and writes it to every member of the
// room. Write failures evict the connection.
func (h *Hub) Emit(room, event string, payload any) {
	data, err := json.Marshal(wsEnvelope{Event: event, Payload: payload})
	if err != nil {
		h.logger.Error("broadcast marshal failed room=%s event=%s: %v", room, event, err)
		return
	}

	h.mu.RLock()
	members := make([]*websocket.Conn, 0, len(h.rooms[room]))
	for conn := range h.rooms[room] {
		members = append(members, conn)
	}
	h.mu.RUnlock()

	for _, conn := range members {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("evicting dead websocket room=%s: %v", room, err)
			h.leave(room, conn)
			conn.Close()
		}
	}
}

func (h *Hub) join(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*websocket.Conn]struct{})
	}
	h.rooms[room][conn] = struct{}{}
}

func (h *Hub) leave(room string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, conn)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// ChatSocketHandler upgrades /ws/chats/:id and keeps the connection in
// the conversation's room until the peer hangs up. The actor must be a
// conversation participant; admins may observe any room.
type ChatSocketHandler struct {
	chat *jobboard.ChatService
	hub  *Hub
}

func NewChatSocketHandler(chat *jobboard.ChatService, hub *Hub) *ChatSocketHandler {
	return &ChatSocketHandler{chat: chat, hub: hub}
}

// Register mounts the upgrade guard and the socket endpoint. The router
// must already carry the bearer auth middleware.
func (h *ChatSocketHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/ws/chats/:id", h.upgrade())
}

func (h *ChatSocketHandler) upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := CurrentUser(c)

		id, err := parseID(c, "id")
		if err != nil {
			return err
		}

		// History doubles as the membership check; an empty log is fine
		if _, err := h.chat.History(c.UserContext(), actor, id, 1); err != nil {
			return err
		}

		room := jobboard.ChatRoom(id)
		return websocket.New(func(conn *websocket.Conn) {
			h.hub.join(room, conn)
			defer func() {
				h.hub.leave(room, conn)
				conn.Close()
			}()

			// incoming frames are ignored; messages go through the REST
			// endpoint so persistence and fan-out stay in one path
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		})(c)
	}
}
