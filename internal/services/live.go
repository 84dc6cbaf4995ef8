package services

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	liveWriteWait  = 10 * time.Second
	livePingPeriod = 30 * time.Second
	liveSendBuffer = 16
)

// LiveEvent is one ticker message pushed to connected clients.
type LiveEvent struct {
	Type    string      `json:"type"` // "score_submitted", "milestone_claimed", "season_ended"
	GameID  string      `json:"game_id,omitempty"`
	Mode    string      `json:"mode,omitempty"`
	UserID  string      `json:"user_id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

type liveClient struct {
	conn *websocket.Conn
	send chan []byte
}

// LiveHub fans leaderboard events out to websocket subscribers. Slow
// consumers are dropped rather than allowed to stall the broadcast.
type LiveHub struct {
	logger   *logrus.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*liveClient]bool
}

func NewLiveHub(logger *logrus.Logger, allowedOrigins []string) *LiveHub {
	originSet := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[o] = true
	}
	return &LiveHub{
		logger:  logger,
		clients: make(map[*liveClient]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if originSet["*"] || len(originSet) == 0 {
					return true
				}
				return originSet[r.Header.Get("Origin")]
			},
		},
	}
}

// ServeHTTP upgrades the request and pumps events until the peer goes away.
func (h *LiveHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := &liveClient{conn: conn, send: make(chan []byte, liveSendBuffer)}
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	go h.writePump(client)
	go h.readPump(client)
}

// Broadcast sends one event to every connected client.
func (h *LiveHub) Broadcast(event LiveEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal live event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Buffer full; the write pump will notice the closed channel.
			go h.drop(client)
		}
	}
}

// ClientCount reports connected subscribers, for the health endpoint.
func (h *LiveHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *LiveHub) drop(client *liveClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
	client.conn.Close()
}

func (h *LiveHub) readPump(client *liveClient) {
	defer h.drop(client)
	client.conn.SetReadLimit(512)
	for {
		// Inbound frames are ignored; reading only surfaces disconnects.
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *LiveHub) writePump(client *liveClient) {
	ticker := time.NewTicker(livePingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case data, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
