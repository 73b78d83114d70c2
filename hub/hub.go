package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/court-flow/models"
	"github.com/Dosada05/court-flow/services"
	"github.com/gorilla/websocket"
)

const (
	MessageBoard        = "board"
	MessageCourts       = "courts"
	MessageQueue        = "queue"
	MessageReadyGroup   = "ready_group"
	MessageAnnouncement = "announcement"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 64
)

// Message is what every board viewer receives.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type Announcement struct {
	CourtName   string   `json:"court_name"`
	PlayerNames []string `json:"player_names"`
	Message     string   `json:"message"`
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// outbound is a broadcast on its way through Run. payload is kept so Run can
// remember the latest collections.
type outbound struct {
	kind    string
	payload interface{}
	data    []byte
}

// Hub fans board changes out to every connected viewer. Registration and
// broadcasts go through Run, so a new client gets the board as of the last
// broadcast and every later change after it.
//
// Run never calls into the board: the collections a new viewer sees come from
// the hub's own subscriptions.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	done       chan struct{}

	mu      sync.RWMutex
	clients map[*Client]struct{}

	// attached and state are owned by Run once it starts.
	attached bool
	state    models.Snapshot

	now    func() time.Time
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, sendBufferSize),
		done:       make(chan struct{}),
		clients:    make(map[*Client]struct{}),
		now:        time.Now,
		logger:     logger,
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		h.mu.Lock()
		for client := range h.clients {
			client.close()
			delete(h.clients, client)
		}
		h.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.flush()
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("board viewer connected", slog.Int("viewers", total))
			h.sendInitialBoard(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("board viewer disconnected", slog.Int("viewers", total))

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) fanOut(message outbound) {
	h.remember(message)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if !client.trySend(message.data) {
			h.logger.Warn("board viewer send buffer full, dropping message")
		}
	}
}

// flush delivers what is already queued so a new viewer starts from the latest board.
func (h *Hub) flush() {
	for n := len(h.broadcast); n > 0; n-- {
		h.fanOut(<-h.broadcast)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Attach forwards every collection change of board to the viewers. Call it
// before Run.
func (h *Hub) Attach(board *services.Board) (detach func()) {
	h.attached = true
	unsubs := []func(){
		board.SubscribeCourts(func(courts []models.Court) { h.Broadcast(MessageCourts, courts) }),
		board.SubscribeQueue(func(queue []models.Player) { h.Broadcast(MessageQueue, queue) }),
		board.SubscribeReady(func(ready []models.Player) { h.Broadcast(MessageReadyGroup, ready) }),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

// Broadcast drops the message when the hub is no longer running.
func (h *Hub) Broadcast(messageType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload})
	if err != nil {
		h.logger.Error("failed to encode board message", slog.String("type", messageType), slog.Any("error", err))
		return
	}
	select {
	case h.broadcast <- outbound{kind: messageType, payload: payload, data: data}:
	case <-h.done:
	}
}

// remember keeps the latest copy of each board collection for new viewers.
func (h *Hub) remember(msg outbound) {
	switch payload := msg.payload.(type) {
	case []models.Court:
		if msg.kind == MessageCourts {
			h.state.Courts = payload
		}
	case []models.Player:
		switch msg.kind {
		case MessageQueue:
			h.state.Queue = payload
		case MessageReadyGroup:
			h.state.ReadyGroup = payload
		}
	}
}

// AnnounceCourtAssignment tells every viewer which players should go to which court.
func (h *Hub) AnnounceCourtAssignment(_ context.Context, courtName string, playerNames []string) error {
	select {
	case <-h.done:
		return fmt.Errorf("announcement for %s not sent: hub is stopped", courtName)
	default:
	}
	h.Broadcast(MessageAnnouncement, Announcement{
		CourtName:   courtName,
		PlayerNames: playerNames,
		Message:     AnnouncementText(courtName, playerNames),
	})
	return nil
}

func AnnouncementText(courtName string, playerNames []string) string {
	return fmt.Sprintf("Attention! %s: %s, please go to your court.", courtName, strings.Join(playerNames, ", "))
}

// ServeClient registers conn with the hub and pumps messages until it closes.
func (h *Hub) ServeClient(conn *websocket.Conn) {
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}

func (h *Hub) sendInitialBoard(client *Client) {
	if !h.attached {
		return
	}
	view := models.NewBoardView(&h.state, h.now())
	data, err := json.Marshal(Message{Type: MessageBoard, Payload: view})
	if err != nil {
		h.logger.Error("failed to encode board", slog.Any("error", err))
		return
	}
	client.trySend(data)
}

func (c *Client) trySend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// readPump only watches for pongs and disconnects; viewers never send commands.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("board viewer closed unexpectedly", slog.Any("error", err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Одно сообщение на фрейм: клиент парсит каждый фрейм как JSON
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Debug("board viewer write failed", slog.Any("error", err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
