package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/minbarlive/translation-relay/internal/observability"
)

var displayUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Displays connect from mosque screens and the web portal;
		// origin enforcement happens at the ingress layer.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

const (
	displayWriteTimeout = 5 * time.Second
	displaySendBuffer   = 64
	broadcastBuffer     = 256
)

// displayClient is one subscribed websocket connection. Writes go
// through a buffered channel so a slow display cannot block broadcasts.
type displayClient struct {
	conn    *websocket.Conn
	send    chan []byte
	channel string
}

type hubBroadcast struct {
	channel string
	raw     []byte
}

type hubCountQuery struct {
	channel string
	reply   chan int
}

// Hub fans transcription and translation messages out to every display
// subscribed to a room's broadcast channel. All registry mutation and
// broadcasting happens on the hub's run goroutine, so a client's send
// channel is only ever closed by the same goroutine that sends on it.
type Hub struct {
	channels   map[string]map[*displayClient]struct{}
	register   chan *displayClient
	unregister chan *displayClient
	broadcast  chan hubBroadcast
	counts     chan hubCountQuery
	done       chan struct{}
	closeOnce  sync.Once
	logger     zerolog.Logger
}

func NewHub(logger zerolog.Logger) *Hub {
	h := &Hub{
		channels:   make(map[string]map[*displayClient]struct{}),
		register:   make(chan *displayClient),
		unregister: make(chan *displayClient),
		broadcast:  make(chan hubBroadcast, broadcastBuffer),
		counts:     make(chan hubCountQuery),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "display_hub").Logger(),
	}
	go h.run()
	return h
}

// run owns the subscription registry. Register, unregister and
// broadcast are serialized here.
func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			for channel, clients := range h.channels {
				for c := range clients {
					close(c.send)
				}
				delete(h.channels, channel)
			}
			return

		case c := <-h.register:
			if h.channels[c.channel] == nil {
				h.channels[c.channel] = make(map[*displayClient]struct{})
			}
			h.channels[c.channel][c] = struct{}{}

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.broadcast:
			for c := range h.channels[msg.channel] {
				select {
				case c.send <- msg.raw:
				default:
					h.logger.Warn().Str("channel", msg.channel).Msg("display send buffer full, disconnecting client")
					h.drop(c)
				}
			}

		case q := <-h.counts:
			q.reply <- len(h.channels[q.channel])
		}
	}
}

// drop removes a client from the registry and closes its send channel.
// Only called from the run goroutine.
func (h *Hub) drop(c *displayClient) {
	clients, ok := h.channels[c.channel]
	if !ok {
		return
	}
	if _, present := clients[c]; !present {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.channels, c.channel)
	}
}

// displayMessage is the wire format pushed to displays.
type displayMessage struct {
	Type     string         `json:"type"`
	RoomID   string         `json:"room_id"`
	MosqueID string         `json:"mosque_id"`
	Data     displayPayload `json:"data"`
}

type displayPayload struct {
	Text       string `json:"text"`
	Language   string `json:"language"`
	Timestamp  string `json:"timestamp"`
	MsgID      string `json:"msg_id"`
	SentenceID string `json:"sentence_id,omitempty"`
	IsComplete bool   `json:"is_complete"`
	IsFragment bool   `json:"is_fragment"`
}

// Notify broadcasts the event to all displays on the room's channel.
// Returns false when the event carries no text or no registered room.
func (h *Hub) Notify(ctx context.Context, event *Event) bool {
	if event == nil || event.Text == "" {
		return false
	}
	if !event.Tenant.Registered() {
		h.logger.Warn().Msg("missing tenant context for broadcast")
		return false
	}

	timestamp := utcTimestamp()
	msg := displayMessage{
		Type:     event.Type,
		RoomID:   event.Tenant.RoomID,
		MosqueID: event.Tenant.MosqueID,
		Data: displayPayload{
			Text:      event.Text,
			Language:  event.Language,
			Timestamp: timestamp,
			MsgID:     messageID(timestamp, event.Text),
		},
	}
	if event.Sentence != nil {
		msg.Data.SentenceID = event.Sentence.SentenceID
		msg.Data.IsComplete = event.Sentence.IsComplete
		msg.Data.IsFragment = event.Sentence.IsFragment
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to encode display message")
		observability.RecordSinkFailure("broadcast")
		return false
	}

	select {
	case h.broadcast <- hubBroadcast{channel: event.Tenant.ChannelName(), raw: raw}:
		return true
	case <-h.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// SubscriberCount reports how many displays are attached to a channel.
func (h *Hub) SubscriberCount(channel string) int {
	q := hubCountQuery{channel: channel, reply: make(chan int, 1)}
	select {
	case h.counts <- q:
		return <-q.reply
	case <-h.done:
		return 0
	}
}

// ServeDisplay upgrades an HTTP request to a websocket subscription on
// the channel named in the "channel" query parameter.
func (h *Hub) ServeDisplay(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		http.Error(w, "missing channel parameter", http.StatusBadRequest)
		return
	}

	conn, err := displayUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("display websocket upgrade failed")
		return
	}

	client := &displayClient{
		conn:    conn,
		send:    make(chan []byte, displaySendBuffer),
		channel: channel,
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}
	h.logger.Info().Str("channel", channel).Msg("display connected")

	go h.writePump(client)
	go h.readPump(client)
}

// writePump drains the client's send channel onto the connection. On a
// write error it stops writing and leaves cleanup to readPump; the run
// goroutine keeps draining into the buffer until the client is dropped.
func (h *Hub) writePump(c *displayClient) {
	defer c.conn.Close()
	for raw := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(displayWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			h.logger.Debug().Err(err).Str("channel", c.channel).Msg("display write failed")
			return
		}
	}
}

// readPump discards inbound frames and detects disconnects. Displays
// are listen-only.
func (h *Hub) readPump(c *displayClient) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.logger.Info().Str("channel", c.channel).Msg("display disconnected")
			return
		}
	}
}

// Store is a no-op on the hub. It exists so a Hub can be used
// standalone as a Sink in sessions without persistence.
func (h *Hub) Store(ctx context.Context, event *Event) bool {
	return false
}

// Close disconnects every subscribed display and stops the hub.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
