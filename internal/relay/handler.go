package relay

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var ingestUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Speaker clients authenticate upstream; origin enforcement
		// happens at the ingress layer.
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// IngestMessage is one frame on the speaker ingest websocket. Audio
// arrives as base64 PCM16 media events; control events manage the
// session and its target languages.
type IngestMessage struct {
	Event    string `json:"event"`              // start, media, set_language, stop
	Room     string `json:"room,omitempty"`     // start only
	Payload  string `json:"payload,omitempty"`  // media only, base64 PCM16
	Language string `json:"language,omitempty"` // set_language only
}

// IngestHandler terminates the speaker's websocket and drives the
// room's session.
type IngestHandler struct {
	manager *SessionManager
	logger  zerolog.Logger
}

func NewIngestHandler(manager *SessionManager, logger zerolog.Logger) *IngestHandler {
	return &IngestHandler{
		manager: manager,
		logger:  logger.With().Str("component", "ingest_handler").Logger(),
	}
}

// ServeHTTP upgrades the connection and processes ingest messages until
// the speaker disconnects or sends a stop event. The room session is
// torn down when the connection ends.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ingestUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("ingest websocket upgrade failed")
		return
	}
	defer conn.Close()

	var session *Session
	var room string
	defer func() {
		if room != "" {
			h.manager.Remove(room)
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn().Err(err).Str("room", room).Msg("ingest connection error")
			} else {
				h.logger.Info().Str("room", room).Msg("ingest connection closed")
			}
			return
		}

		var msg IngestMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.logger.Warn().Err(err).Msg("malformed ingest message")
			continue
		}

		switch msg.Event {
		case "start":
			if session != nil {
				h.logger.Warn().Str("room", room).Msg("duplicate start event")
				continue
			}
			if msg.Room == "" {
				h.logger.Warn().Msg("start event without room name")
				continue
			}
			session, err = h.manager.GetOrCreate(r.Context(), msg.Room)
			if err != nil {
				h.logger.Error().Err(err).Str("room", msg.Room).Msg("failed to start room session")
				return
			}
			room = msg.Room

		case "media":
			if session == nil {
				continue
			}
			frame, err := base64.StdEncoding.DecodeString(msg.Payload)
			if err != nil {
				h.logger.Warn().Err(err).Msg("invalid media payload encoding")
				continue
			}
			if err := session.SendAudio(frame); err != nil {
				h.logger.Warn().Err(err).Msg("audio forward failed")
			}

		case "set_language":
			if session == nil {
				continue
			}
			if err := session.AddTarget(msg.Language); err != nil {
				h.logger.Warn().Err(err).Str("language", msg.Language).Msg("caption language request rejected")
			}

		case "stop":
			h.logger.Info().Str("room", room).Msg("stop event received")
			return

		default:
			h.logger.Debug().Str("event", msg.Event).Msg("unhandled ingest event")
		}
	}
}

// LanguageRequestHandler lets display clients register a captions
// language for a live room over plain HTTP, mirroring the runtime
// participant-request flow.
type LanguageRequestHandler struct {
	manager *SessionManager
	logger  zerolog.Logger
}

func NewLanguageRequestHandler(manager *SessionManager, logger zerolog.Logger) *LanguageRequestHandler {
	return &LanguageRequestHandler{
		manager: manager,
		logger:  logger.With().Str("component", "language_request_handler").Logger(),
	}
}

func (h *LanguageRequestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Room     string `json:"room"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, ok := h.manager.Get(req.Room)
	if !ok {
		http.Error(w, "no live session for room", http.StatusNotFound)
		return
	}

	if err := session.AddTarget(req.Language); err != nil {
		h.logger.Warn().Err(err).
			Str("room", req.Room).
			Str("language", req.Language).
			Msg("caption language request rejected")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"room":      req.Room,
		"languages": session.Languages(),
	})
}
