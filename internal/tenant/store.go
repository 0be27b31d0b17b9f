package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Store looks up room configuration and manages session rows in Postgres.
type Store struct {
	db     *pgxpool.Pool
	logger zerolog.Logger
}

// NewStore creates a tenant store backed by the given pool. A nil pool is
// allowed; every lookup then reports "not registered".
func NewStore(db *pgxpool.Pool, logger zerolog.Logger) *Store {
	return &Store{db: db, logger: logger.With().Str("component", "tenant").Logger()}
}

// LookupRoom fetches the tenant context for a room by its connection name.
// An unregistered room yields an empty context and no error.
func (s *Store) LookupRoom(ctx context.Context, roomName string) (*Context, error) {
	tc := &Context{}
	if s.db == nil {
		return tc, nil
	}

	row := s.db.QueryRow(ctx, `
		SELECT id::text, mosque_id::text, COALESCE(title, ''),
		       COALESCE(transcription_language, 'ar'),
		       COALESCE(translation_language, 'nl'),
		       COALESCE(context_window_size, 0),
		       COALESCE(translation_prompt, ''),
		       COALESCE(max_delay, 0),
		       COALESCE(punctuation_sensitivity, 0)
		FROM rooms
		WHERE livekit_room_name = $1`,
		roomName,
	)

	err := row.Scan(
		&tc.RoomID, &tc.MosqueID, &tc.RoomTitle,
		&tc.TranscriptionLanguage, &tc.TranslationLanguage,
		&tc.ContextWindowSize, &tc.TranslationPrompt,
		&tc.MaxDelay, &tc.PunctuationSensitivity,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		s.logger.Info().Str("room", roomName).Msg("Room not registered, using defaults")
		return &Context{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup room %q: %w", roomName, err)
	}

	if sessionID, err := s.activeSession(ctx, tc.RoomID); err != nil {
		s.logger.Warn().Err(err).Str("room_id", tc.RoomID).Msg("Active session lookup failed")
	} else {
		tc.SessionID = sessionID
	}

	return tc, nil
}

// activeSession returns the id of the open session for a room, or "".
func (s *Store) activeSession(ctx context.Context, roomID string) (string, error) {
	var sessionID string
	err := s.db.QueryRow(ctx, `
		SELECT id::text
		FROM room_sessions
		WHERE room_id::text = $1 AND ended_at IS NULL
		ORDER BY started_at DESC
		LIMIT 1`,
		roomID,
	).Scan(&sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("active session for room %q: %w", roomID, err)
	}
	return sessionID, nil
}

// UpdateSessionHeartbeat records that the session is still alive. Failures
// are reported to the caller for logging only; they never stop a session.
func (s *Store) UpdateSessionHeartbeat(ctx context.Context, sessionID string) error {
	if s.db == nil || sessionID == "" {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		UPDATE room_sessions
		SET last_heartbeat = $1
		WHERE id::text = $2`,
		time.Now().UTC(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("update heartbeat for session %q: %w", sessionID, err)
	}
	return nil
}

// CloseSession marks the session as ended.
func (s *Store) CloseSession(ctx context.Context, sessionID string) error {
	if s.db == nil || sessionID == "" {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		UPDATE room_sessions
		SET ended_at = $1
		WHERE id::text = $2 AND ended_at IS NULL`,
		time.Now().UTC(), sessionID,
	)
	if err != nil {
		return fmt.Errorf("close session %q: %w", sessionID, err)
	}
	return nil
}

// Ping verifies database connectivity for readiness checks.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Ping(ctx)
}
