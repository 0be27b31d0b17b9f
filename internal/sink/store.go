package sink

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/minbarlive/translation-relay/internal/observability"
)

const storeTimeout = 10 * time.Second

// TranscriptStore persists transcription and translation segments to
// the transcripts table. Storage is best effort: failures are logged
// and counted but never propagate into the pipeline.
type TranscriptStore struct {
	db     *pgxpool.Pool
	logger zerolog.Logger
}

func NewTranscriptStore(db *pgxpool.Pool, logger zerolog.Logger) *TranscriptStore {
	return &TranscriptStore{
		db:     db,
		logger: logger.With().Str("component", "transcript_store").Logger(),
	}
}

// Store writes one segment row. Transcriptions and translations land in
// separate columns of the same table so a session transcript can be
// reassembled per language.
func (s *TranscriptStore) Store(ctx context.Context, event *Event) bool {
	if s.db == nil {
		return false
	}
	if event == nil || event.Text == "" {
		return false
	}
	if !event.Tenant.Registered() || event.Tenant.SessionID == "" {
		s.logger.Warn().Msg("missing session context, skipping transcript storage")
		return false
	}

	var sentenceID interface{}
	isComplete, isFragment := false, true
	if event.Sentence != nil {
		if event.Sentence.SentenceID != "" {
			sentenceID = event.Sentence.SentenceID
		}
		isComplete = event.Sentence.IsComplete
		isFragment = event.Sentence.IsFragment
	}

	var transcription, translation interface{}
	if event.Type == TypeTranscription {
		transcription = event.Text
	} else {
		translation = event.Text
	}

	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	_, err := s.db.Exec(ctx, `
		INSERT INTO transcripts (
			room_id, session_id, "timestamp",
			sentence_id, is_complete, is_fragment,
			transcription_segment, translation_segment, language
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.Tenant.RoomID,
		event.Tenant.SessionID,
		time.Now().UTC(),
		sentenceID,
		isComplete,
		isFragment,
		transcription,
		translation,
		event.Language,
	)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("room_id", event.Tenant.RoomID).
			Str("type", event.Type).
			Msg("transcript storage failed")
		observability.RecordSinkFailure("store")
		return false
	}
	return true
}

// Notify is a no-op on the store. It exists so a TranscriptStore can be
// used standalone as a Sink in sessions without displays.
func (s *TranscriptStore) Notify(ctx context.Context, event *Event) bool {
	return false
}
