package sink

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/minbarlive/translation-relay/internal/tenant"
)

// Event types delivered to displays and storage.
const (
	TypeTranscription = "transcription"
	TypeTranslation   = "translation"
)

// SentenceContext tracks which sentence a piece of text belongs to so
// displays can update a growing sentence in place instead of appending
// duplicate lines.
type SentenceContext struct {
	SentenceID string `json:"sentence_id,omitempty"`
	IsComplete bool   `json:"is_complete"`
	IsFragment bool   `json:"is_fragment"`
}

// Event is a single transcription or translation result bound for the
// room's displays and transcript store.
type Event struct {
	Type     string
	Language string
	Text     string
	Tenant   *tenant.Context
	Sentence *SentenceContext
}

// Sink receives pipeline output. Notify is the real-time path and Store
// is the persistence path. Both report success as a bool because the
// pipeline degrades rather than fails when delivery is unavailable.
type Sink interface {
	Notify(ctx context.Context, event *Event) bool
	Store(ctx context.Context, event *Event) bool
}

// messageID builds a unique identifier from the event timestamp and a
// short content hash, letting displays deduplicate redelivered messages.
func messageID(timestamp string, text string) string {
	sum := md5.Sum([]byte(text))
	return timestamp + "_" + hex.EncodeToString(sum[:])[:8]
}

func utcTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
