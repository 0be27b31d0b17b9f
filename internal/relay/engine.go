// Package relay contains the per-room pipeline: it accumulates final
// transcript fragments into sentences, emits transcription events to
// the room's displays, and dispatches completed sentences to the
// translation workers.
package relay

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/minbarlive/translation-relay/internal/observability"
	"github.com/minbarlive/translation-relay/internal/segment"
	"github.com/minbarlive/translation-relay/internal/sink"
	"github.com/minbarlive/translation-relay/internal/tenant"
)

// SentenceDispatcher receives completed sentences for translation.
type SentenceDispatcher interface {
	Dispatch(ctx context.Context, sentenceID, text string)
}

// Publisher delivers transcription events downstream.
type Publisher interface {
	Deliver(ctx context.Context, event *sink.Event) bool
}

// Engine accumulates transcript fragments for one room. Fragments are
// append-only: upstream may re-emit overlapping finals and the engine
// only suppresses exact duplicates of the immediately preceding one.
// Ingest must be called from a single goroutine; sentence dispatches
// are handed off and never block ingestion.
type Engine struct {
	sourceLang string
	tenant     *tenant.Context
	dispatcher SentenceDispatcher
	publisher  Publisher
	spawn      func(func()) // runs a dispatch without blocking Ingest
	metrics    *observability.SessionMetrics
	logger     zerolog.Logger

	pendingText  string
	sentenceID   string
	lastFragment string
}

// EngineParams configures an accumulation engine.
type EngineParams struct {
	SourceLanguage string
	Tenant         *tenant.Context
	Dispatcher     SentenceDispatcher
	Publisher      Publisher
	Spawn          func(func())
	Metrics        *observability.SessionMetrics
	Logger         zerolog.Logger
}

func NewEngine(p EngineParams) *Engine {
	spawn := p.Spawn
	if spawn == nil {
		spawn = func(fn func()) { go fn() }
	}
	return &Engine{
		sourceLang: p.SourceLanguage,
		tenant:     p.Tenant,
		dispatcher: p.Dispatcher,
		publisher:  p.Publisher,
		spawn:      spawn,
		metrics:    p.Metrics,
		logger:     p.Logger.With().Str("component", "accumulation_engine").Logger(),
	}
}

// Ingest processes one final transcript fragment. Empty fragments and
// exact duplicates of the previous fragment are dropped. Every accepted
// fragment is published for low-latency display; completed sentences
// are additionally published as complete and dispatched for
// translation without waiting for the translations to finish.
func (e *Engine) Ingest(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		e.recordFragment("empty")
		return
	}
	if text == e.lastFragment {
		e.logger.Debug().Str("text", text).Msg("duplicate fragment, skipping")
		e.recordFragment("duplicate")
		return
	}
	e.lastFragment = text

	// A fragment that is nothing but a terminator closes whatever is
	// pending; it carries no words of its own.
	if sentences, _ := segment.Extract(text); len(sentences) == 1 && sentences[0] == segment.CompletionSignal {
		e.recordFragment("accepted")
		e.completePending(ctx, text)
		return
	}

	if e.pendingText == "" {
		e.sentenceID = uuid.NewString()
		e.pendingText = text
	} else {
		e.pendingText = e.pendingText + " " + text
	}
	e.recordFragment("accepted")
	e.publishFragment(ctx, text)

	sentences, remainder := segment.Extract(e.pendingText)
	if len(sentences) > 0 {
		for _, sentence := range sentences {
			id := e.sentenceID
			if len(sentences) > 1 {
				id = uuid.NewString()
			}
			e.emitSentence(ctx, id, sentence)
		}
		e.pendingText = remainder
		if remainder != "" {
			e.sentenceID = uuid.NewString()
		} else {
			e.sentenceID = ""
		}
	}

	if e.pendingText != "" {
		e.logger.Debug().Str("pending", e.pendingText).Msg("incomplete sentence accumulating")
	}
}

// completePending closes the buffered sentence on a bare-punctuation
// fragment. With nothing pending the signal is meaningless and dropped.
func (e *Engine) completePending(ctx context.Context, fragment string) {
	if e.pendingText == "" {
		e.logger.Warn().Msg("completion punctuation with no pending text")
		return
	}
	e.publishFragment(ctx, fragment)

	text := e.pendingText
	id := e.sentenceID
	e.pendingText = ""
	e.sentenceID = ""
	e.emitSentence(ctx, id, text)
}

// emitSentence publishes the sentence-complete event and hands the
// sentence to the translation dispatcher.
func (e *Engine) emitSentence(ctx context.Context, sentenceID, text string) {
	if e.metrics != nil {
		e.metrics.RecordSentence()
	}
	e.logger.Info().
		Str("sentence_id", sentenceID).
		Str("text", text).
		Msg("sentence completed")

	if e.publisher != nil {
		e.publisher.Deliver(ctx, &sink.Event{
			Type:     sink.TypeTranscription,
			Language: e.sourceLang,
			Text:     text,
			Tenant:   e.tenant,
			Sentence: &sink.SentenceContext{
				SentenceID: sentenceID,
				IsComplete: true,
				IsFragment: false,
			},
		})
	}
	if e.dispatcher != nil {
		e.spawn(func() {
			e.dispatcher.Dispatch(ctx, sentenceID, text)
		})
	}
}

func (e *Engine) publishFragment(ctx context.Context, text string) {
	if e.publisher == nil {
		return
	}
	e.publisher.Deliver(ctx, &sink.Event{
		Type:     sink.TypeTranscription,
		Language: e.sourceLang,
		Text:     text,
		Tenant:   e.tenant,
		Sentence: &sink.SentenceContext{
			SentenceID: e.sentenceID,
			IsComplete: false,
			IsFragment: true,
		},
	})
}

func (e *Engine) recordFragment(status string) {
	if e.metrics != nil {
		e.metrics.RecordFragment(status)
	}
}

// Pending returns the unterminated text currently buffered.
func (e *Engine) Pending() string {
	return e.pendingText
}
