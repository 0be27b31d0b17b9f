package translate

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/minbarlive/translation-relay/internal/observability"
	"github.com/minbarlive/translation-relay/internal/prompt"
	"github.com/minbarlive/translation-relay/internal/resilience"
	"github.com/minbarlive/translation-relay/internal/sink"
	"github.com/minbarlive/translation-relay/internal/tenant"
)

// Publisher delivers a finished translation to displays and storage.
type Publisher interface {
	Deliver(ctx context.Context, event *sink.Event) bool
}

// WorkerParams configures one translation worker.
type WorkerParams struct {
	Language     string // target language code, e.g. "nl"
	LanguageName string // target language name for the prompt, e.g. "Dutch"
	SourceName   string // source language name for the prompt, e.g. "Arabic"
	Tenant       *tenant.Context
	Provider     Provider
	Resolver     prompt.Resolver
	Publisher    Publisher
	Retry        *resilience.RetryConfig
	ContextPairs int
	Metrics      *observability.SessionMetrics
	Logger       zerolog.Logger
}

// Worker translates completed sentences into a single target language.
// Each worker keeps a bounded user/assistant history so the model sees
// recent sentence pairs for terminology and pronoun consistency.
type Worker struct {
	language     string
	languageName string
	sourceName   string
	tenant       *tenant.Context
	provider     Provider
	resolver     prompt.Resolver
	publisher    Publisher
	retry        *resilience.RetryConfig
	maxHistory   int
	metrics      *observability.SessionMetrics
	logger       zerolog.Logger

	mu           sync.Mutex
	systemPrompt string
	promptReady  bool
	history      []ChatMessage
	translated   uint64
	failed       uint64
}

func NewWorker(p WorkerParams) *Worker {
	pairs := p.ContextPairs
	if pairs <= 0 {
		pairs = 1
	}
	retry := p.Retry
	if retry == nil {
		retry = resilience.DefaultRetryConfig()
	}
	w := &Worker{
		language:     p.Language,
		languageName: p.LanguageName,
		sourceName:   p.SourceName,
		tenant:       p.Tenant,
		provider:     p.Provider,
		resolver:     p.Resolver,
		publisher:    p.Publisher,
		retry:        retry,
		maxHistory:   2 * pairs,
		metrics:      p.Metrics,
		logger: p.Logger.With().
			Str("component", "translation_worker").
			Str("language", p.Language).
			Logger(),
	}
	observability.WorkerRegistered()
	return w
}

// Language returns the worker's target language code.
func (w *Worker) Language() string {
	return w.language
}

// Translate produces the translation of one completed sentence and
// delivers it to the worker's publisher. Failures degrade to an empty
// string after retries are exhausted; translation never propagates an
// error into the ingest path.
func (w *Worker) Translate(ctx context.Context, sentenceID, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	req := Request{
		SystemPrompt: w.ensurePrompt(ctx),
		History:      w.snapshotHistory(),
		Input:        text,
	}

	if w.metrics != nil {
		w.metrics.RecordTranslationStart(w.language, sentenceID)
	}

	var out string
	err := resilience.Retry(ctx, func() error {
		translated, err := w.request(ctx, req)
		if err != nil {
			if resilience.IsRetryableNetworkError(err) {
				return err
			}
			// Auth and request errors will fail the same way on every
			// attempt.
			return resilience.Permanent(err)
		}
		out = translated
		return nil
	}, w.retry)

	if err != nil {
		w.mu.Lock()
		w.failed++
		w.mu.Unlock()
		if w.metrics != nil {
			w.metrics.RecordTranslationEnd(w.language, sentenceID, "error")
		}
		w.logger.Error().Err(err).
			Str("sentence_id", sentenceID).
			Msg("translation failed after retries")
		return ""
	}

	if out == "" {
		if w.metrics != nil {
			w.metrics.RecordTranslationEnd(w.language, sentenceID, "empty")
		}
		w.logger.Warn().Str("sentence_id", sentenceID).Msg("provider returned empty translation")
		return ""
	}

	w.commit(text, out)
	if w.metrics != nil {
		w.metrics.RecordTranslationEnd(w.language, sentenceID, "success")
	}

	if w.publisher != nil {
		w.publisher.Deliver(ctx, &sink.Event{
			Type:     sink.TypeTranslation,
			Language: w.language,
			Text:     out,
			Tenant:   w.tenant,
			Sentence: &sink.SentenceContext{
				SentenceID: sentenceID,
				IsComplete: true,
				IsFragment: false,
			},
		})
	}

	return out
}

// request runs one provider call, accumulating streamed chunks into the
// full translation. The stream is always drained or cancelled before
// returning.
func (w *Worker) request(ctx context.Context, req Request) (string, error) {
	ch, err := w.provider.Stream(ctx, req)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for chunk := range ch {
		if chunk.Err != nil {
			return "", chunk.Err
		}
		sb.WriteString(chunk.Text)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return strings.TrimSpace(sb.String()), nil
}

// ensurePrompt resolves the system prompt once per worker lifetime.
func (w *Worker) ensurePrompt(ctx context.Context) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.promptReady {
		w.systemPrompt = w.resolver.Resolve(ctx, w.tenant, w.sourceName, w.languageName)
		w.promptReady = true
		w.logger.Info().Msg("translation prompt initialized")
	}
	return w.systemPrompt
}

func (w *Worker) snapshotHistory() []ChatMessage {
	w.mu.Lock()
	defer w.mu.Unlock()
	history := make([]ChatMessage, len(w.history))
	copy(history, w.history)
	return history
}

// commit appends the sentence pair and evicts the oldest pairs beyond
// the history bound. History only ever grows in pairs, so its length
// stays even.
func (w *Worker) commit(input, output string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.history = append(w.history,
		ChatMessage{Role: RoleUser, Content: input},
		ChatMessage{Role: RoleAssistant, Content: output},
	)
	for len(w.history) > w.maxHistory {
		w.history = w.history[2:]
	}
	w.translated++
}

// Stats is a snapshot of one worker's counters.
type Stats struct {
	Language   string
	Translated uint64
	Failed     uint64
	HistoryLen int
}

func (w *Worker) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		Language:   w.language,
		Translated: w.translated,
		Failed:     w.failed,
		HistoryLen: len(w.history),
	}
}
