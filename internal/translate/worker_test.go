package translate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/minbarlive/translation-relay/internal/resilience"
	"github.com/minbarlive/translation-relay/internal/sink"
	"github.com/minbarlive/translation-relay/internal/tenant"
)

// fakeProvider replays a scripted sequence of results, one per call.
// An empty error slot means the call streams the text successfully.
type fakeProvider struct {
	mu      sync.Mutex
	script  []fakeResult
	calls   int
	lastReq Request
}

type fakeResult struct {
	text string
	err  error
}

func (f *fakeProvider) Stream(ctx context.Context, req Request) (<-chan Chunk, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	var result fakeResult
	if len(f.script) > 0 {
		result = f.script[0]
		f.script = f.script[1:]
	}
	f.mu.Unlock()

	ch := make(chan Chunk, 4)
	go func() {
		defer close(ch)
		if result.err != nil {
			ch <- Chunk{Err: result.err}
			return
		}
		// Deliver in two chunks to exercise accumulation.
		half := len(result.text) / 2
		ch <- Chunk{Text: result.text[:half]}
		ch <- Chunk{Text: result.text[half:]}
	}()
	return ch, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*sink.Event
}

func (f *fakePublisher) Deliver(ctx context.Context, e *sink.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return true
}

func (f *fakePublisher) delivered() []*sink.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*sink.Event, len(f.events))
	copy(out, f.events)
	return out
}

// countingResolver records how many times the prompt was resolved.
type countingResolver struct {
	mu    sync.Mutex
	calls int
}

func (r *countingResolver) Resolve(ctx context.Context, tc *tenant.Context, source, target string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return "Translate from " + source + " to " + target + "."
}

func fastRetry() *resilience.RetryConfig {
	return &resilience.RetryConfig{MaxRetries: 2, BackoffStep: time.Millisecond}
}

func newTestWorker(provider Provider, publisher Publisher, resolver *countingResolver, pairs int) *Worker {
	if resolver == nil {
		resolver = &countingResolver{}
	}
	return NewWorker(WorkerParams{
		Language:     "nl",
		LanguageName: "Dutch",
		SourceName:   "Arabic",
		Tenant:       &tenant.Context{RoomID: "r1", MosqueID: "m1", SessionID: "s1"},
		Provider:     provider,
		Resolver:     resolver,
		Publisher:    publisher,
		Retry:        fastRetry(),
		ContextPairs: pairs,
		Logger:       zerolog.Nop(),
	})
}

func TestWorkerTranslate_EmptyInputIsNoOp(t *testing.T) {
	provider := &fakeProvider{}
	w := newTestWorker(provider, nil, nil, 3)

	if got := w.Translate(context.Background(), "s-1", "   "); got != "" {
		t.Errorf("Translate(blank) = %q, want empty", got)
	}
	if provider.callCount() != 0 {
		t.Errorf("provider called %d times for blank input", provider.callCount())
	}
}

func TestWorkerTranslate_SuccessDeliversAndCommitsHistory(t *testing.T) {
	provider := &fakeProvider{script: []fakeResult{{text: "welkom allemaal"}}}
	publisher := &fakePublisher{}
	w := newTestWorker(provider, publisher, nil, 3)

	got := w.Translate(context.Background(), "s-1", "مرحبا بكم")
	if got != "welkom allemaal" {
		t.Fatalf("Translate() = %q", got)
	}

	events := publisher.delivered()
	if len(events) != 1 {
		t.Fatalf("delivered %d events, want 1", len(events))
	}
	e := events[0]
	if e.Type != sink.TypeTranslation || e.Language != "nl" || e.Text != "welkom allemaal" {
		t.Errorf("event = %+v", e)
	}
	if e.Sentence == nil || e.Sentence.SentenceID != "s-1" || !e.Sentence.IsComplete || e.Sentence.IsFragment {
		t.Errorf("sentence context = %+v", e.Sentence)
	}

	stats := w.Stats()
	if stats.Translated != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.HistoryLen != 2 {
		t.Errorf("history length = %d, want 2", stats.HistoryLen)
	}
}

func TestWorkerTranslate_HistoryStaysBounded(t *testing.T) {
	pairs := 3
	script := make([]fakeResult, 10)
	for i := range script {
		script[i] = fakeResult{text: "vertaling"}
	}
	provider := &fakeProvider{script: script}
	w := newTestWorker(provider, nil, nil, pairs)

	for i := 0; i < 10; i++ {
		w.Translate(context.Background(), "s", "zin nummer")
	}

	stats := w.Stats()
	if stats.HistoryLen != 2*pairs {
		t.Errorf("history length = %d, want %d", stats.HistoryLen, 2*pairs)
	}
	if stats.HistoryLen%2 != 0 {
		t.Errorf("history length %d is odd", stats.HistoryLen)
	}
}

func TestWorkerTranslate_RetriesThenSucceeds(t *testing.T) {
	provider := &fakeProvider{script: []fakeResult{
		{err: errors.New("rate limit")},
		{text: "gelukt"},
	}}
	w := newTestWorker(provider, nil, nil, 3)

	got := w.Translate(context.Background(), "s-1", "نجح")
	if got != "gelukt" {
		t.Fatalf("Translate() = %q", got)
	}
	if provider.callCount() != 2 {
		t.Errorf("provider called %d times, want 2", provider.callCount())
	}
	if stats := w.Stats(); stats.Failed != 0 {
		t.Errorf("failed = %d after eventual success", stats.Failed)
	}
}

func TestWorkerTranslate_ExhaustedRetriesDegradeToEmpty(t *testing.T) {
	provider := &fakeProvider{script: []fakeResult{
		{err: errors.New("unavailable")},
		{err: errors.New("unavailable")},
		{err: errors.New("unavailable")},
	}}
	publisher := &fakePublisher{}
	w := newTestWorker(provider, publisher, nil, 3)

	if got := w.Translate(context.Background(), "s-1", "فشل"); got != "" {
		t.Fatalf("Translate() = %q, want empty on failure", got)
	}
	if provider.callCount() != 3 {
		t.Errorf("provider called %d times, want 3 (initial + 2 retries)", provider.callCount())
	}
	if len(publisher.delivered()) != 0 {
		t.Error("failed translation must not be delivered")
	}
	stats := w.Stats()
	if stats.Failed != 1 || stats.HistoryLen != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestWorkerTranslate_NonRetryableErrorFailsFast(t *testing.T) {
	provider := &fakeProvider{script: []fakeResult{
		{err: errors.New("invalid api key")},
		{text: "mag niet gebeuren"},
	}}
	w := newTestWorker(provider, nil, nil, 3)

	if got := w.Translate(context.Background(), "s-1", "مرحبا"); got != "" {
		t.Fatalf("Translate() = %q, want empty on auth failure", got)
	}
	if provider.callCount() != 1 {
		t.Errorf("provider called %d times, want 1 (no retries for auth errors)", provider.callCount())
	}
	if stats := w.Stats(); stats.Failed != 1 {
		t.Errorf("failed = %d, want 1", stats.Failed)
	}
}

func TestWorkerTranslate_EmptyOutputCommitsNothing(t *testing.T) {
	provider := &fakeProvider{script: []fakeResult{{text: "  "}}}
	publisher := &fakePublisher{}
	w := newTestWorker(provider, publisher, nil, 3)

	if got := w.Translate(context.Background(), "s-1", "نص"); got != "" {
		t.Fatalf("Translate() = %q", got)
	}
	if len(publisher.delivered()) != 0 {
		t.Error("empty translation must not be delivered")
	}
	if stats := w.Stats(); stats.HistoryLen != 0 {
		t.Errorf("history length = %d, want 0", stats.HistoryLen)
	}
}

func TestWorkerTranslate_PromptResolvedOnce(t *testing.T) {
	provider := &fakeProvider{script: []fakeResult{{text: "een"}, {text: "twee"}}}
	resolver := &countingResolver{}
	w := newTestWorker(provider, nil, resolver, 3)

	w.Translate(context.Background(), "s-1", "واحد")
	w.Translate(context.Background(), "s-2", "اثنان")

	if resolver.calls != 1 {
		t.Errorf("prompt resolved %d times, want 1", resolver.calls)
	}

	provider.mu.Lock()
	defer provider.mu.Unlock()
	if provider.lastReq.SystemPrompt != "Translate from Arabic to Dutch." {
		t.Errorf("system prompt = %q", provider.lastReq.SystemPrompt)
	}
}

func TestWorkerTranslate_HistoryIncludedInRequest(t *testing.T) {
	provider := &fakeProvider{script: []fakeResult{{text: "eerste"}, {text: "tweede"}}}
	w := newTestWorker(provider, nil, nil, 3)

	w.Translate(context.Background(), "s-1", "الأولى")
	w.Translate(context.Background(), "s-2", "الثانية")

	provider.mu.Lock()
	defer provider.mu.Unlock()
	history := provider.lastReq.History
	if len(history) != 2 {
		t.Fatalf("second request carried %d history messages, want 2", len(history))
	}
	if history[0].Role != RoleUser || history[0].Content != "الأولى" {
		t.Errorf("history[0] = %+v", history[0])
	}
	if history[1].Role != RoleAssistant || history[1].Content != "eerste" {
		t.Errorf("history[1] = %+v", history[1])
	}
}
