package relay

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/minbarlive/translation-relay/internal/sink"
	"github.com/minbarlive/translation-relay/internal/tenant"
)

type recordedDispatch struct {
	sentenceID string
	text       string
}

type fakeDispatcher struct {
	mu         sync.Mutex
	dispatched []recordedDispatch
}

func (f *fakeDispatcher) Dispatch(ctx context.Context, sentenceID, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dispatched = append(f.dispatched, recordedDispatch{sentenceID, text})
}

func (f *fakeDispatcher) all() []recordedDispatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recordedDispatch, len(f.dispatched))
	copy(out, f.dispatched)
	return out
}

type fakeEnginePublisher struct {
	events []*sink.Event
}

func (f *fakeEnginePublisher) Deliver(ctx context.Context, e *sink.Event) bool {
	f.events = append(f.events, e)
	return true
}

func (f *fakeEnginePublisher) completed() []*sink.Event {
	var out []*sink.Event
	for _, e := range f.events {
		if e.Sentence != nil && e.Sentence.IsComplete {
			out = append(out, e)
		}
	}
	return out
}

// newTestEngine runs dispatches synchronously so tests can assert
// immediately after Ingest returns.
func newTestEngine(d SentenceDispatcher, p Publisher) *Engine {
	return NewEngine(EngineParams{
		SourceLanguage: "ar",
		Tenant:         &tenant.Context{RoomID: "r1", MosqueID: "m1", SessionID: "s1"},
		Dispatcher:     d,
		Publisher:      p,
		Spawn:          func(fn func()) { fn() },
		Logger:         zerolog.Nop(),
	})
}

func TestIngest_FragmentsThenCompletionSignal(t *testing.T) {
	d := &fakeDispatcher{}
	p := &fakeEnginePublisher{}
	e := newTestEngine(d, p)
	ctx := context.Background()

	e.Ingest(ctx, "مرحبا")
	e.Ingest(ctx, "بكم")
	e.Ingest(ctx, ".")

	dispatched := d.all()
	if len(dispatched) != 1 {
		t.Fatalf("dispatched %d sentences, want 1", len(dispatched))
	}
	if dispatched[0].text != "مرحبا بكم" {
		t.Errorf("dispatched text = %q, want %q", dispatched[0].text, "مرحبا بكم")
	}
	if dispatched[0].sentenceID == "" {
		t.Error("dispatched sentence has no id")
	}
	if e.Pending() != "" {
		t.Errorf("pending = %q after completion, want empty", e.Pending())
	}

	completed := p.completed()
	if len(completed) != 1 {
		t.Fatalf("published %d complete sentences, want 1", len(completed))
	}
	if completed[0].Sentence.SentenceID != dispatched[0].sentenceID {
		t.Error("published and dispatched sentence ids differ")
	}
}

func TestIngest_MultiSentenceFragment(t *testing.T) {
	d := &fakeDispatcher{}
	p := &fakeEnginePublisher{}
	e := newTestEngine(d, p)

	e.Ingest(context.Background(), "السلام عليكم. كيف حالكم؟")

	dispatched := d.all()
	if len(dispatched) != 2 {
		t.Fatalf("dispatched %d sentences, want 2", len(dispatched))
	}
	if dispatched[0].text != "السلام عليكم." {
		t.Errorf("first sentence = %q", dispatched[0].text)
	}
	if dispatched[1].text != "كيف حالكم؟" {
		t.Errorf("second sentence = %q", dispatched[1].text)
	}
	if dispatched[0].sentenceID == dispatched[1].sentenceID {
		t.Error("multiple sentences must not share a sentence id")
	}
	if e.Pending() != "" {
		t.Errorf("pending = %q, want empty", e.Pending())
	}
}

func TestIngest_SingleSentenceKeepsCurrentID(t *testing.T) {
	d := &fakeDispatcher{}
	p := &fakeEnginePublisher{}
	e := newTestEngine(d, p)
	ctx := context.Background()

	e.Ingest(ctx, "الحمد")
	var fragmentID string
	for _, ev := range p.events {
		if ev.Sentence.IsFragment {
			fragmentID = ev.Sentence.SentenceID
		}
	}
	if fragmentID == "" {
		t.Fatal("fragment event missing sentence id")
	}

	e.Ingest(ctx, "لله.")

	dispatched := d.all()
	if len(dispatched) != 1 {
		t.Fatalf("dispatched %d sentences, want 1", len(dispatched))
	}
	if dispatched[0].sentenceID != fragmentID {
		t.Error("single completed sentence should reuse the accumulating sentence id")
	}
	if dispatched[0].text != "الحمد لله." {
		t.Errorf("dispatched text = %q", dispatched[0].text)
	}
}

func TestIngest_RemainderStartsNewSentence(t *testing.T) {
	d := &fakeDispatcher{}
	e := newTestEngine(d, &fakeEnginePublisher{})

	e.Ingest(context.Background(), "الجملة الأولى. بداية الثانية")

	dispatched := d.all()
	if len(dispatched) != 1 {
		t.Fatalf("dispatched %d sentences, want 1", len(dispatched))
	}
	if dispatched[0].text != "الجملة الأولى." {
		t.Errorf("dispatched = %q", dispatched[0].text)
	}
	if e.Pending() != "بداية الثانية" {
		t.Errorf("pending = %q", e.Pending())
	}
}

func TestIngest_DuplicateFragmentSuppressed(t *testing.T) {
	d := &fakeDispatcher{}
	p := &fakeEnginePublisher{}
	e := newTestEngine(d, p)
	ctx := context.Background()

	e.Ingest(ctx, "مرحبا")
	before := len(p.events)
	e.Ingest(ctx, "مرحبا")

	if len(p.events) != before {
		t.Error("duplicate fragment should not publish")
	}
	if e.Pending() != "مرحبا" {
		t.Errorf("pending = %q, duplicate must not append", e.Pending())
	}

	// A different fragment is accepted again, even if it repeats words.
	e.Ingest(ctx, "مرحبا بكم")
	if e.Pending() != "مرحبا مرحبا بكم" {
		t.Errorf("pending = %q, append-only accumulation expected", e.Pending())
	}
}

func TestIngest_EmptyFragmentIgnored(t *testing.T) {
	d := &fakeDispatcher{}
	p := &fakeEnginePublisher{}
	e := newTestEngine(d, p)

	e.Ingest(context.Background(), "   ")
	if len(p.events) != 0 || len(d.all()) != 0 {
		t.Error("blank fragment must be a no-op")
	}
}

func TestIngest_CompletionSignalWithEmptyBuffer(t *testing.T) {
	d := &fakeDispatcher{}
	p := &fakeEnginePublisher{}
	e := newTestEngine(d, p)

	e.Ingest(context.Background(), "؟")

	if len(d.all()) != 0 {
		t.Error("bare punctuation with empty buffer must not dispatch")
	}
	if len(p.events) != 0 {
		t.Error("bare punctuation with empty buffer must not publish")
	}
	if e.Pending() != "" {
		t.Errorf("pending = %q", e.Pending())
	}
}

func TestIngest_FragmentEventsPrecedeCompletion(t *testing.T) {
	p := &fakeEnginePublisher{}
	e := newTestEngine(&fakeDispatcher{}, p)
	ctx := context.Background()

	e.Ingest(ctx, "بسم الله")
	e.Ingest(ctx, "الرحمن الرحيم.")

	if len(p.events) != 3 {
		t.Fatalf("published %d events, want 3 (two fragments + one complete)", len(p.events))
	}
	if !p.events[0].Sentence.IsFragment || !p.events[1].Sentence.IsFragment {
		t.Error("first two events should be fragments")
	}
	if !p.events[2].Sentence.IsComplete {
		t.Error("last event should be the completed sentence")
	}
	if p.events[2].Text != "بسم الله الرحمن الرحيم." {
		t.Errorf("completed text = %q", p.events[2].Text)
	}
}
