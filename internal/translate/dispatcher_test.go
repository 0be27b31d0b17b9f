package translate

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestDispatcherDispatch_NoWorkersIsNoOp(t *testing.T) {
	d := NewDispatcher(zerolog.Nop())
	// Must return immediately without panicking.
	d.Dispatch(context.Background(), "s-1", "نص")
	if d.Len() != 0 {
		t.Errorf("Len() = %d", d.Len())
	}
}

func TestDispatcherAdd_DuplicateKeepsExisting(t *testing.T) {
	d := NewDispatcher(zerolog.Nop())
	first := newTestWorker(&fakeProvider{}, nil, nil, 3)
	second := newTestWorker(&fakeProvider{}, nil, nil, 3)

	if !d.Add(first) {
		t.Fatal("first Add should succeed")
	}
	if d.Add(second) {
		t.Error("duplicate Add should report false")
	}
	if d.Len() != 1 {
		t.Errorf("Len() = %d, want 1", d.Len())
	}
	if !d.Has("nl") {
		t.Error("Has(nl) = false")
	}
}

func TestDispatcherDispatch_FanOutReachesEveryWorker(t *testing.T) {
	d := NewDispatcher(zerolog.Nop())

	providers := map[string]*fakeProvider{}
	for _, lang := range []string{"nl", "en", "de"} {
		p := &fakeProvider{script: []fakeResult{{text: "vertaald"}}}
		providers[lang] = p
		w := NewWorker(WorkerParams{
			Language:     lang,
			LanguageName: lang,
			SourceName:   "Arabic",
			Provider:     p,
			Resolver:     &countingResolver{},
			Retry:        fastRetry(),
			ContextPairs: 3,
			Logger:       zerolog.Nop(),
		})
		d.Add(w)
	}

	d.Dispatch(context.Background(), "s-1", "جملة كاملة.")

	for lang, p := range providers {
		if p.callCount() != 1 {
			t.Errorf("worker %s called %d times, want 1", lang, p.callCount())
		}
	}
}

func TestDispatcherDispatch_FailureIsIsolated(t *testing.T) {
	d := NewDispatcher(zerolog.Nop())

	failing := &fakeProvider{script: []fakeResult{
		{err: errors.New("unavailable")},
		{err: errors.New("unavailable")},
		{err: errors.New("unavailable")},
	}}
	healthy := &fakeProvider{script: []fakeResult{{text: "vertaald"}}}

	d.Add(NewWorker(WorkerParams{
		Language: "en", LanguageName: "English", SourceName: "Arabic",
		Provider: failing, Resolver: &countingResolver{},
		Retry: fastRetry(), ContextPairs: 3, Logger: zerolog.Nop(),
	}))
	d.Add(NewWorker(WorkerParams{
		Language: "nl", LanguageName: "Dutch", SourceName: "Arabic",
		Provider: healthy, Resolver: &countingResolver{},
		Retry: fastRetry(), ContextPairs: 3, Logger: zerolog.Nop(),
	}))

	d.Dispatch(context.Background(), "s-1", "جملة.")

	if healthy.callCount() != 1 {
		t.Errorf("healthy worker called %d times, want 1", healthy.callCount())
	}

	var enFailed, nlTranslated bool
	for _, s := range d.AllStats() {
		switch s.Language {
		case "en":
			enFailed = s.Failed == 1
		case "nl":
			nlTranslated = s.Translated == 1
		}
	}
	if !enFailed {
		t.Error("failing worker did not record a failure")
	}
	if !nlTranslated {
		t.Error("healthy worker did not record a success")
	}
}

func TestDispatcherLanguages(t *testing.T) {
	d := NewDispatcher(zerolog.Nop())
	d.Add(newTestWorker(&fakeProvider{}, nil, nil, 3))

	langs := d.Languages()
	if len(langs) != 1 || langs[0] != "nl" {
		t.Errorf("Languages() = %v", langs)
	}
}
