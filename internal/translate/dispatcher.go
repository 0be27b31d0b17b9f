package translate

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Dispatcher fans a completed sentence out to every registered worker
// concurrently. Workers succeed or fail independently; the dispatcher
// only keeps aggregate counts.
type Dispatcher struct {
	mu      sync.RWMutex
	workers map[string]*Worker
	logger  zerolog.Logger
}

func NewDispatcher(logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		workers: make(map[string]*Worker),
		logger:  logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Add registers a worker for its target language. Registering a language
// twice keeps the existing worker and reports false.
func (d *Dispatcher) Add(w *Worker) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.workers[w.Language()]; exists {
		return false
	}
	d.workers[w.Language()] = w
	return true
}

// Has reports whether a worker exists for the language.
func (d *Dispatcher) Has(language string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.workers[language]
	return ok
}

// Languages returns the registered target language codes.
func (d *Dispatcher) Languages() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	langs := make([]string, 0, len(d.workers))
	for lang := range d.workers {
		langs = append(langs, lang)
	}
	return langs
}

// Len returns the number of registered workers.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.workers)
}

// Dispatch translates one sentence into every registered language and
// waits for all workers. With no workers it returns immediately. A
// failed worker never affects the others; failures surface only in the
// aggregate log line and per-worker counters.
func (d *Dispatcher) Dispatch(ctx context.Context, sentenceID, text string) {
	d.mu.RLock()
	workers := make([]*Worker, 0, len(d.workers))
	for _, w := range d.workers {
		workers = append(workers, w)
	}
	d.mu.RUnlock()

	if len(workers) == 0 {
		d.logger.Debug().Str("sentence_id", sentenceID).Msg("no target languages registered, skipping translation")
		return
	}

	start := time.Now()
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for _, w := range workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			if out := w.Translate(ctx, sentenceID, text); out != "" {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()

	d.logger.Info().
		Str("sentence_id", sentenceID).
		Int("workers", len(workers)).
		Int("succeeded", succeeded).
		Dur("elapsed", time.Since(start)).
		Msg("sentence dispatched")
}

// AllStats snapshots every worker's counters.
func (d *Dispatcher) AllStats() []Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	stats := make([]Stats, 0, len(d.workers))
	for _, w := range d.workers {
		stats = append(stats, w.Stats())
	}
	return stats
}
