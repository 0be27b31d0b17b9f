package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Room/session metrics
	activeRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "translation_relay_active_rooms",
		Help: "Number of active room sessions",
	})

	totalRooms = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translation_relay_rooms_total",
		Help: "Total number of room sessions started",
	})

	sessionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "translation_relay_session_duration_seconds",
		Help:    "Duration of room sessions in seconds",
		Buckets: []float64{10, 60, 300, 600, 1800, 3600, 7200},
	})

	// Pipeline metrics
	fragmentsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translation_relay_fragments_total",
		Help: "Final transcript fragments ingested",
	}, []string{"status"}) // status: accepted, duplicate, empty

	sentencesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translation_relay_sentences_total",
		Help: "Complete sentences detected and dispatched",
	})

	// Translation metrics
	translationRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translation_relay_translations_total",
		Help: "Translation attempts by target language and outcome",
	}, []string{"language", "status"}) // status: success, empty, error

	translationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "translation_relay_translation_latency_seconds",
		Help:    "End-to-end translation latency per sentence",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	}, []string{"language"})

	activeWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "translation_relay_active_workers",
		Help: "Number of registered target-language workers across all rooms",
	})

	// Sink metrics
	sinkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translation_relay_sink_failures_total",
		Help: "Failed sink deliveries by operation",
	}, []string{"operation"}) // operation: notify, store

	// STT metrics
	sttTranscripts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translation_relay_stt_transcripts_total",
		Help: "Transcript events received from the STT provider",
	}, []string{"kind"}) // kind: final, interim

	audioBytesIn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translation_relay_audio_bytes_total",
		Help: "Audio bytes pushed to the STT provider",
	})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "translation_relay_circuit_breaker_state",
		Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translation_relay_circuit_breaker_failures_total",
		Help: "Total circuit breaker failures",
	}, []string{"service"})
)

// SessionMetrics tracks metrics for a single room session.
type SessionMetrics struct {
	room      string
	startTime time.Time
	mu        sync.Mutex
	starts    map[string]time.Time // per-language translation start times keyed by sentence id
}

// NewSessionMetrics creates a metrics tracker for one room session and counts
// the session as started.
func NewSessionMetrics(room string) *SessionMetrics {
	activeRooms.Inc()
	totalRooms.Inc()
	return &SessionMetrics{
		room:      room,
		startTime: time.Now(),
		starts:    make(map[string]time.Time),
	}
}

// RecordSessionEnd records the end of the session.
func (m *SessionMetrics) RecordSessionEnd() {
	activeRooms.Dec()
	sessionDuration.Observe(time.Since(m.startTime).Seconds())
}

// RecordFragment records one ingested fragment with its outcome.
func (m *SessionMetrics) RecordFragment(status string) {
	fragmentsIngested.WithLabelValues(status).Inc()
}

// RecordSentence records a completed sentence.
func (m *SessionMetrics) RecordSentence() {
	sentencesCompleted.Inc()
}

// RecordTranslationStart records the start of one translation attempt chain.
func (m *SessionMetrics) RecordTranslationStart(language, sentenceID string) {
	m.mu.Lock()
	m.starts[language+"/"+sentenceID] = time.Now()
	m.mu.Unlock()
}

// RecordTranslationEnd records the outcome of a translation and observes its
// latency if the matching start was recorded.
func (m *SessionMetrics) RecordTranslationEnd(language, sentenceID, status string) {
	m.mu.Lock()
	key := language + "/" + sentenceID
	if start, ok := m.starts[key]; ok {
		translationLatency.WithLabelValues(language).Observe(time.Since(start).Seconds())
		delete(m.starts, key)
	}
	m.mu.Unlock()

	translationRequests.WithLabelValues(language, status).Inc()
}

// RecordSTTTranscript records one transcript event from the STT provider.
func (m *SessionMetrics) RecordSTTTranscript(kind string) {
	sttTranscripts.WithLabelValues(kind).Inc()
}

// RecordAudioBytes records audio bytes forwarded to the STT provider.
func (m *SessionMetrics) RecordAudioBytes(n int64) {
	audioBytesIn.Add(float64(n))
}

// WorkerRegistered increments the active worker gauge.
func WorkerRegistered() {
	activeWorkers.Inc()
}

// WorkersTornDown decrements the active worker gauge by n at session end.
func WorkersTornDown(n int) {
	activeWorkers.Sub(float64(n))
}

// RecordSinkFailure records a failed sink delivery.
func RecordSinkFailure(operation string) {
	sinkFailures.WithLabelValues(operation).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}
