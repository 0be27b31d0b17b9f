package relay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/minbarlive/translation-relay/internal/audio"
	"github.com/minbarlive/translation-relay/internal/config"
	"github.com/minbarlive/translation-relay/internal/language"
	"github.com/minbarlive/translation-relay/internal/observability"
	"github.com/minbarlive/translation-relay/internal/prompt"
	"github.com/minbarlive/translation-relay/internal/resilience"
	"github.com/minbarlive/translation-relay/internal/sink"
	"github.com/minbarlive/translation-relay/internal/stt"
	"github.com/minbarlive/translation-relay/internal/tenant"
	"github.com/minbarlive/translation-relay/internal/translate"
)

// SessionDeps are the shared services a room session draws on.
type SessionDeps struct {
	Config   *config.Config
	Tenants  *tenant.Store
	Resolver prompt.Resolver
	Provider translate.Provider

	// Notifier is the real-time delivery sink (display hub) and Store
	// the persistence sink. Each session wraps them in a fan-out bound
	// to its own task group so storage work is awaited at teardown.
	Notifier sink.Sink
	Store    sink.Sink

	// NewSTTClient builds a streaming transcription client for the
	// session's source language. Injectable for tests.
	NewSTTClient func(language string) stt.Client

	Logger zerolog.Logger
}

// Session runs the live pipeline for one room: an STT stream feeding
// the accumulation engine, a set of per-language translation workers,
// and a heartbeat on the room's database session row.
type Session struct {
	room       string
	tenant     *tenant.Context
	sourceLang string
	cfg        *config.Config
	deps       SessionDeps

	sttClient  stt.Client
	engine     *Engine
	dispatcher *translate.Dispatcher
	publisher  *sink.Multi
	metrics    *observability.SessionMetrics
	logger     zerolog.Logger

	// Audio frames are buffered here while the STT stream reconnects.
	vad         *audio.VADDetector
	audioBuffer *audio.RingBuffer

	group    *errgroup.Group
	groupCtx context.Context
	cancel   context.CancelFunc

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewSession looks up the room's tenant configuration and assembles the
// pipeline. The session is inert until Start.
func NewSession(ctx context.Context, room string, deps SessionDeps) (*Session, error) {
	logger := deps.Logger.With().Str("room", room).Logger()

	tc, err := deps.Tenants.LookupRoom(ctx, room)
	if err != nil {
		return nil, fmt.Errorf("tenant lookup for room %s: %w", room, err)
	}
	if !tc.Registered() {
		logger.Warn().Msg("room not registered, running with default configuration")
	}

	sourceLang := tc.TranscriptionLanguage
	if sourceLang == "" {
		sourceLang = deps.Config.DefaultSourceLanguage
	}

	groupCtx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(groupCtx)

	metrics := observability.NewSessionMetrics(room)

	spawn := func(fn func()) {
		group.Go(func() error {
			fn()
			return nil
		})
	}
	publisher := sink.NewMulti(deps.Notifier, deps.Store, spawn)

	s := &Session{
		room:       room,
		tenant:     tc,
		sourceLang: sourceLang,
		cfg:        deps.Config,
		deps:       deps,
		sttClient:  deps.NewSTTClient(sourceLang),
		dispatcher: translate.NewDispatcher(logger),
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
		vad: audio.NewVADDetector(&audio.VADConfig{
			EnergyThreshold: deps.Config.VADEnergyThreshold,
			SilenceFrames:   deps.Config.VADSilenceFrames,
			FrameSize:       320,
		}),
		audioBuffer: audio.NewRingBuffer(deps.Config.AudioBufferSize),
		group:       group,
		groupCtx:    groupCtx,
		cancel:      cancel,
	}

	s.engine = NewEngine(EngineParams{
		SourceLanguage: sourceLang,
		Tenant:         tc,
		Dispatcher:     s.dispatcher,
		Publisher:      publisher,
		Spawn:          spawn,
		Metrics:        metrics,
		Logger:         logger,
	})

	return s, nil
}

// Start opens the STT stream, registers the room's configured target
// language and begins consuming transcripts.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("session for room %s already started", s.room)
	}
	s.started = true

	if err := s.sttClient.Start(); err != nil {
		return fmt.Errorf("start stt stream: %w", err)
	}

	target := s.tenant.TranslationLanguage
	if target == "" {
		target = s.cfg.DefaultTargetLanguage
	}
	if err := s.addTargetLocked(target); err != nil {
		s.logger.Warn().Err(err).Str("language", target).Msg("initial target language rejected")
	}

	s.group.Go(s.consumeTranscripts)
	if s.tenant.SessionID != "" {
		s.group.Go(s.heartbeat)
	}

	s.logger.Info().
		Str("source_language", s.sourceLang).
		Strs("target_languages", s.dispatcher.Languages()).
		Msg("room session started")
	return nil
}

// consumeTranscripts feeds final STT results into the engine. Interim
// results are counted and dropped.
func (s *Session) consumeTranscripts() error {
	for {
		select {
		case <-s.groupCtx.Done():
			return nil
		case result, ok := <-s.sttClient.Transcripts():
			if !ok {
				s.logger.Info().Msg("transcript stream closed")
				return nil
			}
			if result == nil {
				continue
			}
			if !result.IsFinal {
				s.metrics.RecordSTTTranscript("interim")
				continue
			}
			s.metrics.RecordSTTTranscript("final")
			s.engine.Ingest(s.groupCtx, result.Text)
		}
	}
}

// SendAudio forwards one PCM16 frame to the STT stream. While the
// stream is down frames are absorbed by the ring buffer and replayed on
// the next successful send, so short reconnects don't drop speech.
func (s *Session) SendAudio(frame []byte) error {
	if len(frame) == 0 {
		return nil
	}
	s.metrics.RecordAudioBytes(int64(len(frame)))

	samples := audio.DecodePCM16(frame)
	_, speechStarted, speechEnded := s.vad.ProcessFrame(samples)
	if speechStarted {
		s.logger.Debug().Msg("speech started")
	}
	if speechEnded {
		s.logger.Debug().Msg("speech ended")
	}

	if !s.audioBuffer.IsEmpty() {
		s.audioBuffer.Write(frame)
		if err := s.flushBufferedAudio(); err != nil {
			return nil // still reconnecting, frames stay buffered
		}
		return nil
	}

	if err := s.sttClient.SendAudio(frame); err != nil {
		s.logger.Warn().Err(err).Msg("stt send failed, buffering audio")
		s.audioBuffer.Write(frame)
	}
	return nil
}

func (s *Session) flushBufferedAudio() error {
	buffered := s.audioBuffer.Drain()
	if len(buffered) == 0 {
		return nil
	}
	if err := s.sttClient.SendAudio(buffered); err != nil {
		// Put it back; ring buffer truncates oldest if speech outlasts
		// the reconnect window.
		s.audioBuffer.Write(buffered)
		return err
	}
	s.logger.Info().Int("bytes", len(buffered)).Msg("replayed buffered audio after reconnect")
	return nil
}

// AddTarget registers a translation worker for a new target language at
// runtime, typically when a viewer requests captions. Adding an already
// registered language is a no-op.
func (s *Session) AddTarget(lang string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTargetLocked(lang)
}

func (s *Session) addTargetLocked(lang string) error {
	if lang == s.sourceLang {
		return fmt.Errorf("target language %s equals source language", lang)
	}
	if !language.Supported(lang) {
		return fmt.Errorf("unsupported target language %s", lang)
	}
	if s.dispatcher.Has(lang) {
		s.logger.Debug().Str("language", lang).Msg("target language already registered")
		return nil
	}

	worker := translate.NewWorker(translate.WorkerParams{
		Language:     lang,
		LanguageName: language.Name(lang),
		SourceName:   language.Name(s.sourceLang),
		Tenant:       s.tenant,
		Provider:     s.deps.Provider,
		Resolver:     s.deps.Resolver,
		Publisher:    s.publisher,
		Retry: &resilience.RetryConfig{
			MaxRetries:  s.cfg.TranslateMaxRetries,
			BackoffStep: time.Duration(s.cfg.TranslateBackoffStep) * time.Millisecond,
		},
		ContextPairs: s.cfg.ContextPairs(s.tenant.ContextWindowSize),
		Metrics:      s.metrics,
		Logger:       s.logger,
	})
	if !s.dispatcher.Add(worker) {
		return nil
	}
	s.logger.Info().Str("language", lang).Msg("translation worker registered")
	return nil
}

// heartbeat keeps the room's database session row marked live.
func (s *Session) heartbeat() error {
	interval := time.Duration(s.cfg.HeartbeatInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.groupCtx.Done():
			return nil
		case <-ticker.C:
			if err := s.deps.Tenants.UpdateSessionHeartbeat(s.groupCtx, s.tenant.SessionID); err != nil {
				s.logger.Warn().Err(err).Msg("session heartbeat failed")
			}
		}
	}
}

// Languages returns the currently registered target language codes.
func (s *Session) Languages() []string {
	return s.dispatcher.Languages()
}

// Stats snapshots the per-language worker counters.
func (s *Session) Stats() []translate.Stats {
	return s.dispatcher.AllStats()
}

// Close tears the session down: the STT stream is stopped, in-flight
// translation dispatches are cancelled and awaited, and the database
// session row is closed.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.sttClient.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("stt client close failed")
	}

	s.cancel()
	if err := s.group.Wait(); err != nil {
		s.logger.Warn().Err(err).Msg("session task group exited with error")
	}

	if s.tenant.SessionID != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.deps.Tenants.CloseSession(ctx, s.tenant.SessionID); err != nil {
			s.logger.Warn().Err(err).Msg("closing database session failed")
		}
	}

	observability.WorkersTornDown(s.dispatcher.Len())
	s.metrics.RecordSessionEnd()
	s.logger.Info().Msg("room session closed")
	return nil
}
