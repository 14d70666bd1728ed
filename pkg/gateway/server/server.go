// Package server assembles the relay: it builds the voice pipeline from
// the configured providers, owns the session registry, and mounts the
// HTTP surface behind the shared middleware chain.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/samvaad-live/samvaad/pkg/core/audio"
	"github.com/samvaad-live/samvaad/pkg/core/voice"
	"github.com/samvaad-live/samvaad/pkg/core/voice/mt"
	"github.com/samvaad-live/samvaad/pkg/core/voice/stt"
	"github.com/samvaad-live/samvaad/pkg/core/voice/tts"
	"github.com/samvaad-live/samvaad/pkg/gateway/config"
	"github.com/samvaad-live/samvaad/pkg/gateway/handlers"
	"github.com/samvaad-live/samvaad/pkg/gateway/lifecycle"
	"github.com/samvaad-live/samvaad/pkg/gateway/live/sessions"
	"github.com/samvaad-live/samvaad/pkg/gateway/mw"
)

// drainNotice is sent to every connected device when shutdown begins.
const drainNotice = "Server shutting down."

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	pipeline   *voice.Pipeline
	tracker    *sessions.Tracker
	lifecycle  *lifecycle.Lifecycle
	httpClient *http.Client
}

// New builds the pipeline for cfg's providers and wires the routes.
// It fails when a provider needs local state that cannot be loaded,
// such as a missing Vosk model directory.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: cfg.UpstreamConnectTimeout,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
			ResponseHeaderTimeout: cfg.UpstreamResponseHeaderTimeout,
		},
	}

	pipeline, err := buildVoice(cfg, httpClient)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:        cfg,
		logger:     logger,
		mux:        http.NewServeMux(),
		pipeline:   pipeline,
		tracker:    sessions.NewTracker(),
		lifecycle:  &lifecycle.Lifecycle{},
		httpClient: httpClient,
	}

	s.routes()
	return s, nil
}

func buildVoice(cfg config.Config, httpClient *http.Client) (*voice.Pipeline, error) {
	transcoder := audio.NewRouter(
		&audio.OpusTranscoder{},
		&audio.FFmpegTranscoder{Path: cfg.FFmpegPath},
	)

	var recognizer stt.Provider
	switch cfg.RecognitionProvider {
	case config.ProviderVosk:
		p, err := stt.NewVosk(cfg.VoskModelDir)
		if err != nil {
			return nil, fmt.Errorf("load vosk model: %w", err)
		}
		recognizer = p
	default:
		recognizer = stt.NewGoogleWithClient(cfg.RecognitionAPIKey, httpClient)
	}

	var translator mt.Provider
	switch cfg.TranslationProvider {
	case config.ProviderGemini:
		p, err := mt.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("init gemini client: %w", err)
		}
		translator = p
	default:
		translator = mt.NewGoogleWithClient(httpClient)
	}

	var synthesizer tts.Provider
	switch cfg.SynthesisProvider {
	case config.ProviderElevenLabs:
		synthesizer = tts.NewElevenLabs(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoiceID, cfg.ElevenLabsModelID)
	default:
		synthesizer = tts.NewGoogleWithClient(httpClient)
	}

	return voice.NewPipeline(voice.Options{
		Transcoder:  transcoder,
		Recognizer:  recognizer,
		Translator:  translator,
		Synthesizer: synthesizer,
	}), nil
}

func (s *Server) routes() {
	s.mux.Handle("GET /healthz", handlers.HealthHandler{Lifecycle: s.lifecycle})
	s.mux.Handle("GET /v1/languages", handlers.LanguagesHandler{Languages: s.pipeline.Languages()})

	s.mux.Handle("POST /v1/translate", handlers.TranslateHandler{
		Config:   s.cfg,
		Pipeline: s.pipeline,
		Logger:   s.logger,
	})

	s.mux.Handle("GET /ws/{src}/{tgt}/{device_id}", handlers.RelayHandler{
		Config:    s.cfg,
		Pipeline:  s.pipeline,
		Logger:    s.logger,
		Lifecycle: s.lifecycle,
		Sessions:  s.tracker,
	})

	s.mux.Handle("/", handlers.NotFoundHandler{})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.CORS(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// SetDraining flips the health status to draining and makes the relay
// endpoint refuse new upgrades. Established sessions keep running.
func (s *Server) SetDraining() {
	s.lifecycle.SetDraining(true)
}

// WarnLiveSessionsDraining notifies every connected device that the
// process is going away so clients can reconnect elsewhere.
func (s *Server) WarnLiveSessionsDraining() {
	if n := s.tracker.WarnAll(drainNotice); n > 0 {
		s.logger.Info("warned live sessions about shutdown", "sessions", n)
	}
}

// WaitLiveSessions blocks until every relay session has unregistered or
// ctx expires, reporting whether the registry drained in time.
func (s *Server) WaitLiveSessions(ctx context.Context) bool {
	return s.tracker.Wait(ctx)
}

// CancelLiveSessions cuts off the sessions that outlived the grace
// period and returns how many were canceled.
func (s *Server) CancelLiveSessions() int {
	n := s.tracker.CancelAll()
	if n > 0 {
		s.logger.Warn("canceled live sessions at shutdown", "sessions", n)
	}
	return n
}
