// Package session runs one relay connection: a strictly serial read loop
// that feeds inbound utterances through the voice pipeline and fans the
// synthesized audio out to the other registered devices.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/samvaad-live/samvaad/pkg/core"
	"github.com/samvaad-live/samvaad/pkg/core/lang"
	"github.com/samvaad-live/samvaad/pkg/core/voice"
	"github.com/samvaad-live/samvaad/pkg/gateway/live/protocol"
	"github.com/samvaad-live/samvaad/pkg/gateway/live/sessions"
)

const outboundPriorityQueueSize = 8

var errBackpressure = errors.New("relay outbound backpressure")

// State is the session lifecycle phase. Transitions are one-way:
// Connecting → Active → Closing → Closed.
type State int32

const (
	StateConnecting State = iota
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

type Config struct {
	PingInterval      time.Duration
	WriteTimeout      time.Duration
	ReadTimeout       time.Duration
	MaxMessageBytes   int64
	OutboundQueueSize int

	// BroadcastAudio fans synthesized audio out to every other registered
	// device; false returns it to the sender only.
	BroadcastAudio bool
}

type Dependencies struct {
	Conn     *websocket.Conn
	Pipeline *voice.Pipeline
	Tracker  *sessions.Tracker
	Logger   *slog.Logger
	DeviceID string
	Source   lang.Profile
	Target   lang.Profile
	Config   Config
}

type outboundFrame struct {
	textPayload   []byte
	binaryPayload []byte
}

type inboundFrame struct {
	messageType int
	data        []byte
	err         error
}

// RelaySession owns one WebSocket connection. The source and target
// profiles are mutated in place on translation fallback, which is why the
// fallback warning reaches a client at most once per connection.
type RelaySession struct {
	conn     *websocket.Conn
	pipeline *voice.Pipeline
	tracker  *sessions.Tracker
	logger   *slog.Logger
	deviceID string
	source   lang.Profile
	target   lang.Profile
	cfg      Config

	ctx    context.Context
	cancel context.CancelFunc

	outboundPriority chan outboundFrame
	outboundNormal   chan outboundFrame

	state atomic.Int32
}

func New(deps Dependencies) (*RelaySession, error) {
	if deps.Conn == nil {
		return nil, fmt.Errorf("connection is required")
	}
	if deps.Pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if deps.Tracker == nil {
		return nil, fmt.Errorf("tracker is required")
	}
	if strings.TrimSpace(deps.DeviceID) == "" {
		return nil, fmt.Errorf("device id is required")
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Config.OutboundQueueSize <= 0 {
		deps.Config.OutboundQueueSize = 32
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &RelaySession{
		conn:             deps.Conn,
		pipeline:         deps.Pipeline,
		tracker:          deps.Tracker,
		logger:           deps.Logger,
		deviceID:         deps.DeviceID,
		source:           deps.Source,
		target:           deps.Target,
		cfg:              deps.Config,
		ctx:              ctx,
		cancel:           cancel,
		outboundPriority: make(chan outboundFrame, max(1, min(deps.Config.OutboundQueueSize, outboundPriorityQueueSize))),
		outboundNormal:   make(chan outboundFrame, deps.Config.OutboundQueueSize),
	}
	s.state.Store(int32(StateConnecting))
	return s, nil
}

func (s *RelaySession) DeviceID() string {
	return s.deviceID
}

func (s *RelaySession) State() State {
	return State(s.state.Load())
}

func (s *RelaySession) setState(st State) {
	s.state.Store(int32(st))
}

// Run drives the session until the connection closes or the process
// drains it. Inbound messages are processed one at a time; an unresolved
// stage call suspends the loop, never the process.
func (s *RelaySession) Run() error {
	defer s.setState(StateClosed)
	defer func() { _ = s.conn.Close() }()
	defer s.cancel()

	if s.cfg.MaxMessageBytes > 0 {
		s.conn.SetReadLimit(s.cfg.MaxMessageBytes)
	}
	if s.cfg.ReadTimeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		s.conn.SetPongHandler(func(string) error {
			return s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		})
	}

	readCh := make(chan inboundFrame, 16)
	writerErrCh := make(chan error, 1)
	go s.readLoop(readCh)
	go func() {
		w := outboundWriter{
			ws:       s.conn,
			ctx:      s.ctx,
			cfg:      s.cfg,
			priority: s.outboundPriority,
			normal:   s.outboundNormal,
		}
		writerErrCh <- w.Run()
		close(writerErrCh)
	}()

	unregister := s.tracker.Register(s.deviceID, sessions.Handle{
		Cancel:  s.cancel,
		Warn:    s.sendNotice,
		Deliver: s.sendAudio,
	})
	defer unregister()

	s.setState(StateActive)
	s.logger.Info("session active", "source", s.source.Name, "target", s.target.Name)

	for {
		select {
		case <-s.ctx.Done():
			s.setState(StateClosing)
			return s.flushAndClose(writerErrCh)
		case err := <-writerErrCh:
			s.setState(StateClosing)
			s.cancel()
			if err == nil {
				return nil
			}
			return core.NewTransportError("writer failed", err)
		case frame, ok := <-readCh:
			if !ok {
				s.setState(StateClosing)
				return s.flushAndClose(writerErrCh)
			}
			if frame.err != nil {
				s.setState(StateClosing)
				err := s.flushAndClose(writerErrCh)
				if isExpectedClose(frame.err) {
					return err
				}
				return core.NewTransportError("read failed", frame.err)
			}
			s.handleFrame(frame)
		}
	}
}

func (s *RelaySession) readLoop(out chan<- inboundFrame) {
	defer close(out)
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case out <- inboundFrame{err: err}:
			case <-s.ctx.Done():
			}
			return
		}
		select {
		case out <- inboundFrame{messageType: messageType, data: data}:
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *RelaySession) flushAndClose(writerErrCh <-chan error) error {
	s.cancel()
	wait := 100 * time.Millisecond
	if s.cfg.WriteTimeout > 0 && s.cfg.WriteTimeout < wait {
		wait = s.cfg.WriteTimeout
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-writerErrCh:
	case <-timer.C:
	}
	return nil
}

func (s *RelaySession) handleFrame(frame inboundFrame) {
	switch frame.messageType {
	case websocket.BinaryMessage:
		s.handleAudio(frame.data)
	case websocket.TextMessage:
		s.handleText(frame.data)
	}
}

func (s *RelaySession) handleAudio(container []byte) {
	text, err := s.pipeline.Hear(s.ctx, container, s.source.RecognitionLocale)
	if err != nil {
		s.notifyStage(err)
		return
	}
	s.relay(text)
}

func (s *RelaySession) handleText(raw []byte) {
	text, err := protocol.ParseInbound(raw)
	if err != nil {
		s.notifyStage(err)
		return
	}
	s.relay(text)
}

// relay runs fallback, translation, the sender ack, synthesis, and audio
// delivery for one utterance. Each stage failure notifies the sender and
// abandons the remaining stages; the connection stays up.
func (s *RelaySession) relay(sourceText string) {
	if s.applyFallback() {
		if err := s.sendNotice(protocol.NoticeFallback); err != nil {
			s.logger.Warn("fallback notice dropped", "error", err)
		}
	}

	translated, err := s.pipeline.Translate(s.ctx, sourceText, s.source.TranslationCode, s.target.TranslationCode)
	if err != nil {
		s.notifyStage(err)
		return
	}

	if err := s.sendAck(translated); err != nil {
		s.logger.Warn("ack dropped", "error", err)
	}

	audio, err := s.pipeline.Speak(s.ctx, translated, s.target.SynthesisLanguage)
	if err != nil {
		s.notifyStage(err)
		return
	}

	s.deliverAudio(audio)
}

// applyFallback forces unsupported translation codes onto the default
// language. The profiles are rewritten in place, so the check is a no-op
// on every message after the first fallback.
func (s *RelaySession) applyFallback() bool {
	languages := s.pipeline.Languages()
	changed := false
	if p, fell := languages.ApplyFallback(s.source); fell {
		s.source = p
		changed = true
	}
	if p, fell := languages.ApplyFallback(s.target); fell {
		s.target = p
		changed = true
	}
	return changed
}

func (s *RelaySession) notifyStage(err error) {
	var cerr *core.Error
	if !errors.As(err, &cerr) {
		cerr = core.NewInternalError(err.Error())
	}
	s.logger.Warn("stage failed", "stage", string(cerr.Type), "error", err)
	if err := s.sendNotice(cerr.Notice()); err != nil {
		s.logger.Warn("notice dropped", "error", err)
	}
}

func (s *RelaySession) deliverAudio(audio []byte) {
	if len(audio) == 0 {
		return
	}
	if !s.cfg.BroadcastAudio {
		if err := s.sendAudio(audio); err != nil {
			s.logger.Warn("audio delivery dropped", "error", err)
		}
		return
	}
	for _, h := range s.tracker.Others(s.deviceID) {
		if h.Deliver == nil {
			continue
		}
		if err := h.Deliver(audio); err != nil {
			s.logger.Warn("broadcast delivery dropped", "device_id", h.DeviceID, "error", err)
		}
	}
}

func (s *RelaySession) sendNotice(message string) error {
	return s.enqueuePriority(outboundFrame{textPayload: []byte(message)})
}

func (s *RelaySession) sendAck(translated string) error {
	payload, err := protocol.EncodeText(translated)
	if err != nil {
		return err
	}
	return s.enqueuePriority(outboundFrame{textPayload: payload})
}

func (s *RelaySession) sendAudio(audio []byte) error {
	buf := make([]byte, len(audio))
	copy(buf, audio)
	return s.enqueueNormal(outboundFrame{binaryPayload: buf})
}

func (s *RelaySession) enqueueNormal(frame outboundFrame) error {
	select {
	case s.outboundNormal <- frame:
		return nil
	default:
		return errBackpressure
	}
}

func (s *RelaySession) enqueuePriority(frame outboundFrame) error {
	for i := 0; i < 4; i++ {
		select {
		case s.outboundPriority <- frame:
			return nil
		default:
		}
		select {
		case <-s.outboundPriority:
		default:
		}
	}
	select {
	case s.outboundPriority <- frame:
		return nil
	default:
		return errBackpressure
	}
}

func isExpectedClose(err error) bool {
	if err == nil {
		return true
	}
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}
