package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/samvaad-live/samvaad/pkg/core"
	"github.com/samvaad-live/samvaad/pkg/core/audio"
	"github.com/samvaad-live/samvaad/pkg/core/voice"
	"github.com/samvaad-live/samvaad/pkg/gateway/live/protocol"
	"github.com/samvaad-live/samvaad/pkg/gateway/live/sessions"
)

type fakeTranscoder struct {
	err error
}

func (f *fakeTranscoder) Transcode(ctx context.Context, container []byte) (*audio.Clip, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &audio.Clip{PCM: []byte{0, 0}, SampleRate: audio.SampleRate, Channels: audio.Channels}, nil
}

type fakeRecognizer struct {
	text    string
	err     error
	locales []string
}

func (f *fakeRecognizer) Name() string { return "fake-stt" }

func (f *fakeRecognizer) Recognize(ctx context.Context, clip *audio.Clip, locale string) (string, error) {
	f.locales = append(f.locales, locale)
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type translateCall struct {
	text string
	src  string
	dst  string
}

type fakeTranslator struct {
	err     error
	rejects map[string]struct{}
	calls   []translateCall
}

func (f *fakeTranslator) Name() string { return "fake-mt" }

func (f *fakeTranslator) Translate(ctx context.Context, text, src, dst string) (string, error) {
	f.calls = append(f.calls, translateCall{text: text, src: src, dst: dst})
	if f.err != nil {
		return "", f.err
	}
	return "[" + dst + "] " + text, nil
}

func (f *fakeTranslator) Supports(code string) bool {
	_, rejected := f.rejects[code]
	return !rejected
}

type fakeSynthesizer struct {
	err   error
	calls int
	langs []string
}

func (f *fakeSynthesizer) Name() string { return "fake-tts" }

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	f.calls++
	f.langs = append(f.langs, language)
	if f.err != nil {
		return nil, f.err
	}
	return []byte{0xff, 0xfb, 0x90, 0x00}, nil
}

func newFakePipeline(tr *fakeTranscoder, rec *fakeRecognizer, mt *fakeTranslator, tts *fakeSynthesizer) *voice.Pipeline {
	return voice.NewPipeline(voice.Options{
		Transcoder:  tr,
		Recognizer:  rec,
		Translator:  mt,
		Synthesizer: tts,
	})
}

// newTestRelaySession builds a session around a fake pipeline without a
// socket. Every path under test only touches the outbound queues.
func newTestRelaySession(p *voice.Pipeline, srcName, tgtName string, broadcast bool) *RelaySession {
	ctx, cancel := context.WithCancel(context.Background())
	languages := p.Languages()
	return &RelaySession{
		pipeline:         p,
		tracker:          sessions.NewTracker(),
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		deviceID:         "dev-main",
		source:           languages.Resolve(srcName),
		target:           languages.Resolve(tgtName),
		cfg:              Config{BroadcastAudio: broadcast},
		ctx:              ctx,
		cancel:           cancel,
		outboundPriority: make(chan outboundFrame, outboundPriorityQueueSize),
		outboundNormal:   make(chan outboundFrame, 32),
	}
}

func drainPriority(s *RelaySession) []string {
	var out []string
	for {
		select {
		case frame := <-s.outboundPriority:
			out = append(out, string(frame.textPayload))
		default:
			return out
		}
	}
}

func drainNormal(s *RelaySession) [][]byte {
	var out [][]byte
	for {
		select {
		case frame := <-s.outboundNormal:
			out = append(out, frame.binaryPayload)
		default:
			return out
		}
	}
}

func TestNew_Validation(t *testing.T) {
	p := newFakePipeline(&fakeTranscoder{}, &fakeRecognizer{text: "x"}, &fakeTranslator{}, &fakeSynthesizer{})
	tracker := sessions.NewTracker()
	conn := new(websocket.Conn)

	base := func() Dependencies {
		return Dependencies{
			Conn:     conn,
			Pipeline: p,
			Tracker:  tracker,
			DeviceID: "dev-1",
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Dependencies)
		errSubstr string
	}{
		{"missing conn", func(d *Dependencies) { d.Conn = nil }, "connection is required"},
		{"missing pipeline", func(d *Dependencies) { d.Pipeline = nil }, "pipeline is required"},
		{"missing tracker", func(d *Dependencies) { d.Tracker = nil }, "tracker is required"},
		{"blank device id", func(d *Dependencies) { d.DeviceID = "   " }, "device id is required"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			deps := base()
			tc.mutate(&deps)
			if _, err := New(deps); err == nil || !strings.Contains(err.Error(), tc.errSubstr) {
				t.Fatalf("New() error=%v, want substring %q", err, tc.errSubstr)
			}
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	p := newFakePipeline(&fakeTranscoder{}, &fakeRecognizer{text: "x"}, &fakeTranslator{}, &fakeSynthesizer{})
	s, err := New(Dependencies{
		Conn:     new(websocket.Conn),
		Pipeline: p,
		Tracker:  sessions.NewTracker(),
		DeviceID: "dev-1",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if s.State() != StateConnecting {
		t.Fatalf("state=%v, want connecting", s.State())
	}
	if s.DeviceID() != "dev-1" {
		t.Fatalf("device id=%q", s.DeviceID())
	}
	if s.logger == nil {
		t.Fatalf("expected default logger")
	}
	if cap(s.outboundNormal) != 32 {
		t.Fatalf("normal queue cap=%d, want 32", cap(s.outboundNormal))
	}
	if cap(s.outboundPriority) != outboundPriorityQueueSize {
		t.Fatalf("priority queue cap=%d, want %d", cap(s.outboundPriority), outboundPriorityQueueSize)
	}
}

func TestRelay_SenderMode_AckThenAudio(t *testing.T) {
	mt := &fakeTranslator{}
	tts := &fakeSynthesizer{}
	p := newFakePipeline(&fakeTranscoder{}, &fakeRecognizer{}, mt, tts)
	s := newTestRelaySession(p, "English", "Hindi", false)

	s.relay("hello")

	acks := drainPriority(s)
	if len(acks) != 1 {
		t.Fatalf("priority frames=%d, want 1: %v", len(acks), acks)
	}
	var frame protocol.TextFrame
	if err := json.Unmarshal([]byte(acks[0]), &frame); err != nil {
		t.Fatalf("ack is not JSON: %v", err)
	}
	if frame.Type != "text" || frame.Data != "[hi] hello" {
		t.Fatalf("ack=%+v", frame)
	}

	clips := drainNormal(s)
	if len(clips) != 1 || len(clips[0]) == 0 {
		t.Fatalf("audio frames=%v", clips)
	}
	if len(mt.calls) != 1 || mt.calls[0].src != "en" || mt.calls[0].dst != "hi" {
		t.Fatalf("translate calls=%+v", mt.calls)
	}
	if len(tts.langs) != 1 || tts.langs[0] != "hi" {
		t.Fatalf("synthesis languages=%v", tts.langs)
	}
}

func TestRelay_TranslationFailureNotifiesAndStops(t *testing.T) {
	mt := &fakeTranslator{err: errors.New("quota exhausted")}
	tts := &fakeSynthesizer{}
	p := newFakePipeline(&fakeTranscoder{}, &fakeRecognizer{}, mt, tts)
	s := newTestRelaySession(p, "English", "Hindi", false)

	s.relay("hello")

	notices := drainPriority(s)
	if len(notices) != 1 || notices[0] != "Translation failed: quota exhausted" {
		t.Fatalf("notices=%v", notices)
	}
	if clips := drainNormal(s); len(clips) != 0 {
		t.Fatalf("expected no audio, got %v", clips)
	}
	if tts.calls != 0 {
		t.Fatalf("synthesis should not run after translation failure")
	}
}

func TestRelay_SynthesisFailureAfterAck(t *testing.T) {
	mt := &fakeTranslator{}
	tts := &fakeSynthesizer{err: errors.New("voice offline")}
	p := newFakePipeline(&fakeTranscoder{}, &fakeRecognizer{}, mt, tts)
	s := newTestRelaySession(p, "English", "Hindi", false)

	s.relay("hello")

	notices := drainPriority(s)
	if len(notices) != 2 {
		t.Fatalf("priority frames=%d, want 2: %v", len(notices), notices)
	}
	if !strings.Contains(notices[0], `"type":"text"`) {
		t.Fatalf("first frame should be the ack: %q", notices[0])
	}
	if notices[1] != "TTS failed: voice offline" {
		t.Fatalf("second frame=%q", notices[1])
	}
	if clips := drainNormal(s); len(clips) != 0 {
		t.Fatalf("expected no audio, got %v", clips)
	}
}

func TestRelay_FallbackNoticeOnlyOnce(t *testing.T) {
	mt := &fakeTranslator{rejects: map[string]struct{}{"sat": {}}}
	p := newFakePipeline(&fakeTranscoder{}, &fakeRecognizer{}, mt, &fakeSynthesizer{})
	s := newTestRelaySession(p, "English", "Santhali", false)

	s.relay("first")
	notices := drainPriority(s)
	if len(notices) != 2 {
		t.Fatalf("priority frames=%d, want 2: %v", len(notices), notices)
	}
	if notices[0] != protocol.NoticeFallback {
		t.Fatalf("first frame=%q, want fallback notice", notices[0])
	}

	s.relay("second")
	notices = drainPriority(s)
	if len(notices) != 1 {
		t.Fatalf("fallback notice repeated: %v", notices)
	}
	if strings.Contains(notices[0], "Fallback") {
		t.Fatalf("second message should only carry the ack: %q", notices[0])
	}

	if s.target.TranslationCode != "hi" {
		t.Fatalf("target translation code=%q, want hi", s.target.TranslationCode)
	}
	if s.target.RecognitionLocale != "hi-IN" {
		t.Fatalf("recognition locale must survive fallback, got %q", s.target.RecognitionLocale)
	}
	for _, call := range mt.calls {
		if call.dst != "hi" {
			t.Fatalf("translate dst=%q, want hi", call.dst)
		}
	}
}

func TestHandleText_MalformedKeepsSessionUsable(t *testing.T) {
	mt := &fakeTranslator{}
	p := newFakePipeline(&fakeTranscoder{}, &fakeRecognizer{}, mt, &fakeSynthesizer{})
	s := newTestRelaySession(p, "English", "Hindi", false)

	s.handleText([]byte("this is not json"))
	notices := drainPriority(s)
	if len(notices) != 1 || notices[0] != protocol.NoticeInvalidJSON {
		t.Fatalf("notices=%v", notices)
	}

	s.handleText([]byte(`{"type":"audio","data":"x"}`))
	notices = drainPriority(s)
	if len(notices) != 1 || notices[0] != protocol.NoticeUnsupportedType {
		t.Fatalf("notices=%v", notices)
	}
	if len(mt.calls) != 0 {
		t.Fatalf("malformed frames must not reach translation")
	}

	s.handleText([]byte(`{"type":"text","data":"hello"}`))
	notices = drainPriority(s)
	if len(notices) != 1 || !strings.Contains(notices[0], `"type":"text"`) {
		t.Fatalf("well-formed frame after errors should still relay: %v", notices)
	}
}

func TestHandleAudio_RecognizesWithSourceLocale(t *testing.T) {
	rec := &fakeRecognizer{text: "vanakkam"}
	mt := &fakeTranslator{}
	p := newFakePipeline(&fakeTranscoder{}, rec, mt, &fakeSynthesizer{})
	s := newTestRelaySession(p, "Tamil", "Hindi", false)

	s.handleAudio([]byte{0x4f, 0x67, 0x67, 0x53})

	if len(rec.locales) != 1 || rec.locales[0] != "ta-IN" {
		t.Fatalf("recognition locales=%v, want [ta-IN]", rec.locales)
	}
	if len(mt.calls) != 1 || mt.calls[0].text != "vanakkam" {
		t.Fatalf("translate calls=%+v", mt.calls)
	}
	acks := drainPriority(s)
	if len(acks) != 1 || !strings.Contains(acks[0], "[hi] vanakkam") {
		t.Fatalf("acks=%v", acks)
	}
}

func TestHandleAudio_NoSpeechNotifies(t *testing.T) {
	rec := &fakeRecognizer{err: core.NewNoSpeechError("fake-stt")}
	mt := &fakeTranslator{}
	tts := &fakeSynthesizer{}
	p := newFakePipeline(&fakeTranscoder{}, rec, mt, tts)
	s := newTestRelaySession(p, "English", "Hindi", false)

	s.handleAudio([]byte{0x01})

	notices := drainPriority(s)
	if len(notices) != 1 || notices[0] != "STT failed: could not understand audio" {
		t.Fatalf("notices=%v", notices)
	}
	if len(mt.calls) != 0 || tts.calls != 0 {
		t.Fatalf("later stages ran after recognition failure")
	}
}

func TestDeliverAudio_BroadcastSkipsSenderAndSurvivesFailures(t *testing.T) {
	p := newFakePipeline(&fakeTranscoder{}, &fakeRecognizer{}, &fakeTranslator{}, &fakeSynthesizer{})
	s := newTestRelaySession(p, "English", "Hindi", true)

	var senderGot, goodGot int
	s.tracker.Register("dev-main", sessions.Handle{Deliver: func([]byte) error {
		senderGot++
		return nil
	}})
	s.tracker.Register("dev-good", sessions.Handle{Deliver: func([]byte) error {
		goodGot++
		return nil
	}})
	s.tracker.Register("dev-bad", sessions.Handle{Deliver: func([]byte) error {
		return errors.New("queue full")
	}})

	s.deliverAudio([]byte{0x01, 0x02})
	if senderGot != 0 {
		t.Fatalf("sender received its own broadcast")
	}
	if goodGot != 1 {
		t.Fatalf("recipient deliveries=%d, want 1", goodGot)
	}

	s.deliverAudio(nil)
	if goodGot != 1 {
		t.Fatalf("empty audio should not be delivered")
	}
}

func TestRelay_BroadcastMode_SenderQueueStaysClear(t *testing.T) {
	p := newFakePipeline(&fakeTranscoder{}, &fakeRecognizer{}, &fakeTranslator{}, &fakeSynthesizer{})
	s := newTestRelaySession(p, "English", "Hindi", true)

	var relayed int
	s.tracker.Register("dev-other", sessions.Handle{Deliver: func([]byte) error {
		relayed++
		return nil
	}})

	s.relay("hello")

	if acks := drainPriority(s); len(acks) != 1 {
		t.Fatalf("acks=%v", acks)
	}
	if clips := drainNormal(s); len(clips) != 0 {
		t.Fatalf("broadcast audio must not land on the sender queue: %v", clips)
	}
	if relayed != 1 {
		t.Fatalf("recipient deliveries=%d, want 1", relayed)
	}
}

func TestEnqueuePriority_DropsOldestWhenFull(t *testing.T) {
	p := newFakePipeline(&fakeTranscoder{}, &fakeRecognizer{}, &fakeTranslator{}, &fakeSynthesizer{})
	s := newTestRelaySession(p, "English", "Hindi", false)

	for i := 0; i < outboundPriorityQueueSize; i++ {
		s.outboundPriority <- outboundFrame{textPayload: []byte(fmt.Sprintf("old-%d", i))}
	}
	if err := s.enqueuePriority(outboundFrame{textPayload: []byte("new")}); err != nil {
		t.Fatalf("enqueuePriority error: %v", err)
	}

	frames := drainPriority(s)
	if len(frames) != outboundPriorityQueueSize {
		t.Fatalf("frames=%d, want %d", len(frames), outboundPriorityQueueSize)
	}
	if frames[0] != "old-1" {
		t.Fatalf("oldest frame should have been dropped, head=%q", frames[0])
	}
	if frames[len(frames)-1] != "new" {
		t.Fatalf("tail=%q, want new", frames[len(frames)-1])
	}
}

func TestEnqueueNormal_Backpressure(t *testing.T) {
	p := newFakePipeline(&fakeTranscoder{}, &fakeRecognizer{}, &fakeTranslator{}, &fakeSynthesizer{})
	s := newTestRelaySession(p, "English", "Hindi", false)
	s.outboundNormal = make(chan outboundFrame, 1)

	if err := s.enqueueNormal(outboundFrame{binaryPayload: []byte{1}}); err != nil {
		t.Fatalf("first enqueue error: %v", err)
	}
	if err := s.enqueueNormal(outboundFrame{binaryPayload: []byte{2}}); !errors.Is(err, errBackpressure) {
		t.Fatalf("err=%v, want errBackpressure", err)
	}
}

func TestSendAudio_CopiesBuffer(t *testing.T) {
	p := newFakePipeline(&fakeTranscoder{}, &fakeRecognizer{}, &fakeTranslator{}, &fakeSynthesizer{})
	s := newTestRelaySession(p, "English", "Hindi", false)

	buf := []byte{1, 2, 3}
	if err := s.sendAudio(buf); err != nil {
		t.Fatalf("sendAudio error: %v", err)
	}
	buf[0] = 9

	clips := drainNormal(s)
	if len(clips) != 1 || clips[0][0] != 1 {
		t.Fatalf("queued audio aliases the caller buffer: %v", clips)
	}
}

func TestNotifyStage_WrapsUnknownErrors(t *testing.T) {
	p := newFakePipeline(&fakeTranscoder{}, &fakeRecognizer{}, &fakeTranslator{}, &fakeSynthesizer{})
	s := newTestRelaySession(p, "English", "Hindi", false)

	s.notifyStage(errors.New("weird failure"))

	notices := drainPriority(s)
	if len(notices) != 1 || notices[0] != "weird failure" {
		t.Fatalf("notices=%v", notices)
	}
}

func TestIsExpectedClose(t *testing.T) {
	if !isExpectedClose(&websocket.CloseError{Code: websocket.CloseNormalClosure}) {
		t.Fatalf("normal closure should be expected")
	}
	if !isExpectedClose(&websocket.CloseError{Code: websocket.CloseGoingAway}) {
		t.Fatalf("going away should be expected")
	}
	if !isExpectedClose(&websocket.CloseError{Code: websocket.CloseNoStatusReceived}) {
		t.Fatalf("no status should be expected")
	}
	if isExpectedClose(&websocket.CloseError{Code: websocket.CloseProtocolError}) {
		t.Fatalf("protocol error close is not expected")
	}
	if isExpectedClose(errors.New("broken pipe")) {
		t.Fatalf("io errors are not expected closes")
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateConnecting, "connecting"},
		{StateActive, "active"},
		{StateClosing, "closing"},
		{StateClosed, "closed"},
		{State(99), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.state.String(); got != tc.want {
			t.Fatalf("State(%d).String()=%q, want %q", tc.state, got, tc.want)
		}
	}
}
