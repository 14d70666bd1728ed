package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/samvaad-live/samvaad/pkg/core"
	"github.com/samvaad-live/samvaad/pkg/core/voice"
	"github.com/samvaad-live/samvaad/pkg/gateway/config"
	"github.com/samvaad-live/samvaad/pkg/gateway/lifecycle"
	"github.com/samvaad-live/samvaad/pkg/gateway/live/session"
	"github.com/samvaad-live/samvaad/pkg/gateway/live/sessions"
)

// RelayHandler upgrades /ws/{src}/{tgt}/{device_id} and runs the relay
// session until the connection closes. Unknown language names resolve
// to the default profile without comment; the path device id is
// sanitized before it becomes the registry key.
type RelayHandler struct {
	Config    config.Config
	Pipeline  *voice.Pipeline
	Logger    *slog.Logger
	Lifecycle *lifecycle.Lifecycle
	Sessions  *sessions.Tracker
}

func (h RelayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Lifecycle != nil && h.Lifecycle.IsDraining() {
		writeErrorJSON(w, &core.Error{Type: core.ErrTransport, Message: "relay is draining", Code: "draining"}, http.StatusServiceUnavailable)
		return
	}
	if !h.originAllowed(r) {
		writeErrorJSON(w, core.NewProtocolError("origin is not allowed"), http.StatusForbidden)
		return
	}

	deviceID := sessions.SanitizeDeviceID(r.PathValue("device_id"))
	if deviceID == "" {
		writeErrorJSON(w, core.NewProtocolError("device id is required"), http.StatusBadRequest)
		return
	}

	languages := h.Pipeline.Languages()
	source := languages.Resolve(r.PathValue("src"))
	target := languages.Resolve(r.PathValue("tgt"))

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sessionID := "s_" + randHex(8)
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session_id", sessionID, "device_id", deviceID)

	s, err := session.New(session.Dependencies{
		Conn:     conn,
		Pipeline: h.Pipeline,
		Tracker:  h.Sessions,
		Logger:   logger,
		DeviceID: deviceID,
		Source:   source,
		Target:   target,
		Config: session.Config{
			PingInterval:      h.Config.WSPingInterval,
			WriteTimeout:      h.Config.WSWriteTimeout,
			ReadTimeout:       h.Config.WSReadTimeout,
			MaxMessageBytes:   h.Config.WSMaxMessageBytes,
			OutboundQueueSize: h.Config.WSOutboundQueue,
			BroadcastAudio:    h.Config.RelayMode == config.RelayModeBroadcast,
		},
	})
	if err != nil {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "failed to initialize session"), time.Now().Add(2*time.Second))
		return
	}

	logger.Info("relay session opened", "source", source.Name, "target", target.Name, "request_id", requestIDFromContext(r.Context()))
	if err := s.Run(); err != nil {
		logger.Warn("relay session ended with error", "error", err)
		return
	}
	logger.Info("relay session closed")
}

func (h RelayHandler) originAllowed(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	if _, wildcard := h.Config.CORSAllowedOrigins["*"]; wildcard {
		return true
	}
	_, ok := h.Config.CORSAllowedOrigins[origin]
	return ok
}
