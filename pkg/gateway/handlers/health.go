package handlers

import (
	"net/http"

	"github.com/samvaad-live/samvaad/pkg/gateway/lifecycle"
)

// HealthHandler reports process liveness. While the relay drains it
// keeps answering 200 so in-flight probes do not flap, with the status
// field flipped to "draining".
type HealthHandler struct {
	Lifecycle *lifecycle.Lifecycle
}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type healthResp struct {
		Status string `json:"status"`
	}

	status := "ok"
	if h.Lifecycle != nil && h.Lifecycle.IsDraining() {
		status = "draining"
	}
	writeJSON(w, http.StatusOK, healthResp{Status: status})
}
