package handlers

import (
	"net/http"

	"github.com/samvaad-live/samvaad/pkg/core"
)

type NotFoundHandler struct{}

func (h NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeErrorJSON(w, &core.Error{
		Type:    core.ErrProtocol,
		Message: "not found",
		Code:    "not_found",
	}, http.StatusNotFound)
}
