package handlers

import (
	"net/http"

	"github.com/samvaad-live/samvaad/pkg/core/lang"
)

// LanguagesHandler lists the display names clients may put in the
// relay path, in table order.
type LanguagesHandler struct {
	Languages *lang.Registry
}

func (h LanguagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type languagesResp struct {
		Languages []string `json:"languages"`
	}
	writeJSON(w, http.StatusOK, languagesResp{Languages: h.Languages.Names()})
}
