package handlers

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
)

// Home renders the landing page
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, "home.html", h.newPageData(r))
}

// Health reports liveness plus build information from the binary
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status": "ok",
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		status["go"] = info.GoVersion
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				status["revision"] = setting.Value
			case "vcs.time":
				status["build_time"] = setting.Value
			case "vcs.modified":
				status["dirty"] = setting.Value
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
