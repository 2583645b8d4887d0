package airquality

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// addServerTiming appends Server-Timing entries, e.g. {"db", start}.
func addServerTiming(w http.ResponseWriter, name string, start time.Time) {
	ms := float64(time.Since(start).Microseconds()) / 1000
	w.Header().Add("Server-Timing", fmt.Sprintf("%s;dur=%.1f", name, ms))
}
