package airquality

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/AirSense/AirSense-Backend/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

type healthBody struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// health pings the database when the secret query parameter matches the
// configured one. An unset secret keeps the endpoint closed.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) error {
	if !secretMatches(h.healthSecret, r.URL.Query().Get("secret")) {
		logging.Ctx(r.Context()).Warn().Str("remote_addr", r.RemoteAddr).Msg("health check with invalid secret")
		writeJSONStatus(w, http.StatusUnauthorized, healthBody{Status: "unauthorized"})
		return nil
	}
	if err := h.store.Ping(r.Context()); err != nil {
		return err
	}
	writeJSON(w, healthBody{Status: "ok", Message: "Database pinged successfully."})
	return nil
}

func secretMatches(configured, given string) bool {
	if configured == "" || given == "" {
		return false
	}
	if isBcryptHash(configured) {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(given)) == 1
}

func isBcryptHash(s string) bool {
	return len(s) == 60 && (strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$"))
}
