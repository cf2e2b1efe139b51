package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"verbitskysystems.com/website/internal/core"
	"verbitskysystems.com/website/internal/mail"
)

// RelayHandler is the mail relay the contact bridge POSTs to: it validates
// the form fields, emails them to the operator, and appends a line to the
// submissions log. The bridge treats it as an opaque notification sink, so
// it keeps the exact wire contract it has always had, including handling its
// own method check.
type RelayHandler struct {
	mailer  mail.Mailer
	logPath string
	log     zerolog.Logger
}

func NewRelayHandler(mailer mail.Mailer, logPath string, logger zerolog.Logger) *RelayHandler {
	return &RelayHandler{mailer: mailer, logPath: logPath, log: logger}
}

func (h *RelayHandler) Handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// FormValue handles both form-encoded and multipart bodies.
	sub := core.ContactSubmission{
		Name:    strings.TrimSpace(r.FormValue("name")),
		Email:   strings.TrimSpace(r.FormValue("email")),
		Company: strings.TrimSpace(r.FormValue("company")),
		Message: strings.TrimSpace(r.FormValue("message")),
	}

	if sub.Name == "" || sub.Email == "" || sub.Message == "" {
		writeError(w, http.StatusBadRequest, "Required fields missing")
		return
	}
	if !core.IsValidEmail(sub.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}

	if err := h.mailer.SendContact(r.Context(), sub); err != nil {
		h.log.Error().Err(err).Msg("relay failed to send contact email")
		writeError(w, http.StatusInternalServerError, "Failed to send message. Please try again.")
		return
	}

	if err := h.appendLog(sub); err != nil {
		// The email went out; a logging failure must not fail the request.
		h.log.Warn().Err(err).Msg("failed to append contact submission log")
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Thank you for contacting us!",
	})
}

func (h *RelayHandler) appendLog(sub core.ContactSubmission) error {
	if h.logPath == "" {
		return nil
	}
	if dir := filepath.Dir(h.logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(h.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open submissions log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s - Contact from: %s (%s)\n",
		time.Now().Format("2006-01-02 15:04:05"), sub.Name, sub.Email)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to append submissions log: %w", err)
	}
	return nil
}
