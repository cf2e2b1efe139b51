package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ContactSubmission is the transient value object built from the contact
// form. It is validated, submitted once, and discarded.
type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
	Message string `json:"message"`
}

// FieldErrors maps form field names to their validation messages.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return "invalid submission: " + strings.Join(parts, "; ")
}

// ValidateSubmission mirrors the relay's server-side rules so bad input is
// rejected before any network call.
func ValidateSubmission(sub ContactSubmission) FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(sub.Name) == "" {
		errs["name"] = "Name is required"
	}
	if strings.TrimSpace(sub.Email) == "" {
		errs["email"] = "Email is required"
	} else if !IsValidEmail(sub.Email) {
		errs["email"] = "Invalid email address"
	}
	if strings.TrimSpace(sub.Message) == "" {
		errs["message"] = "Message is required"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// SubmitResult reports how the submission reached the operator: over the
// relay, or via the mailto fallback link the visitor should be sent to.
type SubmitResult struct {
	Sent     bool   `json:"sent"`
	Message  string `json:"message,omitempty"`
	Fallback string `json:"fallback,omitempty"` // mailto: URI, set when Sent is false
}

// ContactService bridges the contact form to the mail relay. The relay is an
// opaque notification sink: one form-encoded POST per submission, and any
// transport or non-success failure degrades to a pre-filled mailto link so
// the visitor can still reach the operator.
type ContactService struct {
	relayURL string
	operator string
	client   *http.Client
	bus      *Bus
	log      zerolog.Logger
}

func NewContactService(relayURL, operator string, client *http.Client, bus *Bus, logger zerolog.Logger) *ContactService {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ContactService{
		relayURL: relayURL,
		operator: operator,
		client:   client,
		bus:      bus,
		log:      logger,
	}
}

// Submit validates locally, then makes exactly one POST to the relay.
// Validation failures return FieldErrors with zero network calls made.
func (s *ContactService) Submit(ctx context.Context, sub ContactSubmission) (SubmitResult, error) {
	if errs := ValidateSubmission(sub); errs != nil {
		return SubmitResult{}, errs
	}

	form := url.Values{}
	form.Set("name", sub.Name)
	form.Set("email", sub.Email)
	if sub.Company != "" {
		form.Set("company", sub.Company)
	}
	form.Set("message", sub.Message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.relayURL, strings.NewReader(form.Encode()))
	if err != nil {
		return s.fallback(sub, "building relay request: "+err.Error()), nil
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return s.fallback(sub, err.Error()), nil
	}
	defer resp.Body.Close()

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return s.fallback(sub, "decoding relay response: "+err.Error()), nil
	}
	if resp.StatusCode != http.StatusOK || !body.Success {
		reason := body.Error
		if reason == "" {
			reason = resp.Status
		}
		return s.fallback(sub, reason), nil
	}

	s.bus.Publish(TopicContactSubmitted, "sent")
	return SubmitResult{Sent: true, Message: body.Message}, nil
}

func (s *ContactService) fallback(sub ContactSubmission, reason string) SubmitResult {
	s.log.Warn().Str("reason", reason).Msg("mail relay unavailable, degrading to mailto")
	s.bus.Publish(TopicContactSubmitted, "fallback")
	return SubmitResult{Fallback: MailtoURI(s.operator, sub)}
}

// MailtoURI builds the pre-filled deep link used when the relay path fails.
func MailtoURI(operator string, sub ContactSubmission) string {
	subject := "Contact from " + sub.Name
	if sub.Company != "" {
		subject += " (" + sub.Company + ")"
	}

	var b strings.Builder
	b.WriteString("Name: " + sub.Name + "\n")
	b.WriteString("Email: " + sub.Email + "\n")
	if sub.Company != "" {
		b.WriteString("Company: " + sub.Company + "\n")
	}
	b.WriteString("\nMessage:\n" + sub.Message)

	return "mailto:" + operator +
		"?subject=" + encodeURIComponent(subject) +
		"&body=" + encodeURIComponent(b.String())
}

// encodeURIComponent escapes the way browsers do: spaces become %20, not +.
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
