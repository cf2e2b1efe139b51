package core

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSubmission(t *testing.T) {
	valid := ContactSubmission{Name: "A", Email: "a@b.com", Message: "hi"}
	assert.Nil(t, ValidateSubmission(valid))

	tests := []struct {
		name  string
		sub   ContactSubmission
		field string
	}{
		{"missing name", ContactSubmission{Email: "a@b.com", Message: "hi"}, "name"},
		{"missing email", ContactSubmission{Name: "A", Message: "hi"}, "email"},
		{"missing message", ContactSubmission{Name: "A", Email: "a@b.com"}, "message"},
		{"bad email", ContactSubmission{Name: "A", Email: "bad-email", Message: "hi"}, "email"},
		{"email without tld", ContactSubmission{Name: "A", Email: "a@b", Message: "hi"}, "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateSubmission(tt.sub)
			require.NotNil(t, errs)
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestSubmitInvalidMakesNoNetworkCalls(t *testing.T) {
	var calls atomic.Int32
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer relay.Close()

	svc := NewContactService(relay.URL, "ops@example.com", relay.Client(), NewBus(), zerolog.Nop())

	_, err := svc.Submit(context.Background(), ContactSubmission{Name: "", Email: "a@b.com", Message: "hi"})
	var fieldErrs FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "name")

	_, err = svc.Submit(context.Background(), ContactSubmission{Name: "A", Email: "bad-email", Message: "hi"})
	require.ErrorAs(t, err, &fieldErrs)
	assert.Contains(t, fieldErrs, "email")

	assert.Equal(t, int32(0), calls.Load())
}

func TestSubmitPostsFormEncodedOnce(t *testing.T) {
	var calls atomic.Int32
	var gotName, gotEmail, gotCompany, gotMessage string
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, http.MethodPost, r.Method)
		require.Contains(t, r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
		gotName = r.FormValue("name")
		gotEmail = r.FormValue("email")
		gotCompany = r.FormValue("company")
		gotMessage = r.FormValue("message")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"message":"Thank you for contacting us!"}`))
	}))
	defer relay.Close()

	svc := NewContactService(relay.URL, "ops@example.com", relay.Client(), NewBus(), zerolog.Nop())
	result, err := svc.Submit(context.Background(), ContactSubmission{
		Name: "Ada", Email: "ada@example.com", Company: "ACME", Message: "hello",
	})
	require.NoError(t, err)

	assert.True(t, result.Sent)
	assert.Equal(t, "Thank you for contacting us!", result.Message)
	assert.Empty(t, result.Fallback)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "Ada", gotName)
	assert.Equal(t, "ada@example.com", gotEmail)
	assert.Equal(t, "ACME", gotCompany)
	assert.Equal(t, "hello", gotMessage)
}

func TestSubmitFallsBackOnRelayError(t *testing.T) {
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Failed to send message. Please try again."}`))
	}))
	defer relay.Close()

	svc := NewContactService(relay.URL, "ops@example.com", relay.Client(), NewBus(), zerolog.Nop())
	result, err := svc.Submit(context.Background(), ContactSubmission{
		Name: "Ada", Email: "ada@example.com", Message: "press is down",
	})
	require.NoError(t, err)

	assert.False(t, result.Sent)
	assert.Contains(t, result.Fallback, "mailto:ops@example.com")
	assert.Contains(t, result.Fallback, "Ada")
	assert.Contains(t, result.Fallback, "ada%40example.com")
	assert.Contains(t, result.Fallback, "press%20is%20down")
}

func TestSubmitFallsBackWhenRelayUnreachable(t *testing.T) {
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := relay.URL
	relay.Close() // nobody listening

	svc := NewContactService(url, "ops@example.com", nil, NewBus(), zerolog.Nop())
	result, err := svc.Submit(context.Background(), ContactSubmission{
		Name: "Ada", Email: "ada@example.com", Message: "hi",
	})
	require.NoError(t, err)
	assert.False(t, result.Sent)
	assert.Contains(t, result.Fallback, "mailto:")
}

func TestMailtoURI(t *testing.T) {
	uri := MailtoURI("ops@example.com", ContactSubmission{
		Name: "Ada Lovelace", Email: "ada@example.com", Company: "ACME", Message: "line one\nline two",
	})

	assert.Contains(t, uri, "subject=Contact%20from%20Ada%20Lovelace%20%28ACME%29")
	assert.Contains(t, uri, "Email%3A%20ada%40example.com")
	assert.Contains(t, uri, "Company%3A%20ACME")
	assert.Contains(t, uri, "line%20one%0Aline%20two")

	// Without a company, neither the subject suffix nor the body line appear.
	uri = MailtoURI("ops@example.com", ContactSubmission{Name: "Ada", Email: "a@b.com", Message: "hi"})
	assert.Contains(t, uri, "subject=Contact%20from%20Ada&")
	assert.NotContains(t, uri, "Company")
}
