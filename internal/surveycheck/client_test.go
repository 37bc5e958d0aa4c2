package surveycheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})
	require.NoError(t, err)
	return client
}

func TestValidatePass(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/surveys/SF-1001", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid": true}`))
	})

	require.Equal(t, OutcomePass, client.Validate(context.Background(), "SF-1001"))
}

func TestValidateFailOnInvalidSurvey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"valid": false}`))
	})

	require.Equal(t, OutcomeFail, client.Validate(context.Background(), "SF-bogus"))
}

func TestValidateFailOnNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	require.Equal(t, OutcomeFail, client.Validate(context.Background(), "SF-missing"))
}

func TestValidateUnavailableOnServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	require.Equal(t, OutcomeUnavailable, client.Validate(context.Background(), "SF-1002"))
}

func TestValidateUnavailableOnTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	client.http.Timeout = 50 * time.Millisecond

	require.Equal(t, OutcomeUnavailable, client.Validate(context.Background(), "SF-slow"))
}

func TestValidateFailOnEmptySurveyNumber(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("registry must not be called for an empty survey number")
	})

	require.Equal(t, OutcomeFail, client.Validate(context.Background(), "  "))
}
