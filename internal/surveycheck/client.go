package surveycheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/palanikathirvel/realestatefinal-sub000/pkg/logger"
	"github.com/palanikathirvel/realestatefinal-sub000/pkg/metrics"
)

const defaultTimeout = 5 * time.Second

// Config holds the settings for the HTTP survey registry client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client calls the external survey registry over HTTP. Every call carries a
// bounded timeout; transport errors and timeouts map to OutcomeUnavailable so
// the submission path never hangs or auto-rejects on registry downtime.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     *zap.Logger
}

// NewClient constructs a survey registry client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("surveycheck: base url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
		log:     logger.WithModule("surveycheck"),
	}, nil
}

type validateResponse struct {
	Valid bool `json:"valid"`
}

// Validate checks the supplied survey number with the registry.
func (c *Client) Validate(ctx context.Context, surveyNumber string) Outcome {
	surveyNumber = strings.TrimSpace(surveyNumber)
	if surveyNumber == "" {
		return c.record(OutcomeFail)
	}

	endpoint := fmt.Sprintf("%s/surveys/%s", c.baseURL, url.PathEscape(surveyNumber))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.log.Warn("build registry request failed", zap.Error(err))
		return c.record(OutcomeUnavailable)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("survey registry unreachable", zap.String("survey_number", surveyNumber), zap.Error(err))
		return c.record(OutcomeUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return c.record(OutcomeFail)
	case resp.StatusCode >= 500:
		c.log.Warn("survey registry error", zap.Int("status", resp.StatusCode))
		return c.record(OutcomeUnavailable)
	case resp.StatusCode != http.StatusOK:
		return c.record(OutcomeFail)
	}

	var payload validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		c.log.Warn("decode registry response failed", zap.Error(err))
		return c.record(OutcomeUnavailable)
	}

	if payload.Valid {
		return c.record(OutcomePass)
	}
	return c.record(OutcomeFail)
}

func (c *Client) record(outcome Outcome) Outcome {
	metrics.SurveyChecks.WithLabelValues(string(outcome)).Inc()
	return outcome
}
