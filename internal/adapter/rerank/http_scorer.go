package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// defaultMaxInputRunes matches the cross-encoder's context length.
const defaultMaxInputRunes = 1024

// scoreRequest is the request payload for the scoring endpoint.
type scoreRequest struct {
	Query      string   `json:"query"`
	Candidates []string `json:"candidates"`
	Model      string   `json:"model,omitempty"`
}

// scoreResponseResult is a single result in the scoring response.
type scoreResponseResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// scoreResponse is the response from the scoring endpoint.
type scoreResponse struct {
	Results []scoreResponseResult `json:"results"`
	Model   string                `json:"model"`
}

// HTTPScorer scores (query, content) pairs against a cross-encoder model
// served over HTTP. Outbound calls are rate limited to keep the inference
// service responsive under concurrent queries.
type HTTPScorer struct {
	BaseURL string
	Model   string
	Client  *http.Client

	maxInput int
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// NewHTTPScorer constructs a scorer for the given inference service.
// maxInputRunes defaults to the model context length when <= 0. If client is
// nil, a default http.Client is created with the given timeout.
func NewHTTPScorer(baseURL, model string, maxInputRunes int, timeout time.Duration, logger *slog.Logger, client *http.Client) *HTTPScorer {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if maxInputRunes <= 0 {
		maxInputRunes = defaultMaxInputRunes
	}
	return &HTTPScorer{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Model:    model,
		Client:   client,
		maxInput: maxInputRunes,
		limiter:  rate.NewLimiter(rate.Limit(10), 10),
		logger:   logger,
	}
}

// Healthcheck probes the inference service. Used as the load step for the
// lazy model handle, so an unreachable service keeps the model unloaded and
// retryable instead of failing every scoring call slowly.
func (s *HTTPScorer) Healthcheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/healthz", s.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create healthcheck request: %w", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach rerank service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("rerank service unhealthy: %d", resp.StatusCode)
	}
	return nil
}

func (s *HTTPScorer) MaxInputRunes() int { return s.maxInput }

func (s *HTTPScorer) ModelName() string { return s.Model }

// Score sends the candidate batch to the scoring endpoint and returns scores
// aligned with the contents slice.
func (s *HTTPScorer) Score(ctx context.Context, query string, contents []string) ([]float64, error) {
	if len(contents) == 0 {
		return []float64{}, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	reqBody := scoreRequest{
		Query:      query,
		Candidates: contents,
		Model:      s.Model,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal score request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/rerank", s.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		s.logger.Warn("cross_encoder_call_failed",
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("failed to call rerank endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		s.logger.Warn("cross_encoder_bad_status",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", truncateString(string(body), 500)),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return nil, fmt.Errorf("rerank endpoint returned %d", resp.StatusCode)
	}

	var scoreResp scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&scoreResp); err != nil {
		return nil, fmt.Errorf("failed to decode score response: %w", err)
	}

	// Responses carry (index, score) pairs; map them back to input order.
	scores := make([]float64, len(contents))
	seen := make([]bool, len(contents))
	for _, r := range scoreResp.Results {
		if r.Index < 0 || r.Index >= len(contents) {
			return nil, fmt.Errorf("invalid result index %d for %d candidates", r.Index, len(contents))
		}
		scores[r.Index] = r.Score
		seen[r.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("missing score for candidate %d", i)
		}
	}

	s.logger.Debug("cross_encoder_scored",
		slog.Int("candidate_count", len(contents)),
		slog.String("model", s.Model),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))

	return scores, nil
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
