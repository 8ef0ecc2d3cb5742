package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/crease/internal/domain/model"
)

const (
	apiKeyHeader       = "X-API-Key"
	defaultHTTPTimeout = 15 * time.Second
	maxErrorBody       = 512
)

// HTTPClient reads scorecards from a REST cricket API.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	userAgent  string
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) {
		if c != nil {
			h.httpClient = c
		}
	}
}

// WithAPIKey sets the X-API-Key header value.
func WithAPIKey(key string) HTTPOption {
	return func(h *HTTPClient) { h.apiKey = key }
}

// NewHTTPClient creates a client rooted at baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		userAgent:  "crease/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchScorecard fetches the scorecard and its commentary.
func (c *HTTPClient) FetchScorecard(ctx context.Context, matchID string) (model.Scorecard, error) {
	var card model.Scorecard
	if err := c.get(ctx, "/matches/"+url.PathEscape(matchID)+"/scorecard", &card); err != nil {
		return model.Scorecard{}, err
	}
	var commentary []model.Commentary
	if err := c.get(ctx, "/matches/"+url.PathEscape(matchID)+"/commentary", &commentary); err != nil {
		return model.Scorecard{}, err
	}
	if card.MatchID == "" {
		card.MatchID = matchID
	}
	if len(commentary) > 0 {
		card.Commentary = commentary
	}
	return card, nil
}

// ListMatches fetches the live matches.
func (c *HTTPClient) ListMatches(ctx context.Context) ([]model.Match, error) {
	var matches []model.Match
	if err := c.get(ctx, "/matches?status=live", &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (c *HTTPClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: creating request: %v", ErrUpstream, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrMatchNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: status=%d, body=%s", ErrUpstream, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding response: %v", ErrUpstream, err)
	}
	return nil
}
