package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	OpenTDBBaseURL        = "https://opentdb.com"
	defaultOpenTDBTimeout = 10 * time.Second
)

// openTDBResponseCodes names the non-zero response_code values of the API.
var openTDBResponseCodes = map[int]string{
	1: "no results",
	2: "invalid parameter",
	3: "token not found",
	4: "token empty",
	5: "rate limited",
}

// OpenTDBSource fetches questions from the Open Trivia Database.
type OpenTDBSource struct {
	logger  *zap.SugaredLogger
	client  *http.Client
	timeout time.Duration
	baseURL string
	token   string
}

type OpenTDBOption func(*OpenTDBSource)

// WithBaseURL points the source at another server, e.g. an httptest.Server.
func WithBaseURL(base string) OpenTDBOption {
	return func(s *OpenTDBSource) { s.baseURL = strings.TrimSuffix(base, "/") }
}

func WithHTTPClient(c *http.Client) OpenTDBOption {
	return func(s *OpenTDBSource) { s.client = c }
}

// WithTimeout bounds each request. It applies to a copy of the client, so a
// shared client passed to WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) OpenTDBOption {
	return func(s *OpenTDBSource) { s.timeout = d }
}

func NewOpenTDBSource(logger *zap.SugaredLogger, opts ...OpenTDBOption) *OpenTDBSource {
	s := &OpenTDBSource{
		logger:  logger,
		client:  &http.Client{Timeout: defaultOpenTDBTimeout},
		baseURL: OpenTDBBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeout > 0 {
		client := *s.client
		client.Timeout = s.timeout
		s.client = &client
	}
	return s
}

// RequestToken obtains a session token so the API stops repeating questions
// across fetches. Subsequent fetches send it automatically.
func (s *OpenTDBSource) RequestToken(ctx context.Context) error {
	u := s.baseURL + "/api_token.php?command=request"

	var tokenRes struct {
		ResponseCode int    `json:"response_code"`
		Token        string `json:"token"`
	}
	if err := s.getJSON(ctx, "request token", u, &tokenRes); err != nil {
		return err
	}

	if tokenRes.ResponseCode != 0 || tokenRes.Token == "" {
		return &ProtocolError{Code: tokenRes.ResponseCode, Reason: "server did not issue a token"}
	}

	s.token = tokenRes.Token
	s.logger.Debug("obtained opentdb session token")
	return nil
}

func (s *OpenTDBSource) Fetch(ctx context.Context, req Request) ([]RawQuestion, error) {
	u, err := url.Parse(s.baseURL + "/api.php")
	if err != nil {
		return nil, fmt.Errorf("failed to parse url: %w", err)
	}

	q := u.Query()
	q.Set("amount", strconv.Itoa(req.Count))
	if req.Category != 0 {
		q.Set("category", strconv.Itoa(req.Category))
	}
	if s.token != "" {
		q.Set("token", s.token)
	}
	u.RawQuery = q.Encode()

	var resultsResp struct {
		ResponseCode int            `json:"response_code"`
		Results      *[]RawQuestion `json:"results"`
	}
	if err = s.getJSON(ctx, "fetch questions", u.String(), &resultsResp); err != nil {
		return nil, err
	}

	if resultsResp.ResponseCode != 0 {
		return nil, &ProtocolError{
			Code:   resultsResp.ResponseCode,
			Reason: openTDBResponseCodes[resultsResp.ResponseCode],
		}
	}

	if resultsResp.Results == nil {
		return nil, &ProtocolError{Reason: "missing results list"}
	}

	s.logger.Debugw("fetched questions", "count", len(*resultsResp.Results), "requested", req.Count)
	return *resultsResp.Results, nil
}

func (s *OpenTDBSource) getJSON(ctx context.Context, op, u string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Cache-Control", "no-store")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return &TransportError{Op: op, URL: s.redact(u), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Op: op, URL: s.redact(u), StatusCode: resp.StatusCode}
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ProtocolError{Reason: "failed to unmarshal api response body", Err: err}
	}
	return nil
}

func (s *OpenTDBSource) redact(u string) string {
	if s.token == "" {
		return u
	}
	return strings.ReplaceAll(u, s.token, "REDACTED")
}
