package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrEmptyResponse = errors.New("agent returned an empty analysis")

// TokenSource mints the bearer token sent with every agent call.
type TokenSource interface {
	Sign() (string, error)
}

// Client calls the analysis agent's /analyze endpoint.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

func NewClient(baseURL string, tokens TokenSource, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type analyzeRequest struct {
	Prompt string `json:"prompt"`
}

type analyzeResponse struct {
	Response string `json:"response"`
}

// StatusError is returned when the agent answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("agent returned status %d: %s", e.StatusCode, e.Body)
}

func (c *Client) Analyze(ctx context.Context, prompt string) (string, error) {
	token, err := c.tokens.Sign()
	if err != nil {
		return "", fmt.Errorf("generate agent token: %w", err)
	}

	payload, err := json.Marshal(analyzeRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call agent: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode analyze response: %w", err)
	}

	if strings.TrimSpace(decoded.Response) == "" {
		return "", ErrEmptyResponse
	}

	return decoded.Response, nil
}
