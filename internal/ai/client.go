// Package ai talks to the reply generator used for AI-assisted answers.
//
// Client is the black-box text generator: given a prompt it returns reply
// text. HTTPClient calls a JSON endpoint; StubClient returns a canned reply
// and is used when no endpoint is configured. Replier (replier.go) wraps a
// Client with the counselor prompt and a hard timeout.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client generates reply text for a prompt. Implementations must honor ctx.
type Client interface {
	GenerateReply(ctx context.Context, prompt string) (string, error)
}

// HTTPClient posts prompts to a JSON endpoint:
//
//	POST <endpoint>  {"prompt": "..."}  ->  {"reply": "..."}
type HTTPClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient builds an HTTPClient. The transport is instrumented with
// OpenTelemetry so generator calls show up under the request span.
func NewHTTPClient(endpoint, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Reply string `json:"reply"`
}

// GenerateReply implements Client.
func (c *HTTPClient) GenerateReply(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return "", fmt.Errorf("generator returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Reply, nil
}

// StubClient returns Reply for every prompt. An empty Reply falls back to a
// short built-in counselor answer.
type StubClient struct {
	Reply string
}

const stubReply = "That sounds like a heavy thing to carry. For now, catching your breath comes first. " +
	"1) Drink a glass of water  2) Rest for five minutes  3) Write down just one task for tomorrow"

// GenerateReply implements Client.
func (s StubClient) GenerateReply(ctx context.Context, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Reply != "" {
		return s.Reply, nil
	}
	return stubReply, nil
}
