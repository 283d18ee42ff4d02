// Package suggest calls the external chat-completion service used for rule
// suggestions and the chat assistant.
//
// The service is treated as an opaque collaborator: a POST of the
// conversation to {base}/api/groq-chat answered by {"response": "..."}. Any
// non-2xx status, transport error or undecodable body is reported as
// ErrCallFailed.
package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Endpoint is the path of the chat-completion route on the remote service.
const Endpoint = "/api/groq-chat"

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// DefaultTimeout bounds a single remote call.
const DefaultTimeout = 60 * time.Second

// FailureText is what the UI shows in place of a reply when a call fails.
const FailureText = "Error fetching AI response."

// ErrCallFailed is the single failure kind of a suggestion call.
var ErrCallFailed = errors.New("remote suggestion call failed")

// maxResponseBytes caps how much of a reply body is read.
const maxResponseBytes = 1 << 20

// Role is the author of a message in the remote conversation format.
type Role string

// Conversation roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the conversation sent to the service.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Response *string `json:"response"`
}

// Completer produces a reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client is the HTTP implementation of Completer.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a client, applying defaults for unset fields.
func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
	}
}

// BaseURL returns the service base URL the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Complete posts the conversation and returns the service's reply verbatim.
// Every failure wraps ErrCallFailed.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	body, err := json.Marshal(chatRequest{Messages: messages})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", ErrCallFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrCallFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("suggestion call failed", "error", err)
		return "", fmt.Errorf("%w: %w", ErrCallFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("suggestion call finished",
		"status", resp.StatusCode,
		"messages", len(messages),
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return "", fmt.Errorf("%w: status %d", ErrCallFailed, resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrCallFailed, err)
	}
	if out.Response == nil {
		return "", fmt.Errorf("%w: response field missing", ErrCallFailed)
	}

	return *out.Response, nil
}
