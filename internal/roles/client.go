package roles

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// #region wire-types

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type chatResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Error   *apiError    `json:"error,omitempty"`
}

// #endregion

// #region completer

// Request is one completion call as the role adapters see it.
type Request struct {
	Model       string
	Temperature float64
	MaxTokens   int
	System      string
	User        string
}

// Completer is the transport behind every reasoning role. The production
// implementation is Client; tests substitute a scripted one.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// #endregion

// #region client

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
	defaultTries   = 3
	defaultBackoff = 500 * time.Millisecond
)

// Options tunes the transport. Zero values select the defaults.
type Options struct {
	Timeout time.Duration
	Tries   int
	Backoff time.Duration
}

// Client talks to an OpenAI-compatible chat completions endpoint. Transient
// transport failures are retried with a linear backoff; HTTP 4xx responses
// are not retried.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	tries   int
	backoff time.Duration
}

// NewClient builds a Client for the given endpoint with default transport
// settings. An empty baseURL selects the OpenAI API.
func NewClient(baseURL, apiKey string) *Client {
	return NewClientWith(baseURL, apiKey, Options{})
}

// NewClientWith builds a Client with explicit transport settings.
func NewClientWith(baseURL, apiKey string, opts Options) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Tries <= 0 {
		opts.Tries = defaultTries
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: opts.Timeout},
		tries:   opts.Tries,
		backoff: opts.Backoff,
	}
}

// Complete runs one chat completion and returns the message content with
// markdown fences stripped.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	body, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.tries; attempt++ {
		if attempt > 0 {
			pause := time.Duration(attempt) * c.backoff
			log.Printf("[ROLES] transport retry attempt=%d pause=%s", attempt, pause)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(pause):
			}
		}
		content, retryable, err := c.once(ctx, body)
		if err == nil {
			return cleanResponse(content), nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", lastErr
}

func (c *Client) once(ctx context.Context, body []byte) (content string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return "", retry, fmt.Errorf("chat endpoint status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", false, fmt.Errorf("decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return "", false, fmt.Errorf("chat endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", true, fmt.Errorf("chat endpoint returned no choices")
	}
	return parsed.Choices[0].Message.Content, false, nil
}

// cleanResponse strips markdown code fences models like to wrap JSON in.
func cleanResponse(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// #endregion
