// Package model defines the single request/response contract the rest of
// the engine uses to talk to a chat-style language model.
//
// Provider-neutrality is a contract, not an implementation: every provider
// is reached as an OpenAI-style chat-completions endpoint. The client
// never retries — callers (Analyzer, Describer, Organic Placer) own retry
// and fallback policy, because only they know what "fallback" means for
// their stage.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/go-collectivist/collectivist/pkg/collection"
)

// Role is a chat message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a chat-completions request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Config configures a Client at construction time. It is discovered by
// internal/config per the precedence in spec.md §4.1/§6 and handed to
// New unchanged.
type Config struct {
	Provider string        `mapstructure:"provider"`
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Model    string        `mapstructure:"model"`
	Timeout  time.Duration `mapstructure:"timeout"`

	// RateLimit bounds outbound requests per second. Zero means unlimited.
	// A shared client can be handed to many concurrent describer workers.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// DefaultTimeout is used when Config.Timeout is zero.
const DefaultTimeout = 120 * time.Second

// Client is a provider-neutral chat-completions client. It is safe for
// concurrent use: the underlying http.Client pools connections and the
// optional rate limiter is itself concurrency-safe.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
}

// New constructs a Client from a resolved Config.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return c
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat sends a chat-completions request and returns the assistant's reply
// text. It never retries; transport, HTTP-status, and unparseable-response
// failures are all reported as *collection.ProviderError.
func (c *Client) Chat(ctx context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", &collection.ProviderError{Kind: collection.ProviderErrTransport, Op: "chat", Err: err}
		}
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", &collection.ProviderError{Kind: collection.ProviderErrMalformed, Op: "chat", Err: err}
	}

	url := c.cfg.BaseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &collection.ProviderError{Kind: collection.ProviderErrTransport, Op: "chat", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &collection.ProviderError{Kind: collection.ProviderErrTransport, Op: "chat", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &collection.ProviderError{Kind: collection.ProviderErrTransport, Op: "chat", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &collection.ProviderError{
			Kind:   collection.ProviderErrHTTP,
			Status: resp.StatusCode,
			Op:     "chat",
			Err:    fmt.Errorf("%s", string(respBody)),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &collection.ProviderError{Kind: collection.ProviderErrMalformed, Op: "chat", Err: err}
	}
	if len(parsed.Choices) == 0 {
		return "", &collection.ProviderError{Kind: collection.ProviderErrMalformed, Op: "chat", Err: fmt.Errorf("no choices in response")}
	}

	return parsed.Choices[0].Message.Content, nil
}

// Probe sends a minimal request and reports success iff a non-empty reply
// comes back. Used as a fast-fail gate before the Describer stage.
func (c *Client) Probe(ctx context.Context) error {
	reply, err := c.Chat(ctx, []Message{{Role: RoleUser, Content: "ping"}}, 0, 10)
	if err != nil {
		return err
	}
	if reply == "" {
		return &collection.ProviderError{Kind: collection.ProviderErrMalformed, Op: "probe", Err: fmt.Errorf("empty reply")}
	}
	return nil
}

// Model returns the configured model identifier, for logging/diagnostics.
func (c *Client) Model() string { return c.cfg.Model }
