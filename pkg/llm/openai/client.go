package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"itinera/pkg/config"
	"itinera/pkg/llm"
	"itinera/pkg/request"
)

// Client implements llm.Provider for any OpenAI-compatible API
// (OpenAI, OpenRouter and self-hosted gateways).
type Client struct {
	rc          *request.Client
	apiKey      string
	baseURL     string
	model       string
	profiles    map[string]string
	temperature float32

	mu sync.RWMutex
}

// Request follows the standard OpenAI Chat Completions format.
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Temperature    float32         `json:"temperature,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ResponseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *JSONSchema `json:"json_schema,omitempty"`
}

// JSONSchema is the structured-output envelope of response_format.
type JSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

// Response follows the standard Chat Completions response format.
type Response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

// NewClient creates a new OpenAI-compatible client. BaseURL is the API root,
// e.g. https://api.openai.com/v1.
func NewClient(cfg config.LLMConfig, rc *request.Client) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	if rc == nil {
		return nil, fmt.Errorf("request client is required")
	}

	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:      cfg.Key,
		model:       cfg.Model,
		profiles:    cfg.Profiles,
		temperature: cfg.Temperature,
		rc:          rc,
	}, nil
}

// GenerateJSON asks for a schema-constrained answer and returns its JSON.
func (c *Client) GenerateJSON(ctx context.Context, req llm.Request) ([]byte, error) {
	model, err := c.ResolveModel(req.Name)
	if err != nil {
		return nil, err
	}

	prompt := req.Prompt
	var msgs []Message
	if req.System != "" {
		msgs = append(msgs, Message{Role: "system", Content: req.System})
	}

	respFmt := &ResponseFormat{Type: "json_object"}
	if req.Schema != nil {
		respFmt = &ResponseFormat{
			Type: "json_schema",
			JSONSchema: &JSONSchema{
				Name:   schemaName(req.Name),
				Strict: false,
				Schema: req.Schema,
			},
		}
	} else if !strings.Contains(strings.ToLower(req.System+prompt), "json") {
		// json_object mode requires the word "json" somewhere in the messages.
		prompt += "\nRespond in JSON."
	}
	msgs = append(msgs, Message{Role: "user", Content: prompt})

	c.mu.RLock()
	temp := c.temperature
	c.mu.RUnlock()

	text, err := c.Execute(ctx, Request{
		Model:          model,
		Messages:       msgs,
		ResponseFormat: respFmt,
		Temperature:    temp,
	})
	if err != nil {
		return nil, err
	}
	return []byte(llm.CleanJSONBlock(text)), nil
}

// HealthCheck lists models at the gateway and confirms the configured one exists.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("openai: %w", llm.ErrNotConfigured)
	}
	model, err := c.ResolveModel("")
	if err != nil {
		return err
	}

	body, err := c.rc.Get(ctx, c.baseURL+"/models", map[string]string{
		"Authorization": "Bearer " + c.apiKey,
	})
	if err != nil {
		return fmt.Errorf("openai health check: %w", classify(err))
	}

	var mresp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &mresp); err != nil {
		return fmt.Errorf("failed to parse models response: %w", err)
	}
	for _, m := range mresp.Data {
		if m.ID == model {
			return nil
		}
	}
	return fmt.Errorf("model %q not offered by %s", model, c.baseURL)
}

// Execute posts a chat completion and returns the first choice's content.
func (c *Client) Execute(ctx context.Context, oreq Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("openai: %w", llm.ErrNotConfigured)
	}

	body, err := json.Marshal(oreq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"Content-Type":  "application/json",
	}

	respBody, err := c.rc.PostWithHeaders(ctx, c.baseURL+"/chat/completions", body, headers)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w: %w", classify(err), err)
	}

	var oresp Response
	if err := json.Unmarshal(respBody, &oresp); err != nil {
		return "", fmt.Errorf("%w: failed to unmarshal response: %w", llm.ErrServiceUnavailable, err)
	}

	if oresp.Error != nil {
		kind := llm.ErrServiceUnavailable
		if isQuota(oresp.Error) {
			kind = llm.ErrCreditsExhausted
		}
		return "", fmt.Errorf("%w: openai api error: %s (%s)", kind, oresp.Error.Message, oresp.Error.Type)
	}

	if len(oresp.Choices) == 0 {
		return "", fmt.Errorf("%w: api returned no choices", llm.ErrServiceUnavailable)
	}

	return oresp.Choices[0].Message.Content, nil
}

// HasProfile reports whether an intent maps to a dedicated model.
func (c *Client) HasProfile(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profiles[name] != ""
}

// ResolveModel returns the model for an intent, falling back to the default model.
func (c *Client) ResolveModel(intent string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if model, ok := c.profiles[intent]; ok && model != "" {
		return model, nil
	}
	if c.model != "" {
		return c.model, nil
	}
	return "", fmt.Errorf("profile %q not configured and no default model", intent)
}

// classify maps request.Client failures onto the shared llm error kinds.
func classify(err error) error {
	var se *request.StatusError
	if errors.As(err, &se) {
		if kind := llm.Classify(se.Code, se.Body); kind != nil {
			return kind
		}
	}
	return llm.ErrServiceUnavailable
}

func isQuota(e *apiError) bool {
	s := strings.ToLower(e.Type + " " + e.Message + " " + fmt.Sprint(e.Code))
	return strings.Contains(s, "quota") || strings.Contains(s, "credit") || strings.Contains(s, "billing")
}

func schemaName(intent string) string {
	if intent == "" {
		return "response"
	}
	var b strings.Builder
	for _, r := range intent {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
