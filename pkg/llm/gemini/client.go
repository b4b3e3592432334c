package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"itinera/pkg/config"
	"itinera/pkg/llm"
	"itinera/pkg/tracker"
)

const providerName = "gemini"

// Client implements llm.Provider for Google Gemini.
type Client struct {
	genaiClient *genai.Client
	apiKey      string
	baseURL     string
	modelName   string
	profiles    map[string]string // Map intent -> modelName
	temperature float32
	tracker     *tracker.Tracker
	logPath     string

	mu sync.RWMutex
}

// NewClient creates a new Gemini client. logPath receives the prompt/response history.
func NewClient(cfg config.LLMConfig, logPath string, t *tracker.Tracker) (*Client, error) {
	c := &Client{tracker: t, logPath: logPath}
	if err := c.Configure(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Configure updates the client with new settings.
func (c *Client) Configure(cfg config.LLMConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.apiKey = cfg.Key
	c.baseURL = cfg.BaseURL
	c.modelName = cfg.Model
	c.profiles = cfg.Profiles
	c.temperature = cfg.Temperature

	if c.modelName == "" {
		c.modelName = "gemini-2.5-flash"
	}

	if c.apiKey == "" {
		// Can't initialize without key.
		c.genaiClient = nil
		return nil
	}

	cc := &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.baseURL != "" {
		cc.HTTPOptions.BaseURL = c.baseURL
	}
	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return fmt.Errorf("failed to create genai client: %w", err)
	}
	c.genaiClient = client

	if err := c.validateModel(context.Background()); err != nil {
		// Startup proceeds; a bad key or model surfaces on the first generation.
		slog.Warn("Gemini model validation failed (proceeding anyway)", "error", err)
	}

	return nil
}

// Close cleans up resources.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.genaiClient = nil
}

// GenerateJSON sends a structured-output request and returns the JSON answer.
// Exactly one attempt is made.
func (c *Client) GenerateJSON(ctx context.Context, req llm.Request) ([]byte, error) {
	c.mu.RLock()
	client := c.genaiClient
	modelName, cfg := c.resolveModel(req)
	c.mu.RUnlock()

	if client == nil {
		return nil, fmt.Errorf("gemini: %w", llm.ErrNotConfigured)
	}

	resp, err := client.Models.GenerateContent(ctx, modelName, genai.Text(req.Prompt), cfg)
	if err != nil {
		c.logPrompt(req.Name, req.Prompt, fmt.Sprintf("ERROR: %v", err))
		kind := classifyError(err)
		c.track(kind)
		return nil, fmt.Errorf("generate json error: %w: %w", kind, err)
	}

	text, err := getResponseText(resp)
	if err != nil {
		c.logPrompt(req.Name, req.Prompt, fmt.Sprintf("TEXT_PARSE_ERROR: %v", err))
		c.track(llm.ErrServiceUnavailable)
		return nil, fmt.Errorf("%w: %w", llm.ErrServiceUnavailable, err)
	}

	cleaned := llm.CleanJSONBlock(text)
	c.logPrompt(req.Name, req.Prompt, cleaned)
	c.track(nil)
	return []byte(cleaned), nil
}

// HealthCheck verifies that the configured model is reachable with the key.
func (c *Client) HealthCheck(ctx context.Context) error {
	c.mu.RLock()
	client := c.genaiClient
	name := modelPath(c.modelName)
	c.mu.RUnlock()

	if client == nil {
		return fmt.Errorf("gemini: %w", llm.ErrNotConfigured)
	}
	if _, err := client.Models.Get(ctx, name, nil); err != nil {
		return fmt.Errorf("gemini health check: %w", classifyError(err))
	}
	return nil
}

// HasProfile reports whether an intent maps to a dedicated model.
func (c *Client) HasProfile(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.profiles[name] != ""
}

func (c *Client) track(kind error) {
	if c.tracker == nil {
		return
	}
	c.tracker.TrackAPI(providerName, outcomeFor(kind))
}

func (c *Client) logPrompt(name, prompt, response string) {
	if c.logPath == "" {
		return
	}

	if err := os.MkdirAll(filepath.Dir(c.logPath), 0o755); err != nil {
		return
	}

	f, err := os.OpenFile(c.logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	wrappedResponse := llm.WordWrap(response, 80)
	truncatedPrompt := llm.TruncateLines(prompt, 160)
	entry := fmt.Sprintf("[%s] PROMPT: %s\nPROMPT_TEXT:\n%s\n\nRESPONSE:\n%s\n%s\n",
		timestamp, name, truncatedPrompt, wrappedResponse, strings.Repeat("-", 80))

	_, _ = f.WriteString(entry)
}

func getResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", fmt.Errorf("candidate has no content (finish reason %q)", cand.FinishReason)
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response text")
	}
	return sb.String(), nil
}

func modelPath(name string) string {
	if strings.HasPrefix(name, "models/") {
		return name
	}
	return "models/" + name
}

// validateModel checks that the configured model is available for the API key.
// On failure the error lists the gemini models the key can use.
func (c *Client) validateModel(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := c.genaiClient.Models.Get(ctx, modelPath(c.modelName), nil)
	if err == nil {
		slog.Debug("Gemini model validation success", "model", c.modelName)
		return nil
	}

	slog.Debug("Gemini model lookup failed, listing available models", "model", c.modelName, "error", err)

	var availableModels []string
	for m, listErr := range c.genaiClient.Models.All(ctx) {
		if listErr != nil {
			slog.Warn("Failed to list models for recovery", "error", listErr)
			break
		}
		if strings.Contains(strings.ToLower(m.Name), "gemini") {
			availableModels = append(availableModels, m.Name)
		}
	}

	return fmt.Errorf("model %q not available (gemini models: %v): %w", c.modelName, availableModels, err)
}
