package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"itinera/pkg/config"
	"itinera/pkg/llm"
	"itinera/pkg/tracker"
)

// fakeGemini answers model lookups and generateContent calls.
type fakeGemini struct {
	mu       sync.Mutex
	status   int
	body     string
	lastBody string
	calls    int
	// noModel makes model lookups 404 while listing still works.
	noModel bool
}

func (f *fakeGemini) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !strings.Contains(r.URL.Path, ":generateContent") {
		switch {
		case strings.HasSuffix(r.URL.Path, "/models"):
			_, _ = io.WriteString(w, `{"models":[{"name":"models/gemini-2.5-flash"},{"name":"models/text-embedding-004"}]}`)
		case f.noModel:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"code":404,"message":"models/gemini-test is not found","status":"NOT_FOUND"}}`)
		default:
			_, _ = io.WriteString(w, `{"name":"models/gemini-test"}`)
		}
		return
	}
	b, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls++
	f.lastBody = string(b)
	status, body := f.status, f.body
	f.mu.Unlock()
	if status != 0 {
		w.WriteHeader(status)
	}
	_, _ = io.WriteString(w, body)
}

func candidate(text string) string {
	return `{"candidates":[{"content":{"role":"model","parts":[{"text":` + quote(text) + `}]},"finishReason":"STOP"}]}`
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

func newTestClient(t *testing.T, f *fakeGemini) (*Client, *tracker.Tracker, string) {
	t.Helper()
	svr := httptest.NewServer(f)
	t.Cleanup(svr.Close)

	tr := tracker.New()
	logPath := filepath.Join(t.TempDir(), "planner.log")
	c, err := NewClient(config.LLMConfig{
		Key:         "test-key",
		Model:       "gemini-test",
		BaseURL:     svr.URL,
		Profiles:    map[string]string{"itinerary": "gemini-test"},
		Temperature: 0.5,
	}, logPath, tr)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, tr, logPath
}

func TestGenerateJSON_Success(t *testing.T) {
	f := &fakeGemini{body: candidate("```json\n{\"days\":[]}\n```")}
	c, tr, logPath := newTestClient(t, f)

	out, err := c.GenerateJSON(context.Background(), llm.Request{
		Name:   "itinerary",
		System: "You are a planner.",
		Prompt: "Plan a day.",
		Schema: map[string]any{"type": "object"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"days":[]}`, string(out))

	assert.Contains(t, f.lastBody, "responseJsonSchema")
	assert.Contains(t, f.lastBody, "systemInstruction")
	assert.Contains(t, f.lastBody, "application/json")
	assert.Equal(t, int64(1), tr.Snapshot()["gemini"].APISuccess)

	hist, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(hist), "PROMPT: itinerary")
}

func TestGenerateJSON_ErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind error
		counter  func(tracker.ProviderStats) int64
	}{
		{
			name:     "per-minute throttle",
			status:   http.StatusTooManyRequests,
			body:     `{"error":{"code":429,"message":"Resource has been exhausted (e.g. check quota).","status":"RESOURCE_EXHAUSTED"}}`,
			wantKind: llm.ErrRateLimited,
			counter:  func(s tracker.ProviderStats) int64 { return s.RateLimited },
		},
		{
			name:   "per-minute quota wording",
			status: http.StatusTooManyRequests,
			body: `{"error":{"code":429,"message":"You exceeded your current quota, please check your plan and billing details.",` +
				`"status":"RESOURCE_EXHAUSTED","details":[{"@type":"type.googleapis.com/google.rpc.QuotaFailure",` +
				`"violations":[{"quotaMetric":"generativelanguage.googleapis.com/generate_content_free_tier_requests",` +
				`"quotaId":"GenerateRequestsPerMinutePerProjectPerModel-FreeTier"}]}]}}`,
			wantKind: llm.ErrRateLimited,
			counter:  func(s tracker.ProviderStats) int64 { return s.RateLimited },
		},
		{
			name:   "daily quota exhausted",
			status: http.StatusTooManyRequests,
			body: `{"error":{"code":429,"message":"You exceeded your current quota, please check your plan and billing details.",` +
				`"status":"RESOURCE_EXHAUSTED","details":[{"@type":"type.googleapis.com/google.rpc.QuotaFailure",` +
				`"violations":[{"quotaMetric":"generativelanguage.googleapis.com/generate_content_free_tier_requests",` +
				`"quotaId":"GenerateRequestsPerDayPerProjectPerModel-FreeTier"}]}]}}`,
			wantKind: llm.ErrCreditsExhausted,
			counter:  func(s tracker.ProviderStats) int64 { return s.CreditsExhausted },
		},
		{
			name:     "server error",
			status:   http.StatusServiceUnavailable,
			body:     `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`,
			wantKind: llm.ErrServiceUnavailable,
			counter:  func(s tracker.ProviderStats) int64 { return s.APIFailures },
		},
		{
			name:     "no candidates",
			body:     `{"candidates":[]}`,
			wantKind: llm.ErrServiceUnavailable,
			counter:  func(s tracker.ProviderStats) int64 { return s.APIFailures },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeGemini{status: tt.status, body: tt.body}
			c, tr, _ := newTestClient(t, f)

			_, err := c.GenerateJSON(context.Background(), llm.Request{Name: "itinerary", Prompt: "x"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantKind), "got %v", err)
			assert.Equal(t, 1, f.calls, "no retries expected")
			assert.Equal(t, int64(1), tt.counter(tr.Snapshot()["gemini"]))
		})
	}
}

func TestValidateModel(t *testing.T) {
	c, _, _ := newTestClient(t, &fakeGemini{})
	assert.NoError(t, c.validateModel(context.Background()))

	// A missing model does not fail construction; validation reports it.
	c, _, _ = newTestClient(t, &fakeGemini{noModel: true})
	err := c.validateModel(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"gemini-test" not available`)
	assert.Contains(t, err.Error(), "models/gemini-2.5-flash")
	assert.NotContains(t, err.Error(), "text-embedding")
}

func TestGenerateJSON_NotConfigured(t *testing.T) {
	c, err := NewClient(config.LLMConfig{}, "", nil)
	require.NoError(t, err)

	_, err = c.GenerateJSON(context.Background(), llm.Request{Prompt: "x"})
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
	assert.ErrorIs(t, c.HealthCheck(context.Background()), llm.ErrNotConfigured)
}

func TestResolveModel(t *testing.T) {
	c := &Client{
		modelName:   "gemini-default",
		profiles:    map[string]string{"itinerary": "gemini-pro", "empty": ""},
		temperature: 0.7,
	}

	tests := []struct {
		name      string
		req       llm.Request
		wantModel string
	}{
		{"profile", llm.Request{Name: "itinerary"}, "gemini-pro"},
		{"empty profile falls back", llm.Request{Name: "empty"}, "gemini-default"},
		{"unknown intent", llm.Request{Name: "other"}, "gemini-default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, cfg := c.resolveModel(tt.req)
			assert.Equal(t, tt.wantModel, model)
			assert.Equal(t, "application/json", cfg.ResponseMIMEType)
			require.NotNil(t, cfg.Temperature)
			assert.InDelta(t, 0.7, *cfg.Temperature, 1e-6)
			assert.Nil(t, cfg.SystemInstruction)
			assert.Nil(t, cfg.ResponseJsonSchema)
		})
	}

	assert.True(t, c.HasProfile("itinerary"))
	assert.False(t, c.HasProfile("empty"))
}
