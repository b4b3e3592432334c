package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"itinera/pkg/config"
	"itinera/pkg/llm"
	"itinera/pkg/request"
	"itinera/pkg/tracker"
)

func chatResponse(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": map[string]any{"content": content}, "finish_reason": "stop"}},
	})
	return string(b)
}

func newClient(t *testing.T, url string, profiles map[string]string) *Client {
	t.Helper()
	rc := request.New(tracker.New(), time.Second, 0)
	t.Cleanup(rc.Close)
	c, err := NewClient(config.LLMConfig{Key: "test_key", BaseURL: url + "/", Model: "default-model", Profiles: profiles}, rc)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return c
}

func TestOpenAI_GenerateJSON_Schema(t *testing.T) {
	var got Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test_key" {
			t.Errorf("Expected Bearer test_key, got %s", r.Header.Get("Authorization"))
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		_, _ = io.WriteString(w, chatResponse("```json\n{\"days\": []}\n```"))
	}))
	defer server.Close()

	c := newClient(t, server.URL, map[string]string{"itinerary": "planner-model"})
	out, err := c.GenerateJSON(context.Background(), llm.Request{
		Name:   "itinerary",
		System: "policy",
		Prompt: "plan",
		Schema: map[string]any{"type": "object"},
	})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if string(out) != `{"days": []}` {
		t.Errorf("unexpected output %q", out)
	}

	if got.Model != "planner-model" {
		t.Errorf("expected profile model, got %q", got.Model)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != "system" || got.Messages[1].Content != "plan" {
		t.Errorf("unexpected messages %+v", got.Messages)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_schema" || got.ResponseFormat.JSONSchema.Name != "itinerary" {
		t.Errorf("unexpected response format %+v", got.ResponseFormat)
	}
}

func TestOpenAI_GenerateJSON_FreeForm(t *testing.T) {
	var got Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		_, _ = io.WriteString(w, chatResponse(`{"ok":true}`))
	}))
	defer server.Close()

	c := newClient(t, server.URL, nil)
	if _, err := c.GenerateJSON(context.Background(), llm.Request{Name: "other", Prompt: "ping"}); err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if got.Model != "default-model" {
		t.Errorf("expected default model, got %q", got.Model)
	}
	if got.ResponseFormat.Type != "json_object" {
		t.Errorf("expected json_object, got %q", got.ResponseFormat.Type)
	}
	if last := got.Messages[len(got.Messages)-1].Content; last != "ping\nRespond in JSON." {
		t.Errorf("expected JSON hint appended, got %q", last)
	}
}

func TestOpenAI_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached"}}`, llm.ErrRateLimited},
		{"quota", http.StatusTooManyRequests, `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota"}}`, llm.ErrCreditsExhausted},
		{"throttle mentioning quota", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached for requests per min, see your quota page","type":"requests"}}`, llm.ErrRateLimited},
		{"payment required", http.StatusPaymentRequired, `{}`, llm.ErrCreditsExhausted},
		{"bad gateway", http.StatusBadGateway, `oops`, llm.ErrServiceUnavailable},
		{"error in 200 body", http.StatusOK, `{"error":{"message":"insufficient credits","type":"billing"}}`, llm.ErrCreditsExhausted},
		{"no choices", http.StatusOK, `{"choices":[]}`, llm.ErrServiceUnavailable},
		{"not json", http.StatusOK, `<html>`, llm.ErrServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			c := newClient(t, server.URL, nil)
			_, err := c.GenerateJSON(context.Background(), llm.Request{Prompt: "json please"})
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestOpenAI_MissingKey(t *testing.T) {
	rc := request.New(nil, time.Second, 0)
	defer rc.Close()
	c, err := NewClient(config.LLMConfig{BaseURL: "http://localhost", Model: "m"}, rc)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.GenerateJSON(context.Background(), llm.Request{Prompt: "x"}); !errors.Is(err, llm.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := NewClient(config.LLMConfig{}, rc); err == nil {
		t.Error("expected error without base URL")
	}
}

func TestOpenAI_HealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"id":"default-model"},{"id":"other"}]}`)
	}))
	defer server.Close()

	c := newClient(t, server.URL, nil)
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck: %v", err)
	}
	c.model = "missing"
	if err := c.HealthCheck(context.Background()); err == nil {
		t.Error("expected error for unknown model")
	}
}

func TestSchemaName(t *testing.T) {
	if got := schemaName("day plan/v2"); got != "day_plan_v2" {
		t.Errorf("schemaName() = %q", got)
	}
	if got := schemaName(""); got != "response" {
		t.Errorf("schemaName(\"\") = %q", got)
	}
}
