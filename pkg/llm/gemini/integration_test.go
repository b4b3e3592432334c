package gemini_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"itinera/pkg/config"
	"itinera/pkg/llm"
	"itinera/pkg/llm/gemini"
)

func TestIntegration_GenerateJSON(t *testing.T) {
	key := os.Getenv("GEMINI_API_KEY")
	if key == "" {
		t.Skip("Skipping integration test: GEMINI_API_KEY not set")
	}

	c, err := gemini.NewClient(config.LLMConfig{
		Key:   key,
		Model: "gemini-2.5-flash",
	}, "", nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer c.Close()

	out, err := c.GenerateJSON(context.Background(), llm.Request{
		Name:   "IntegrationTest",
		Prompt: "Return a JSON object with 'message'='hello' and 'count'=42.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{"type": "string"},
				"count":   map[string]any{"type": "integer"},
			},
			"required": []string{"message", "count"},
		},
	})
	if err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}

	var resp struct {
		Message string `json:"message"`
		Count   int    `json:"count"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		t.Fatalf("unmarshal: %v (%s)", err, out)
	}
	if resp.Message != "hello" || resp.Count != 42 {
		t.Errorf("unexpected response %+v", resp)
	}
}
