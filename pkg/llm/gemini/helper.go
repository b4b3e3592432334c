package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"itinera/pkg/llm"
	"itinera/pkg/tracker"
)

// resolveModel returns the target model name and configuration for the request.
// Callers hold c.mu.
func (c *Client) resolveModel(req llm.Request) (string, *genai.GenerateContentConfig) {
	targetModel := c.modelName
	if profileModel, ok := c.profiles[req.Name]; ok && profileModel != "" {
		targetModel = profileModel
	}

	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if req.Schema != nil {
		cfg.ResponseJsonSchema = req.Schema
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if c.temperature > 0 {
		cfg.Temperature = genai.Ptr(c.temperature)
	}

	return targetModel, cfg
}

// classifyError maps a genai failure onto the shared llm error kinds. Anything
// that is not a recognised throttling or quota answer counts as unavailable,
// transport errors and deadlines included.
//
// Gemini answers every quota violation with 429 RESOURCE_EXHAUSTED and mentions
// "quota" even for per-minute throttling. Only a daily quota (quotaId ...PerDay...)
// or an explicit balance marker means the credits are gone for now.
func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			detail := apiErr.Message + " " + fmt.Sprint(apiErr.Details)
			if dailyQuota(detail) || llm.MentionsCredits(detail) {
				return llm.ErrCreditsExhausted
			}
			return llm.ErrRateLimited
		}
		if kind := llm.Classify(apiErr.Code, apiErr.Message+" "+apiErr.Status); kind != nil {
			return kind
		}
	}
	return llm.ErrServiceUnavailable
}

func dailyQuota(detail string) bool {
	lower := strings.ToLower(detail)
	return strings.Contains(lower, "perday") || strings.Contains(lower, "per day")
}

func outcomeFor(kind error) tracker.Outcome {
	switch {
	case kind == nil:
		return tracker.Success
	case errors.Is(kind, llm.ErrRateLimited):
		return tracker.RateLimited
	case errors.Is(kind, llm.ErrCreditsExhausted):
		return tracker.CreditsExhausted
	}
	return tracker.Failure
}
