// Package planner requests a day-by-day plan from the generative planning model
// and parses the answer strictly against the plan schema.
package planner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"itinera/pkg/validation"
)

// ErrSchemaInvalid is returned when the planner's answer does not match the plan shape.
// Nothing of such an answer is used.
var ErrSchemaInvalid = errors.New("planner: response does not match plan schema")

// Plan is the planner's answer, before reconciliation against the catalog.
type Plan struct {
	Days []PlanDay `json:"days" validate:"required,min=1,dive"`
}

type PlanDay struct {
	DayNumber int        `json:"dayNumber" validate:"required,min=1"`
	Slots     []PlanSlot `json:"slots" validate:"required,dive"`
	Summary   string     `json:"summary" validate:"required"`
}

type PlanSlot struct {
	Type           string   `json:"type" validate:"required,oneof=activity meal break transfer"`
	StartTime      string   `json:"startTime" validate:"hhmm"`
	EndTime        string   `json:"endTime" validate:"hhmm"`
	PlaceID        string   `json:"placeId,omitempty"`
	Reason         string   `json:"reason" validate:"required"`
	AlternativeIDs []string `json:"alternativeIds,omitempty" validate:"max=2"`
	WalkingMinutes *int     `json:"walkingMinutes,omitempty" validate:"omitempty,gte=0"`
	Notes          string   `json:"notes,omitempty"`
	ProductIDs     []string `json:"productIds,omitempty" validate:"max=3"`
}

var validator = validation.New()

// Parse decodes a planner answer. Unknown fields, trailing data, missing required
// fields, bad enum values, malformed times and duplicate day numbers are all
// rejected with ErrSchemaInvalid.
func Parse(data []byte) (*Plan, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var plan Plan
	if err := dec.Decode(&plan); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaInvalid, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after plan object", ErrSchemaInvalid)
	}

	if err := validator.Validate(plan); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaInvalid, err)
	}

	seen := make(map[int]bool, len(plan.Days))
	for _, d := range plan.Days {
		if seen[d.DayNumber] {
			return nil, fmt.Errorf("%w: day %d appears twice", ErrSchemaInvalid, d.DayNumber)
		}
		seen[d.DayNumber] = true
	}
	return &plan, nil
}

// Schema returns the JSON Schema handed to the model alongside the request.
func Schema() map[string]any {
	str := map[string]any{"type": "string"}
	hhmm := map[string]any{"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"}
	ids := func(max int) map[string]any {
		return map[string]any{"type": "array", "items": str, "maxItems": max}
	}

	slot := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type":           map[string]any{"type": "string", "enum": []string{"activity", "meal", "break", "transfer"}},
			"startTime":      hhmm,
			"endTime":        hhmm,
			"placeId":        str,
			"reason":         str,
			"alternativeIds": ids(2),
			"walkingMinutes": map[string]any{"type": "integer", "minimum": 0},
			"notes":          str,
			"productIds":     ids(3),
		},
		"required":             []string{"type", "startTime", "endTime", "reason"},
		"additionalProperties": false,
	}

	day := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"dayNumber": map[string]any{"type": "integer", "minimum": 1},
			"slots":     map[string]any{"type": "array", "items": slot},
			"summary":   str,
		},
		"required":             []string{"dayNumber", "slots", "summary"},
		"additionalProperties": false,
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"days": map[string]any{"type": "array", "items": day, "minItems": 1},
		},
		"required":             []string{"days"},
		"additionalProperties": false,
	}
}
