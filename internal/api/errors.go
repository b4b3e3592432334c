package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"itinera/pkg/catalog"
	"itinera/pkg/llm"
	"itinera/pkg/pipeline"
	"itinera/pkg/planner"
	"itinera/pkg/validation"
)

// Code is the machine-readable error code of an API error response.
type Code string

const (
	CodeValidation       Code = "VALIDATION"
	CodeNotFound         Code = "NOT_FOUND"
	CodeNoCatalog        Code = "NO_CATALOG"
	CodeConflict         Code = "CONFLICT"
	CodeSuperseded       Code = "SUPERSEDED"
	CodeRateLimited      Code = "RATE_LIMITED"
	CodeCreditsExhausted Code = "CREDITS_EXHAUSTED"
	CodePlanInvalid      Code = "PLAN_INVALID"
	CodeUnavailable      Code = "PLANNER_UNAVAILABLE"
	CodeInternal         Code = "INTERNAL"
)

// HTTPStatus returns the status code sent with c.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound, CodeNoCatalog:
		return http.StatusNotFound
	case CodeConflict, CodeSuperseded:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeCreditsExhausted:
		return http.StatusPaymentRequired
	case CodePlanInvalid:
		return http.StatusBadGateway
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is the JSON envelope of every error response.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (e *Error) Error() string { return e.Message }

func newError(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// toAPIError maps domain errors to their API code. Messages for upstream
// failures stay generic; details go to the log.
func toAPIError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var verr *validation.Error
	if errors.As(err, &verr) {
		return &Error{Code: CodeValidation, Message: "invalid request", Details: verr.Fields}
	}
	var nc *catalog.NoCatalogError
	if errors.As(err, &nc) {
		return newError(CodeNoCatalog, "no approved catalog for city "+nc.CityID)
	}

	switch {
	case errors.Is(err, catalog.ErrNoCatalog):
		return newError(CodeNoCatalog, "no approved catalog for this city")
	case errors.Is(err, pipeline.ErrSuperseded):
		return newError(CodeSuperseded, "a newer generation replaced this one")
	case errors.Is(err, llm.ErrRateLimited):
		return newError(CodeRateLimited, "the planning service is busy, try again shortly")
	case errors.Is(err, llm.ErrCreditsExhausted):
		return newError(CodeCreditsExhausted, "the planning service quota is exhausted")
	case errors.Is(err, planner.ErrSchemaInvalid):
		return newError(CodePlanInvalid, "the planning service returned an unusable plan")
	case errors.Is(err, llm.ErrServiceUnavailable),
		errors.Is(err, llm.ErrNotConfigured),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return newError(CodeUnavailable, "the planning service is unavailable")
	}
	return newError(CodeInternal, "internal error")
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := toAPIError(err)
	status := e.Code.HTTPStatus()
	if status >= 500 {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		slog.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, e)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

// decodeJSON reads a bounded JSON body, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &Error{Code: CodeValidation, Message: "malformed request body: " + err.Error()}
	}
	return nil
}
