package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Additional fields for extensibility
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON custom marshaler to include extensions
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{})

	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status

	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	for k, v := range pd.Extensions {
		data[k] = v
	}

	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// MapDataError maps data-layer AppErrors to HTTP problem details. The
// SourceUnavailable mapping is the one user-facing load failure the
// collaborator must be able to act on: the detail names the attempted
// path, and the extensions carry the path and any sibling candidate files
// so a misnamed or misplaced source is easy to spot.
func MapDataError(err error, traceID string) render.Renderer {
	instance := fmt.Sprintf("/api/data#trace-%s", traceID)

	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrTypeSourceUnavailable:
			path, _ := appErr.Context["path"].(string)
			problem := NewProblemDetails(
				http.StatusServiceUnavailable,
				TypeSourceUnavailable,
				"Data Source Unavailable",
				fmt.Sprintf("Could not find or read the subscription data file at %q. Check that the file exists at that location and is readable.", path),
				instance,
			).WithExtension("trace_id", traceID).
				WithExtension("error_code", string(ErrTypeSourceUnavailable)).
				WithExtension("path", path)
			if candidates, ok := appErr.Context["candidates"].([]string); ok && len(candidates) > 0 {
				problem.WithExtension("candidate_files", candidates)
			}
			return problem

		case ErrTypeParsing:
			return NewProblemDetails(
				http.StatusUnprocessableEntity,
				TypeDataCorrupted,
				"Data Source Unreadable",
				appErr.Message,
				instance,
			).WithExtension("trace_id", traceID).
				WithExtension("error_code", string(ErrTypeParsing))

		case ErrTypeNotFound:
			return NewProblemDetails(
				http.StatusNotFound,
				TypeNotFound,
				"Resource Not Found",
				appErr.Message,
				instance,
			).WithExtension("trace_id", traceID).
				WithExtension("error_code", string(ErrTypeNotFound))

		case ErrTypeValidation:
			return NewProblemDetails(
				http.StatusBadRequest,
				TypeValidation,
				"Validation Failed",
				appErr.Message,
				instance,
			).WithExtension("trace_id", traceID).
				WithExtension("error_code", string(ErrTypeValidation))
		}
	}

	return NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred while processing your request.",
		instance,
	).WithExtension("trace_id", traceID).
		WithExtension("error_code", "INTERNAL_ERROR")
}
