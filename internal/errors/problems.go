package errors

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"transportcli/internal/infrastructure"
)

// Problem type URIs following RFC 7807
const (
	TypeValidation   = "/errors/validation"
	TypeNotFound     = "/errors/not-found"
	TypeInternal     = "/errors/internal"
	TypeDataNotFound = "/errors/data/not-found"
	TypeSchema       = "/errors/data/schema"
)

// ProblemDetails is an RFC 7807 problem response
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

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

// WithExtension adds an extension member to the problem
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	if pd.Extensions == nil {
		pd.Extensions = make(map[string]interface{})
	}
	pd.Extensions[key] = value
	return pd
}

// NewProblemDetails creates a problem response
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:     problemType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

// ErrorHandler provides centralized error handling for the HTTP surface
type ErrorHandler struct {
	logger *slog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger.With(slog.String("component", "error_handler")),
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	traceID := infrastructure.GetTraceID(r.Context())

	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("trace_id", traceID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	problem := h.ErrorToProblem(err, r)
	problem.WithExtension("trace_id", traceID)

	render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details. AppError
// types map onto meaningful statuses; missing-input errors carry their
// regenerate guidance into the detail so dashboards can show it.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	var appErr *AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case ErrTypeMissingInput, ErrTypeNotFound:
			detail := appErr.Message
			if g := Guidance(err); g != "" {
				detail = g
			}
			return NewProblemDetails(http.StatusNotFound, TypeDataNotFound,
				"Processed data not available", detail, r.URL.Path)
		case ErrTypeSchema, ErrTypeParsing:
			return NewProblemDetails(http.StatusUnprocessableEntity, TypeSchema,
				"Input data could not be interpreted", appErr.Message, r.URL.Path)
		case ErrTypeValidation:
			return NewProblemDetails(http.StatusBadRequest, TypeValidation,
				"Request validation failed", appErr.Message, r.URL.Path)
		}
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal,
		"Internal server error", "", r.URL.Path)
}
