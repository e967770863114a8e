package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/render"

	"surveydash/internal/infrastructure"
	chartrender "surveydash/internal/render"
	"surveydash/internal/sheets"
	"surveydash/internal/survey"
)

// ErrorHandler provides centralized error handling
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts any error to RFC 7807 format and responds
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	traceID := infrastructure.GetTraceID(r.Context())
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	problem.WithExtension("trace_id", traceID)
	if h.includeStack {
		problem.WithExtension("stack", getStackTrace())
	}

	_ = render.Render(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	instance := r.URL.Path

	// Context errors first: a fetch that ran out of time is a timeout, not a
	// broken source.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(
			http.StatusGatewayTimeout,
			TypeTimeout,
			"Request Timeout",
			"The request took too long to process and was cancelled",
			instance,
		)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return h.apiErrorToProblem(apiErr, err, r)
	}

	var (
		fetchErr    *sheets.FetchError
		schemaErr   *survey.SchemaError
		shapeErr    *survey.RowShapeError
		notFoundErr *survey.ColumnNotFoundError
		labelErr    *survey.LabelError
	)
	switch {
	case errors.As(err, &fetchErr):
		return NewProblemDetails(
			http.StatusBadGateway,
			TypeSourceUnavailable,
			"Survey Source Unavailable",
			err.Error(),
			instance,
		).WithExtension("source", fetchErr.Source)

	case errors.As(err, &schemaErr):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeSchema,
			"Invalid Sheet Header",
			err.Error(),
			instance,
		).WithExtension("duplicates", schemaErr.Duplicates)

	case errors.As(err, &shapeErr):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeRowShape,
			"Malformed Sheet Row",
			err.Error(),
			instance,
		).WithExtension("row", shapeErr.Row).
			WithExtension("got", shapeErr.Got).
			WithExtension("want", shapeErr.Want)

	case errors.As(err, &notFoundErr):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeColumnNotFound,
			"Column Not Found",
			err.Error(),
			instance,
		).WithExtension("column", notFoundErr.Column)

	case errors.As(err, &labelErr):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeInvalidLabels,
			"Invalid Chart Labels",
			err.Error(),
			instance,
		).WithExtension("label", labelErr.Label)

	case errors.Is(err, chartrender.ErrNoData):
		return NewProblemDetails(
			http.StatusUnprocessableEntity,
			TypeNoData,
			"No Data",
			err.Error(),
			instance,
		)

	default:
		return NewProblemDetails(
			http.StatusInternalServerError,
			TypeInternal,
			"Internal Server Error",
			"An unexpected error occurred while processing your request",
			instance,
		)
	}
}

// apiErrorToProblem converts APIError to ProblemDetails. When apiErr was
// wrapped, the full message of err becomes the detail.
func (h *ErrorHandler) apiErrorToProblem(apiErr *APIError, err error, r *http.Request) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.StatusCode {
	case http.StatusBadRequest:
		problemType = TypeValidation
	case http.StatusNotFound:
		problemType = TypeNotFound
	case http.StatusTooManyRequests:
		problemType = TypeRateLimit
	case http.StatusServiceUnavailable:
		problemType = TypeServiceDown
	}

	problem := NewProblemDetails(
		apiErr.StatusCode,
		problemType,
		http.StatusText(apiErr.StatusCode),
		err.Error(),
		r.URL.Path,
	).WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}

	return problem
}

// HandlePanic recovers from panics and returns RFC 7807 error
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	traceID := infrastructure.GetTraceID(r.Context())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(
		http.StatusInternalServerError,
		TypeInternal,
		"Internal Server Error",
		"An unexpected error occurred",
		r.URL.Path,
	).WithExtension("trace_id", traceID)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}

	_ = render.Render(w, r, problem)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusNotFound,
		TypeNotFound,
		"Not Found",
		"The requested resource was not found",
		r.URL.Path,
	).WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))

	_ = render.Render(w, r, problem)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(
		http.StatusMethodNotAllowed,
		TypeMethod,
		"Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method),
		r.URL.Path,
	).WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))

	_ = render.Render(w, r, problem)
}

// getStackTrace returns the current stack trace
func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
