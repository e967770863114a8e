package errors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"surveydash/internal/infrastructure"
	chartrender "surveydash/internal/render"
	"surveydash/internal/sheets"
	"surveydash/internal/survey"
)

func newTestHandler(includeStack bool) (*ErrorHandler, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewErrorHandler(logger, includeStack), &buf
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	fetchErr := &sheets.FetchError{Source: "google sheet abc", Err: fmt.Errorf("403 forbidden")}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantExt    map[string]interface{}
	}{
		{
			name:       "deadline exceeded",
			err:        fmt.Errorf("fetch: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "fetch timeout is still a timeout",
			err:        &sheets.FetchError{Source: "s", Err: context.DeadlineExceeded},
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "source unavailable",
			err:        fmt.Errorf("dashboard: %w", fetchErr),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeSourceUnavailable,
			wantExt:    map[string]interface{}{"source": "google sheet abc"},
		},
		{
			name:       "duplicate header",
			err:        &survey.SchemaError{Duplicates: []string{"Nome"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeSchema,
			wantExt:    map[string]interface{}{"duplicates": []interface{}{"Nome"}},
		},
		{
			name:       "row shape",
			err:        &survey.RowShapeError{Row: 4, Got: 2, Want: 3},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeRowShape,
			wantExt:    map[string]interface{}{"row": float64(4), "got": float64(2), "want": float64(3)},
		},
		{
			name:       "column not found",
			err:        &survey.ColumnNotFoundError{Column: "Salário"},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeColumnNotFound,
			wantExt:    map[string]interface{}{"column": "Salário"},
		},
		{
			name:       "duplicate label",
			err:        &survey.LabelError{Label: "2019", Reason: "listed more than once"},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeInvalidLabels,
			wantExt:    map[string]interface{}{"label": "2019"},
		},
		{
			name:       "nothing to draw",
			err:        fmt.Errorf("chart salario: %w", chartrender.ErrNoData),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeNoData,
		},
		{
			name:       "unknown chart",
			err:        ChartNotFound("idade"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantExt:    map[string]interface{}{"error_code": "CHART_NOT_FOUND"},
		},
		{
			name:       "api error with details",
			err:        ErrValidation("format", "must be svg or png"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "anything else",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newTestHandler(false)
			req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
			req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-123"))
			rec := httptest.NewRecorder()

			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/dashboard", body["instance"])
			assert.Equal(t, "trace-123", body["trace_id"])
			assert.NotContains(t, body, "stack")
			for k, v := range tt.wantExt {
				assert.Equal(t, v, body[k], k)
			}
		})
	}
}

func TestErrorHandler_NilError(t *testing.T) {
	handler, logs := newTestHandler(false)
	rec := httptest.NewRecorder()

	handler.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, rec.Body.Len())
	assert.Zero(t, logs.Len())
}

func TestErrorHandler_LogLevel(t *testing.T) {
	handler, logs := newTestHandler(false)

	handler.HandleError(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), &survey.ColumnNotFoundError{Column: "x"})
	assert.Contains(t, logs.String(), `"level":"WARN"`)

	logs.Reset()
	handler.HandleError(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("boom"))
	assert.Contains(t, logs.String(), `"level":"ERROR"`)
	assert.Contains(t, logs.String(), `"component":"error_handler"`)
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	handler, _ := newTestHandler(true)
	rec := httptest.NewRecorder()

	handler.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("boom"))

	body := decodeProblem(t, rec)
	assert.Contains(t, body, "stack")
}

func TestErrorHandler_NotFoundAndMethod(t *testing.T) {
	handler, _ := newTestHandler(false)

	rec := httptest.NewRecorder()
	handler.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	handler.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/dashboard", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeMethod, body["type"])
	assert.Contains(t, body["detail"], "DELETE")
}

func TestRecoveryMiddleware(t *testing.T) {
	handler, logs := newTestHandler(false)
	panicking := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("chart exploded")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(handler)(panicking).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, TypeInternal, decodeProblem(t, rec)["type"])
	assert.Contains(t, logs.String(), "chart exploded")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	p := NewProblemDetails(http.StatusBadGateway, TypeSourceUnavailable, "Down", "", "").
		WithExtension("source", "csv respostas.csv").
		WithExtension("status", "shadowed")

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, float64(http.StatusBadGateway), body["status"])
	assert.Equal(t, "csv respostas.csv", body["source"])
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, "instance")
}

func TestChartNotFound(t *testing.T) {
	err := ChartNotFound("idade")
	assert.ErrorIs(t, err, ErrChartNotFound)
	assert.Contains(t, err.Error(), `"idade"`)
}
