package errors

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequest(path string) *http.Request {
	return httptest.NewRequest(http.MethodGet, path, nil)
}

func TestErrorHandler_ErrorToProblem(t *testing.T) {
	h := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantDetail string
	}{
		{
			name:       "missing input carries guidance",
			err:        NewMissingInputError("/data/processed/ev_metrics.csv", "run: prepare --dataset ev"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeDataNotFound,
			wantDetail: "run: prepare --dataset ev",
		},
		{
			name:       "not found",
			err:        NewNotFoundError("dataset profile \"weather\""),
			wantStatus: http.StatusNotFound,
			wantType:   TypeDataNotFound,
			wantDetail: "dataset profile \"weather\" not found",
		},
		{
			name:       "schema error",
			err:        NewSchemaError("no date column", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeSchema,
			wantDetail: "no date column",
		},
		{
			name:       "parsing error",
			err:        NewParsingError("row 3: unparseable date", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeSchema,
		},
		{
			name:       "validation error",
			err:        NewValidationError("dataset name is required"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
		},
		{
			name:       "unknown error maps to internal",
			err:        io.ErrUnexpectedEOF,
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := h.ErrorToProblem(tt.err, newTestRequest("/api/datasets/ev/metrics"))
			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, "/api/datasets/ev/metrics", problem.Instance)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, problem.Detail)
			}
		})
	}
}

func TestErrorHandler_HandleError(t *testing.T) {
	h := NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)))

	w := httptest.NewRecorder()
	h.HandleError(w, newTestRequest("/api/datasets/ev/metrics"),
		NewMissingInputError("/data/processed/ev_metrics.csv", "run: prepare --dataset ev"))

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, TypeDataNotFound, body["type"])
	assert.Equal(t, "run: prepare --dataset ev", body["detail"])
	assert.Contains(t, body, "trace_id")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusNotFound, TypeDataNotFound,
		"Processed data not available", "", "/api/datasets/ev").
		WithExtension("dataset", "ev")

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "ev", body["dataset"])
	assert.Equal(t, float64(http.StatusNotFound), body["status"])
	// Empty detail is omitted entirely.
	assert.NotContains(t, body, "detail")
}
