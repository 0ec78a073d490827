package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "transportcli/internal/errors"
	"transportcli/internal/services"
)

// DatasetServiceInterface is the data access surface the handler needs.
type DatasetServiceInterface interface {
	ListDatasets(ctx context.Context) []services.DatasetStatus
	GetMetrics(ctx context.Context, dataset string) ([]map[string]interface{}, error)
	GetSummary(ctx context.Context, dataset string) (*services.MetricsSummary, error)
}

// DatasetHandler serves processed monthly metrics to dashboards.
type DatasetHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dataset_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dataset routes.
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.ListDatasets)

	r.Route("/{dataset}", func(r chi.Router) {
		r.Use(h.DatasetCtx)
		r.Get("/metrics", h.GetMetrics)
		r.Get("/summary", h.GetSummary)
	})

	return r
}

// DatasetCtx middleware validates the dataset parameter.
func (h *DatasetHandler) DatasetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dataset := chi.URLParam(r, "dataset")
		if dataset == "" {
			h.errorHandler.HandleError(w, r, apperrors.NewValidationError("dataset name is required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ListDatasets handles GET /api/datasets
func (h *DatasetHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	statuses := h.service.ListDatasets(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"datasets": statuses,
		"count":    len(statuses),
	})
}

// GetMetrics handles GET /api/datasets/{dataset}/metrics
func (h *DatasetHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")

	rows, err := h.service.GetMetrics(r.Context(), dataset)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"dataset": dataset,
		"rows":    rows,
		"count":   len(rows),
	})
}

// GetSummary handles GET /api/datasets/{dataset}/summary
func (h *DatasetHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")

	summary, err := h.service.GetSummary(r.Context(), dataset)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, summary)
}
