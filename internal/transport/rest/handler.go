// Package rest provides HTTP handlers for the product catalog and image uploads.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/media"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	msgNotConfigured   = "Admin operations not configured"
	msgInvalidBody     = "Invalid request body"
	msgMissingFields   = "Missing required fields: name, description, price"
	msgIDRequired      = "Product ID is required"
	msgNoFile          = "No file provided"
	msgFileTooLarge    = "File too large"
	msgStorageAccess   = "Failed to access storage"
	msgBucketCreate    = "Bucket creation failed"
	msgUploadExhausted = "Failed to upload image after retries"
	msgInternal        = "Internal server error"
)

// Uploader stores uploaded files.
type Uploader interface {
	Configured() bool
	Upload(ctx context.Context, req media.UploadRequest) (*media.StoredObject, error)
}

type Handler struct {
	service        service.ProductService
	uploader       Uploader
	maxUploadBytes int64
	validate       *validator.Validate
	logger         *slog.Logger
}

type productResponse struct {
	Product *service.ProductDto `json:"product"`
}

type productsResponse struct {
	Products []service.ProductDto `json:"products"`
	Degraded bool                 `json:"degraded,omitempty"`
}

type uploadResponse struct {
	Success   bool   `json:"success"`
	Path      string `json:"path"`
	PublicURL string `json:"publicUrl"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Storage  string `json:"storage"`
}

// NewHandler creates a new Handler. maxUploadBytes bounds the size of an upload request body.
func NewHandler(service service.ProductService, uploader Uploader, maxUploadBytes int64, logger *slog.Logger) *Handler {
	return &Handler{
		service:        service,
		uploader:       uploader,
		maxUploadBytes: maxUploadBytes,
		validate:       validator.New(),
		logger:         logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/upload", h.Upload)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Post("/", h.Create)
		r.Put("/", h.Update)
		r.Delete("/", h.DeleteByID)
	})

	r.Get("/healthz", h.HealthCheck)
}

// FindAll lists every product. Degradation is reported in the body, never through the status code.
func (h *Handler) FindAll(w http.ResponseWriter, r *http.Request) {
	result := h.service.ListAll(r.Context())
	if result.Degraded {
		h.logger.WarnContext(r.Context(), "Serving degraded product list")
	} else {
		h.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(result.Items))
	}
	web.RespondJSON(w, h.logger, http.StatusOK, productsResponse{Products: result.Items, Degraded: result.Degraded})
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.service.Configured() {
		h.logger.ErrorContext(r.Context(), "Create rejected, product store not configured")
		web.RespondError(w, h.logger, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	var createDto service.ProductCreateDto
	if err := json.NewDecoder(r.Body).Decode(&createDto); err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := h.validate.Struct(createDto); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, h.logger, http.StatusBadRequest, map[string]any{
				"error":             msgMissingFields,
				"validation_errors": errorResponse,
			})
			return
		}
		h.logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, msgInvalidBody)
		return
	}

	created, err := h.service.Create(r.Context(), createDto)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, writeFailureMessage(err, "Failed to create product"))
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, h.logger, http.StatusCreated, productResponse{Product: created})
}

// Update applies a partial update to the product named by the id field of the body.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if !h.service.Configured() {
		h.logger.ErrorContext(r.Context(), "Update rejected, product store not configured")
		web.RespondError(w, h.logger, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	var updateDto service.ProductUpdateDto
	if err := json.NewDecoder(r.Body).Decode(&updateDto); err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, msgInvalidBody)
		return
	}
	id, ok := web.ParseBodyID(w, h.logger, updateDto.ID, msgIDRequired)
	if !ok {
		return
	}
	if errs := updateDto.Validate(); len(errs) > 0 {
		h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", errs)
		web.RespondJSON(w, h.logger, http.StatusBadRequest, map[string]any{
			"error":             msgInvalidBody,
			"validation_errors": errs,
		})
		return
	}

	h.logger.DebugContext(r.Context(), "Received request to update product", "ID", id, "fields", updateDto.Fields())
	updated, err := h.service.Update(r.Context(), id, updateDto)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrProductNotFound) {
			h.logger.WarnContext(r.Context(), "Product not found for update", "ID", id)
			web.RespondError(w, h.logger, http.StatusNotFound, "Product not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Error updating product", "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, writeFailureMessage(err, "Failed to update product"))
		return
	}
	h.logger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID)
	web.RespondJSON(w, h.logger, http.StatusOK, productResponse{Product: updated})
}

// DeleteByID removes the product named by the id query parameter.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	if !h.service.Configured() {
		h.logger.ErrorContext(r.Context(), "Delete rejected, product store not configured")
		web.RespondError(w, h.logger, http.StatusInternalServerError, msgNotConfigured)
		return
	}
	id, ok := web.ParseQueryID(w, r, h.logger, "id", msgIDRequired)
	if !ok {
		return
	}

	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		h.logger.ErrorContext(r.Context(), "Error deleting product", "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, writeFailureMessage(err, "Failed to delete product"))
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted", "ID", id)
	web.RespondJSON(w, h.logger, http.StatusOK, successResponse{Success: true})
}

// Upload stores the multipart field "file" and returns its path and public URL.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if !h.uploader.Configured() {
		h.logger.ErrorContext(r.Context(), "Upload rejected, object storage not configured")
		web.RespondError(w, h.logger, http.StatusInternalServerError, msgNotConfigured)
		return
	}

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.logger.WarnContext(r.Context(), "Upload exceeds size limit", "limit", maxErr.Limit)
			web.RespondError(w, h.logger, http.StatusBadRequest, msgFileTooLarge)
			return
		}
		h.logger.WarnContext(r.Context(), "No file in upload request", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, msgNoFile)
		return
	}
	defer func() { _ = file.Close() }()

	body, err := io.ReadAll(file)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error reading uploaded file", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, msgInternal)
		return
	}

	stored, err := h.uploader.Upload(r.Context(), media.UploadRequest{
		Body:        body,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		status, message := uploadFailure(err)
		h.logger.ErrorContext(r.Context(), "Error uploading file", "file_name", header.Filename, "error", err)
		web.RespondError(w, h.logger, status, message)
		return
	}
	h.logger.InfoContext(r.Context(), "File uploaded", "path", stored.Path, "size", len(body))
	web.RespondJSON(w, h.logger, http.StatusCreated, uploadResponse{
		Success:   true,
		Path:      stored.Path,
		PublicURL: stored.PublicURL,
	})
}

// HealthCheck reports liveness and which backends are configured.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	web.RespondJSON(w, h.logger, http.StatusOK, healthResponse{
		Status:   "ok",
		Database: configuredState(h.service.Configured()),
		Storage:  configuredState(h.uploader.Configured()),
	})
}

func uploadFailure(err error) (int, string) {
	var provisionErr *media.ProvisionError
	var uploadErr *media.UploadError
	switch {
	case errors.Is(err, catalogerrors.ErrNotConfigured):
		return http.StatusInternalServerError, msgNotConfigured
	case errors.As(err, &provisionErr) && provisionErr.Op == media.OpList:
		return http.StatusInternalServerError, msgStorageAccess
	case errors.As(err, &provisionErr):
		return http.StatusInternalServerError, msgBucketCreate
	case errors.As(err, &uploadErr):
		return http.StatusInternalServerError, msgUploadExhausted
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeFailureMessage(err error, fallback string) string {
	if errors.Is(err, catalogerrors.ErrNotConfigured) {
		return msgNotConfigured
	}
	return fallback
}

func configuredState(ok bool) string {
	if ok {
		return "configured"
	}
	return "not_configured"
}
