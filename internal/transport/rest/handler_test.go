package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	catalogerrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/media"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProductService is a mock implementation of the ProductService interface
type mockProductService struct {
	unconfigured bool
	result       service.ReadResult
	product      *service.ProductDto
	error        error
	gotID        uuid.UUID
	gotUpdate    service.ProductUpdateDto
	gotCreate    service.ProductCreateDto
}

func (m *mockProductService) Configured() bool {
	return !m.unconfigured
}

func (m *mockProductService) ListAll(_ context.Context) service.ReadResult {
	return m.result
}

func (m *mockProductService) Create(_ context.Context, dto service.ProductCreateDto) (*service.ProductDto, error) {
	m.gotCreate = dto
	if m.error != nil {
		return nil, m.error
	}
	return m.product, nil
}

func (m *mockProductService) Update(_ context.Context, id uuid.UUID, dto service.ProductUpdateDto) (*service.ProductDto, error) {
	m.gotID = id
	m.gotUpdate = dto
	if m.error != nil {
		return nil, m.error
	}
	return m.product, nil
}

func (m *mockProductService) DeleteByID(_ context.Context, id uuid.UUID) error {
	m.gotID = id
	return m.error
}

// mockUploader is a mock implementation of the Uploader interface
type mockUploader struct {
	unconfigured bool
	stored       *media.StoredObject
	error        error
	got          media.UploadRequest
	calls        int
}

func (m *mockUploader) Configured() bool {
	return !m.unconfigured
}

func (m *mockUploader) Upload(_ context.Context, req media.UploadRequest) (*media.StoredObject, error) {
	m.calls++
	m.got = req
	if m.error != nil {
		return nil, m.error
	}
	return m.stored, nil
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Error            string            `json:"error"`
	ValidationErrors map[string]string `json:"validation_errors"`
}

// toJSON is a helper function to convert a struct to JSON string
func toJSON(t *testing.T, v interface{}) string {
	t.Helper()
	bytes, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal to JSON: %v", err)
	}
	return string(bytes)
}

func newRouter(svc service.ProductService, uploader Uploader, maxUploadBytes int64) *chi.Mux {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	h := NewHandler(svc, uploader, maxUploadBytes, logger)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func serve(t *testing.T, r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

var (
	productID = uuid.MustParse("123e4567-e89b-12d3-a456-426614174000")
	createdAt = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	lamp      = &service.ProductDto{ID: productID.String(), Name: "Lamp", Description: "Desk lamp", Price: 19.5, CreatedAt: createdAt}
)

func Test_Handler_FindAll(t *testing.T) {
	testCases := []struct {
		name         string
		result       service.ReadResult
		expectedBody string
	}{
		{
			name:         "Success - products listed",
			result:       service.ReadResult{Items: []service.ProductDto{*lamp}},
			expectedBody: toJSON(t, map[string]any{"products": []service.ProductDto{*lamp}}),
		},
		{
			name:         "Success - empty catalog carries no flag",
			result:       service.ReadResult{Items: []service.ProductDto{}},
			expectedBody: `{"products":[]}`,
		},
		{
			name:         "Degraded - still 200 with flag",
			result:       service.ReadResult{Items: []service.ProductDto{}, Degraded: true},
			expectedBody: `{"products":[],"degraded":true}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			r := newRouter(&mockProductService{result: tc.result}, &mockUploader{}, 0)
			// when
			rr := serve(t, r, httptest.NewRequest(http.MethodGet, "/products", nil))
			// then
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_Handler_Create(t *testing.T) {
	testCases := []struct {
		name         string
		mockService  *mockProductService
		body         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - numeric price",
			mockService:  &mockProductService{product: lamp},
			body:         `{"name":"Lamp","description":"Desk lamp","price":19.5}`,
			expectedCode: http.StatusCreated,
			expectedBody: toJSON(t, productResponse{Product: lamp}),
		},
		{
			name:         "Success - string price",
			mockService:  &mockProductService{product: lamp},
			body:         `{"name":"Lamp","description":"Desk lamp","price":"19.5","image_urls":["a"]}`,
			expectedCode: http.StatusCreated,
			expectedBody: toJSON(t, productResponse{Product: lamp}),
		},
		{
			name:         "Error - missing fields",
			mockService:  &mockProductService{},
			body:         `{"name":"Lamp"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ValidationErrorResponse{
				Error: "Missing required fields: name, description, price",
				ValidationErrors: map[string]string{
					"Description": "failed on rule: required",
					"Price":       "failed on rule: required",
				},
			}),
		},
		{
			name:         "Error - malformed body",
			mockService:  &mockProductService{},
			body:         `{"name":`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid request body"}),
		},
		{
			name:         "Error - non numeric price",
			mockService:  &mockProductService{},
			body:         `{"name":"Lamp","description":"Desk lamp","price":"cheap"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid request body"}),
		},
		{
			name:         "Error - store not configured",
			mockService:  &mockProductService{unconfigured: true},
			body:         `{"name":"Lamp","description":"Desk lamp","price":1}`,
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Admin operations not configured"}),
		},
		{
			name:         "Error - store failure",
			mockService:  &mockProductService{error: errors.New("insert failed")},
			body:         `{"name":"Lamp","description":"Desk lamp","price":1}`,
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to create product"}),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			r := newRouter(tc.mockService, &mockUploader{}, 0)
			req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(tc.body))
			// when
			rr := serve(t, r, req)
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_Handler_Update(t *testing.T) {
	testCases := []struct {
		name         string
		mockService  *mockProductService
		body         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success - partial update",
			mockService:  &mockProductService{product: lamp},
			body:         `{"id":"` + productID.String() + `","price":"21"}`,
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, productResponse{Product: lamp}),
		},
		{
			name:         "Success - id only is a no-op returning the row",
			mockService:  &mockProductService{product: lamp},
			body:         `{"id":"` + productID.String() + `"}`,
			expectedCode: http.StatusOK,
			expectedBody: toJSON(t, productResponse{Product: lamp}),
		},
		{
			name:         "Error - id missing",
			mockService:  &mockProductService{},
			body:         `{"name":"Lamp"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Product ID is required"}),
		},
		{
			name:         "Error - invalid id",
			mockService:  &mockProductService{},
			body:         `{"id":"123-invalid-id"}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid ID: 123-invalid-id"}),
		},
		{
			name:         "Error - null name",
			mockService:  &mockProductService{},
			body:         `{"id":"` + productID.String() + `","name":null}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ValidationErrorResponse{
				Error:            "Invalid request body",
				ValidationErrors: map[string]string{"Name": "must not be null"},
			}),
		},
		{
			name:         "Error - product not found",
			mockService:  &mockProductService{error: catalogerrors.ErrProductNotFound},
			body:         `{"id":"` + productID.String() + `","name":"Lamp"}`,
			expectedCode: http.StatusNotFound,
			expectedBody: toJSON(t, ErrorResponse{Error: "Product not found"}),
		},
		{
			name:         "Error - store failure",
			mockService:  &mockProductService{error: errors.New("deadlock detected")},
			body:         `{"id":"` + productID.String() + `","name":"Lamp"}`,
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to update product"}),
		},
		{
			name:         "Error - store not configured",
			mockService:  &mockProductService{unconfigured: true},
			body:         `{"id":"` + productID.String() + `"}`,
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Admin operations not configured"}),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			r := newRouter(tc.mockService, &mockUploader{}, 0)
			req := httptest.NewRequest(http.MethodPut, "/products", strings.NewReader(tc.body))
			// when
			rr := serve(t, r, req)
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_Handler_Update_PassesNullImages(t *testing.T) {
	// given
	svc := &mockProductService{product: lamp}
	r := newRouter(svc, &mockUploader{}, 0)
	body := `{"id":"` + productID.String() + `","image_url":null,"image_urls":null}`
	// when
	rr := serve(t, r, httptest.NewRequest(http.MethodPut, "/products", strings.NewReader(body)))
	// then
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, productID, svc.gotID)
	assert.True(t, svc.gotUpdate.ImageURL.Set)
	assert.False(t, svc.gotUpdate.ImageURL.Valid)
	assert.True(t, svc.gotUpdate.ImageURLs.Set)
	assert.False(t, svc.gotUpdate.Name.Set)
}

func Test_Handler_DeleteByID(t *testing.T) {
	testCases := []struct {
		name         string
		mockService  *mockProductService
		query        string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Success",
			mockService:  &mockProductService{},
			query:        "?id=" + productID.String(),
			expectedCode: http.StatusOK,
			expectedBody: `{"success":true}`,
		},
		{
			name:         "Error - id missing",
			mockService:  &mockProductService{},
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Product ID is required"}),
		},
		{
			name:         "Error - malformed id",
			mockService:  &mockProductService{},
			query:        "?id=not-a-uuid",
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "Invalid ID: not-a-uuid"}),
		},
		{
			name:         "Error - store failure",
			mockService:  &mockProductService{error: errors.New("connection reset")},
			query:        "?id=" + productID.String(),
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to delete product"}),
		},
		{
			name:         "Error - store not configured",
			mockService:  &mockProductService{unconfigured: true},
			query:        "?id=" + productID.String(),
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Admin operations not configured"}),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			r := newRouter(tc.mockService, &mockUploader{}, 0)
			// when
			rr := serve(t, r, httptest.NewRequest(http.MethodDelete, "/products"+tc.query, nil))
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func multipartRequest(t *testing.T, field, contentType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="photo.png"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func Test_Handler_Upload(t *testing.T) {
	stored := &media.StoredObject{
		Bucket:    "product-images",
		Path:      "products/1700000000000-abc.png",
		PublicURL: "https://cdn.test/product-images/products/1700000000000-abc.png",
	}
	testCases := []struct {
		name         string
		uploader     *mockUploader
		request      func(t *testing.T) *http.Request
		expectedCode int
		expectedBody string
	}{
		{
			name:     "Success",
			uploader: &mockUploader{stored: stored},
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "file", "image/png", []byte("png-bytes"))
			},
			expectedCode: http.StatusCreated,
			expectedBody: toJSON(t, uploadResponse{Success: true, Path: stored.Path, PublicURL: stored.PublicURL}),
		},
		{
			name:     "Error - no file field",
			uploader: &mockUploader{},
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "other", "image/png", []byte("png-bytes"))
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "No file provided"}),
		},
		{
			name:     "Error - not multipart",
			uploader: &mockUploader{},
			request: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("{}"))
			},
			expectedCode: http.StatusBadRequest,
			expectedBody: toJSON(t, ErrorResponse{Error: "No file provided"}),
		},
		{
			name:     "Error - storage not configured",
			uploader: &mockUploader{unconfigured: true},
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "file", "image/png", []byte("png-bytes"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Admin operations not configured"}),
		},
		{
			name:     "Error - bucket list failure",
			uploader: &mockUploader{error: &media.ProvisionError{Op: media.OpList, Bucket: "product-images", Err: errors.New("dial tcp")}},
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "file", "image/png", []byte("png-bytes"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to access storage"}),
		},
		{
			name:     "Error - bucket create failure",
			uploader: &mockUploader{error: &media.ProvisionError{Op: media.OpCreate, Bucket: "product-images", Err: errors.New("denied")}},
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "file", "image/png", []byte("png-bytes"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Bucket creation failed"}),
		},
		{
			name:     "Error - retries exhausted",
			uploader: &mockUploader{error: &media.UploadError{Attempts: 3, Transient: true, Err: errors.New("timeout")}},
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "file", "image/png", []byte("png-bytes"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Failed to upload image after retries"}),
		},
		{
			name:     "Error - unexpected",
			uploader: &mockUploader{error: errors.New("boom")},
			request: func(t *testing.T) *http.Request {
				return multipartRequest(t, "file", "image/png", []byte("png-bytes"))
			},
			expectedCode: http.StatusInternalServerError,
			expectedBody: toJSON(t, ErrorResponse{Error: "Internal server error"}),
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			r := newRouter(&mockProductService{}, tc.uploader, 1<<20)
			// when
			rr := serve(t, r, tc.request(t))
			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_Handler_Upload_PassesBodyAndContentType(t *testing.T) {
	// given
	uploader := &mockUploader{stored: &media.StoredObject{Path: "products/x.jpeg"}}
	r := newRouter(&mockProductService{}, uploader, 1<<20)
	// when
	rr := serve(t, r, multipartRequest(t, "file", "image/jpeg", []byte("jpeg-bytes")))
	// then
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, []byte("jpeg-bytes"), uploader.got.Body)
	assert.Equal(t, "image/jpeg", uploader.got.ContentType)
}

func Test_Handler_Upload_TooLarge(t *testing.T) {
	// given
	uploader := &mockUploader{stored: &media.StoredObject{}}
	r := newRouter(&mockProductService{}, uploader, 1024)
	// when
	rr := serve(t, r, multipartRequest(t, "file", "image/png", bytes.Repeat([]byte("x"), 4096)))
	// then
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 0, uploader.calls)
}

func Test_Handler_HealthCheck(t *testing.T) {
	// given
	r := newRouter(&mockProductService{}, &mockUploader{unconfigured: true}, 0)
	// when
	rr := serve(t, r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	// then
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","database":"configured","storage":"not_configured"}`, rr.Body.String())
}
