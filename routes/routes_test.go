package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"catalog/auth"
	"catalog/config"
	"catalog/db/dbtest"
	"catalog/imaging"
	"catalog/imaging/imagingtest"
	"catalog/models"
	"catalog/services"
	"catalog/storage/storagetest"
	"catalog/upload"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	app   *fiber.App
	db    *gorm.DB
	store *storagetest.Recorder
	admin string
	user  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	conn := dbtest.New(t)
	store := storagetest.NewRecorder()
	pipeline := upload.New(store, imaging.NewCompressor(imaging.DefaultQuality), upload.WithLogger(zerolog.Nop()))
	tokens := auth.NewTokenManager("test-secret", "catalog-test", time.Hour)
	accounts := services.NewAccountService(conn, tokens)

	limits := config.UploadConfig{MaxFileSize: upload.DefaultMaxFileSize, MaxFiles: upload.DefaultMaxFiles}
	app := NewApp(limits.BodyLimit(), "*")
	SetupRoutes(app, Deps{
		DB:         conn,
		Tokens:     tokens,
		Accounts:   accounts,
		Categories: services.NewCategoryService(conn, pipeline),
		Products:   services.NewProductService(conn, pipeline),
		Banners:    services.NewBannerService(conn, pipeline),
		Gatherer:   prometheus.NewRegistry(),
	})

	s := &testServer{app: app, db: conn, store: store}
	s.admin = s.signup(t, "admin", "root@example.com")
	s.user = s.signup(t, "user", "ann@example.com")
	return s
}

func (s *testServer) signup(t *testing.T, role, email string) string {
	t.Helper()
	body := map[string]string{"name": "Test", "email": email, "password": "secret1"}
	resp := s.do(t, jsonRequest(http.MethodPost, "/api/auth/"+role+"/register", body), "")
	require.Equal(t, fiber.StatusCreated, resp.status, resp.raw)
	resp = s.do(t, jsonRequest(http.MethodPost, "/api/auth/"+role+"/login", body), "")
	require.Equal(t, fiber.StatusOK, resp.status, resp.raw)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &session))
	return session.Token
}

type response struct {
	status     int
	raw        string
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
	Pagination map[string]int  `json:"pagination"`
}

func (s *testServer) do(t *testing.T, req *http.Request, token string) response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := response{status: resp.StatusCode, raw: string(raw)}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return out
}

func jsonRequest(method, path string, body any) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	return req
}

type filePart struct {
	field, name, contentType string
	data                     []byte
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, files ...filePart) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jpegPart(field, name string) filePart {
	return filePart{field: field, name: name, contentType: "image/jpeg", data: imagingtest.JPEG(32, 32)}
}

func (s *testServer) createCategory(t *testing.T, name string) uint {
	t.Helper()
	resp := s.do(t, multipartRequest(t, http.MethodPost, "/api/categories", map[string]string{"name": name}), s.admin)
	require.Equal(t, fiber.StatusCreated, resp.status, resp.raw)
	var c models.Category
	require.NoError(t, json.Unmarshal(resp.Data, &c))
	return c.ID
}

func productForm(categoryID uint) map[string]string {
	return map[string]string{
		"title":           "Linen curtain",
		"description":     "Blackout lining",
		"price":           "120",
		"discountedPrice": "99",
		"rating":          "4.5",
		"category":        fmt.Sprint(categoryID),
		"specifications":  `[{"title":"Color","options":["sand","grey"]}]`,
		"instructions":    `[{"title":"Care","value":["Hand wash"]}]`,
	}
}

func countProducts(t *testing.T, conn *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&n).Error)
	return n
}

func TestCreateProductWithImages(t *testing.T) {
	s := newTestServer(t)
	categoryID := s.createCategory(t, "Curtains")

	req := multipartRequest(t, http.MethodPost, "/api/products", productForm(categoryID),
		jpegPart("images", "front.jpg"), jpegPart("images", "back.jpg"))
	resp := s.do(t, req, s.admin)
	require.Equal(t, fiber.StatusCreated, resp.status, resp.raw)
	assert.True(t, resp.Success)

	var product struct {
		Images []struct {
			URL        string `json:"url"`
			StorageKey string `json:"storageKey"`
		} `json:"images"`
		Category struct {
			Name string `json:"name"`
		} `json:"category"`
		Specifications []models.Specification `json:"specifications"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &product))
	assert.Len(t, product.Images, 2)
	assert.Equal(t, "Curtains", product.Category.Name)
	assert.Equal(t, []string{"sand", "grey"}, product.Specifications[0].Options)
	assert.Equal(t, 2, s.store.Len())
}

func TestCreateProductOversizedImage(t *testing.T) {
	s := newTestServer(t)
	categoryID := s.createCategory(t, "Curtains")

	big := append(imagingtest.JPEG(8, 8), make([]byte, 11<<20)...)
	req := multipartRequest(t, http.MethodPost, "/api/products", productForm(categoryID),
		filePart{field: "images", name: "huge.jpg", contentType: "image/jpeg", data: big})
	resp := s.do(t, req, s.admin)

	assert.Equal(t, fiber.StatusBadRequest, resp.status)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "huge.jpg")
	assert.Zero(t, countProducts(t, s.db))
	assert.Zero(t, s.store.Calls())
}

func TestCreateProductRejectsBadEmbeddedJSON(t *testing.T) {
	s := newTestServer(t)
	categoryID := s.createCategory(t, "Curtains")

	cases := map[string]string{
		"not json":        `[{"title":"Color"`,
		"unknown field":   `[{"title":"Color","options":["red"],"extra":1}]`,
		"missing options": `[{"title":"Color"}]`,
		"duplicate":       `[{"title":"Color","options":["red","red"]}]`,
	}
	for name, specs := range cases {
		t.Run(name, func(t *testing.T) {
			fields := productForm(categoryID)
			fields["specifications"] = specs
			resp := s.do(t, multipartRequest(t, http.MethodPost, "/api/products", fields, jpegPart("images", "a.jpg")), s.admin)
			assert.Equal(t, fiber.StatusBadRequest, resp.status, resp.raw)
			assert.Equal(t, "validation", resp.Error)
			assert.Zero(t, s.store.Calls())
		})
	}
}

func TestCreateProductUnsupportedType(t *testing.T) {
	s := newTestServer(t)
	categoryID := s.createCategory(t, "Curtains")

	req := multipartRequest(t, http.MethodPost, "/api/products", productForm(categoryID),
		jpegPart("images", "ok.jpg"),
		filePart{field: "images", name: "notes.txt", contentType: "image/png", data: []byte("plain text, not an image")})
	resp := s.do(t, req, s.admin)
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
	assert.Contains(t, resp.Message, "notes.txt")
	assert.Zero(t, s.store.Calls())
}

func TestCreateProductStorageFailure(t *testing.T) {
	s := newTestServer(t)
	categoryID := s.createCategory(t, "Curtains")
	s.store.FailPutAt = 2

	req := multipartRequest(t, http.MethodPost, "/api/products", productForm(categoryID),
		jpegPart("images", "1.jpg"), jpegPart("images", "2.jpg"), jpegPart("images", "3.jpg"))
	resp := s.do(t, req, s.admin)

	assert.Equal(t, fiber.StatusInternalServerError, resp.status)
	assert.Equal(t, "Failed to process uploaded images", resp.Message)
	assert.Len(t, s.store.Deletes(), 1)
	assert.Zero(t, s.store.Len())
	assert.Zero(t, countProducts(t, s.db))
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, multipartRequest(t, http.MethodPost, "/api/categories", map[string]string{"name": "X"}), "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)
	assert.False(t, resp.Success)

	resp = s.do(t, multipartRequest(t, http.MethodPost, "/api/categories", map[string]string{"name": "X"}), "garbage")
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)

	resp = s.do(t, multipartRequest(t, http.MethodPost, "/api/categories", map[string]string{"name": "X"}), s.user)
	assert.Equal(t, fiber.StatusForbidden, resp.status)

	resp = s.do(t, httptest.NewRequest(http.MethodDelete, "/api/products/1", nil), s.user)
	assert.Equal(t, fiber.StatusForbidden, resp.status)
}

func TestAdminRegistrationClosesAfterFirstAdmin(t *testing.T) {
	s := newTestServer(t)
	body := map[string]string{"name": "Other", "email": "other@example.com", "password": "secret1"}

	resp := s.do(t, jsonRequest(http.MethodPost, "/api/auth/admin/register", body), "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.status)

	resp = s.do(t, jsonRequest(http.MethodPost, "/api/auth/admin/register", body), s.user)
	assert.Equal(t, fiber.StatusForbidden, resp.status)

	resp = s.do(t, jsonRequest(http.MethodPost, "/api/auth/admin/register", body), s.admin)
	assert.Equal(t, fiber.StatusCreated, resp.status, resp.raw)

	resp = s.do(t, jsonRequest(http.MethodPost, "/api/auth/admin/register", body), s.admin)
	assert.Equal(t, fiber.StatusConflict, resp.status)
}

func TestMe(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), s.user)
	require.Equal(t, fiber.StatusOK, resp.status, resp.raw)
	assert.Contains(t, string(resp.Data), `"email":"ann@example.com"`)
	assert.NotContains(t, string(resp.Data), "password")
}

func TestGetMissingProduct(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/api/products/42", nil), "")
	assert.Equal(t, fiber.StatusNotFound, resp.status)
	assert.False(t, resp.Success)

	resp = s.do(t, httptest.NewRequest(http.MethodGet, "/api/products/abc", nil), "")
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
}

func TestUpdateProductReplacesImages(t *testing.T) {
	s := newTestServer(t)
	categoryID := s.createCategory(t, "Curtains")
	resp := s.do(t, multipartRequest(t, http.MethodPost, "/api/products", productForm(categoryID),
		jpegPart("images", "a.jpg"), jpegPart("images", "b.jpg")), s.admin)
	require.Equal(t, fiber.StatusCreated, resp.status, resp.raw)
	var p models.Product
	require.NoError(t, json.Unmarshal(resp.Data, &p))
	oldKeys := []string{p.Images[0].StorageKey, p.Images[1].StorageKey}

	resp = s.do(t, multipartRequest(t, http.MethodPut, fmt.Sprintf("/api/products/%d", p.ID),
		map[string]string{"title": "Velvet curtain", "isAvailable": "false"}, jpegPart("images", "c.jpg")), s.admin)
	require.Equal(t, fiber.StatusOK, resp.status, resp.raw)
	var updated models.Product
	require.NoError(t, json.Unmarshal(resp.Data, &updated))

	assert.Equal(t, "Velvet curtain", updated.Title)
	assert.False(t, updated.IsAvailable)
	assert.Equal(t, p.Price, updated.Price)
	require.Len(t, updated.Images, 1)
	for _, k := range oldKeys {
		assert.False(t, s.store.Has(k))
	}
	assert.Equal(t, 1, s.store.Len())
}

func TestListProductsPagination(t *testing.T) {
	s := newTestServer(t)
	categoryID := s.createCategory(t, "Curtains")
	for i := 0; i < 3; i++ {
		resp := s.do(t, multipartRequest(t, http.MethodPost, "/api/products", productForm(categoryID)), s.admin)
		require.Equal(t, fiber.StatusCreated, resp.status, resp.raw)
	}

	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/api/products?page=2&limit=2", nil), "")
	require.Equal(t, fiber.StatusOK, resp.status, resp.raw)
	assert.Equal(t, 2, resp.Pagination["currentPage"])
	assert.Equal(t, 2, resp.Pagination["totalPages"])
	assert.Equal(t, 3, resp.Pagination["totalProducts"])

	var items []models.Product
	require.NoError(t, json.Unmarshal(resp.Data, &items))
	assert.Len(t, items, 1)
}

func TestBannerLifecycle(t *testing.T) {
	s := newTestServer(t)
	categoryID := s.createCategory(t, "Curtains")
	fields := map[string]string{"title": "Summer sale", "category": fmt.Sprint(categoryID)}

	resp := s.do(t, multipartRequest(t, http.MethodPost, "/api/banners", fields), s.admin)
	assert.Equal(t, fiber.StatusBadRequest, resp.status)
	assert.Equal(t, "image is required", resp.Message)

	resp = s.do(t, multipartRequest(t, http.MethodPost, "/api/banners", fields,
		jpegPart("image", "a.jpg"), jpegPart("image", "b.jpg")), s.admin)
	assert.Equal(t, fiber.StatusBadRequest, resp.status)

	resp = s.do(t, multipartRequest(t, http.MethodPost, "/api/banners", fields, jpegPart("image", "a.jpg")), s.admin)
	require.Equal(t, fiber.StatusCreated, resp.status, resp.raw)
	var b models.Banner
	require.NoError(t, json.Unmarshal(resp.Data, &b))
	assert.NotEmpty(t, b.Image.URL)

	resp = s.do(t, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/banners/%d", b.ID), nil), s.admin)
	require.Equal(t, fiber.StatusOK, resp.status, resp.raw)
	assert.Zero(t, s.store.Len())
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/health", nil), "")
	assert.Equal(t, fiber.StatusOK, resp.status)
	assert.True(t, resp.Success)

	resp = s.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil), "")
	assert.Equal(t, fiber.StatusOK, resp.status)
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)
	resp := s.do(t, httptest.NewRequest(http.MethodGet, "/api/nope", nil), "")
	assert.Equal(t, fiber.StatusNotFound, resp.status)
	assert.False(t, resp.Success)
}
