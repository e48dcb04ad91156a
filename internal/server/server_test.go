package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farmmarket/internal/config"
	"farmmarket/internal/handlers"
	"farmmarket/internal/repository/memory"
	"farmmarket/internal/security"
	"farmmarket/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T, staticDir string) *HTTPServer {
	t.Helper()

	log := zerolog.Nop()
	store := memory.NewStore()
	tokens := security.NewTokenService("server-secret", time.Hour)

	cfg := &config.AppConfig{
		Environment:  "test",
		HTTP:         config.HTTPConfig{Host: "127.0.0.1", Port: 0, StaticDir: staticDir},
		AllowOrigins: []string{"https://shop.example.com"},
	}

	h := handlers.NewHandlerSet(handlers.Deps{
		Log:         log,
		Environment: cfg.Environment,
		Tokens:      tokens,
		Auth:        service.NewAuthService(store.Users(), tokens, nil, log),
		Approval:    service.NewApprovalService(store.Users(), nil, log),
		Catalog:     service.NewCatalogService(store.Products(), nil, log),
		Uploads:     service.NewUploadService(nil, 0, log),
	})
	return NewHTTPServer(cfg, log, h)
}

func TestServer_MiddlewareAndRoutes(t *testing.T) {
	t.Parallel()
	srv := newServer(t, "")

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"route not found"}`, w.Body.String())
}

func TestServer_StaticDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "produce.txt"), []byte("fresh market"), 0o644))
	srv := newServer(t, dir)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/produce.txt", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "market")
}
