package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "poolroute_backend/internal/http"
	"poolroute_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

type testConfig struct{ origins []string }

func (testConfig) GetHTTPAddr() string        { return ":0" }
func (testConfig) GetCORSAllowAll() bool      { return false }
func (c testConfig) GetCORSOrigins() []string { return c.origins }
func (testConfig) GetCORSAllowCreds() bool    { return false }
func (testConfig) IsProduction() bool         { return false }
func (testConfig) GetJWTAccessSecret() string { return "secret" }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type recordingModule struct{ registered bool }

func (m *recordingModule) Name() string { return "recording" }

func (m *recordingModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.registered = true
	ctx.Protected.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

func serve(engine *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name string
		ping error
		want int
	}{
		{"healthy", nil, http.StatusOK},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := New(&apphttp.App{Config: testConfig{}, Logger: logger.Discard(), Health: pinger{tt.ping}})
			if w := serve(engine, http.MethodGet, "/api/health", nil); w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
		})
	}
}

func TestModulesMountBehindAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	module := &recordingModule{}
	engine := New(&apphttp.App{Config: testConfig{}, Logger: logger.Discard(), Modules: []apphttp.Module{module}})

	if !module.registered {
		t.Fatalf("expected module routes to be registered")
	}
	if w := serve(engine, http.MethodGet, "/api/v1/ping", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a token, got %d", w.Code)
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const origin = "http://localhost:4200"
	engine := New(&apphttp.App{Config: testConfig{origins: []string{origin}}, Logger: logger.Discard()})

	w := serve(engine, http.MethodGet, "/api/health", map[string]string{"Origin": origin})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != origin {
		t.Fatalf("expected allow-origin %q, got %q", origin, got)
	}
}
