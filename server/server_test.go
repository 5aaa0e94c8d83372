package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/annotpipe/component"
	"github.com/kbukum/annotpipe/logger"
)

func testConfig() Config {
	cfg := Config{Host: "127.0.0.1"}
	cfg.ApplyDefaults()
	cfg.Port = 0
	return cfg
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Port != 8080 || cfg.MaxBodySize != "10MB" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.CORS.AllowedOrigins) == 0 || len(cfg.CORS.AllowedHeaders) == 0 {
		t.Fatal("CORS defaults missing")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if got := cfg.Addr(); got != ":8080" {
		t.Fatalf("Addr() = %q", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"port too high", func(c *Config) { c.Port = 70000 }},
		{"negative read timeout", func(c *Config) { c.ReadTimeout = -1 }},
		{"negative write timeout", func(c *Config) { c.WriteTimeout = -1 }},
		{"negative idle timeout", func(c *Config) { c.IdleTimeout = -1 }},
		{"bad body size", func(c *Config) { c.MaxBodySize = "lots" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestHandlerAppliesMiddleware(t *testing.T) {
	s := New(testConfig(), logger.Nop())
	s.GinEngine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	s.GinEngine().GET("/boom", func(*gin.Context) { panic("boom") })

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", http.NoBody)
	req.Header.Set("Origin", "http://example.com")
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Body.String() != "pong" {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Error("request id middleware not applied")
	}
	if rr.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("CORS middleware not applied")
	}

	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/boom", http.NoBody))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected recovery to answer 500, got %d", rr.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodySize = "16B"
	s := New(cfg, logger.Nop())
	s.GinEngine().POST("/echo", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest("POST", "/echo", strings.NewReader(strings.Repeat("x", 64))))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestStartStop(t *testing.T) {
	s := New(testConfig(), logger.Nop())
	s.RegisterRoutes(Routes{Service: "annotpipe"})
	comp := NewComponent(s)

	if h := comp.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Fatalf("expected unhealthy before start, got %s", h.Status)
	}
	if err := comp.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = comp.Stop(context.Background()) }()

	if h := comp.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Fatalf("expected healthy after start, got %s", h.Status)
	}
	if strings.HasSuffix(s.Addr(), ":0") {
		t.Fatalf("Addr should report the bound port, got %s", s.Addr())
	}

	resp, err := http.Get("http://" + s.Addr() + "/health/live")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "alive") {
		t.Fatalf("unexpected response %d: %s", resp.StatusCode, body)
	}

	if err := comp.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestRoutesOrdering(t *testing.T) {
	s := New(testConfig(), logger.Nop())
	s.RegisterRoutes(Routes{Service: "annotpipe", Annotator: nil})
	s.GinEngine().POST("/v1/annotate", func(*gin.Context) {})
	s.GinEngine().GET("/v1/annotate", func(*gin.Context) {})

	routes := NewComponent(s).Routes()
	if len(routes) < 3 {
		t.Fatalf("expected routes, got %v", routes)
	}
	if routes[0].Path != "/v1/annotate" || routes[0].Method != "GET" || routes[1].Method != "POST" {
		t.Fatalf("API routes should come first, GET before POST: %v", routes[:2])
	}
	for _, r := range routes[2:] {
		if !systemPaths[r.Path] {
			t.Fatalf("unexpected non-system route after API routes: %v", r)
		}
	}
}

func TestDescribe(t *testing.T) {
	d := NewComponent(New(testConfig(), logger.Nop())).Describe()
	if d.Type != "server" || !strings.Contains(d.Details, "10MB") {
		t.Fatalf("unexpected description %+v", d)
	}
}

func TestFormatHandlerName(t *testing.T) {
	tests := map[string]string{
		"github.com/kbukum/annotpipe/server/endpoint.Annotate.func1": "endpoint.Annotate",
		"github.com/kbukum/annotpipe/server.(*Server).health-fm":     "server.(*Server).health",
		"main.handler": "main.handler",
	}
	for in, want := range tests {
		if got := formatHandlerName(in); got != want {
			t.Errorf("formatHandlerName(%q) = %q, want %q", in, got, want)
		}
	}
}
