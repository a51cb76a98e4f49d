package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/sessionhandoff/config"
	"github.com/BaSui01/sessionhandoff/types"
)

func okInner() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestSecurityHeaders(t *testing.T) {
	w := serve(SecurityHeaders()(okInner()), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "default-src 'none'", w.Header().Get("Content-Security-Policy"))
}

func TestRequestID(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = types.TraceID(r.Context())
	})
	handler := Chain(inner, SecurityHeaders(), RequestID())

	w := serve(handler, httptest.NewRequest(http.MethodGet, "/test", nil))
	generated := w.Header().Get("X-Request-ID")
	assert.Regexp(t, `^req_[0-9a-f-]{36}$`, generated)
	assert.Equal(t, generated, seen)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))

	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	r.Header.Set("X-Request-ID", "client-7")
	w = serve(handler, r)
	assert.Equal(t, "client-7", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "client-7", seen)
}

func TestRecovery(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	w := serve(Recovery(zap.NewNop())(panicky), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), string(types.ErrInternalError))
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name       string
		allowQuery bool
		path       string
		header     string
		wantStatus int
	}{
		{"valid header", false, "/v1/handoffs", "secret", http.StatusOK},
		{"wrong key", false, "/v1/handoffs", "nope", http.StatusUnauthorized},
		{"missing key", false, "/v1/handoffs", "", http.StatusUnauthorized},
		{"skip path", false, "/health", "", http.StatusOK},
		{"query key allowed", true, "/v1/handoffs?api_key=secret", "", http.StatusOK},
		{"query key disallowed", false, "/v1/handoffs?api_key=secret", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := APIKeyAuth([]string{"secret"}, skipAuthPaths, tt.allowQuery, zap.NewNop())(okInner())
			r := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.header != "" {
				r.Header.Set("X-API-Key", tt.header)
			}
			w := serve(handler, r)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Contains(t, w.Body.String(), string(types.ErrUnauthorized))
			}
		})
	}
}

func TestRateLimiter(t *testing.T) {
	handler := RateLimiter(1, 1, skipAuthPaths)(okInner())
	request := func(path, ip string) int {
		r := httptest.NewRequest(http.MethodPost, path, nil)
		r.RemoteAddr = ip + ":1234"
		return serve(handler, r).Code
	}

	assert.Equal(t, http.StatusOK, request("/v1/handoffs", "10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, request("/v1/handoffs", "10.0.0.1"))
	assert.Equal(t, http.StatusOK, request("/v1/handoffs", "10.0.0.2"), "limits are per client")
	assert.Equal(t, http.StatusOK, request("/health", "10.0.0.1"), "probes are never limited")
}

func TestRateLimiter_Disabled(t *testing.T) {
	handler := RateLimiter(0, 0, nil)(okInner())
	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, serve(handler, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestJWTAuth_HS256(t *testing.T) {
	cfg := config.JWTConfig{Secret: "hmac-secret", Issuer: "handoffd-tests"}

	var tenant, user string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant, _ = types.TenantID(r.Context())
		user, _ = types.UserID(r.Context())
	})
	handler := JWTAuth(cfg, skipAuthPaths, zap.NewNop())(inner)

	valid := signHS256(t, "hmac-secret", jwt.MapClaims{
		"iss":       "handoffd-tests",
		"exp":       time.Now().Add(time.Hour).Unix(),
		"tenant_id": "acme",
		"user_id":   "u-1",
	})

	tests := []struct {
		name       string
		path       string
		auth       string
		wantStatus int
	}{
		{"valid token", "/v1/handoffs", "Bearer " + valid, http.StatusOK},
		{"missing header", "/v1/handoffs", "", http.StatusUnauthorized},
		{"not bearer", "/v1/handoffs", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "/v1/handoffs", "Bearer " + signHS256(t, "other", jwt.MapClaims{"iss": "handoffd-tests"}), http.StatusUnauthorized},
		{"wrong issuer", "/v1/handoffs", "Bearer " + signHS256(t, "hmac-secret", jwt.MapClaims{"iss": "someone-else"}), http.StatusUnauthorized},
		{"expired", "/v1/handoffs", "Bearer " + signHS256(t, "hmac-secret", jwt.MapClaims{"iss": "handoffd-tests", "exp": time.Now().Add(-time.Hour).Unix()}), http.StatusUnauthorized},
		{"skip path", "/ready", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenant, user = "", ""
			r := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.auth != "" {
				r.Header.Set("Authorization", tt.auth)
			}
			w := serve(handler, r)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.name == "valid token" {
				assert.Equal(t, "acme", tenant)
				assert.Equal(t, "u-1", user)
			}
		})
	}
}

func TestJWTAuth_RS256(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	handler := JWTAuth(config.JWTConfig{PublicKey: string(pubPEM)}, nil, zap.NewNop())(okInner())

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{"user_id": "u-2"}).SignedString(key)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/v1/events", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, serve(handler, r).Code)

	// HS256 is rejected when no secret is configured
	r = httptest.NewRequest(http.MethodPost, "/v1/events", nil)
	r.Header.Set("Authorization", "Bearer "+signHS256(t, "x", jwt.MapClaims{}))
	assert.Equal(t, http.StatusUnauthorized, serve(handler, r).Code)
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/health":                         "/health",
		"/v1/handoffs":                    "/v1/handoffs",
		"/v1/events":                      "/v1/events",
		"/v1/sessions/ses_abc/activate":   "/v1/sessions/:id/activate",
		"/v1/sessions/ses_abc/pending":    "/v1/sessions/:id/pending",
		"/v1/sessions/a/b/activate":       "other",
		"/wp-admin/install.php":           "other",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizePath(in), in)
	}
}

func TestMetricsMiddleware(t *testing.T) {
	c := newCollector(zap.NewNop())
	created := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("done"))
	})
	handler := MetricsMiddleware(c)(created)

	w := serve(handler, httptest.NewRequest(http.MethodPost, "/v1/sessions/ses_9/activate", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "done", w.Body.String())

	n, err := promtestutil.GatherAndCount(prometheus.DefaultGatherer, "handoffd_http_requests_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
}

func TestOTelTracing_PassesThrough(t *testing.T) {
	handler := OTelTracing()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	assert.Equal(t, http.StatusAccepted, serve(handler, httptest.NewRequest(http.MethodGet, "/v1/events", nil)).Code)
}
