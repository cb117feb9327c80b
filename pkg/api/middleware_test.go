package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goran-ethernal/ChainDemux/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func infoOK(t *testing.T) http.Handler {
	t.Helper()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(`{"watcher":{}}`))
		require.NoError(t, err)
	})
}

func TestCORSMiddleware(t *testing.T) {
	t.Parallel()

	const dashboard = "https://dashboard.example.com"

	tests := []struct {
		name           string
		allowedOrigins []string
		origin         string
		method         string
		expectedOrigin string
	}{
		{"wildcard echoes origin", []string{"*"}, dashboard, http.MethodGet, dashboard},
		{"wildcard without origin header", []string{"*"}, "", http.MethodGet, "*"},
		{"listed origin", []string{"https://ops.example.com", dashboard}, dashboard, http.MethodGet, dashboard},
		{"unlisted origin", []string{dashboard}, "https://evil.example.com", http.MethodGet, ""},
		{"no allowed origins", nil, dashboard, http.MethodGet, ""},
		{"preflight for pause", []string{dashboard}, dashboard, http.MethodOptions, dashboard},
		{"preflight from unlisted origin", []string{dashboard}, "https://evil.example.com", http.MethodOptions, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(tt.method, "/info", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.method == http.MethodOptions {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()

			CORSMiddleware(tt.allowedOrigins)(infoOK(t)).ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			require.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))

			if tt.expectedOrigin != "" {
				require.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
				require.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
				require.Equal(t, corsMaxAge, w.Header().Get("Access-Control-Max-Age"))
			}

			if tt.expectedOrigin != "" && tt.expectedOrigin != "*" {
				require.Equal(t, "Origin", w.Header().Get("Vary"))
			}

			if tt.method == http.MethodOptions {
				require.Empty(t, w.Body.String(), "preflight must not reach the handler")
			} else {
				require.JSONEq(t, `{"watcher":{}}`, w.Body.String())
			}
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
		write  func(w http.ResponseWriter)
		status int
	}{
		{
			name:   "info",
			method: http.MethodGet,
			path:   "/info",
			write:  func(w http.ResponseWriter) { _, _ = w.Write([]byte("{}")) },
			status: http.StatusOK,
		},
		{
			name:   "start rejected method",
			method: http.MethodGet,
			path:   "/start",
			write:  func(w http.ResponseWriter) { w.WriteHeader(http.StatusMethodNotAllowed) },
			status: http.StatusMethodNotAllowed,
		},
		{
			name:   "unknown route",
			method: http.MethodGet,
			path:   "/blocks",
			write:  func(w http.ResponseWriter) { w.WriteHeader(http.StatusNotFound) },
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var captured *responseWriter
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				captured = w.(*responseWriter)
				tt.write(w)
			})

			w := httptest.NewRecorder()
			LoggingMiddleware(logger.NewNopLogger())(next).ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			require.Equal(t, tt.status, w.Code)
			require.Equal(t, tt.status, captured.statusCode)
		})
	}
}

func TestResponseWriter_KeepsFirstStatus(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusServiceUnavailable)
	rw.WriteHeader(http.StatusOK)

	assert.Equal(t, http.StatusServiceUnavailable, rw.statusCode)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	t.Parallel()

	for name, value := range map[string]any{"string": "controller gone", "error": assert.AnError, "int": 42} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(value) })
			w := httptest.NewRecorder()

			require.NotPanics(t, func() {
				RecoveryMiddleware(logger.NewNopLogger())(next).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/pause", nil))
			})
			require.Equal(t, http.StatusInternalServerError, w.Code)
			require.Equal(t, "Internal Server Error\n", w.Body.String())
		})
	}
}

func TestMiddlewareChain(t *testing.T) {
	t.Parallel()

	log := logger.NewNopLogger()
	h := RecoveryMiddleware(log)(LoggingMiddleware(log)(CORSMiddleware([]string{"*"})(infoOK(t))))

	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"watcher":{}}`, w.Body.String())
	require.Equal(t, "https://dashboard.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
