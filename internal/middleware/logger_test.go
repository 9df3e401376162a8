package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_RecordsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := Logger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/health", fields["path"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
}

func TestCORS(t *testing.T) {
	const origin = "http://localhost:5173"

	tests := []struct {
		name        string
		allowed     string
		preflight   bool
		wantOrigin  string
		wantCreds   string
		wantReached bool
	}{
		{"named origin preflight", origin, true, origin, "true", false},
		{"named origin request", origin, false, origin, "true", true},
		{"wildcard never sends credentials", "*", false, origin, "", true},
		{"other origin", "http://example.com", false, "", "", true},
		{"disabled", "", false, "", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reached := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/ask", nil)
			if tc.preflight {
				req = httptest.NewRequest(http.MethodOptions, "/ask", nil)
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			req.Header.Set("Origin", origin)

			rr := httptest.NewRecorder()
			CORS(tc.allowed)(next).ServeHTTP(rr, req)

			assert.Less(t, rr.Code, 300)
			assert.Equal(t, tc.wantReached, reached)
			if tc.allowed == "*" {
				assert.Contains(t, []string{"*", origin}, rr.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Equal(t, tc.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			}
			assert.Equal(t, tc.wantCreds, rr.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}
