package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		path       string
		header     string
		wantStatus int
	}{
		{
			name:       "valid key",
			key:        "secret",
			path:       "/api/connections",
			header:     "secret",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing key",
			key:        "secret",
			path:       "/api/connections",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong key",
			key:        "secret",
			path:       "/api/connections",
			header:     "wrong",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "health bypasses auth",
			key:        "secret",
			path:       "/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty key disables auth",
			key:        "",
			path:       "/api/connections",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := APIKeyAuth(tt.key, nil)(okHandler())

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("X-API-Key", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/api/connections", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got == "" {
		t.Error("Allow-Headers missing")
	}
}
