package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JonMunkholm/eda/internal/config"
)

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.SecurityConfig
		headers    map[string]string
		wantStatus int
	}{
		{name: "disabled", cfg: config.SecurityConfig{}, wantStatus: http.StatusOK},
		{
			name:       "missing key",
			cfg:        config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong key",
			cfg:        config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}},
			headers:    map[string]string{APIKeyHeader: "k2"},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "header key",
			cfg:        config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1", "k2"}},
			headers:    map[string]string{APIKeyHeader: "k2"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "bearer token",
			cfg:        config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}},
			headers:    map[string]string{"Authorization": "Bearer k1"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "required without keys rejects",
			cfg:        config.SecurityConfig{RequireAPIKey: true},
			headers:    map[string]string{APIKeyHeader: "anything"},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := APIKeyAuth(&tt.cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/api/dataset", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Code != http.StatusOK && rec.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", rec.Header().Get("Content-Type"))
			}
		})
	}
}
