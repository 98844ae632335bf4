package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestAPIKeyMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		key     string
		headers map[string]string
		want    int
	}{
		{"auth disabled", "", nil, http.StatusOK},
		{"missing key", "secret", nil, http.StatusUnauthorized},
		{"header key", "secret", map[string]string{"X-API-Key": "secret"}, http.StatusOK},
		{"bearer token", "secret", map[string]string{"Authorization": "Bearer secret"}, http.StatusOK},
		{"wrong key", "secret", map[string]string{"X-API-Key": "nope"}, http.StatusForbidden},
		{"basic auth ignored", "secret", map[string]string{"Authorization": "Basic secret"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", APIKeyMiddleware(tt.key), func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, w.Code)
			}
		})
	}
}
