package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCORSMiddlewares(t *testing.T) {
	tests := []struct {
		name        string
		origin      string
		method      string
		code        int
		credentials string
		vary        string
	}{
		{"wildcard", "*", http.MethodGet, http.StatusOK, "", ""},
		{"pinned origin", "http://localhost:5173", http.MethodGet, http.StatusOK, "true", "Origin"},
		{"preflight", "http://localhost:5173", http.MethodOptions, http.StatusNoContent, "true", "Origin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			r := gin.New()
			r.Use(CORSMiddlewares(tt.origin))
			reached := false
			handler := func(c *gin.Context) {
				reached = true
				c.Status(http.StatusOK)
			}
			r.GET("/orders", handler)
			r.OPTIONS("/orders", handler)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, "/orders", nil))

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.credentials, w.Header().Get("Access-Control-Allow-Credentials"))
			assert.Equal(t, tt.vary, w.Header().Get("Vary"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
			assert.Equal(t, tt.method != http.MethodOptions, reached)
		})
	}
}
