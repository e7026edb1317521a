package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", UserRequired(), func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})
	r.GET("/key", func(c *gin.Context) {
		c.String(http.StatusOK, RateKey(c))
	})
	return r
}

func TestUserRequired(t *testing.T) {
	r := newTestEngine()

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"Missing", "", http.StatusBadRequest, ""},
		{"NotUUID", "42", http.StatusBadRequest, ""},
		{"Valid", "5F2A9B1C-0D3E-4F5A-8B6C-7D8E9F0A1B2C", http.StatusOK, "5f2a9b1c-0d3e-4f5a-8b6c-7d8e9f0a1b2c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(UserHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestRateKey(t *testing.T) {
	r := newTestEngine()

	req := httptest.NewRequest(http.MethodGet, "/key", nil)
	req.Header.Set(UserHeader, "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "user:abc", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/key", nil)
	req.RemoteAddr = "10.0.0.7:1234"
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "ip:10.0.0.7", w.Body.String())
}
