package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func bodyLimitRouter(limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), BodyLimit(limit))
	read := func(c *gin.Context) {
		if _, err := io.ReadAll(c.Request.Body); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.String(http.StatusRequestEntityTooLarge, "read limit")
				return
			}
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		c.String(http.StatusOK, "ok")
	}
	router.POST("/api/v1/order/print", read)
	router.GET("/api/v1/order/download", read)
	return router
}

func TestBodyLimit(t *testing.T) {
	tests := []struct {
		name          string
		limit         int64
		method        string
		path          string
		body          string
		contentLength int64
		wantStatus    int
		wantBody      string
	}{
		{"within limit", 64, http.MethodPost, "/api/v1/order/print", `{"id":1}`, 8, http.StatusOK, "ok"},
		{"declared length over limit", 16, http.MethodPost, "/api/v1/order/print", strings.Repeat("x", 32), 32, http.StatusRequestEntityTooLarge, "ERR_BODY_TOO_LARGE"},
		{"undeclared length over limit", 16, http.MethodPost, "/api/v1/order/print", strings.Repeat("x", 32), -1, http.StatusRequestEntityTooLarge, "read limit"},
		{"no body", 1, http.MethodGet, "/api/v1/order/download", "", 0, http.StatusOK, "ok"},
		{"limit disabled", 0, http.MethodPost, "/api/v1/order/print", strings.Repeat("x", 32), 32, http.StatusOK, "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.path, body)
			req.ContentLength = tt.contentLength
			w := httptest.NewRecorder()

			bodyLimitRouter(tt.limit).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestBodyLimit_EchoesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/order/print", strings.NewReader(strings.Repeat("x", 32)))
	req.Header.Set(RequestIDHeader, "req-limit")
	w := httptest.NewRecorder()

	bodyLimitRouter(8).ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), `"request_id":"req-limit"`)
}
