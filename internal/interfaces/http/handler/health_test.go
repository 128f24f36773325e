package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	appprinting "github.com/erp/orderprint/internal/application/printing"
	"github.com/erp/orderprint/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name        string
		storageErr  error
		wantStatus  int
		wantState   string
		wantStorage string
	}{
		{"healthy", nil, http.StatusOK, "ok", "ok"},
		{"storage not writable", errors.New("read-only file system"), http.StatusServiceUnavailable, "degraded", "unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := new(mockPrinter)
			probe.On("Mode").Return(appprinting.ModeAwait)
			probe.On("CheckStorage").Return(tt.storageErr)

			engine := gin.New()
			NewHealthHandler(probe, "1.2.3", zaptest.NewLogger(t)).RegisterRoutes(&engine.RouterGroup)

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp dto.HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantState, resp.Status)
			assert.Equal(t, tt.wantStorage, resp.Storage)
			assert.Equal(t, "await", resp.Mode)
			assert.Equal(t, "1.2.3", resp.Version)
			assert.NotEmpty(t, resp.Uptime)
		})
	}
}
