package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/orderprint/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type downloadQuery struct {
	Holding string `form:"holding_client_id" binding:"required,max=8"`
	Number  string `form:"order_number" binding:"required,excludesall=/\\"`
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationError(t *testing.T) {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.GET("/download", func(c *gin.Context) {
		var q downloadQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name      string
		query     string
		wantCode  string
		wantField string
	}{
		{"missing holding", "?order_number=42", dto.ErrCodeValidationRequired, "holding_client_id"},
		{"too long holding", "?holding_client_id=123456789&order_number=42", dto.ErrCodeValidationFormat, "holding_client_id"},
		{"separator in number", "?holding_client_id=H1&order_number=4/2", dto.ErrCodeValidationFormat, "order_number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/download"+tt.query, nil))

			require.Equal(t, http.StatusBadRequest, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, InvalidRequestMessage, resp.Message)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantField, resp.Error.Field)
			assert.NotEmpty(t, resp.RequestID)
		})
	}

	t.Run("valid query passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/download?holding_client_id=H1&order_number=42", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestFormatValidationError_NonValidatorError(t *testing.T) {
	resp := FormatValidationError(errors.New("boom"), "req-1")
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	assert.Equal(t, "req-1", resp.RequestID)
}
