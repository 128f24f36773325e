package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	appprinting "github.com/erp/orderprint/internal/application/printing"
	"github.com/erp/orderprint/internal/domain/artifact"
	"github.com/erp/orderprint/internal/domain/order"
	"github.com/erp/orderprint/internal/domain/shared"
	infraprinting "github.com/erp/orderprint/internal/infrastructure/printing"
	"github.com/erp/orderprint/internal/interfaces/http/dto"
	"github.com/erp/orderprint/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockPrinter struct {
	mock.Mock
}

func (m *mockPrinter) Submit(ctx context.Context, o *order.Order) (*appprinting.Submission, error) {
	args := m.Called(ctx, o)
	sub, _ := args.Get(0).(*appprinting.Submission)
	return sub, args.Error(1)
}

func (m *mockPrinter) OpenArtifact(ctx context.Context, id artifact.Identity) (*infraprinting.StoredFile, error) {
	args := m.Called(ctx, id)
	f, _ := args.Get(0).(*infraprinting.StoredFile)
	return f, args.Error(1)
}

func (m *mockPrinter) Mode() appprinting.Mode {
	return m.Called().Get(0).(appprinting.Mode)
}

func (m *mockPrinter) CheckStorage() error {
	return m.Called().Error(0)
}

func setupOrderRouter(h *OrderPrintHandler, pre ...gin.HandlerFunc) *gin.Engine {
	engine := gin.New()
	engine.Use(pre...)
	r := router.NewRouter(engine)
	for _, g := range h.OrderRoutes() {
		r.Register(g)
	}
	r.Setup()
	return engine
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func postOrder(engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func storedFile(t *testing.T, content string) *infraprinting.StoredFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "42.pdf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	f, err := os.Open(path)
	require.NoError(t, err)
	info, err := f.Stat()
	require.NoError(t, err)
	return &infraprinting.StoredFile{File: f, Name: "42.pdf", Size: info.Size(), ModTime: info.ModTime()}
}

const validBody = `{"id": 7, "number_order": 42, "holding": {"client_id": "H1"}, "enterprise": {"client_id": "E1"}}`

func TestOrderPrintHandler_Submit_Async(t *testing.T) {
	printer := new(mockPrinter)
	printer.On("Submit", mock.Anything, mock.MatchedBy(func(o *order.Order) bool {
		return o.ID == 7
	})).Return(&appprinting.Submission{Mode: appprinting.ModeAsync}, nil)

	engine := setupOrderRouter(NewOrderPrintHandler(printer, OrderPrintHandlerConfig{}, nil))
	w := postOrder(engine, "/api/v1/order/print", validBody)

	assert.Equal(t, http.StatusAccepted, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, MsgAccepted, resp.Message)
	assert.Empty(t, resp.URL)
	printer.AssertExpectations(t)
}

func TestOrderPrintHandler_Submit_MalformedCosmeticFieldsAccepted(t *testing.T) {
	bodies := map[string]string{
		"billing date": `"billing_date": "15/03/2024"`,
		"hash id":      `"hash_id": "abc"`,
		"both":         `"billing_date": 20240315, "hash_id": 1`,
	}

	for name, extra := range bodies {
		t.Run(name, func(t *testing.T) {
			body := `{"id": 7, "number_order": 42, "client": {"document": "123"}, ` +
				`"holding": {"client_id": "H1"}, "enterprise": {"client_id": "E1"}, ` + extra + `}`

			printer := new(mockPrinter)
			printer.On("Submit", mock.Anything, mock.MatchedBy(func(o *order.Order) bool {
				return !o.BillingDate.Valid && !o.HashID.Valid && order.NewValidator(0).Validate(o) == nil
			})).Return(&appprinting.Submission{Mode: appprinting.ModeAsync}, nil)
			engine := setupOrderRouter(NewOrderPrintHandler(printer, OrderPrintHandlerConfig{}, nil))

			w := postOrder(engine, "/api/v1/order/print", body)

			assert.Equal(t, http.StatusAccepted, w.Code)
			assert.Equal(t, MsgAccepted, decodeResponse(t, w).Message)
			printer.AssertExpectations(t)
		})
	}
}

func TestOrderPrintHandler_Submit_AwaitReturnsURL(t *testing.T) {
	sub := &appprinting.Submission{
		Mode:     appprinting.ModeAwait,
		Artifact: &appprinting.Artifact{URL: "/static/H1/E1/order/print/42.pdf"},
	}

	tests := []struct {
		name    string
		baseURL string
		header  string
		want    string
	}{
		{"request host", "", "", "http://example.com/static/H1/E1/order/print/42.pdf"},
		{"forwarded proto", "", "https", "https://example.com/static/H1/E1/order/print/42.pdf"},
		{"public base url", "https://print.example.org/", "", "https://print.example.org/static/H1/E1/order/print/42.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			printer := new(mockPrinter)
			printer.On("Submit", mock.Anything, mock.Anything).Return(sub, nil)
			engine := setupOrderRouter(NewOrderPrintHandler(printer, OrderPrintHandlerConfig{PublicBaseURL: tt.baseURL}, nil))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/order/print", strings.NewReader(validBody))
			if tt.header != "" {
				req.Header.Set("X-Forwarded-Proto", tt.header)
			}
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			resp := decodeResponse(t, w)
			assert.True(t, resp.Success)
			assert.Equal(t, MsgPrinted, resp.Message)
			assert.Equal(t, tt.want, resp.URL)
		})
	}
}

func TestOrderPrintHandler_Submit_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantField  string
	}{
		{
			name:       "missing field",
			err:        shared.NewRequiredError("client.document"),
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidationRequired,
			wantField:  "client.document",
		},
		{
			name:       "unsafe segment",
			err:        shared.NewFieldError(shared.CodeValidationFormat, "holding_client_id", "valor inválido"),
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidationFormat,
			wantField:  "holding_client_id",
		},
		{
			name:       "render failure",
			err:        &appprinting.RenderFailure{Stage: appprinting.StageConvert, Cause: errors.New("chrome crashed")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeRenderFailed,
		},
		{
			name:       "render failure wrapping a domain error",
			err:        &appprinting.RenderFailure{Stage: appprinting.StageIdentity, Cause: shared.NewRequiredError("body")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeRenderFailed,
		},
		{
			name:       "shutting down",
			err:        appprinting.ErrShuttingDown,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   dto.ErrCodeUnavailable,
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeRenderFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			printer := new(mockPrinter)
			printer.On("Submit", mock.Anything, mock.Anything).Return(nil, tt.err)
			engine := setupOrderRouter(NewOrderPrintHandler(printer, OrderPrintHandlerConfig{}, nil))

			w := postOrder(engine, "/api/v1/order/print", validBody)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantField, resp.Error.Field)
			if tt.wantStatus == http.StatusBadRequest {
				assert.Equal(t, MsgInvalidOrder, resp.Message)
			}
		})
	}
}

func TestOrderPrintHandler_Submit_InvalidJSON(t *testing.T) {
	printer := new(mockPrinter)
	engine := setupOrderRouter(NewOrderPrintHandler(printer, OrderPrintHandlerConfig{}, nil))

	for _, body := range []string{"", "{not json", `{"id": "seven"}`} {
		w := postOrder(engine, "/api/v1/order/print", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decodeResponse(t, w).Error.Code)
	}
	printer.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestOrderPrintHandler_Submit_BodyTooLarge(t *testing.T) {
	printer := new(mockPrinter)
	limit := func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 16)
		c.Next()
	}
	engine := setupOrderRouter(NewOrderPrintHandler(printer, OrderPrintHandlerConfig{}, nil), limit)

	w := postOrder(engine, "/api/v1/order/print", validBody)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, dto.ErrCodeBodyTooLarge, decodeResponse(t, w).Error.Code)
	printer.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestOrderPrintHandler_LegacyRoutes(t *testing.T) {
	printer := new(mockPrinter)
	printer.On("Submit", mock.Anything, mock.Anything).Return(&appprinting.Submission{Mode: appprinting.ModeAsync}, nil)
	printer.On("OpenArtifact", mock.Anything, mock.Anything).Return(nil, appprinting.ErrArtifactNotFound)
	engine := setupOrderRouter(NewOrderPrintHandler(printer, OrderPrintHandlerConfig{}, nil))

	assert.Equal(t, http.StatusAccepted, postOrder(engine, "/api/v1/pedidos/print", validBody).Code)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/v1/pedidos/download?holding_client_id=H1&enterprise_client_id=E1&order_number=42", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func download(engine *gin.Engine, query string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/order/download?"+query, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestOrderPrintHandler_Download_Success(t *testing.T) {
	printer := new(mockPrinter)
	wantID := artifact.Identity{HoldingKey: "H1", EnterpriseKey: "E1", OrderNumber: "42"}
	printer.On("OpenArtifact", mock.Anything, wantID).Return(storedFile(t, "%PDF-1.4 test"), nil).Once()
	engine := setupOrderRouter(NewOrderPrintHandler(printer, OrderPrintHandlerConfig{}, nil))

	w := download(engine, "holding_client_id=H1&enterprise_client_id=E1&order_number=42", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF-1.4 test", w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="42.pdf"`, w.Header().Get("Content-Disposition"))
	printer.AssertExpectations(t)
}

func TestOrderPrintHandler_Download_Range(t *testing.T) {
	printer := new(mockPrinter)
	printer.On("OpenArtifact", mock.Anything, mock.Anything).Return(storedFile(t, "%PDF-1.4 test"), nil)
	engine := setupOrderRouter(NewOrderPrintHandler(printer, OrderPrintHandlerConfig{}, nil))

	w := download(engine, "holding_client_id=H1&enterprise_client_id=E1&order_number=42",
		http.Header{"Range": []string{"bytes=0-3"}})

	assert.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "%PDF", w.Body.String())
}

func TestOrderPrintHandler_Download_BadQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"missing holding", "enterprise_client_id=E1&order_number=42", dto.ErrCodeValidationRequired},
		{"missing enterprise", "holding_client_id=H1&order_number=42", dto.ErrCodeValidationRequired},
		{"missing number", "holding_client_id=H1&enterprise_client_id=E1", dto.ErrCodeValidationRequired},
		{"dot segment", "holding_client_id=..&enterprise_client_id=E1&order_number=42", dto.ErrCodeValidationFormat},
		{"separator", "holding_client_id=H1&enterprise_client_id=a%2Fb&order_number=42", dto.ErrCodeValidationFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			printer := new(mockPrinter)
			engine := setupOrderRouter(NewOrderPrintHandler(printer, OrderPrintHandlerConfig{}, nil))

			w := download(engine, tt.query, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			printer.AssertNotCalled(t, "OpenArtifact", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderPrintHandler_Download_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		wantLevel  zapcore.Level
	}{
		{"not found", appprinting.ErrArtifactNotFound, http.StatusNotFound, MsgFileNotFound, zapcore.InfoLevel},
		{"io error", errors.New("permission denied"), http.StatusInternalServerError, MsgFileFailed, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			printer := new(mockPrinter)
			printer.On("OpenArtifact", mock.Anything, mock.Anything).Return(nil, tt.err)
			engine := setupOrderRouter(NewOrderPrintHandler(printer, OrderPrintHandlerConfig{}, zap.New(core)))

			w := download(engine, "holding_client_id=H1&enterprise_client_id=E1&order_number=42", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantMsg, decodeResponse(t, w).Message)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, "H1/E1/42", entry.ContextMap()["artifact"])
		})
	}
}
