// Package handler implements the HTTP handlers of the print service.
package handler

import (
	"errors"
	"net/http"

	"github.com/erp/orderprint/internal/domain/shared"
	"github.com/erp/orderprint/internal/interfaces/http/dto"
	"github.com/erp/orderprint/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Response messages
const (
	MsgInvalidOrder   = "Dados do pedido inválidos."
	MsgAccepted       = "Pedido recebido e está sendo processado para impressão."
	MsgPrinted        = "Pedido processado e disponível para impressão."
	MsgRenderFailed   = "Erro interno ao processar o pedido."
	MsgFileNotFound   = "Arquivo não encontrado."
	MsgFileFailed     = "Erro interno ao processar o arquivo."
	MsgUnavailable    = "Serviço indisponível no momento."
	MsgInvalidJSON    = "Corpo da requisição não é um JSON válido."
	MsgBodyTooLarge   = middleware.MsgBodyTooLarge
	msgUnexpectedFail = "Erro interno inesperado."
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Error sends an error response with the given status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, code, message string) {
	h.Error(c, http.StatusBadRequest, code, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, code, message string) {
	h.Error(c, http.StatusInternalServerError, code, message)
}

// HandleDomainError converts a domain error to its HTTP response.
// It reports false and writes nothing when err is not a *shared.DomainError.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) bool {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return false
	}

	code := dto.NormalizeErrorCode(domainErr.Code)
	status := dto.GetHTTPStatus(code)
	requestID := middleware.GetRequestID(c)

	if status == http.StatusBadRequest {
		c.JSON(status, dto.NewFieldErrorResponse(code, domainErr.Field, MsgInvalidOrder, domainErr.Message, requestID))
		return true
	}
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, domainErr.Message, requestID))
	return true
}

// HandleError handles both domain and standard errors
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	if h.HandleDomainError(c, err) {
		return
	}
	h.InternalError(c, dto.ErrCodeInternal, msgUnexpectedFail)
}
