package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/erp/orderprint/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// InvalidRequestMessage is the summary sent with every binding failure
const InvalidRequestMessage = "Dados do pedido inválidos."

// SetupValidator makes gin's binding validator report json/form tag names
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
	}
}

// FormatValidationError converts the first binding failure into a field
// error response. Non-validator errors yield a generic bad request.
func FormatValidationError(err error, requestID string) dto.Response {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		e := validationErrors[0]
		code := dto.ErrCodeValidationFormat
		if e.Tag() == "required" {
			code = dto.ErrCodeValidationRequired
		}
		return dto.NewFieldErrorResponse(code, e.Field(), InvalidRequestMessage, getValidationMessage(e), requestID)
	}
	return dto.NewErrorResponseWithRequestID(dto.ErrCodeBadRequest, InvalidRequestMessage, requestID)
}

// HandleValidationError writes a 400 validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationError(err, GetRequestID(c)))
}

// getValidationMessage returns a human-readable validation message
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "campo obrigatório ausente"
	case "max":
		return "deve ter no máximo " + e.Param() + " caracteres"
	case "excludesall":
		return "contém caracteres não permitidos"
	default:
		return "valor inválido"
	}
}
