package middleware

import (
	"net/http"

	"github.com/erp/orderprint/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// MsgBodyTooLarge is returned when a declared Content-Length exceeds the limit
const MsgBodyTooLarge = "Corpo da requisição excede o tamanho máximo permitido."

// BodyLimit caps request bodies at maxBytes. A declared Content-Length over
// the limit is refused before the handler runs; undeclared bodies are wrapped
// in http.MaxBytesReader and fail with *http.MaxBytesError on read.
// A non-positive maxBytes disables the limit.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeBodyTooLarge, MsgBodyTooLarge, GetRequestID(c)))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
