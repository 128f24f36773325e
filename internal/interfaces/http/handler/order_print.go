package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	appprinting "github.com/erp/orderprint/internal/application/printing"
	"github.com/erp/orderprint/internal/domain/artifact"
	"github.com/erp/orderprint/internal/domain/order"
	infraprinting "github.com/erp/orderprint/internal/infrastructure/printing"
	"github.com/erp/orderprint/internal/infrastructure/logger"
	"github.com/erp/orderprint/internal/interfaces/http/dto"
	"github.com/erp/orderprint/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// OrderPrinter is the part of the print service the handler drives
type OrderPrinter interface {
	Submit(ctx context.Context, o *order.Order) (*appprinting.Submission, error)
	OpenArtifact(ctx context.Context, id artifact.Identity) (*infraprinting.StoredFile, error)
	Mode() appprinting.Mode
}

// OrderPrintHandlerConfig holds the URL settings used to build artifact links
type OrderPrintHandlerConfig struct {
	// PublicBaseURL prefixes artifact URLs, e.g. https://print.example.com.
	// Empty means scheme://host of the incoming request.
	PublicBaseURL string
}

// OrderPrintHandler handles order print submission and artifact download
type OrderPrintHandler struct {
	BaseHandler
	printer       OrderPrinter
	publicBaseURL string
	logger        *zap.Logger
}

// NewOrderPrintHandler creates a new OrderPrintHandler
func NewOrderPrintHandler(printer OrderPrinter, cfg OrderPrintHandlerConfig, log *zap.Logger) *OrderPrintHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderPrintHandler{
		printer:       printer,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		logger:        log,
	}
}

// DownloadQuery identifies the artifact to download
type DownloadQuery struct {
	HoldingClientID    string `form:"holding_client_id" binding:"required,max=128"`
	EnterpriseClientID string `form:"enterprise_client_id" binding:"required,max=128"`
	OrderNumber        string `form:"order_number" binding:"required,max=128"`
}

// Submit godoc
//
//	@ID				submitOrderPrint
//
//	@Summary		Submit an order for printing
//	@Description	Validates the order and renders it to PDF. In async mode the render runs in
//	@Description	the background and 202 is returned; in await mode the artifact URL is returned.
//	@Tags			order-print
//	@Accept			json
//	@Produce		json
//	@Param			request	body		order.Order		true	"Order document"
//	@Success		200		{object}	dto.Response	"Rendered, url set"
//	@Success		202		{object}	dto.Response	"Accepted for background rendering"
//	@Failure		400		{object}	dto.Response
//	@Failure		413		{object}	dto.Response
//	@Failure		500		{object}	dto.Response
//	@Failure		503		{object}	dto.Response
//	@Router			/order/print [post]
//	@Router			/pedidos/print [post]
func (h *OrderPrintHandler) Submit(c *gin.Context) {
	var o order.Order
	if err := json.NewDecoder(c.Request.Body).Decode(&o); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeBodyTooLarge, MsgBodyTooLarge)
			return
		}
		h.BadRequest(c, dto.ErrCodeInvalidJSON, MsgInvalidJSON)
		return
	}

	ctx := c.Request.Context()
	log := logger.WithLogger(ctx, h.logger)

	sub, err := h.printer.Submit(ctx, &o)
	if err != nil {
		var failure *appprinting.RenderFailure
		switch {
		case errors.Is(err, appprinting.ErrShuttingDown):
			h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, MsgUnavailable)
		case errors.As(err, &failure):
			// Render already logged the failure with its stage
			h.InternalError(c, dto.ErrCodeRenderFailed, MsgRenderFailed)
		case h.HandleDomainError(c, err):
			log.Info("order rejected", zap.Error(err))
		default:
			log.Error("order submission failed", zap.Error(err))
			h.InternalError(c, dto.ErrCodeRenderFailed, MsgRenderFailed)
		}
		return
	}

	if sub.Accepted() {
		c.JSON(http.StatusAccepted, dto.NewMessageResponse(MsgAccepted))
		return
	}
	c.JSON(http.StatusOK, dto.NewLinkResponse(MsgPrinted, h.absoluteURL(c, sub.Artifact.URL)))
}

// Download godoc
//
//	@ID				downloadOrderPrint
//
//	@Summary		Download a rendered order
//	@Description	Streams the stored PDF as an attachment. Range and conditional requests are honoured.
//	@Tags			order-print
//	@Produce		application/pdf
//	@Param			holding_client_id		query		string	true	"Holding tenant key"
//	@Param			enterprise_client_id	query		string	true	"Enterprise tenant key"
//	@Param			order_number			query		string	true	"Order number"
//	@Success		200						{file}		binary	"PDF file"
//	@Failure		400						{object}	dto.Response
//	@Failure		404						{object}	dto.Response
//	@Failure		500						{object}	dto.Response
//	@Router			/order/download [get]
//	@Router			/pedidos/download [get]
func (h *OrderPrintHandler) Download(c *gin.Context) {
	var q DownloadQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	id, err := artifact.NewIdentity(q.HoldingClientID, q.EnterpriseClientID, q.OrderNumber)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	ctx := c.Request.Context()
	log := logger.WithLogger(ctx, h.logger).With(zap.String("artifact", id.Key()))

	file, err := h.printer.OpenArtifact(ctx, id)
	if err != nil {
		if errors.Is(err, appprinting.ErrArtifactNotFound) {
			log.Info("artifact not found")
			h.NotFound(c, MsgFileNotFound)
			return
		}
		log.Error("artifact download failed", zap.Error(err))
		h.InternalError(c, dto.ErrCodeInternal, MsgFileFailed)
		return
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			log.Warn("failed to close artifact", zap.Error(cerr))
		}
	}()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	http.ServeContent(c.Writer, c.Request, file.Name, file.ModTime, file)
}

// absoluteURL prefixes path with the public base URL or the request origin
func (h *OrderPrintHandler) absoluteURL(c *gin.Context, path string) string {
	base := h.publicBaseURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + path
}
