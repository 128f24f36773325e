package handler

import "github.com/erp/orderprint/internal/interfaces/http/router"

// OrderRoutes returns the order group and its legacy "pedidos" alias
func (h *OrderPrintHandler) OrderRoutes() []*router.DomainGroup {
	orders := router.NewDomainGroup("order", "/order")
	orders.POST("/print", h.Submit)
	orders.GET("/download", h.Download)
	orders.HEAD("/download", h.Download)

	return []*router.DomainGroup{orders, orders.Alias("pedidos", "/pedidos")}
}
