package printing

import (
	"strconv"
	"time"

	"github.com/erp/orderprint/internal/domain/order"
)

// OrderView is the data handed to the order template
type OrderView struct {
	Order       *order.Order
	Title       string
	Number      string
	Status      string
	Rows        []order.Row
	HasKits     bool
	GeneratedAt time.Time
}

// NewOrderView prepares an order for display: kit trees are flattened in
// display order and labels are resolved.
func NewOrderView(o *order.Order, now time.Time) *OrderView {
	view := &OrderView{
		Order:       o,
		Title:       order.DocumentTypeOrder.DisplayName(),
		Rows:        order.Flatten(o.Items),
		GeneratedAt: now,
	}
	if o.Type != nil && *o.Type != "" {
		view.Title = o.Type.DisplayName()
	}
	if n, ok := o.Number(); ok {
		view.Number = strconv.FormatInt(n, 10)
	}
	if o.Status != nil {
		view.Status = o.Status.String()
	}
	for _, row := range view.Rows {
		if row.Depth > 1 {
			view.HasKits = true
			break
		}
	}
	return view
}
