// Package order holds the sales order document received for printing.
// An Order is transient: it is decoded per request, rendered once and discarded.
package order

import (
	"github.com/shopspring/decimal"
)

// Order is the document submitted for printing
type Order struct {
	ID             int64               `json:"id" validate:"present"`
	NumberOrder    *int64              `json:"number_order" validate:"present"`
	Type           *DocumentType       `json:"type"`
	BillingDate    Date                `json:"billing_date"`
	Status         *Status             `json:"status"`
	Pickup         *bool               `json:"pickup"`
	Note           *string             `json:"note"`
	InternalNotes  *string             `json:"internal_notes"`
	NfeID          *int64              `json:"nfe_id"`
	NfceID         *int64              `json:"nfce_id"`
	ExpirationDate Date                `json:"expiration_date"`
	CfopCode       *string             `json:"cfop_code"`
	LastUpdate     Date                `json:"last_update"`
	HashID         HashID              `json:"hash_id"`
	Items          []Item              `json:"items"`
	Holding        Tenant              `json:"holding"`
	Enterprise     Tenant              `json:"enterprise"`
	ShippingMode   Descriptor          `json:"shipping_mode"`
	FreightMode    Descriptor          `json:"freight_modality"`
	PaymentMethod  Descriptor          `json:"payment_method"`
	SalesChannel   Descriptor          `json:"sales_channel"`
	Client         Client              `json:"client"`
	Carrier        Carrier             `json:"carrier"`
	Seller         Person              `json:"seller"`
	User           User                `json:"user"`
	Values         Totals              `json:"values"`
}

// Tenant identifies a holding or enterprise. ClientID is the tenant key used
// to place the rendered file on disk.
type Tenant struct {
	ID       *int64  `json:"id"`
	ClientID *string `json:"client_id" validate:"present"`
}

// Descriptor is an id/description lookup value (shipping mode, payment method...)
type Descriptor struct {
	ID          *int64  `json:"id"`
	Description *string `json:"description"`
}

// Client is the buyer
type Client struct {
	ID            *int64  `json:"id"`
	Code          *int64  `json:"code"`
	Name          *string `json:"name"`
	Document      *string `json:"document" validate:"present"`
	Address       *string `json:"address"`
	AddressID     *int64  `json:"address_id"`
	FinalConsumer *bool   `json:"final_consumer"`
	Taxpayer      *bool   `json:"taxpayer"`
}

// Carrier is the freight company and the shipment weights
type Carrier struct {
	ID               *int64              `json:"id"`
	Name             *string             `json:"name"`
	Document         *string             `json:"document"`
	GrossWeightTotal decimal.NullDecimal `json:"gross_weight_total"`
	NetWeightTotal   decimal.NullDecimal `json:"net_weight_total"`
	VolumeTotal      decimal.NullDecimal `json:"volume_total"`
	VolumeUnit       *string             `json:"volume_unit"`
}

// Person is a named party with a document (seller)
type Person struct {
	ID       *int64  `json:"id"`
	Name     *string `json:"name"`
	Document *string `json:"document"`
}

// User is the operator who submitted the order upstream
type User struct {
	ID    *int64  `json:"id"`
	Email *string `json:"email"`
	Name  *string `json:"name"`
}

// Totals are the computed order aggregates
type Totals struct {
	DiscountTotal     decimal.NullDecimal `json:"discount_total"`
	StTotal           decimal.NullDecimal `json:"st_total"`
	ShippingTotal     decimal.NullDecimal `json:"shipping_total"`
	InsuranceTotal    decimal.NullDecimal `json:"insurance_total"`
	OtherTotal        decimal.NullDecimal `json:"other_total"`
	IpiTotal          decimal.NullDecimal `json:"ipi_total"`
	FcpTotal          decimal.NullDecimal `json:"fcp_total"`
	IcmsTotal         decimal.NullDecimal `json:"icms_total"`
	PisTotal          decimal.NullDecimal `json:"pis_total"`
	CofinsTotal       decimal.NullDecimal `json:"cofins_total"`
	SurchargeTotal    decimal.NullDecimal `json:"surchage_total"`
	ComissionDiscount decimal.NullDecimal `json:"comission_discount"`
	FcpStTotal        decimal.NullDecimal `json:"fcp_st_total"`
	SubtotalValue     decimal.NullDecimal `json:"subtotal_value"`
	Total             decimal.NullDecimal `json:"total"`
}

// Item is one order line. Kit lines own their components in KitItems.
type Item struct {
	ID                      int64               `json:"id"`
	ItemID                  *int64              `json:"item_id"`
	Name                    *string             `json:"name"`
	Quantity                decimal.NullDecimal `json:"quantity"`
	UnitMeasure             *string             `json:"unit_measure"`
	Price                   decimal.NullDecimal `json:"price"`
	Note                    *string             `json:"note"`
	Comission               decimal.NullDecimal `json:"comission"`
	InsuranceValue          decimal.NullDecimal `json:"insurance_value"`
	DiscountValue           decimal.NullDecimal `json:"discount_value"`
	ShippingValue           decimal.NullDecimal `json:"shipping_value"`
	OtherValue              decimal.NullDecimal `json:"other_value"`
	Subtotal                decimal.NullDecimal `json:"subtotal"`
	Kit                     *bool               `json:"kit"`
	ParentSalesOrderItemID  *int64              `json:"parent_sales_order_item_id"`
	KitItems                []Item              `json:"kit_items"`
	OrderID                 *int64              `json:"order_id"`
	PurchaseOrderNumber     *string             `json:"purchase_order_number"`
	PurchaseOrderItemNumber *string             `json:"purchase_order_item_number"`

	ManualTaxEntry        *bool               `json:"manual_tax_entry"`
	CfopCode              *string             `json:"cfop_code"`
	NcmCode               *string             `json:"ncm_code"`
	TaxBaseReductionRate  decimal.NullDecimal `json:"tax_base_reduction_percentenge"`
	TaxMvaRate            decimal.NullDecimal `json:"tax_mva_percentage"`
	DefermentRate         decimal.NullDecimal `json:"deferment_percentage"`
	IcmsTaxBase           decimal.NullDecimal `json:"icms_tax_base"`
	IcmsCst               *string             `json:"icms_cst"`
	IcmsTaxRate           decimal.NullDecimal `json:"icms_tax_rate"`
	IcmsValue             decimal.NullDecimal `json:"icms_value"`
	IcmsStValue           decimal.NullDecimal `json:"icms_st_value"`
	IcmsStTaxBase         decimal.NullDecimal `json:"icms_st_tax_base"`
	IpiCst                *string             `json:"ipi_cst"`
	IpiTaxRate            decimal.NullDecimal `json:"ipi_tax_rate"`
	IpiTaxBase            decimal.NullDecimal `json:"ipi_tax_base"`
	IpiValue              decimal.NullDecimal `json:"ipi_value"`
	PisCst                *string             `json:"pis_cst"`
	PisTaxRate            decimal.NullDecimal `json:"pis_tax_rate"`
	PisTaxBase            decimal.NullDecimal `json:"pis_tax_base"`
	PisValue              decimal.NullDecimal `json:"pis_value"`
	CofinsCst             *string             `json:"cofins_cst"`
	CofinsTaxRate         decimal.NullDecimal `json:"cofins_tax_rate"`
	CofinsTaxBase         decimal.NullDecimal `json:"cofins_tax_base"`
	CofinsValue           decimal.NullDecimal `json:"cofins_value"`
	FcpTaxRate            decimal.NullDecimal `json:"fcp_tax_rate"`
	FcpTaxBase            decimal.NullDecimal `json:"fcp_tax_base"`
	FcpValue              decimal.NullDecimal `json:"fcp_value"`
	FcpStValue            decimal.NullDecimal `json:"fcp_st_value"`
}

// IsKit reports whether the line is a kit with components
func (i Item) IsKit() bool {
	return (i.Kit != nil && *i.Kit) || len(i.KitItems) > 0
}

// HoldingKey returns the holding tenant key, or "" when absent
func (o *Order) HoldingKey() string {
	return deref(o.Holding.ClientID)
}

// EnterpriseKey returns the enterprise tenant key, or "" when absent
func (o *Order) EnterpriseKey() string {
	return deref(o.Enterprise.ClientID)
}

// Number returns the order number and whether it is set
func (o *Order) Number() (int64, bool) {
	if o.NumberOrder == nil {
		return 0, false
	}
	return *o.NumberOrder, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
