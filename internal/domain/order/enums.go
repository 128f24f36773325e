package order

// DocumentType distinguishes a confirmed order from a quote
type DocumentType string

const (
	DocumentTypeOrder  DocumentType = "order"
	DocumentTypeBudget DocumentType = "budget"
)

// IsValid checks if the DocumentType is a valid value
func (d DocumentType) IsValid() bool {
	switch d {
	case DocumentTypeOrder, DocumentTypeBudget:
		return true
	}
	return false
}

// DisplayName returns the Portuguese label printed on the document
func (d DocumentType) DisplayName() string {
	switch d {
	case DocumentTypeOrder:
		return "Pedido de Venda"
	case DocumentTypeBudget:
		return "Orçamento"
	default:
		return string(d)
	}
}

// Status is the order lifecycle state as reported upstream
type Status string

const (
	StatusDraft                 Status = "Em Digitação"
	StatusSentForApproval       Status = "Enviado para Aprovação"
	StatusBudgetApproved        Status = "Orçamento Aprovado"
	StatusBudgetRejected        Status = "Orçamento Recusado"
	StatusCancelled             Status = "Cancelado"
	StatusAwaitingOrderApproval Status = "Aguardando Aprovação do Pedido"
	StatusOrderApproved         Status = "Pedido Aprovado"
	StatusInProduction          Status = "Em Produção"
	StatusPicking               Status = "Em Separação"
	StatusInvoiced              Status = "Faturado"
)

// AllStatuses returns all known Status values
func AllStatuses() []Status {
	return []Status{
		StatusDraft, StatusSentForApproval, StatusBudgetApproved, StatusBudgetRejected,
		StatusCancelled, StatusAwaitingOrderApproval, StatusOrderApproved,
		StatusInProduction, StatusPicking, StatusInvoiced,
	}
}

// IsValid checks if the Status is a known value. Unknown values are still
// accepted by validation and printed verbatim.
func (s Status) IsValid() bool {
	for _, known := range AllStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}
