// Package artifact derives where a rendered order document lives on disk.
package artifact

import (
	"path"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/erp/orderprint/internal/domain/order"
	"github.com/erp/orderprint/internal/domain/shared"
)

// segmentPattern accepts one path segment. Separators, leading dots and
// anything outside the portable filename set are rejected, never escaped.
var segmentPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$`)

// ErrMissingTenantKeys is returned when the holding or enterprise key is absent
var ErrMissingTenantKeys = shared.NewDomainError(shared.CodeValidationRequired, "holding and enterprise keys are required")

// Identity is the composite key of a rendered document
type Identity struct {
	HoldingKey    string `json:"holding_client_id"`
	EnterpriseKey string `json:"enterprise_client_id"`
	OrderNumber   string `json:"order_number"`
}

// NewIdentity validates each segment and builds an Identity
func NewIdentity(holdingKey, enterpriseKey, orderNumber string) (Identity, error) {
	if holdingKey == "" || enterpriseKey == "" {
		return Identity{}, ErrMissingTenantKeys
	}
	if orderNumber == "" {
		return Identity{}, shared.NewRequiredError("order_number")
	}

	for _, seg := range []struct{ field, value string }{
		{"holding_client_id", holdingKey},
		{"enterprise_client_id", enterpriseKey},
		{"order_number", orderNumber},
	} {
		if !ValidSegment(seg.value) {
			return Identity{}, shared.NewFieldError(shared.CodeValidationFormat, seg.field,
				"valor inválido para compor o caminho do arquivo")
		}
	}

	return Identity{
		HoldingKey:    holdingKey,
		EnterpriseKey: enterpriseKey,
		OrderNumber:   orderNumber,
	}, nil
}

// FromOrder derives the identity of the document an order renders to
func FromOrder(o *order.Order) (Identity, error) {
	if o == nil || o.HoldingKey() == "" || o.EnterpriseKey() == "" {
		return Identity{}, ErrMissingTenantKeys
	}
	n, ok := o.Number()
	if !ok {
		return Identity{}, shared.NewRequiredError("number_order")
	}
	return NewIdentity(o.HoldingKey(), o.EnterpriseKey(), strconv.FormatInt(n, 10))
}

// ValidSegment reports whether s is safe to use as a single path segment
func ValidSegment(s string) bool {
	if s == "." || s == ".." {
		return false
	}
	return segmentPattern.MatchString(s)
}

// Key returns the canonical string form used for locking and logging
func (id Identity) Key() string {
	return path.Join(id.HoldingKey, id.EnterpriseKey, id.OrderNumber)
}

// FileName is the artifact file name
func (id Identity) FileName() string {
	return id.OrderNumber + ".pdf"
}

// Location is where an identity lives under a storage root
type Location struct {
	// Dir is the directory holding the file
	Dir string
	// File is the absolute or root-relative file path on disk
	File string
	// Relative is the slash-separated path below the storage root
	Relative string
}

// Resolver maps identities to locations under Root. It has no side effects.
type Resolver struct {
	Root string
}

// NewResolver creates a Resolver rooted at root
func NewResolver(root string) Resolver {
	return Resolver{Root: root}
}

// Resolve returns <root>/<holding>/<enterprise>/order/print/<number>.pdf
func (r Resolver) Resolve(id Identity) Location {
	rel := path.Join(id.HoldingKey, id.EnterpriseKey, "order", "print", id.FileName())
	dir := filepath.Join(r.Root, id.HoldingKey, id.EnterpriseKey, "order", "print")
	return Location{
		Dir:      dir,
		File:     filepath.Join(dir, id.FileName()),
		Relative: rel,
	}
}
