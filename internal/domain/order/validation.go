package order

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/erp/orderprint/internal/domain/shared"
	"github.com/go-playground/validator/v10"
)

// requiredFields lists the routing fields in the order they are reported.
// Only the first missing one is returned.
var requiredFields = []string{
	"id",
	"client.document",
	"holding.client_id",
	"enterprise.client_id",
	"number_order",
}

var requiredMessages = map[string]string{
	"id":                   "ID do pedido é obrigatório",
	"client.document":      "Documento do cliente é obrigatório",
	"holding.client_id":    "Identificador da holding é obrigatório",
	"enterprise.client_id": "Identificador da empresa é obrigatório",
	"number_order":         "Número do pedido é obrigatório",
}

// Validator checks that an Order carries what is needed to route and name its file.
// It does not check numeric ranges, enum membership or cross-field consistency.
type Validator struct {
	validate    *validator.Validate
	maxKitDepth int
}

// NewValidator creates a Validator. maxKitDepth <= 0 falls back to DefaultMaxKitDepth.
func NewValidator(maxKitDepth int) *Validator {
	if maxKitDepth <= 0 {
		maxKitDepth = DefaultMaxKitDepth
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	// Registered to run on nil pointers too so absence and blankness share one rule.
	_ = v.RegisterValidation("present", isPresent, true)

	return &Validator{validate: v, maxKitDepth: maxKitDepth}
}

// Validate returns nil or a *shared.DomainError naming the first offending field
func (v *Validator) Validate(o *Order) error {
	if o == nil {
		return shared.NewFieldError(shared.CodeValidationRequired, "body", "Dados do pedido inválidos")
	}

	if err := v.validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return shared.NewFieldError(shared.CodeInvalidInput, "body", err.Error())
		}
		missing := make(map[string]bool, len(verrs))
		for _, fe := range verrs {
			missing[fieldPath(fe.Namespace())] = true
		}
		for _, field := range requiredFields {
			if missing[field] {
				return shared.NewFieldError(shared.CodeValidationRequired, field, requiredMessages[field])
			}
		}
		// A tag outside the routing set failed; report the first one as is.
		fe := verrs[0]
		return shared.NewFieldError(shared.CodeValidationRequired, fieldPath(fe.Namespace()), "campo obrigatório ausente")
	}

	if path, tooDeep := firstTooDeep(o.Items, v.maxKitDepth); tooDeep {
		return shared.NewFieldError(shared.CodeValidationRange, path,
			fmt.Sprintf("kit excede a profundidade máxima de %d níveis", v.maxKitDepth))
	}

	return nil
}

// fieldPath strips the root struct name from a validator namespace:
// "Order.holding.client_id" becomes "holding.client_id".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

// isPresent mirrors a JavaScript truthiness check: nil, zero numbers and
// blank strings are all absent.
func isPresent(fl validator.FieldLevel) bool {
	field := fl.Field()
	for field.Kind() == reflect.Ptr || field.Kind() == reflect.Interface {
		if field.IsNil() {
			return false
		}
		field = field.Elem()
	}

	switch field.Kind() {
	case reflect.String:
		return strings.TrimSpace(field.String()) != ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return field.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return field.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return field.Float() != 0
	case reflect.Bool:
		return field.Bool()
	case reflect.Invalid:
		return false
	default:
		return !field.IsZero()
	}
}
