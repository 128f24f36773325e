package printing

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/erp/orderprint/internal/domain/order"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TemplateEngine renders orders to HTML. The template is parsed once at
// construction and executed into a fresh buffer per call, so a single engine
// is safe for concurrent use.
type TemplateEngine struct {
	funcMap template.FuncMap
	tmpl    *template.Template
	name    string
	source  string
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithTemplateSource replaces the embedded order template
func WithTemplateSource(name, content string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.name = name
		e.source = content
	}
}

// NewTemplateEngine parses the order template. A parse error is returned
// here so a broken template fails startup instead of every render.
func NewTemplateEngine(opts ...TemplateEngineOption) (*TemplateEngine, error) {
	e := &TemplateEngine{
		name:    defaultTemplateName,
		source:  defaultOrderTemplate,
		funcMap: defaultFuncMap(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if strings.TrimSpace(e.source) == "" {
		return nil, NewRenderError(ErrCodeTemplateFailed, "template content is empty", nil)
	}

	tmpl, err := template.New(e.name).Funcs(e.funcMap).Parse(e.source)
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to parse template", err)
	}
	e.tmpl = tmpl

	return e, nil
}

// RenderTemplateResult contains the rendered HTML output
type RenderTemplateResult struct {
	// HTML is the rendered HTML content
	HTML string
	// RenderDuration is how long the rendering took
	RenderDuration time.Duration
}

// RenderOrder renders the order document
func (e *TemplateEngine) RenderOrder(ctx context.Context, o *order.Order) (*RenderTemplateResult, error) {
	if o == nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "order is nil", nil)
	}
	return e.execute(ctx, NewOrderView(o, time.Now()))
}

// execute runs the parsed template with data
func (e *TemplateEngine) execute(ctx context.Context, data any) (*RenderTemplateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "operation cancelled", err)
	}

	startTime := time.Now()

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, data); err != nil {
		return nil, NewRenderError(ErrCodeTemplateFailed, "failed to execute template", err)
	}

	return &RenderTemplateResult{
		HTML:           buf.String(),
		RenderDuration: time.Since(startTime),
	}, nil
}

func defaultFuncMap() template.FuncMap {
	return template.FuncMap{
		// Money and numbers, pt-BR notation
		"formatMoney":    formatMoney,
		"formatMoneyRaw": formatMoneyRaw,
		"formatDecimal":  formatDecimal,
		"formatQuantity": formatQuantity,
		"formatPercent":  formatPercent,

		// Dates
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,

		// Strings
		"str":      str,
		"truncate": truncate,
		"upper":    strings.ToUpper,
		"title":    titleCase,
		"trim":     strings.TrimSpace,
		"document": formatDocument,
		"yesNo":    yesNo,

		// Arithmetic and comparison
		"add":  add,
		"sub":  sub,
		"mul":  mul,
		"gt":   gtFunc,
		"zero": isZero,

		// Layout
		"indent": indent,
		"seq":    seq,

		// Conditional
		"default":  defaultFunc,
		"coalesce": coalesce,

		"dict": dict,
	}
}

// formatMoney formats a value as Brazilian currency
// Example: 1234.5 -> "R$ 1.234,50"
func formatMoney(v any) string {
	return "R$ " + formatMoneyRaw(v)
}

// formatMoneyRaw formats a value with two decimals and pt-BR separators
// Example: -1234.5 -> "-1.234,50"
func formatMoneyRaw(v any) string {
	return formatDecimal(v, 2)
}

// formatDecimal formats with the given precision, "." for thousands and "," for decimals
func formatDecimal(v any, precision int) string {
	d := toDecimal(v)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	parts := strings.SplitN(d.StringFixed(int32(precision)), ".", 2)
	intPart := parts[0]

	var result strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result.WriteRune('.')
		}
		result.WriteRune(c)
	}
	if len(parts) > 1 {
		result.WriteRune(',')
		result.WriteString(parts[1])
	}

	if d.Round(int32(precision)).IsZero() {
		sign = ""
	}
	return sign + result.String()
}

// formatQuantity drops trailing zeros: 10.000 -> "10", 2.5 -> "2,5"
func formatQuantity(v any) string {
	d := toDecimal(v)
	exp := -d.Exponent()
	if exp < 0 {
		exp = 0
	}
	s := formatDecimal(d, int(exp))
	if strings.Contains(s, ",") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ",")
	}
	return s
}

// formatPercent formats a rate already expressed in percent: 18 -> "18,00%"
func formatPercent(v any) string {
	return formatDecimal(v, 2) + "%"
}

// formatDate formats as dd/mm/yyyy, empty for absent dates
func formatDate(v any) string {
	t := toTime(v)
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// formatDateTime formats as dd/mm/yyyy hh:mm
func formatDateTime(v any) string {
	t := toTime(v)
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006 15:04")
}

// formatDocument masks an 11-digit CPF or 14-digit CNPJ. Other values pass through.
func formatDocument(v any) string {
	s := str(v)
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	switch len(digits) {
	case 11:
		return fmt.Sprintf("%s.%s.%s-%s", digits[:3], digits[3:6], digits[6:9], digits[9:])
	case 14:
		return fmt.Sprintf("%s.%s.%s/%s-%s", digits[:2], digits[2:5], digits[5:8], digits[8:12], digits[12:])
	default:
		return s
	}
}

// str dereferences nullable scalars for display
func str(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case *int64:
		if val == nil {
			return ""
		}
		return fmt.Sprintf("%d", *val)
	case int64:
		return fmt.Sprintf("%d", val)
	case int:
		return fmt.Sprintf("%d", val)
	case *order.Status:
		if val == nil {
			return ""
		}
		return string(*val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

func yesNo(v any) string {
	switch val := v.(type) {
	case bool:
		if val {
			return "Sim"
		}
		return "Não"
	case *bool:
		if val == nil {
			return ""
		}
		return yesNo(*val)
	}
	return ""
}

// truncate truncates a string to max runes, appending "..."
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// titleCase converts to title case with Portuguese rules
func titleCase(s string) string {
	return cases.Title(language.BrazilianPortuguese).String(s)
}

func add(a, b any) decimal.Decimal {
	return toDecimal(a).Add(toDecimal(b))
}

func sub(a, b any) decimal.Decimal {
	return toDecimal(a).Sub(toDecimal(b))
}

func mul(a, b any) decimal.Decimal {
	return toDecimal(a).Mul(toDecimal(b))
}

func gtFunc(a, b any) bool {
	return toDecimal(a).GreaterThan(toDecimal(b))
}

// isZero is true for absent and zero values
func isZero(v any) bool {
	return toDecimal(v).IsZero()
}

// indent returns the left padding in millimeters for a kit row at depth
func indent(depth int) int {
	if depth <= 1 {
		return 0
	}
	return (depth - 1) * 4
}

// seq generates a sequence of integers from 0 to n-1
func seq(n int) []int {
	if n <= 0 {
		return []int{}
	}
	result := make([]int, n)
	for i := range n {
		result[i] = i
	}
	return result
}

func empty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case *string:
		return val == nil || strings.TrimSpace(*val) == ""
	case *int64:
		return val == nil
	case decimal.NullDecimal:
		return !val.Valid
	case order.Date:
		return !val.Valid
	case bool:
		return !val
	case *bool:
		return val == nil
	}
	return false
}

func defaultFunc(def, val any) any {
	if empty(val) {
		return def
	}
	return val
}

func coalesce(vals ...any) any {
	for _, v := range vals {
		if !empty(v) {
			return v
		}
	}
	return nil
}

// dict creates a map from key-value pairs
func dict(pairs ...any) map[string]any {
	result := make(map[string]any)
	for i := 0; i < len(pairs)-1; i += 2 {
		key, ok := pairs[i].(string)
		if ok {
			result[key] = pairs[i+1]
		}
	}
	return result
}

// toDecimal converts numeric values, nullable decimals and numeric strings
func toDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case decimal.Decimal:
		return val
	case decimal.NullDecimal:
		if !val.Valid {
			return decimal.Zero
		}
		return val.Decimal
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero
		}
		return *val
	case int:
		return decimal.NewFromInt(int64(val))
	case int32:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case *int64:
		if val == nil {
			return decimal.Zero
		}
		return decimal.NewFromInt(*val)
	case float32:
		return decimal.NewFromFloat(float64(val))
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		d, err := decimal.NewFromString(val)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// toTime converts times and order dates
func toTime(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case *time.Time:
		if val == nil {
			return time.Time{}
		}
		return *val
	case order.Date:
		if !val.Valid {
			return time.Time{}
		}
		return val.Time
	case string:
		var d order.Date
		if err := d.UnmarshalJSON([]byte(fmt.Sprintf("%q", val))); err == nil {
			return d.Time
		}
		return time.Time{}
	default:
		return time.Time{}
	}
}
