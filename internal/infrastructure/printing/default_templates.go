package printing

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

const defaultTemplateName = "order.html"

//go:embed templates/order.html
var defaultOrderTemplate string

// LoadTemplateOption returns an engine option for the template at path, or
// no option when path is empty and the embedded template should be used.
func LoadTemplateOption(path string) ([]TemplateEngineOption, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read order template %s: %w", path, err)
	}
	return []TemplateEngineOption{WithTemplateSource(filepath.Base(path), string(content))}, nil
}
