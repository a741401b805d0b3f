package render

import (
	"fmt"
	"sync"

	"github.com/mailgun/raymond/v2"

	"docgen/internal/domain"
)

// TemplateCache holds compiled handlebars templates keyed by template id and
// schema version. Entries are immutable once stored and shared read-only
// across concurrent jobs, so no lock guards the hot path.
type TemplateCache struct {
	compiled sync.Map // string -> *raymond.Template
}

// NewTemplateCache returns an empty cache.
func NewTemplateCache() *TemplateCache {
	return &TemplateCache{}
}

// Expand compiles the template on first use and renders it against data.
func (c *TemplateCache) Expand(tpl *domain.Template, data map[string]any) (string, error) {
	key := fmt.Sprintf("%d@%s", tpl.ID, tpl.SchemaVersion)

	cached, ok := c.compiled.Load(key)
	if !ok {
		parsed, err := raymond.Parse(tpl.TemplateContent)
		if err != nil {
			return "", fmt.Errorf("parse template %d: %w", tpl.ID, err)
		}
		cached, _ = c.compiled.LoadOrStore(key, parsed)
	}

	out, err := cached.(*raymond.Template).Exec(data)
	if err != nil {
		return "", fmt.Errorf("expand template %d: %w", tpl.ID, err)
	}
	return out, nil
}
