package memory

import (
	"context"
	"sort"

	"github.com/flexprice/invoicedesk/internal/config"
	"github.com/flexprice/invoicedesk/internal/domain/template"
	ierr "github.com/flexprice/invoicedesk/internal/errors"
	"github.com/samber/lo"
)

// TemplateCatalog is a read-only template.Catalog loaded from configuration
type TemplateCatalog struct {
	items map[string]*template.Descriptor
}

func NewTemplateCatalog(cfg *config.Configuration) *TemplateCatalog {
	items := make(map[string]*template.Descriptor, len(cfg.Templates.Catalog))
	for _, t := range cfg.Templates.Catalog {
		items[t.ID] = &template.Descriptor{ID: t.ID, Name: t.Name, Tier: t.Tier}
	}
	return &TemplateCatalog{items: items}
}

func (c *TemplateCatalog) Get(_ context.Context, id string) (*template.Descriptor, error) {
	d, ok := c.items[id]
	if !ok {
		return nil, ierr.NewError("template not found").
			WithHintf("Template %s does not exist", id).
			WithReportableDetails(map[string]any{
				"template_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}
	out := *d
	return &out, nil
}

func (c *TemplateCatalog) List(_ context.Context) ([]*template.Descriptor, error) {
	ids := lo.Keys(c.items)
	sort.Strings(ids)
	return lo.Map(ids, func(id string, _ int) *template.Descriptor {
		out := *c.items[id]
		return &out
	}), nil
}
