// Package dashboards holds the developer-authored warehouse queries behind
// each registered dashboard. Queries are fixed strings keyed by slug; end
// user input never reaches the statement text.
package dashboards

import (
	"fmt"
	"sort"

	"github.com/masterdash/masterdash/internal/access"
)

// builtin lists the dashboards shipped with the portal. Every entry is
// validated when the registry is built, so an unsafe query definition fails
// the process at startup rather than at request time.
var builtin = map[string]access.Query{
	"ventas": {
		Base: `SELECT fecha, sucursal, region, SUM(monto) AS total_ventas, COUNT(*) AS cantidad
FROM vw_ventas`,
		GroupBy: "fecha, sucursal, region",
		OrderBy: "fecha DESC",
	},
	"consolidaciones": {
		Base: `SELECT fecha, usuario, nombre_completo, centro_costos, sucursal
FROM vw_consolidaciones`,
		OrderBy: "fecha DESC",
	},
	"uso-crm": {
		Base: `SELECT fecha, usuario, nombre, apellido, sucursal, region, acciones
FROM vw_uso_crm`,
		OrderBy: "fecha DESC",
		Limit:   5000,
	},
}

// Registry resolves dashboard slugs to their warehouse queries.
type Registry struct {
	queries map[string]access.Query
}

// NewRegistry builds the registry from the builtin query set, validating
// every definition against the composition invariant.
func NewRegistry() (*Registry, error) {
	r := &Registry{queries: make(map[string]access.Query, len(builtin))}
	for slug, query := range builtin {
		if err := r.Register(slug, query); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds or replaces a dashboard query after validating it.
func (r *Registry) Register(slug string, query access.Query) error {
	if slug == "" {
		return fmt.Errorf("dashboards: slug is required")
	}
	if err := query.Validate(); err != nil {
		return fmt.Errorf("dashboards: %q: %w", slug, err)
	}
	r.queries[slug] = query
	return nil
}

// Lookup returns the query registered for the slug.
func (r *Registry) Lookup(slug string) (access.Query, bool) {
	query, ok := r.queries[slug]
	return query, ok
}

// Slugs lists registered dashboard slugs in sorted order.
func (r *Registry) Slugs() []string {
	slugs := make([]string, 0, len(r.queries))
	for slug := range r.queries {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
