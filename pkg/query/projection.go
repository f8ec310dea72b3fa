// Package query provides a fluent SQL builder with automatic parameter
// numbering and a projection map that translates entity field names to
// qualified column references.
package query

import (
	"fmt"
	"strings"
)

// ProjectionMap maps entity field names to database columns for one table.
type ProjectionMap struct {
	schema string
	table  string
	alias  string
	fields []string
	cols   map[string]string
}

// NewProjectionMap creates a projection for the given schema-qualified table
// with the provided alias.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		schema: schema,
		table:  table,
		alias:  alias,
		cols:   make(map[string]string),
	}
}

// Project registers a column under an entity field name. Registration order
// determines column order in SELECT lists.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	p.fields = append(p.fields, field)
	p.cols[field] = fmt.Sprintf("%s.%s", p.alias, column)
	return p
}

// Table returns the aliased, schema-qualified table reference.
func (p *ProjectionMap) Table() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// Column returns the qualified column for a field name. Unknown fields
// return an empty string, which will fail loudly at query time.
func (p *ProjectionMap) Column(field string) string {
	return p.cols[field]
}

// Columns returns the full SELECT column list in registration order.
func (p *ProjectionMap) Columns() string {
	cols := make([]string, len(p.fields))
	for i, f := range p.fields {
		cols[i] = p.cols[f]
	}
	return strings.Join(cols, ", ")
}
