package agents

import (
	"net/url"

	"github.com/agentplane/agentplane/pkg/query"
)

// Filters contains optional filtering criteria for agent queries.
type Filters struct {
	Name   *string
	Type   *AgentType
	Status *AgentStatus
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if n := values.Get("name"); n != "" {
		f.Name = &n
	}
	if t := values.Get("type"); t != "" {
		at := AgentType(t)
		f.Type = &at
	}
	if s := values.Get("status"); s != "" {
		st := AgentStatus(s)
		f.Status = &st
	}
	return f
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	b.WhereContains("Name", f.Name)
	if f.Type != nil {
		b.WhereEquals("Type", *f.Type)
	}
	if f.Status != nil {
		b.WhereEquals("Status", *f.Status)
	}
	return b
}
