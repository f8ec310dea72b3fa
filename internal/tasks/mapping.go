package tasks

import (
	"net/url"

	"github.com/agentplane/agentplane/pkg/query"
	"github.com/agentplane/agentplane/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "tasks", "t").
	Project("id", "ID").
	Project("agent_id", "AgentID").
	Project("name", "Name").
	Project("description", "Description").
	Project("task_type", "Type").
	Project("status", "Status").
	Project("priority", "Priority").
	Project("input_data", "InputData").
	Project("output_data", "OutputData").
	Project("error_message", "ErrorMessage").
	Project("created_at", "CreatedAt").
	Project("started_at", "StartedAt").
	Project("completed_at", "CompletedAt")

var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

func scanTask(s repository.Scanner) (Task, error) {
	var t Task
	err := s.Scan(
		&t.ID,
		&t.AgentID,
		&t.Name,
		&t.Description,
		&t.Type,
		&t.Status,
		&t.Priority,
		&t.InputData,
		&t.OutputData,
		&t.ErrorMessage,
		&t.CreatedAt,
		&t.StartedAt,
		&t.CompletedAt,
	)
	return t, err
}

// Filters contains optional filtering criteria for task queries.
type Filters struct {
	AgentID  *string
	Status   *TaskStatus
	Priority *TaskPriority
	Type     *TaskType
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if v := values.Get("agent_id"); v != "" {
		f.AgentID = &v
	}
	if v := values.Get("status"); v != "" {
		s := TaskStatus(v)
		f.Status = &s
	}
	if v := values.Get("priority"); v != "" {
		p := TaskPriority(v)
		f.Priority = &p
	}
	if v := values.Get("type"); v != "" {
		t := TaskType(v)
		f.Type = &t
	}
	return f
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	if f.AgentID != nil {
		b.WhereEquals("AgentID", *f.AgentID)
	}
	if f.Status != nil {
		b.WhereEquals("Status", *f.Status)
	}
	if f.Priority != nil {
		b.WhereEquals("Priority", *f.Priority)
	}
	if f.Type != nil {
		b.WhereEquals("Type", *f.Type)
	}
	return b
}
