package agents

import (
	"encoding/json"

	"github.com/agentplane/agentplane/pkg/query"
	"github.com/agentplane/agentplane/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "agents", "a").
	Project("id", "ID").
	Project("name", "Name").
	Project("description", "Description").
	Project("agent_type", "Type").
	Project("status", "Status").
	Project("version", "Version").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

// find_all and the index-style finders return newest first.
var defaultSort = query.SortField{Field: "CreatedAt", Descending: true}

// scanRoot scans an agents root row. Dependent collections are loaded and
// attached by the assembly logic in the repository.
func scanRoot(s repository.Scanner) (Agent, error) {
	var a Agent
	err := s.Scan(
		&a.ID,
		&a.Name,
		&a.Description,
		&a.Type,
		&a.Status,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

func scanCapability(s repository.Scanner) (Capability, error) {
	var (
		c      Capability
		params []byte
	)
	if err := s.Scan(&c.Name, &c.Description, &c.Version, &params); err != nil {
		return c, err
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &c.Parameters); err != nil {
			return c, err
		}
	}
	if c.Parameters == nil {
		c.Parameters = map[string]string{}
	}
	return c, nil
}

type metadataRow struct {
	Key   string
	Value string
}

func scanMetadata(s repository.Scanner) (metadataRow, error) {
	var m metadataRow
	err := s.Scan(&m.Key, &m.Value)
	return m, err
}

func scanConfiguration(s repository.Scanner) (Configuration, error) {
	var (
		cfg                       Configuration
		model, execution, security []byte
	)
	if err := s.Scan(&model, &execution, &security); err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(model, &cfg.Model); err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(execution, &cfg.Execution); err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(security, &cfg.Security); err != nil {
		return cfg, err
	}
	return cfg, nil
}
