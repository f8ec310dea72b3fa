// Package agents provides the agent aggregate: the domain model, the
// repository contract and its Postgres persistence engine, the management
// domain service, and the use-case orchestrator that sequences them.
package agents

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AgentType categorizes an agent's primary function. Values outside the
// predefined set are treated as custom tags.
type AgentType string

// Predefined agent types.
const (
	TypeConversational AgentType = "conversational"
	TypeTaskExecutor   AgentType = "task_executor"
	TypeLearning       AgentType = "learning"
	TypeMonitoring     AgentType = "monitoring"
	TypeOrchestrator   AgentType = "orchestrator"
)

// Known reports whether the type is one of the predefined values.
func (t AgentType) Known() bool {
	switch t {
	case TypeConversational, TypeTaskExecutor, TypeLearning, TypeMonitoring, TypeOrchestrator:
		return true
	default:
		return false
	}
}

// Validate checks that the type is non-empty. Custom tags are allowed.
func (t AgentType) Validate() error {
	if t == "" {
		return fmt.Errorf("agent type required")
	}
	return nil
}

// AgentStatus represents an agent's operational state. Statuses are
// independently settable; there is no transition machine for agents.
type AgentStatus string

// Agent status values.
const (
	StatusActive      AgentStatus = "active"
	StatusInactive    AgentStatus = "inactive"
	StatusTraining    AgentStatus = "training"
	StatusError       AgentStatus = "error"
	StatusMaintenance AgentStatus = "maintenance"
)

// Statuses returns every agent status, in statistics reporting order.
func Statuses() []AgentStatus {
	return []AgentStatus{StatusActive, StatusInactive, StatusTraining, StatusError, StatusMaintenance}
}

// Validate checks if the status is a valid agent status.
func (s AgentStatus) Validate() error {
	switch s {
	case StatusActive, StatusInactive, StatusTraining, StatusError, StatusMaintenance:
		return nil
	default:
		return fmt.Errorf("invalid agent status: %s", s)
	}
}

// Capability describes a named, versioned function an agent can perform.
// Capability names are unique within one agent.
type Capability struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Version     string            `json:"version"`
	Parameters  map[string]string `json:"parameters"`
}

// ModelConfiguration holds the model parameters for an agent.
type ModelConfiguration struct {
	Name          string             `json:"name"`
	Version       string             `json:"version"`
	Parameters    map[string]float64 `json:"parameters"`
	ContextWindow int                `json:"context_window"`
}

// ExecutionConfiguration holds an agent's execution limits.
type ExecutionConfiguration struct {
	MaxConcurrentTasks int `json:"max_concurrent_tasks"`
	TimeoutSeconds     int `json:"timeout_seconds"`
	RetryAttempts      int `json:"retry_attempts"`
	MemoryLimitMB      int `json:"memory_limit_mb"`
}

// SecurityConfiguration holds an agent's security policy.
type SecurityConfiguration struct {
	APIKeyRequired    bool     `json:"api_key_required"`
	RateLimit         *int     `json:"rate_limit,omitempty"`
	AllowedIPs        []string `json:"allowed_ips"`
	EncryptionEnabled bool     `json:"encryption_enabled"`
}

// Configuration is the nested configuration record stored 1:1 with an agent.
type Configuration struct {
	Model     ModelConfiguration     `json:"model"`
	Execution ExecutionConfiguration `json:"execution"`
	Security  SecurityConfiguration  `json:"security"`
}

// Agent is the aggregate root. Its capabilities, configuration, and metadata
// are persisted as dependent rows addressed solely by the agent's id.
// Version is a monotonic counter checked and incremented on every update.
type Agent struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Type          AgentType         `json:"type"`
	Status        AgentStatus       `json:"status"`
	Capabilities  []Capability      `json:"capabilities"`
	Configuration Configuration     `json:"configuration"`
	Metadata      map[string]string `json:"metadata"`
	Version       int64             `json:"version"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Capability returns the named capability and whether it exists.
func (a *Agent) Capability(name string) (Capability, bool) {
	for _, c := range a.Capabilities {
		if c.Name == name {
			return c, true
		}
	}
	return Capability{}, false
}

// SetCapability adds the capability or replaces an existing one with the
// same name.
func (a *Agent) SetCapability(cap Capability) {
	for i, c := range a.Capabilities {
		if c.Name == cap.Name {
			a.Capabilities[i] = cap
			return
		}
	}
	a.Capabilities = append(a.Capabilities, cap)
}

// DropCapability removes the named capability, reporting whether it existed.
func (a *Agent) DropCapability(name string) bool {
	for i, c := range a.Capabilities {
		if c.Name == name {
			a.Capabilities = append(a.Capabilities[:i], a.Capabilities[i+1:]...)
			return true
		}
	}
	return false
}

// CreateAgentRequest contains the data required to create a new agent.
// Identity, initial status, version, and timestamps are assigned by the
// domain service.
type CreateAgentRequest struct {
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Type          AgentType         `json:"type"`
	Capabilities  []Capability      `json:"capabilities"`
	Configuration Configuration     `json:"configuration"`
	Metadata      map[string]string `json:"metadata"`
}

// Statistics is the fixed-shape per-status count record for agents.
type Statistics struct {
	TotalAgents       int `json:"total_agents"`
	ActiveAgents      int `json:"active_agents"`
	InactiveAgents    int `json:"inactive_agents"`
	TrainingAgents    int `json:"training_agents"`
	ErrorAgents       int `json:"error_agents"`
	MaintenanceAgents int `json:"maintenance_agents"`
}
