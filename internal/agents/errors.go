package agents

import (
	"fmt"

	"github.com/agentplane/agentplane/internal/platform"
)

// Domain errors for agent operations. Each wraps a platform error kind so
// callers can classify failures with errors.Is.
var (
	ErrNotFound             = platform.NotFound("agent")
	ErrDuplicateName        = platform.Conflict("agent name already exists")
	ErrStaleVersion         = platform.Conflict("agent was modified concurrently")
	ErrInvalidConfiguration = platform.Validation("invalid agent configuration")
	ErrInvalidRequest       = platform.Validation("invalid agent request")
	ErrCapabilityNotFound   = platform.NotFound("capability")

	// ErrCorrupted indicates an agent root row exists but a required
	// dependent row (the configuration) is missing. This is a storage
	// fault, never a not-found.
	ErrCorrupted = fmt.Errorf("%w: agent aggregate incomplete", platform.ErrStorage)
)
