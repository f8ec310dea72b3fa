package tasks

import (
	"github.com/agentplane/agentplane/internal/platform"
)

// Domain errors for task operations. Each wraps a platform error kind so
// callers can classify failures with errors.Is.
var (
	ErrNotFound          = platform.NotFound("task")
	ErrAgentNotFound     = platform.NotFound("agent")
	ErrInvalidRequest    = platform.Validation("invalid task request")
	ErrIllegalTransition = platform.Validation("illegal task transition")
	ErrConflict          = platform.Conflict("task constraint violation")
)
