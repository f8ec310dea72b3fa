package messages

import (
	"github.com/agentplane/agentplane/internal/platform"
)

// Domain errors for messaging operations. Each wraps a platform error kind
// so callers can classify failures with errors.Is.
var (
	ErrNotFound       = platform.NotFound("message")
	ErrAgentNotFound  = platform.NotFound("agent")
	ErrInvalidRequest = platform.Validation("invalid message request")
	ErrConflict       = platform.Conflict("message constraint violation")
)
