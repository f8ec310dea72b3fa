package learning

import (
	"github.com/agentplane/agentplane/internal/platform"
)

// Domain errors for learning session operations. Each wraps a platform error
// kind so callers can classify failures with errors.Is.
var (
	ErrNotFound          = platform.NotFound("learning session")
	ErrAgentNotFound     = platform.NotFound("agent")
	ErrInvalidRequest    = platform.Validation("invalid learning session request")
	ErrIllegalTransition = platform.Validation("illegal session transition")
	ErrSnapshotTooLarge  = platform.Validation("model snapshot exceeds size limit")
	ErrTooManyRecords    = platform.Validation("training data exceeds record limit")
	ErrConflict          = platform.Conflict("learning session constraint violation")
)
