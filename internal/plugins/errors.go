package plugins

import (
	"github.com/agentplane/agentplane/internal/platform"
)

// Domain errors for plugin registry operations. Each wraps a platform error
// kind so callers can classify failures with errors.Is.
var (
	ErrNotFound          = platform.NotFound("plugin")
	ErrInvalidRequest    = platform.Validation("invalid plugin request")
	ErrDuplicateID       = platform.Conflict("plugin id already registered")
	ErrMissingDependency = platform.Validation("plugin dependency not registered")
)
