// Package settings provides the global settings store: platform-wide
// key/value configuration persisted as JSON documents.
package settings

import (
	"encoding/json"
	"time"

	"github.com/agentplane/agentplane/internal/platform"
)

// Domain errors for settings operations.
var (
	ErrNotFound       = platform.NotFound("setting")
	ErrInvalidRequest = platform.Validation("invalid setting request")
	ErrConflict       = platform.Conflict("setting constraint violation")
)

// Setting is one global configuration entry. Value is an opaque JSON
// document interpreted by the consuming component.
type Setting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}
