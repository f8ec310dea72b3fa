// Package plugins provides the plugin registry: installed extensions
// addressed by slug, with enable/disable state and declared dependencies.
package plugins

import (
	"time"
)

// Plugin is an installed extension. The ID is a caller-chosen slug, unique
// across the registry.
type Plugin struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	Description  string    `json:"description"`
	Enabled      bool      `json:"enabled"`
	Dependencies []string  `json:"dependencies"`
	InstalledAt  time.Time `json:"installed_at"`
}

// RegisterPluginRequest contains the data required to register a plugin.
// The install timestamp and initial enabled state are assigned by the
// domain service.
type RegisterPluginRequest struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	Dependencies []string `json:"dependencies"`
}
