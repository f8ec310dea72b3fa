package plugins

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

type system struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewSystem creates the plugin registry use-case orchestrator.
func NewSystem(repo Repository, logger *slog.Logger) System {
	return &system{
		repo:   repo,
		logger: logger.With("usecase", "plugins"),
		now:    time.Now,
	}
}

// Register validates the request, verifies every declared dependency is
// already registered, and stores the plugin disabled.
func (s *system) Register(ctx context.Context, req RegisterPluginRequest) (*Plugin, error) {
	if req.ID == "" {
		return nil, fmt.Errorf("%w: id required", ErrInvalidRequest)
	}
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidRequest)
	}
	if req.Version == "" {
		return nil, fmt.Errorf("%w: version required", ErrInvalidRequest)
	}

	for _, dep := range req.Dependencies {
		if _, err := s.repo.FindByID(ctx, dep); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingDependency, dep)
		}
	}

	plugin := &Plugin{
		ID:           req.ID,
		Name:         req.Name,
		Version:      req.Version,
		Description:  req.Description,
		Enabled:      false,
		Dependencies: req.Dependencies,
		InstalledAt:  s.now().UTC(),
	}

	return s.repo.Create(ctx, plugin)
}

// Unregister removes the plugin unless another registered plugin depends
// on it.
func (s *system) Unregister(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}

	all, err := s.repo.FindAll(ctx)
	if err != nil {
		return err
	}
	for _, p := range all {
		if p.ID != id && slices.Contains(p.Dependencies, id) {
			return fmt.Errorf("%w: %s depends on %s", ErrInvalidRequest, p.ID, id)
		}
	}

	return s.repo.Delete(ctx, id)
}

// Get returns the plugin by slug.
func (s *system) Get(ctx context.Context, id string) (*Plugin, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns every registered plugin.
func (s *system) List(ctx context.Context) ([]*Plugin, error) {
	return s.repo.FindAll(ctx)
}

// ListEnabled returns the enabled plugins.
func (s *system) ListEnabled(ctx context.Context) ([]*Plugin, error) {
	return s.repo.FindEnabled(ctx)
}

// Enable turns the plugin on. Every dependency must be enabled first.
func (s *system) Enable(ctx context.Context, id string) (*Plugin, error) {
	plugin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, dep := range plugin.Dependencies {
		d, err := s.repo.FindByID(ctx, dep)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingDependency, dep)
		}
		if !d.Enabled {
			return nil, fmt.Errorf("%w: dependency %s is disabled", ErrInvalidRequest, dep)
		}
	}

	plugin.Enabled = true
	return s.repo.Update(ctx, plugin)
}

// Disable turns the plugin off unless an enabled plugin depends on it.
func (s *system) Disable(ctx context.Context, id string) (*Plugin, error) {
	plugin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	enabled, err := s.repo.FindEnabled(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range enabled {
		if p.ID != id && slices.Contains(p.Dependencies, id) {
			return nil, fmt.Errorf("%w: enabled plugin %s depends on %s", ErrInvalidRequest, p.ID, id)
		}
	}

	plugin.Enabled = false
	return s.repo.Update(ctx, plugin)
}

// Count returns the total number of registered plugins.
func (s *system) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
