package plugins

import (
	"context"
)

// System is the plugin registry use-case contract exposed to the transport
// layer. Registration verifies declared dependencies are already present;
// unregistration refuses while other plugins depend on the target.
type System interface {
	Register(ctx context.Context, req RegisterPluginRequest) (*Plugin, error)
	Unregister(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Plugin, error)
	List(ctx context.Context) ([]*Plugin, error)
	ListEnabled(ctx context.Context) ([]*Plugin, error)
	Enable(ctx context.Context, id string) (*Plugin, error)
	Disable(ctx context.Context, id string) (*Plugin, error)
	Count(ctx context.Context) (int, error)
}
