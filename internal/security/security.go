// Package security defines the security boundary contract consumed by the
// use-case orchestrators. Authentication, authorization, and encryption
// decisions are made behind this interface, never inside the core.
package security

import (
	"context"
	"fmt"

	"github.com/agentplane/agentplane/internal/platform"
	"github.com/google/uuid"
)

// Credentials identifies an agent attempting to authenticate.
type Credentials struct {
	AgentID uuid.UUID `json:"agent_id"`
	APIKey  string    `json:"api_key"`
}

// AuthResult is the outcome of an authentication attempt.
type AuthResult struct {
	Authenticated bool      `json:"authenticated"`
	AgentID       uuid.UUID `json:"agent_id"`
}

// Service is the security domain contract.
type Service interface {
	Authenticate(ctx context.Context, credentials Credentials) (*AuthResult, error)
	Authorize(ctx context.Context, principal, action, resource string) error
	ValidateAPIKey(ctx context.Context, apiKey string) (uuid.UUID, bool, error)
	Encrypt(ctx context.Context, data []byte) ([]byte, error)
	Decrypt(ctx context.Context, data []byte) ([]byte, error)
}

type principalKey struct{}

// AnonymousPrincipal is used when the transport layer attached no identity.
const AnonymousPrincipal = "anonymous"

// WithPrincipal attaches the authenticated principal to the context.
func WithPrincipal(ctx context.Context, principal string) context.Context {
	return context.WithValue(ctx, principalKey{}, principal)
}

// PrincipalFromContext returns the authenticated principal, or
// AnonymousPrincipal when none was attached.
func PrincipalFromContext(ctx context.Context) string {
	if p, ok := ctx.Value(principalKey{}).(string); ok && p != "" {
		return p
	}
	return AnonymousPrincipal
}

// Static is a fixture implementation with an explicit key table and deny
// list, injected at construction time. It exists for development and tests;
// production deployments substitute a real provider behind Service.
type Static struct {
	keys   map[string]uuid.UUID
	denied map[string]struct{}
}

// NewStatic creates a Static security service. keys maps API keys to agent
// ids; deniedActions lists "action:resource" pairs that Authorize rejects.
func NewStatic(keys map[string]uuid.UUID, deniedActions ...string) *Static {
	denied := make(map[string]struct{}, len(deniedActions))
	for _, a := range deniedActions {
		denied[a] = struct{}{}
	}
	if keys == nil {
		keys = map[string]uuid.UUID{}
	}
	return &Static{keys: keys, denied: denied}
}

// Authenticate validates the credentials against the key table.
func (s *Static) Authenticate(ctx context.Context, credentials Credentials) (*AuthResult, error) {
	id, ok := s.keys[credentials.APIKey]
	if !ok || id != credentials.AgentID {
		return nil, fmt.Errorf("%w: unknown credentials", platform.ErrAuthentication)
	}
	return &AuthResult{Authenticated: true, AgentID: id}, nil
}

// Authorize rejects actions present in the deny list.
func (s *Static) Authorize(ctx context.Context, principal, action, resource string) error {
	if _, deny := s.denied[action+":"+resource]; deny {
		return fmt.Errorf("%w: %s may not %s %s", platform.ErrAuthorization, principal, action, resource)
	}
	return nil
}

// ValidateAPIKey resolves an API key to its agent id.
func (s *Static) ValidateAPIKey(ctx context.Context, apiKey string) (uuid.UUID, bool, error) {
	id, ok := s.keys[apiKey]
	return id, ok, nil
}

// Encrypt is an identity transform in the fixture implementation.
func (s *Static) Encrypt(ctx context.Context, data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Decrypt is an identity transform in the fixture implementation.
func (s *Static) Decrypt(ctx context.Context, data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
