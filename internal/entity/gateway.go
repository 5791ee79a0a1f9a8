package entity

import "context"

// Action is a service invocation against an entity's domain, e.g.
// {Service: "turn_on", Data: {"brightness": 178}}. Data values use
// registry-native units.
type Action struct {
	Service string         `json:"service"`
	Data    map[string]any `json:"data,omitempty"`
}

// Gateway is the bridge's only access path to the external entity registry.
//
// Implementations may block on I/O; every method honours the context deadline
// and returns a definite success or failure. Reads are snapshots — there is no
// guarantee the entity still has the returned state by the time the caller
// acts on it.
type Gateway interface {
	// Get returns a snapshot of one entity, or ErrNotFound.
	Get(ctx context.Context, id string) (*Entity, error)

	// ListAll returns snapshots of every entity in the registry.
	ListAll(ctx context.Context) ([]Entity, error)

	// Invoke executes an action against an entity and waits for the registry
	// to acknowledge it. Failures are ErrNotFound, ErrUnsupported, or
	// ErrUnavailable (which covers timeouts and downstream faults).
	Invoke(ctx context.Context, id string, action Action) error
}
