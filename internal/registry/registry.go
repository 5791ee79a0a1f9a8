// Package registry maintains a live mirror of the home automation core's
// entity registry over MQTT and implements the entity.Gateway contract on
// top of it.
//
// The core publishes retained JSON state to <prefix>/state/<domain>/<object>
// and accepts service calls on <prefix>/command/<domain>/<object>. Because
// state topics are retained, the mirror fills itself with the current state
// of every entity right after subscribing.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/gray-assist/internal/entity"
	"github.com/nerrad567/gray-assist/internal/infrastructure/logging"
	"github.com/nerrad567/gray-assist/internal/infrastructure/mqtt"
)

// Broker is the MQTT surface the registry needs. *mqtt.Client satisfies it.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// statePayload is the JSON document the core publishes on state topics.
type statePayload struct {
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastUpdated string         `json:"last_updated,omitempty"`
}

// Registry mirrors entity state from the broker and dispatches service
// calls back to it. All methods are safe for concurrent use.
type Registry struct {
	broker Broker
	topics mqtt.Topics
	qos    byte
	logger *logging.Logger

	mu       sync.RWMutex
	entities map[string]*entity.Entity

	// waiters are closed when the entity's next state update arrives.
	waiterMu sync.Mutex
	waiters  map[string][]chan struct{}
}

// New creates a registry mirror. Call Start to begin receiving state.
func New(broker Broker, topics mqtt.Topics, qos byte, logger *logging.Logger) *Registry {
	return &Registry{
		broker:   broker,
		topics:   topics,
		qos:      qos,
		logger:   logger.With("component", "registry"),
		entities: make(map[string]*entity.Entity),
		waiters:  make(map[string][]chan struct{}),
	}
}

// Start subscribes to the state namespace. Retained messages replay the
// current state of every entity immediately after the subscription is
// acknowledged.
func (r *Registry) Start() error {
	if err := r.broker.Subscribe(r.topics.AllStates(), r.qos, r.applyState); err != nil {
		return fmt.Errorf("subscribing to entity state: %w", err)
	}
	return nil
}

// applyState ingests one state message. An empty payload clears the entity,
// matching the MQTT convention for deleting a retained topic.
func (r *Registry) applyState(topic string, payload []byte) error {
	domain, object, ok := r.topics.ParseState(topic)
	if !ok {
		return fmt.Errorf("unexpected state topic %q", topic)
	}
	id := domain + "." + object

	if len(payload) == 0 {
		r.mu.Lock()
		delete(r.entities, id)
		r.mu.Unlock()
		r.logger.Debug("entity removed", "entity_id", id)
		return nil
	}

	var msg statePayload
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decoding state for %s: %w", id, err)
	}

	updated := time.Now().UTC()
	if msg.LastUpdated != "" {
		if ts, err := time.Parse(time.RFC3339, msg.LastUpdated); err == nil {
			updated = ts
		}
	}

	r.mu.Lock()
	r.entities[id] = &entity.Entity{
		ID:          id,
		Domain:      domain,
		State:       msg.State,
		Attributes:  msg.Attributes,
		LastUpdated: updated,
	}
	r.mu.Unlock()

	r.notifyWaiters(id)
	return nil
}

// Get returns a snapshot of one entity.
func (r *Registry) Get(_ context.Context, id string) (*entity.Entity, error) {
	r.mu.RLock()
	e, ok := r.entities[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrNotFound, id)
	}
	return e.DeepCopy(), nil
}

// ListAll returns snapshots of every mirrored entity, ordered by ID so
// callers see a stable listing.
func (r *Registry) ListAll(_ context.Context) ([]entity.Entity, error) {
	r.mu.RLock()
	out := make([]entity.Entity, 0, len(r.entities))
	for _, e := range r.entities {
		out = append(out, *e.DeepCopy())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Invoke publishes a service call for the entity and waits until the core
// publishes a fresh state for it, or the context expires. A command that
// produces no state update within the deadline reports ErrUnavailable; the
// device may still have acted on it.
func (r *Registry) Invoke(ctx context.Context, id string, action entity.Action) error {
	r.mu.RLock()
	_, ok := r.entities[id]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", entity.ErrNotFound, id)
	}

	payload, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("encoding action for %s: %w", id, err)
	}

	// Register the waiter before publishing so a fast acknowledgment
	// cannot slip past us.
	ack := r.addWaiter(id)
	defer r.removeWaiter(id, ack)

	domain, object := entity.SplitID(id)
	if err := r.broker.Publish(r.topics.Command(domain, object), payload, r.qos, false); err != nil {
		return fmt.Errorf("%w: %w", entity.ErrUnavailable, err)
	}

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: no state update for %s: %w", entity.ErrUnavailable, id, ctx.Err())
	}
}

func (r *Registry) addWaiter(id string) chan struct{} {
	ch := make(chan struct{})
	r.waiterMu.Lock()
	r.waiters[id] = append(r.waiters[id], ch)
	r.waiterMu.Unlock()
	return ch
}

func (r *Registry) removeWaiter(id string, ch chan struct{}) {
	r.waiterMu.Lock()
	defer r.waiterMu.Unlock()
	list := r.waiters[id]
	for i, c := range list {
		if c == ch {
			r.waiters[id] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(r.waiters[id]) == 0 {
		delete(r.waiters, id)
	}
}

// notifyWaiters wakes every Invoke blocked on this entity's next update.
func (r *Registry) notifyWaiters(id string) {
	r.waiterMu.Lock()
	list := r.waiters[id]
	delete(r.waiters, id)
	r.waiterMu.Unlock()

	for _, ch := range list {
		close(ch)
	}
}

// Len returns the number of mirrored entities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}
