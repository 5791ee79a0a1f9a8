// Package entity defines the bridge's view of the external entity registry:
// the Entity snapshot model and the Gateway contract used to read state and
// invoke actions. The bridge never mutates an entity directly; all writes go
// through Gateway.Invoke.
package entity

import (
	"strings"
	"time"
)

// Well-known attribute keys set by the registry.
const (
	// AttrFriendlyName is the entity's human-readable name.
	AttrFriendlyName = "friendly_name"

	// AttrHidden marks an entity as hidden in the registry.
	// Hidden entities are never exposed to the assistant by default.
	AttrHidden = "hidden"
)

// Entity is a point-in-time snapshot of a registry entity.
//
// The ID has the form "domain.object_id" and is globally unique within the
// registry. State is the registry's string/enum state ("on", "off", "open",
// ...). Attributes is a heterogeneous key→value map owned by the registry.
type Entity struct {
	ID          string
	Domain      string
	State       string
	Attributes  map[string]any
	LastUpdated time.Time
}

// SplitID splits an entity ID of the form "domain.object_id".
// The object part is empty if the ID has no dot.
func SplitID(id string) (domain, object string) {
	domain, object, _ = strings.Cut(id, ".")
	return domain, object
}

// FriendlyName returns the entity's display name, falling back to its ID.
func (e *Entity) FriendlyName() string {
	if name, ok := e.StringAttr(AttrFriendlyName); ok && name != "" {
		return name
	}
	return e.ID
}

// StringAttr returns a string attribute by key.
func (e *Entity) StringAttr(key string) (string, bool) {
	v, ok := e.Attributes[key].(string)
	return v, ok
}

// BoolAttr returns a boolean attribute by key.
func (e *Entity) BoolAttr(key string) (bool, bool) {
	v, ok := e.Attributes[key].(bool)
	return v, ok
}

// FloatAttr returns a numeric attribute by key. JSON decoding yields float64
// for all numbers; int values stored directly are converted.
func (e *Entity) FloatAttr(key string) (float64, bool) {
	switch v := e.Attributes[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

// StringsAttr returns a list attribute as a string slice.
// Non-string elements are skipped.
func (e *Entity) StringsAttr(key string) []string {
	switch v := e.Attributes[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// DeepCopy returns an independent copy of the entity. The attribute map is
// cloned recursively so callers can hold snapshots without racing the source.
func (e *Entity) DeepCopy() *Entity {
	if e == nil {
		return nil
	}
	cpy := *e
	cpy.Attributes = copyMap(e.Attributes)
	return &cpy
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = copyValue(v)
	}
	return cpy
}

func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return copyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, item := range val {
			cpy[i] = copyValue(item)
		}
		return cpy
	default:
		return v
	}
}
