package smarthome

import (
	"github.com/nerrad567/gray-assist/internal/entity"
)

// Assistant-specific attribute keys read from registry entities.
const (
	// AttrExpose overrides the exposure decision for one entity.
	AttrExpose = "google_assistant"

	// AttrNameOverride replaces the entity's friendly name in SYNC.
	AttrNameOverride = "google_assistant_name"

	// AttrAliases lists alternative spoken names for the entity.
	AttrAliases = "aliases"
)

// EntityOverride carries per-entity configuration file overrides.
// Attribute-level overrides on the entity itself take precedence.
type EntityOverride struct {
	Expose  *bool    `yaml:"expose"`
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
}

// ExposureConfig is the static half of the exposure decision.
type ExposureConfig struct {
	// ExposedDomains are entity domains exposed without an explicit
	// opt-in attribute.
	ExposedDomains []string

	// Overrides are per-entity-ID configuration overrides.
	Overrides map[string]EntityOverride
}

// domainExposed reports whether a domain is exposed by default.
func (c ExposureConfig) domainExposed(domain string) bool {
	for _, d := range c.ExposedDomains {
		if d == domain {
			return true
		}
	}
	return false
}

// Exposed decides whether an entity is visible to the assistant.
//
// The decision is computed fresh on every request so exposure can change
// live. Precedence: entity attribute override, then config override, then
// the hidden attribute, then the domain default.
func Exposed(ent *entity.Entity, cfg ExposureConfig) bool {
	if expose, ok := ent.BoolAttr(AttrExpose); ok {
		return expose
	}
	if ov, ok := cfg.Overrides[ent.ID]; ok && ov.Expose != nil {
		return *ov.Expose
	}
	if hidden, ok := ent.BoolAttr(entity.AttrHidden); ok && hidden {
		return false
	}
	return cfg.domainExposed(ent.Domain)
}

// displayName resolves a device's display name: explicit attribute override,
// config override, friendly name, then the entity ID itself.
func displayName(ent *entity.Entity, cfg ExposureConfig) string {
	if name, ok := ent.StringAttr(AttrNameOverride); ok && name != "" {
		return name
	}
	if ov, ok := cfg.Overrides[ent.ID]; ok && ov.Name != "" {
		return ov.Name
	}
	return ent.FriendlyName()
}

// aliases collects nicknames from the alias attribute and config override,
// de-duplicated with order preserved.
func aliases(ent *entity.Entity, cfg ExposureConfig) []string {
	var raw []string
	raw = append(raw, ent.StringsAttr(AttrAliases)...)
	if ov, ok := cfg.Overrides[ent.ID]; ok {
		raw = append(raw, ov.Aliases...)
	}
	if len(raw) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(raw))
	out := make([]string, 0, len(raw))
	for _, a := range raw {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}
