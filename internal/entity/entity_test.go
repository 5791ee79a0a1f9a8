package entity

import (
	"testing"
	"time"
)

func TestSplitID(t *testing.T) {
	tests := []struct {
		id         string
		wantDomain string
		wantObject string
	}{
		{"light.kitchen", "light", "kitchen"},
		{"climate.hvac_main", "climate", "hvac_main"},
		{"nodot", "nodot", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		domain, object := SplitID(tt.id)
		if domain != tt.wantDomain || object != tt.wantObject {
			t.Errorf("SplitID(%q) = (%q, %q), want (%q, %q)",
				tt.id, domain, object, tt.wantDomain, tt.wantObject)
		}
	}
}

func TestFriendlyName(t *testing.T) {
	named := &Entity{
		ID:         "light.kitchen",
		Attributes: map[string]any{AttrFriendlyName: "Kitchen Light"},
	}
	if got := named.FriendlyName(); got != "Kitchen Light" {
		t.Errorf("FriendlyName() = %q", got)
	}

	bare := &Entity{ID: "light.kitchen"}
	if got := bare.FriendlyName(); got != "light.kitchen" {
		t.Errorf("FriendlyName() fallback = %q, want the ID", got)
	}
}

func TestAttributeAccessors(t *testing.T) {
	e := &Entity{
		ID: "light.kitchen",
		Attributes: map[string]any{
			"name":       "Kitchen",
			"hidden":     true,
			"brightness": float64(178),
			"count":      42,
			"aliases":    []any{"top light", 7, "roof light"},
		},
	}

	if v, ok := e.StringAttr("name"); !ok || v != "Kitchen" {
		t.Errorf("StringAttr(name) = %q, %v", v, ok)
	}
	if _, ok := e.StringAttr("hidden"); ok {
		t.Error("StringAttr on a bool should report not ok")
	}

	if v, ok := e.BoolAttr("hidden"); !ok || !v {
		t.Errorf("BoolAttr(hidden) = %v, %v", v, ok)
	}

	if v, ok := e.FloatAttr("brightness"); !ok || v != 178 {
		t.Errorf("FloatAttr(brightness) = %v, %v", v, ok)
	}
	if v, ok := e.FloatAttr("count"); !ok || v != 42 {
		t.Errorf("FloatAttr(count) = %v, %v (int should convert)", v, ok)
	}
	if _, ok := e.FloatAttr("name"); ok {
		t.Error("FloatAttr on a string should report not ok")
	}

	got := e.StringsAttr("aliases")
	if len(got) != 2 || got[0] != "top light" || got[1] != "roof light" {
		t.Errorf("StringsAttr(aliases) = %v, want non-strings skipped", got)
	}
	if got := e.StringsAttr("missing"); got != nil {
		t.Errorf("StringsAttr(missing) = %v, want nil", got)
	}
}

func TestDeepCopyIsolation(t *testing.T) {
	e := &Entity{
		ID:          "light.kitchen",
		Domain:      "light",
		State:       "on",
		LastUpdated: time.Now(),
		Attributes: map[string]any{
			"brightness": float64(178),
			"color":      map[string]any{"temp": float64(250)},
			"aliases":    []any{"a", "b"},
		},
	}

	cpy := e.DeepCopy()
	cpy.State = "off"
	cpy.Attributes["brightness"] = float64(1)
	cpy.Attributes["color"].(map[string]any)["temp"] = float64(999)
	cpy.Attributes["aliases"].([]any)[0] = "z"

	if e.State != "on" {
		t.Error("copy mutation changed the original state")
	}
	if e.Attributes["brightness"] != float64(178) {
		t.Error("copy mutation changed a top-level attribute")
	}
	if e.Attributes["color"].(map[string]any)["temp"] != float64(250) {
		t.Error("copy mutation changed a nested map")
	}
	if e.Attributes["aliases"].([]any)[0] != "a" {
		t.Error("copy mutation changed a nested slice")
	}
}

func TestDeepCopyNil(t *testing.T) {
	var e *Entity
	if e.DeepCopy() != nil {
		t.Error("DeepCopy of nil entity should be nil")
	}

	bare := &Entity{ID: "light.kitchen"}
	cpy := bare.DeepCopy()
	if cpy.Attributes != nil {
		t.Error("nil attributes should stay nil")
	}
}
