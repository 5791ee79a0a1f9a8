package smarthome

import (
	"testing"

	"github.com/nerrad567/gray-assist/internal/entity"
)

func boolPtr(b bool) *bool { return &b }

func TestExposed(t *testing.T) {
	cfg := ExposureConfig{
		ExposedDomains: []string{"light", "switch"},
		Overrides: map[string]EntityOverride{
			"light.cellar":    {Expose: boolPtr(false)},
			"script.cleaning": {Expose: boolPtr(true)},
		},
	}

	tests := []struct {
		name string
		ent  *entity.Entity
		want bool
	}{
		{
			"exposed domain default",
			&entity.Entity{ID: "light.kitchen", Domain: "light"},
			true,
		},
		{
			"unexposed domain default",
			&entity.Entity{ID: "script.cleanup", Domain: "script"},
			false,
		},
		{
			"hidden attribute wins over domain",
			&entity.Entity{ID: "light.closet", Domain: "light",
				Attributes: map[string]any{"hidden": true}},
			false,
		},
		{
			"expose attribute wins over hidden",
			&entity.Entity{ID: "light.closet", Domain: "light",
				Attributes: map[string]any{"hidden": true, "google_assistant": true}},
			true,
		},
		{
			"expose attribute opts out",
			&entity.Entity{ID: "light.kitchen", Domain: "light",
				Attributes: map[string]any{"google_assistant": false}},
			false,
		},
		{
			"config override opts out",
			&entity.Entity{ID: "light.cellar", Domain: "light"},
			false,
		},
		{
			"config override opts in",
			&entity.Entity{ID: "script.cleaning", Domain: "script"},
			true,
		},
		{
			"attribute beats config override",
			&entity.Entity{ID: "light.cellar", Domain: "light",
				Attributes: map[string]any{"google_assistant": true}},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Exposed(tt.ent, cfg); got != tt.want {
				t.Errorf("Exposed(%s) = %v, want %v", tt.ent.ID, got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	cfg := ExposureConfig{
		Overrides: map[string]EntityOverride{
			"light.hall": {Name: "Hallway"},
		},
	}

	withAttr := &entity.Entity{
		ID:     "light.hall",
		Domain: "light",
		Attributes: map[string]any{
			"friendly_name":         "Hall Light",
			"google_assistant_name": "Roof Lights",
		},
	}
	if got := displayName(withAttr, cfg); got != "Roof Lights" {
		t.Errorf("displayName = %q, want attribute override", got)
	}

	withConfig := &entity.Entity{
		ID:         "light.hall",
		Domain:     "light",
		Attributes: map[string]any{"friendly_name": "Hall Light"},
	}
	if got := displayName(withConfig, cfg); got != "Hallway" {
		t.Errorf("displayName = %q, want config override", got)
	}

	plain := &entity.Entity{
		ID:         "light.other",
		Domain:     "light",
		Attributes: map[string]any{"friendly_name": "Other Light"},
	}
	if got := displayName(plain, cfg); got != "Other Light" {
		t.Errorf("displayName = %q, want friendly name", got)
	}

	bare := &entity.Entity{ID: "light.bare", Domain: "light"}
	if got := displayName(bare, cfg); got != "light.bare" {
		t.Errorf("displayName = %q, want entity ID fallback", got)
	}
}

func TestAliases(t *testing.T) {
	cfg := ExposureConfig{
		Overrides: map[string]EntityOverride{
			"light.hall": {Aliases: []string{"corridor light", "top light"}},
		},
	}

	ent := &entity.Entity{
		ID:     "light.hall",
		Domain: "light",
		Attributes: map[string]any{
			"aliases": []any{"top light", "landing light", ""},
		},
	}

	got := aliases(ent, cfg)
	want := []string{"top light", "landing light", "corridor light"}
	if len(got) != len(want) {
		t.Fatalf("aliases = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("aliases[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got := aliases(&entity.Entity{ID: "light.x", Domain: "light"}, cfg); got != nil {
		t.Errorf("aliases with none defined = %v, want nil", got)
	}
}
