package smarthome

import (
	"errors"
	"testing"

	"github.com/nerrad567/gray-assist/internal/entity"
)

func lightEntity(attrs map[string]any) *entity.Entity {
	if attrs == nil {
		attrs = map[string]any{}
	}
	return &entity.Entity{
		ID:         "light.kitchen",
		Domain:     "light",
		State:      "on",
		Attributes: attrs,
	}
}

func TestBrightnessScaling(t *testing.T) {
	// 178 of 255 is the canonical 70 percent case.
	if got := brightnessToPercent(178); got != 70 {
		t.Errorf("brightnessToPercent(178) = %d, want 70", got)
	}
	if got := brightnessToPercent(0); got != 0 {
		t.Errorf("brightnessToPercent(0) = %d, want 0", got)
	}
	if got := brightnessToPercent(255); got != 100 {
		t.Errorf("brightnessToPercent(255) = %d, want 100", got)
	}
	if got := brightnessToPercent(999); got != 100 {
		t.Errorf("brightnessToPercent(999) = %d, want 100 (clamped)", got)
	}

	// Round trip must land within one raw step.
	for _, raw := range []int{0, 1, 77, 128, 178, 254, 255} {
		back := percentToBrightness(float64(brightnessToPercent(float64(raw))))
		if diff := back - raw; diff < -1 || diff > 1 {
			t.Errorf("round trip %d -> %d, want within ±1", raw, back)
		}
	}
}

func TestColorTemperatureConversion(t *testing.T) {
	if got := miredToKelvin(250); got != 4000 {
		t.Errorf("miredToKelvin(250) = %d, want 4000", got)
	}
	if got := kelvinToMired(4000); got != 250 {
		t.Errorf("kelvinToMired(4000) = %d, want 250", got)
	}
	if got := miredToKelvin(0); got != 0 {
		t.Errorf("miredToKelvin(0) = %d, want 0", got)
	}
}

func TestLightQuery(t *testing.T) {
	ent := lightEntity(map[string]any{
		"brightness": float64(178),
		"color_temp": float64(250),
		"rgb_color":  []any{float64(255), float64(0), float64(255)},
	})

	state, err := QueryTraits(ent)
	if err != nil {
		t.Fatalf("QueryTraits() error = %v", err)
	}

	if state["online"] != true {
		t.Error("online should be true")
	}
	if state["on"] != true {
		t.Error("on should be true for state \"on\"")
	}
	if state["brightness"] != 70 {
		t.Errorf("brightness = %v, want 70", state["brightness"])
	}

	color, ok := state["color"].(map[string]any)
	if !ok {
		t.Fatalf("color missing from state: %v", state)
	}
	if color["temperature"] != 4000 {
		t.Errorf("color.temperature = %v, want 4000", color["temperature"])
	}
	if color["spectrumRGB"] != 0xFF00FF {
		t.Errorf("color.spectrumRGB = %v, want %d", color["spectrumRGB"], 0xFF00FF)
	}
}

func TestLightQueryWithoutOptionalAttributes(t *testing.T) {
	ent := lightEntity(nil)
	ent.State = "off"

	state, err := QueryTraits(ent)
	if err != nil {
		t.Fatalf("QueryTraits() error = %v", err)
	}
	if state["on"] != false {
		t.Error("on should be false for state \"off\"")
	}
	if _, ok := state["brightness"]; ok {
		t.Error("brightness should be absent without the attribute")
	}
	if _, ok := state["color"]; ok {
		t.Error("color should be absent without colour attributes")
	}
}

func TestLightTraitsDependOnAttributes(t *testing.T) {
	plain := lightEntity(nil)
	m, _ := MappingFor("light")
	traits := m.Traits(plain)
	if hasTrait(traits, TraitColorTemperature) || hasTrait(traits, TraitColorSpectrum) {
		t.Errorf("plain light traits = %v, want no colour traits", traits)
	}

	colour := lightEntity(map[string]any{
		"color_temp": float64(250),
		"rgb_color":  []any{float64(1), float64(2), float64(3)},
	})
	traits = m.Traits(colour)
	if !hasTrait(traits, TraitColorTemperature) || !hasTrait(traits, TraitColorSpectrum) {
		t.Errorf("colour light traits = %v, want both colour traits", traits)
	}
}

func TestApplyCommandOnOff(t *testing.T) {
	ent := lightEntity(nil)

	action, err := ApplyCommand(ent, Execution{
		Command: CommandOnOff,
		Params:  map[string]any{"on": false},
	})
	if err != nil {
		t.Fatalf("ApplyCommand() error = %v", err)
	}
	if action.Service != "turn_off" {
		t.Errorf("service = %q, want turn_off", action.Service)
	}

	action, err = ApplyCommand(ent, Execution{
		Command: CommandOnOff,
		Params:  map[string]any{"on": true},
	})
	if err != nil {
		t.Fatalf("ApplyCommand() error = %v", err)
	}
	if action.Service != "turn_on" {
		t.Errorf("service = %q, want turn_on", action.Service)
	}

	_, err = ApplyCommand(ent, Execution{Command: CommandOnOff})
	if !errors.Is(err, ErrValueOutOfRange) {
		t.Errorf("missing on param error = %v, want ErrValueOutOfRange", err)
	}
}

func TestApplyCommandBrightness(t *testing.T) {
	ent := lightEntity(nil)

	action, err := ApplyCommand(ent, Execution{
		Command: CommandBrightness,
		Params:  map[string]any{"brightness": float64(70)},
	})
	if err != nil {
		t.Fatalf("ApplyCommand() error = %v", err)
	}
	if action.Service != "turn_on" {
		t.Errorf("service = %q, want turn_on", action.Service)
	}
	raw, ok := action.Data["brightness"].(int)
	if !ok {
		t.Fatalf("brightness data = %v", action.Data["brightness"])
	}
	if raw < 177 || raw > 179 {
		t.Errorf("raw brightness = %d, want 178 ±1", raw)
	}

	for _, bad := range []any{float64(-1), float64(101), "bright"} {
		_, err := ApplyCommand(ent, Execution{
			Command: CommandBrightness,
			Params:  map[string]any{"brightness": bad},
		})
		if !errors.Is(err, ErrValueOutOfRange) {
			t.Errorf("brightness %v error = %v, want ErrValueOutOfRange", bad, err)
		}
	}
}

func TestApplyCommandColor(t *testing.T) {
	ent := lightEntity(map[string]any{
		"color_temp": float64(250),
		"rgb_color":  []any{float64(0), float64(0), float64(0)},
	})

	action, err := ApplyCommand(ent, Execution{
		Command: CommandColor,
		Params: map[string]any{
			"color": map[string]any{"temperature": float64(4000)},
		},
	})
	if err != nil {
		t.Fatalf("ApplyCommand() error = %v", err)
	}
	if action.Data["color_temp"] != 250 {
		t.Errorf("color_temp = %v, want 250", action.Data["color_temp"])
	}

	action, err = ApplyCommand(ent, Execution{
		Command: CommandColor,
		Params: map[string]any{
			"color": map[string]any{"spectrumRGB": float64(0xFF00FF)},
		},
	})
	if err != nil {
		t.Fatalf("ApplyCommand() error = %v", err)
	}
	rgb, ok := action.Data["rgb_color"].([]any)
	if !ok || len(rgb) != 3 {
		t.Fatalf("rgb_color = %v", action.Data["rgb_color"])
	}
	if rgb[0] != 255 || rgb[1] != 0 || rgb[2] != 255 {
		t.Errorf("rgb_color = %v, want [255 0 255]", rgb)
	}

	_, err = ApplyCommand(ent, Execution{
		Command: CommandColor,
		Params:  map[string]any{"color": map[string]any{}},
	})
	if !errors.Is(err, ErrValueOutOfRange) {
		t.Errorf("empty color error = %v, want ErrValueOutOfRange", err)
	}
}

func TestApplyCommandRejectsUnsupported(t *testing.T) {
	sw := &entity.Entity{ID: "switch.ac", Domain: "switch", State: "off"}

	_, err := ApplyCommand(sw, Execution{
		Command: CommandBrightness,
		Params:  map[string]any{"brightness": float64(50)},
	})
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("brightness on switch error = %v, want ErrNotSupported", err)
	}

	// Colour on a light without colour attributes is equally unsupported.
	_, err = ApplyCommand(lightEntity(nil), Execution{
		Command: CommandColor,
		Params: map[string]any{
			"color": map[string]any{"temperature": float64(4000)},
		},
	})
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("colour on plain light error = %v, want ErrNotSupported", err)
	}

	_, err = ApplyCommand(sw, Execution{Command: "action.devices.commands.Dock"})
	if !errors.Is(err, ErrNotSupported) {
		t.Errorf("unknown command error = %v, want ErrNotSupported", err)
	}
}

func TestSceneCommands(t *testing.T) {
	scene := &entity.Entity{ID: "scene.movie", Domain: "scene", State: "scening"}

	action, err := ApplyCommand(scene, Execution{Command: CommandActivateScene})
	if err != nil {
		t.Fatalf("ApplyCommand() error = %v", err)
	}
	if action.Service != "turn_on" {
		t.Errorf("activate service = %q, want turn_on", action.Service)
	}

	action, err = ApplyCommand(scene, Execution{
		Command: CommandActivateScene,
		Params:  map[string]any{"deactivate": true},
	})
	if err != nil {
		t.Fatalf("ApplyCommand() error = %v", err)
	}
	if action.Service != "turn_off" {
		t.Errorf("deactivate service = %q, want turn_off", action.Service)
	}

	state, err := QueryTraits(scene)
	if err != nil {
		t.Fatalf("QueryTraits() error = %v", err)
	}
	if state["online"] != true {
		t.Error("scene query should report online")
	}
}

func TestClimateSetpoint(t *testing.T) {
	hvac := &entity.Entity{
		ID:     "climate.hallway",
		Domain: "climate",
		State:  "heat",
		Attributes: map[string]any{
			"temperature":         float64(20.5),
			"current_temperature": float64(19.2),
			"min_temp":            float64(10),
			"max_temp":            float64(28),
		},
	}

	state, err := QueryTraits(hvac)
	if err != nil {
		t.Fatalf("QueryTraits() error = %v", err)
	}
	if state["thermostatMode"] != "heat" {
		t.Errorf("thermostatMode = %v, want heat", state["thermostatMode"])
	}
	if state["thermostatTemperatureSetpoint"] != 20.5 {
		t.Errorf("setpoint = %v, want 20.5", state["thermostatTemperatureSetpoint"])
	}
	if state["thermostatTemperatureAmbient"] != 19.2 {
		t.Errorf("ambient = %v, want 19.2", state["thermostatTemperatureAmbient"])
	}

	action, err := ApplyCommand(hvac, Execution{
		Command: CommandSetTemperature,
		Params:  map[string]any{"thermostatTemperatureSetpoint": float64(22)},
	})
	if err != nil {
		t.Fatalf("ApplyCommand() error = %v", err)
	}
	if action.Service != "set_temperature" {
		t.Errorf("service = %q, want set_temperature", action.Service)
	}
	if action.Data["temperature"] != float64(22) {
		t.Errorf("temperature = %v, want 22", action.Data["temperature"])
	}

	// Outside the entity's declared bounds.
	_, err = ApplyCommand(hvac, Execution{
		Command: CommandSetTemperature,
		Params:  map[string]any{"thermostatTemperatureSetpoint": float64(30)},
	})
	if !errors.Is(err, ErrValueOutOfRange) {
		t.Errorf("over-max setpoint error = %v, want ErrValueOutOfRange", err)
	}
}

func TestQueryTraitsUnknownDomain(t *testing.T) {
	sun := &entity.Entity{ID: "sun.sun", Domain: "sun", State: "above_horizon"}
	if _, err := QueryTraits(sun); !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("QueryTraits(sun) error = %v, want ErrNotFound", err)
	}
}
