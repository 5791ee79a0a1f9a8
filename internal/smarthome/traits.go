package smarthome

import (
	"fmt"
	"math"

	"github.com/nerrad567/gray-assist/internal/entity"
)

// Registry attribute keys consumed by trait projections.
const (
	attrBrightness  = "brightness"   // 0–255
	attrColorTemp   = "color_temp"   // mireds
	attrRGBColor    = "rgb_color"    // [r, g, b]
	attrTemperature = "temperature"  // setpoint, °C
	attrCurrentTemp = "current_temperature"
	attrMinTemp     = "min_temp"
	attrMaxTemp     = "max_temp"
)

// Registry service names produced by command translation.
const (
	serviceTurnOn         = "turn_on"
	serviceTurnOff        = "turn_off"
	serviceSetTemperature = "set_temperature"
)

// Default thermostat setpoint bounds when the entity declares none.
const (
	defaultMinTemp = 7.0
	defaultMaxTemp = 35.0
)

// DomainMapping projects one entity domain onto the assistant's device
// vocabulary. Query and Command are pure: Query derives trait fields from a
// snapshot, Command translates an assistant command into a registry action.
type DomainMapping struct {
	Type    string
	Traits  func(ent *entity.Entity) []string
	Query   func(ent *entity.Entity) TraitState
	Command func(ent *entity.Entity, exec Execution) (entity.Action, error)
}

// commandTrait maps each command to the trait that must be present for the
// command to be accepted.
var commandTrait = map[string]string{
	CommandOnOff:          TraitOnOff,
	CommandBrightness:     TraitBrightness,
	CommandColor:          TraitColorSpectrum, // or ColorTemperature, checked below
	CommandActivateScene:  TraitScene,
	CommandSetTemperature: TraitTemperatureSetting,
}

// domainTable is the declarative domain → device mapping. Adding a domain
// means adding an entry here; the router and mapper stay untouched.
var domainTable = map[string]DomainMapping{
	"light": {
		Type:    TypeLight,
		Traits:  lightTraits,
		Query:   lightQuery,
		Command: lightCommand,
	},
	"switch": {
		Type:    TypeSwitch,
		Traits:  onOffTraits,
		Query:   onOffQuery,
		Command: onOffCommand,
	},
	"input_boolean": {
		Type:    TypeSwitch,
		Traits:  onOffTraits,
		Query:   onOffQuery,
		Command: onOffCommand,
	},
	"fan": {
		Type:    TypeSwitch,
		Traits:  onOffTraits,
		Query:   onOffQuery,
		Command: onOffCommand,
	},
	"scene": {
		Type:    TypeScene,
		Traits:  sceneTraits,
		Query:   sceneQuery,
		Command: sceneCommand,
	},
	"script": {
		Type:    TypeScene,
		Traits:  sceneTraits,
		Query:   sceneQuery,
		Command: sceneCommand,
	},
	"group": {
		Type:    TypeScene,
		Traits:  sceneTraits,
		Query:   sceneQuery,
		Command: sceneCommand,
	},
	"climate": {
		Type:    TypeThermostat,
		Traits:  climateTraits,
		Query:   climateQuery,
		Command: climateCommand,
	},
}

// MappingFor returns the domain mapping for an entity domain.
func MappingFor(domain string) (DomainMapping, bool) {
	m, ok := domainTable[domain]
	return m, ok
}

// QueryTraits returns the trait state for an entity, or a deviceNotFound
// error if the domain has no mapping. Missing attributes fall back to
// trait defaults and never fail the query.
func QueryTraits(ent *entity.Entity) (TraitState, error) {
	m, ok := MappingFor(ent.Domain)
	if !ok {
		return nil, entity.ErrNotFound
	}
	return m.Query(ent), nil
}

// ApplyCommand validates a command against the entity's trait set and
// translates it into a registry action. The unit conversion back to registry
// units exactly inverts the QueryTraits scaling.
func ApplyCommand(ent *entity.Entity, exec Execution) (entity.Action, error) {
	m, ok := MappingFor(ent.Domain)
	if !ok {
		return entity.Action{}, entity.ErrNotFound
	}

	required, known := commandTrait[exec.Command]
	if !known {
		return entity.Action{}, fmt.Errorf("%w: %s", ErrNotSupported, exec.Command)
	}
	traits := m.Traits(ent)
	if !hasTrait(traits, required) &&
		!(exec.Command == CommandColor && hasTrait(traits, TraitColorTemperature)) {
		return entity.Action{}, fmt.Errorf("%w: %s", ErrNotSupported, exec.Command)
	}

	return m.Command(ent, exec)
}

func hasTrait(traits []string, want string) bool {
	for _, t := range traits {
		if t == want {
			return true
		}
	}
	return false
}

// brightnessToPercent converts a raw 0–255 brightness to 0–100, rounding
// and clamping. percentToBrightness is its exact inverse within ±1.
func brightnessToPercent(raw float64) int {
	pct := int(math.Round(raw / 255.0 * 100.0))
	return clampInt(pct, 0, 100)
}

func percentToBrightness(pct float64) int {
	raw := int(math.Round(pct * 255.0 / 100.0))
	return clampInt(raw, 0, 255)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// miredToKelvin converts a colour temperature in mireds to kelvin.
func miredToKelvin(mired float64) int {
	if mired <= 0 {
		return 0
	}
	return int(math.Round(1e6 / mired))
}

func kelvinToMired(kelvin float64) int {
	if kelvin <= 0 {
		return 0
	}
	return int(math.Round(1e6 / kelvin))
}

// --- light ---

func lightTraits(ent *entity.Entity) []string {
	traits := []string{TraitOnOff, TraitBrightness}
	if _, ok := ent.FloatAttr(attrColorTemp); ok {
		traits = append(traits, TraitColorTemperature)
	}
	if ent.Attributes[attrRGBColor] != nil {
		traits = append(traits, TraitColorSpectrum)
	}
	return traits
}

func lightQuery(ent *entity.Entity) TraitState {
	state := TraitState{
		"online": true,
		"on":     ent.State == "on",
	}
	if raw, ok := ent.FloatAttr(attrBrightness); ok {
		state["brightness"] = brightnessToPercent(raw)
	}

	color := map[string]any{}
	if mired, ok := ent.FloatAttr(attrColorTemp); ok {
		color["temperature"] = miredToKelvin(mired)
	}
	if rgb := rgbAttr(ent); rgb >= 0 {
		color["spectrumRGB"] = rgb
	}
	if len(color) > 0 {
		state["color"] = color
	}
	return state
}

func lightCommand(ent *entity.Entity, exec Execution) (entity.Action, error) {
	switch exec.Command {
	case CommandOnOff:
		return onOffAction(exec)

	case CommandBrightness:
		pct, ok := numberParam(exec.Params, "brightness")
		if !ok || pct < 0 || pct > 100 {
			return entity.Action{}, fmt.Errorf("%w: brightness %v", ErrValueOutOfRange, exec.Params["brightness"])
		}
		return entity.Action{
			Service: serviceTurnOn,
			Data:    map[string]any{attrBrightness: percentToBrightness(pct)},
		}, nil

	case CommandColor:
		color, ok := exec.Params["color"].(map[string]any)
		if !ok {
			return entity.Action{}, fmt.Errorf("%w: missing color", ErrValueOutOfRange)
		}
		data := map[string]any{}
		if kelvin, ok := numberParam(color, "temperature"); ok {
			if kelvin <= 0 {
				return entity.Action{}, fmt.Errorf("%w: temperature %v", ErrValueOutOfRange, kelvin)
			}
			data[attrColorTemp] = kelvinToMired(kelvin)
		}
		if spectrum, ok := numberParam(color, "spectrumRGB"); ok {
			rgb := int(spectrum)
			if rgb < 0 || rgb > 0xFFFFFF {
				return entity.Action{}, fmt.Errorf("%w: spectrumRGB %v", ErrValueOutOfRange, rgb)
			}
			data[attrRGBColor] = []any{(rgb >> 16) & 0xFF, (rgb >> 8) & 0xFF, rgb & 0xFF}
		}
		if len(data) == 0 {
			return entity.Action{}, fmt.Errorf("%w: empty color", ErrValueOutOfRange)
		}
		return entity.Action{Service: serviceTurnOn, Data: data}, nil

	default:
		return entity.Action{}, fmt.Errorf("%w: %s", ErrNotSupported, exec.Command)
	}
}

// rgbAttr packs the rgb_color attribute into a spectrumRGB int, or -1.
func rgbAttr(ent *entity.Entity) int {
	raw, ok := ent.Attributes[attrRGBColor].([]any)
	if !ok || len(raw) != 3 {
		return -1
	}
	rgb := 0
	for _, c := range raw {
		f, ok := c.(float64)
		if !ok {
			return -1
		}
		rgb = rgb<<8 | (int(f) & 0xFF)
	}
	return rgb
}

// --- plain on/off (switch, input_boolean, fan) ---

func onOffTraits(_ *entity.Entity) []string {
	return []string{TraitOnOff}
}

func onOffQuery(ent *entity.Entity) TraitState {
	return TraitState{
		"online": true,
		"on":     ent.State == "on",
	}
}

func onOffCommand(_ *entity.Entity, exec Execution) (entity.Action, error) {
	if exec.Command != CommandOnOff {
		return entity.Action{}, fmt.Errorf("%w: %s", ErrNotSupported, exec.Command)
	}
	return onOffAction(exec)
}

func onOffAction(exec Execution) (entity.Action, error) {
	on, ok := exec.Params["on"].(bool)
	if !ok {
		return entity.Action{}, fmt.Errorf("%w: missing on", ErrValueOutOfRange)
	}
	if on {
		return entity.Action{Service: serviceTurnOn}, nil
	}
	return entity.Action{Service: serviceTurnOff}, nil
}

// --- scene-like (scene, script, group) ---

func sceneTraits(_ *entity.Entity) []string {
	return []string{TraitScene}
}

func sceneQuery(_ *entity.Entity) TraitState {
	// Scenes have no queryable state beyond availability.
	return TraitState{"online": true}
}

func sceneCommand(_ *entity.Entity, exec Execution) (entity.Action, error) {
	if exec.Command != CommandActivateScene {
		return entity.Action{}, fmt.Errorf("%w: %s", ErrNotSupported, exec.Command)
	}
	if deactivate, _ := exec.Params["deactivate"].(bool); deactivate {
		return entity.Action{Service: serviceTurnOff}, nil
	}
	return entity.Action{Service: serviceTurnOn}, nil
}

// --- climate ---

func climateTraits(_ *entity.Entity) []string {
	return []string{TraitTemperatureSetting}
}

func climateQuery(ent *entity.Entity) TraitState {
	state := TraitState{
		"online":         true,
		"thermostatMode": ent.State,
	}
	if t, ok := ent.FloatAttr(attrCurrentTemp); ok {
		state["thermostatTemperatureAmbient"] = t
	}
	if t, ok := ent.FloatAttr(attrTemperature); ok {
		state["thermostatTemperatureSetpoint"] = t
	}
	return state
}

func climateCommand(ent *entity.Entity, exec Execution) (entity.Action, error) {
	if exec.Command != CommandSetTemperature {
		return entity.Action{}, fmt.Errorf("%w: %s", ErrNotSupported, exec.Command)
	}
	setpoint, ok := numberParam(exec.Params, "thermostatTemperatureSetpoint")
	if !ok {
		return entity.Action{}, fmt.Errorf("%w: missing setpoint", ErrValueOutOfRange)
	}

	minTemp, maxTemp := defaultMinTemp, defaultMaxTemp
	if t, ok := ent.FloatAttr(attrMinTemp); ok {
		minTemp = t
	}
	if t, ok := ent.FloatAttr(attrMaxTemp); ok {
		maxTemp = t
	}
	if setpoint < minTemp || setpoint > maxTemp {
		return entity.Action{}, fmt.Errorf("%w: setpoint %v outside %v–%v", ErrValueOutOfRange, setpoint, minTemp, maxTemp)
	}

	return entity.Action{
		Service: serviceSetTemperature,
		Data:    map[string]any{attrTemperature: setpoint},
	}, nil
}

// numberParam reads a numeric parameter, accepting float64 and int forms.
func numberParam(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
