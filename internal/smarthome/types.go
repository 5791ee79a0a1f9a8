package smarthome

import "encoding/json"

// Intents accepted on the fulfillment endpoint.
const (
	IntentSync    = "action.devices.SYNC"
	IntentQuery   = "action.devices.QUERY"
	IntentExecute = "action.devices.EXECUTE"
)

// Device types from the assistant vocabulary.
const (
	TypeLight      = "action.devices.types.LIGHT"
	TypeSwitch     = "action.devices.types.SWITCH"
	TypeScene      = "action.devices.types.SCENE"
	TypeThermostat = "action.devices.types.THERMOSTAT"
)

// Traits from the assistant vocabulary.
const (
	TraitOnOff              = "action.devices.traits.OnOff"
	TraitBrightness         = "action.devices.traits.Brightness"
	TraitColorSpectrum      = "action.devices.traits.ColorSpectrum"
	TraitColorTemperature   = "action.devices.traits.ColorTemperature"
	TraitScene              = "action.devices.traits.Scene"
	TraitTemperatureSetting = "action.devices.traits.TemperatureSetting"
)

// Commands from the assistant vocabulary.
const (
	CommandOnOff          = "action.devices.commands.OnOff"
	CommandBrightness     = "action.devices.commands.BrightnessAbsolute"
	CommandColor          = "action.devices.commands.ColorAbsolute"
	CommandActivateScene  = "action.devices.commands.ActivateScene"
	CommandSetTemperature = "action.devices.commands.ThermostatTemperatureSetpoint"
)

// Per-device error codes returned inside QUERY/EXECUTE payloads.
const (
	CodeDeviceNotFound  = "deviceNotFound"
	CodeDeviceOffline   = "deviceOffline"
	CodeNotSupported    = "notSupported"
	CodeValueOutOfRange = "valueOutOfRange"
	CodeProtocolError   = "protocolError"
)

// Per-device statuses in EXECUTE results.
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

// Request is the inbound envelope. RequestID is opaque and echoed verbatim.
type Request struct {
	RequestID string  `json:"requestId"`
	Inputs    []Input `json:"inputs"`
}

// Input is a single intent within a request. Payload shape depends on the
// intent, so it is decoded lazily by the handler.
type Input struct {
	Intent  string          `json:"intent"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the outbound envelope.
type Response struct {
	RequestID string `json:"requestId"`
	Payload   any    `json:"payload"`
}

// SyncPayload is the SYNC response payload.
type SyncPayload struct {
	AgentUserID string   `json:"agentUserId,omitempty"`
	Devices     []Device `json:"devices"`
}

// Device is the SYNC-time descriptor of one exposed entity.
type Device struct {
	ID              string     `json:"id"`
	Type            string     `json:"type"`
	Traits          []string   `json:"traits"`
	Name            DeviceName `json:"name"`
	WillReportState bool       `json:"willReportState"`
}

// DeviceName holds display names for a device.
type DeviceName struct {
	Name      string   `json:"name"`
	Nicknames []string `json:"nicknames,omitempty"`
}

// QueryRequest is the QUERY intent payload.
type QueryRequest struct {
	Devices []DeviceRef `json:"devices"`
}

// DeviceRef identifies a target device in QUERY/EXECUTE payloads.
type DeviceRef struct {
	ID string `json:"id"`
}

// TraitState is a trait-field → value map for one device.
// Every entry includes an "online" boolean.
type TraitState map[string]any

// QueryPayload is the QUERY response payload.
type QueryPayload struct {
	Devices map[string]TraitState `json:"devices"`
}

// ExecuteRequest is the EXECUTE intent payload.
type ExecuteRequest struct {
	Commands []CommandGroup `json:"commands"`
}

// CommandGroup applies a shared execution list to a list of devices.
// Each device's outcome is independent.
type CommandGroup struct {
	Devices   []DeviceRef `json:"devices"`
	Execution []Execution `json:"execution"`
}

// Execution is one command with its parameters.
type Execution struct {
	Command string         `json:"command"`
	Params  map[string]any `json:"params,omitempty"`
}

// ExecutePayload is the EXECUTE response payload.
type ExecutePayload struct {
	Commands []CommandResult `json:"commands"`
}

// CommandResult is the outcome for one device (or group of devices that
// share an outcome). Failures are data, not errors.
type CommandResult struct {
	IDs       []string   `json:"ids"`
	Status    string     `json:"status"`
	States    TraitState `json:"states,omitempty"`
	ErrorCode string     `json:"errorCode,omitempty"`
}

// ErrorPayload is the envelope payload for request-level protocol errors.
type ErrorPayload struct {
	ErrorCode string `json:"errorCode"`
}
