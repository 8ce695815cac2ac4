package hass

// MQTT discovery document structures, one per component type.
//
// Field names follow Home Assistant's MQTT discovery schema; optional
// fields carry omitempty so absent values never appear in the published
// JSON.

// Device groups all of one entry's entities under a single device in the
// Home Assistant registry.
type Device struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

// sensorConfig is the discovery document for a sensor entity.
type sensorConfig struct {
	Name              string `json:"name"`
	UniqueID          string `json:"unique_id"`
	StateTopic        string `json:"state_topic"`
	AvailabilityTopic string `json:"availability_topic"`
	UnitOfMeasurement string `json:"unit_of_measurement,omitempty"`
	DeviceClass       string `json:"device_class,omitempty"`
	StateClass        string `json:"state_class,omitempty"`
	Icon              string `json:"icon,omitempty"`
	Device            Device `json:"device"`
}

// climateConfig is the discovery document for a climate entity.
type climateConfig struct {
	Name                    string   `json:"name"`
	UniqueID                string   `json:"unique_id"`
	AvailabilityTopic       string   `json:"availability_topic"`
	CurrentTemperatureTopic string   `json:"current_temperature_topic"`
	TemperatureCommandTopic string   `json:"temperature_command_topic"`
	TemperatureStateTopic   string   `json:"temperature_state_topic"`
	PresetModeCommandTopic  string   `json:"preset_mode_command_topic"`
	PresetModeStateTopic    string   `json:"preset_mode_state_topic"`
	PresetModeValueTemplate string   `json:"preset_mode_value_template,omitempty"`
	PresetModes             []string `json:"preset_modes"`
	Modes                   []string `json:"modes"`
	MinTemp                 float64  `json:"min_temp"`
	MaxTemp                 float64  `json:"max_temp"`
	TempStep                float64  `json:"temp_step"`
	TemperatureUnit         string   `json:"temperature_unit"`
	Device                  Device   `json:"device"`
}

// numberConfig is the discovery document for a number entity.
type numberConfig struct {
	Name              string  `json:"name"`
	UniqueID          string  `json:"unique_id"`
	StateTopic        string  `json:"state_topic"`
	CommandTopic      string  `json:"command_topic"`
	AvailabilityTopic string  `json:"availability_topic"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	Step              float64 `json:"step"`
	UnitOfMeasurement string  `json:"unit_of_measurement,omitempty"`
	Icon              string  `json:"icon,omitempty"`
	Device            Device  `json:"device"`
}

// waterHeaterConfig is the discovery document for a water_heater entity.
type waterHeaterConfig struct {
	Name                    string   `json:"name"`
	UniqueID                string   `json:"unique_id"`
	AvailabilityTopic       string   `json:"availability_topic"`
	CurrentTemperatureTopic string   `json:"current_temperature_topic"`
	TemperatureCommandTopic string   `json:"temperature_command_topic"`
	TemperatureStateTopic   string   `json:"temperature_state_topic"`
	ModeCommandTopic        string   `json:"mode_command_topic"`
	ModeStateTopic          string   `json:"mode_state_topic"`
	ModeStateTemplate       string   `json:"mode_state_template,omitempty"`
	Modes                   []string `json:"modes"`
	MinTemp                 float64  `json:"min_temp"`
	MaxTemp                 float64  `json:"max_temp"`
	Precision               float64  `json:"precision"`
	TemperatureUnit         string   `json:"temperature_unit"`
	Device                  Device   `json:"device"`
}

// switchConfig is the discovery document for a switch entity.
type switchConfig struct {
	Name              string `json:"name"`
	UniqueID          string `json:"unique_id"`
	StateTopic        string `json:"state_topic"`
	CommandTopic      string `json:"command_topic"`
	AvailabilityTopic string `json:"availability_topic"`
	PayloadOn         string `json:"payload_on"`
	PayloadOff        string `json:"payload_off"`
	StateOn           string `json:"state_on"`
	StateOff          string `json:"state_off"`
	Icon              string `json:"icon,omitempty"`
	Device            Device `json:"device"`
}

// selectConfig is the discovery document for a select entity.
type selectConfig struct {
	Name              string   `json:"name"`
	UniqueID          string   `json:"unique_id"`
	StateTopic        string   `json:"state_topic"`
	CommandTopic      string   `json:"command_topic"`
	AvailabilityTopic string   `json:"availability_topic"`
	Options           []string `json:"options"`
	ValueTemplate     string   `json:"value_template,omitempty"`
	Icon              string   `json:"icon,omitempty"`
	Device            Device   `json:"device"`
}
