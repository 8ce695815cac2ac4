package hass

import (
	"context"
	"fmt"
)

// climatePresetTemplate maps work state codes on the state topic to Home
// Assistant preset names. Auto (3) is surfaced as comfort so the entity
// always shows a valid preset.
const climatePresetTemplate = `{{ {'0': 'away', '1': 'comfort', '2': 'eco', '3': 'comfort'}.get(value, 'comfort') }}`

// ClimatePlatform exposes each configured heating circuit as a thermostat.
//
// The comfort setpoint register doubles as the target temperature; presets
// switch the circuit's work state between away, comfort and eco.
type ClimatePlatform struct {
	base
}

// NewClimatePlatform creates the climate platform for one entry.
func NewClimatePlatform(p Params) *ClimatePlatform {
	return &ClimatePlatform{base: newBase(p)}
}

func (c *ClimatePlatform) Name() string { return "climate" }

// Setup announces one climate entity per configured circuit whose
// temperature register answered the availability scan.
func (c *ClimatePlatform) Setup(_ context.Context) error {
	for _, circuit := range c.Circuits {
		def := climateDef(circuit)
		if !c.isAvailable(def.CurrentSlug) {
			continue
		}

		objectID := fmt.Sprintf("circuit%d", circuit)
		doc := climateConfig{
			Name:                    fmt.Sprintf("Circuit %d", circuit),
			UniqueID:                c.uniqueID(objectID),
			AvailabilityTopic:       c.availabilityTopic(),
			CurrentTemperatureTopic: c.stateTopic(def.CurrentSlug),
			TemperatureCommandTopic: c.commandTopic(def.ComfortSlug),
			TemperatureStateTopic:   c.stateTopic(def.ComfortSlug),
			PresetModeCommandTopic:  c.commandTopic(def.StateSlug),
			PresetModeStateTopic:    c.stateTopic(def.StateSlug),
			PresetModeValueTemplate: climatePresetTemplate,
			PresetModes:             []string{"away", "comfort", "eco"},
			Modes:                   []string{"heat", "auto"},
			MinTemp:                 10,
			MaxTemp:                 35,
			TempStep:                0.5,
			TemperatureUnit:         "C",
			Device:                  c.Device,
		}
		if err := c.announce("climate", objectID, doc); err != nil {
			return err
		}

		if err := c.subscribeTargetTemp(def); err != nil {
			return err
		}
		if err := c.subscribePreset(def); err != nil {
			return err
		}
	}
	return nil
}

// subscribeTargetTemp routes target temperature commands to the circuit's
// comfort setpoint register.
func (c *ClimatePlatform) subscribeTargetTemp(def ClimateDef) error {
	slug := def.ComfortSlug
	return c.subscribeCommand(slug, func(_ string, payload []byte) error {
		value, err := parseCommandValue(payload)
		if err != nil {
			return err
		}
		return c.Coordinator.SetValue(context.Background(), slug, value)
	})
}

// subscribePreset routes preset commands to the circuit's work state
// register.
func (c *ClimatePlatform) subscribePreset(def ClimateDef) error {
	slug := def.StateSlug
	return c.subscribeCommand(slug, func(_ string, payload []byte) error {
		state, ok := presetToState[string(payload)]
		if !ok {
			return fmt.Errorf("unknown preset %q for circuit %d", payload, def.Circuit)
		}
		return c.Coordinator.SetValue(context.Background(), slug, state)
	})
}

func (c *ClimatePlatform) Teardown(_ context.Context) error {
	c.teardown()
	return nil
}
