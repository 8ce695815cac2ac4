package hass

import (
	"context"
	"fmt"
)

// waterHeaterModeTemplate maps DHW user mode codes on the state topic to
// Home Assistant water heater operation modes.
const waterHeaterModeTemplate = `{{ {'0': 'off', '1': 'performance', '2': 'eco'}.get(value, 'off') }}`

// Fallback temperature bounds when the controller's own min/max registers
// have not been read yet.
const (
	defaultDHWMin = 20.0
	defaultDHWMax = 70.0
)

// WaterHeaterPlatform exposes the domestic hot water circuit.
//
// Target temperature writes go to the DHW setpoint register; operation
// mode maps onto the DHW user mode register (0=off, 1=manual, 2=auto).
// The entity's temperature bounds come from the controller's own min/max
// setpoint registers when they answered the availability scan.
type WaterHeaterPlatform struct {
	base
}

// NewWaterHeaterPlatform creates the water heater platform for one entry.
func NewWaterHeaterPlatform(p Params) *WaterHeaterPlatform {
	return &WaterHeaterPlatform{base: newBase(p)}
}

func (w *WaterHeaterPlatform) Name() string { return "water_heater" }

// Setup announces the DHW entity if its temperature register is available.
func (w *WaterHeaterPlatform) Setup(_ context.Context) error {
	def := waterHeaterDef
	if !w.isAvailable(def.CurrentSlug) {
		return nil
	}

	minTemp, maxTemp := w.temperatureBounds(def)

	doc := waterHeaterConfig{
		Name:                    def.Name,
		UniqueID:                w.uniqueID("dhw"),
		AvailabilityTopic:       w.availabilityTopic(),
		CurrentTemperatureTopic: w.stateTopic(def.CurrentSlug),
		TemperatureCommandTopic: w.commandTopic(def.TargetSlug),
		TemperatureStateTopic:   w.stateTopic(def.TargetSlug),
		ModeCommandTopic:        w.commandTopic(def.ModeSlug),
		ModeStateTopic:          w.stateTopic(def.ModeSlug),
		ModeStateTemplate:       waterHeaterModeTemplate,
		Modes:                   waterHeaterModes,
		MinTemp:                 minTemp,
		MaxTemp:                 maxTemp,
		Precision:               0.5,
		TemperatureUnit:         "C",
		Device:                  w.Device,
	}
	if err := w.announce("water_heater", "dhw", doc); err != nil {
		return err
	}

	targetSlug := def.TargetSlug
	err := w.subscribeCommand(targetSlug, func(_ string, payload []byte) error {
		value, err := parseCommandValue(payload)
		if err != nil {
			return err
		}
		return w.Coordinator.SetValue(context.Background(), targetSlug, value)
	})
	if err != nil {
		return err
	}

	modeSlug := def.ModeSlug
	return w.subscribeCommand(modeSlug, func(_ string, payload []byte) error {
		mode, ok := modeToDHW[string(payload)]
		if !ok {
			return fmt.Errorf("unknown water heater mode %q", payload)
		}
		return w.Coordinator.SetValue(context.Background(), modeSlug, mode)
	})
}

// temperatureBounds reads the controller's own DHW min/max registers,
// falling back to sane defaults when they are absent.
func (w *WaterHeaterPlatform) temperatureBounds(def WaterHeaterDef) (float64, float64) {
	minTemp, maxTemp := defaultDHWMin, defaultDHWMax
	if v, err := w.Coordinator.Value(def.MinSlug); err == nil {
		minTemp = v
	}
	if v, err := w.Coordinator.Value(def.MaxSlug); err == nil {
		maxTemp = v
	}
	return minTemp, maxTemp
}

func (w *WaterHeaterPlatform) Teardown(_ context.Context) error {
	w.teardown()
	return nil
}
