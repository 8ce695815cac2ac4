package hass

import "context"

// SensorPlatform announces the read-only sensors.
type SensorPlatform struct {
	base
}

// NewSensorPlatform creates the sensor platform for one entry.
func NewSensorPlatform(p Params) *SensorPlatform {
	return &SensorPlatform{base: newBase(p)}
}

func (s *SensorPlatform) Name() string { return "sensor" }

// Setup announces one sensor entity per available read-only parameter.
// Fixed sensors come first, then the per-circuit ones for each configured
// heating circuit.
func (s *SensorPlatform) Setup(_ context.Context) error {
	defs := make([]SensorDef, 0, len(sensorDefs)+3*len(s.Circuits))
	defs = append(defs, sensorDefs...)
	for _, circuit := range s.Circuits {
		defs = append(defs, circuitSensorDefs(circuit)...)
	}

	for _, def := range defs {
		if !s.isAvailable(def.Slug) {
			continue
		}

		doc := sensorConfig{
			Name:              def.Name,
			UniqueID:          s.uniqueID(def.Slug),
			StateTopic:        s.stateTopic(def.Slug),
			AvailabilityTopic: s.availabilityTopic(),
			UnitOfMeasurement: def.Unit,
			DeviceClass:       def.DeviceClass,
			Icon:              def.Icon,
			Device:            s.Device,
		}
		if def.DeviceClass == classTemperature || def.DeviceClass == classPower {
			doc.StateClass = "measurement"
		}

		if err := s.announce("sensor", def.Slug, doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *SensorPlatform) Teardown(_ context.Context) error {
	s.teardown()
	return nil
}
