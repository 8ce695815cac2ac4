package hass

import "context"

// NumberPlatform exposes writable setpoints as number entities.
type NumberPlatform struct {
	base
}

// NewNumberPlatform creates the number platform for one entry.
func NewNumberPlatform(p Params) *NumberPlatform {
	return &NumberPlatform{base: newBase(p)}
}

func (n *NumberPlatform) Name() string { return "number" }

// Setup announces one number entity per available setpoint and routes its
// command topic to a verified coordinator write.
func (n *NumberPlatform) Setup(_ context.Context) error {
	for _, def := range numberDefs {
		if !n.isAvailable(def.Slug) {
			continue
		}

		doc := numberConfig{
			Name:              def.Name,
			UniqueID:          n.uniqueID(def.Slug),
			StateTopic:        n.stateTopic(def.Slug),
			CommandTopic:      n.commandTopic(def.Slug),
			AvailabilityTopic: n.availabilityTopic(),
			Min:               def.Min,
			Max:               def.Max,
			Step:              def.Step,
			UnitOfMeasurement: unitCelsius,
			Icon:              def.Icon,
			Device:            n.Device,
		}
		if err := n.announce("number", def.Slug, doc); err != nil {
			return err
		}

		slug := def.Slug
		err := n.subscribeCommand(slug, func(_ string, payload []byte) error {
			value, err := parseCommandValue(payload)
			if err != nil {
				return err
			}
			return n.Coordinator.SetValue(context.Background(), slug, value)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (n *NumberPlatform) Teardown(_ context.Context) error {
	n.teardown()
	return nil
}
