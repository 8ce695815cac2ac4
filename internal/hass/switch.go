package hass

import (
	"context"
	"fmt"
)

// SwitchPlatform exposes on/off parameters as switch entities.
type SwitchPlatform struct {
	base
}

// NewSwitchPlatform creates the switch platform for one entry.
func NewSwitchPlatform(p Params) *SwitchPlatform {
	return &SwitchPlatform{base: newBase(p)}
}

func (s *SwitchPlatform) Name() string { return "switch" }

// Setup announces one switch entity per available on/off parameter.
func (s *SwitchPlatform) Setup(_ context.Context) error {
	for _, def := range switchDefs {
		if !s.isAvailable(def.Slug) {
			continue
		}

		doc := switchConfig{
			Name:              def.Name,
			UniqueID:          s.uniqueID(def.Slug),
			StateTopic:        s.stateTopic(def.Slug),
			CommandTopic:      s.commandTopic(def.Slug),
			AvailabilityTopic: s.availabilityTopic(),
			PayloadOn:         "ON",
			PayloadOff:        "OFF",
			StateOn:           "1",
			StateOff:          "0",
			Device:            s.Device,
		}
		if err := s.announce("switch", def.Slug, doc); err != nil {
			return err
		}

		slug := def.Slug
		err := s.subscribeCommand(slug, func(_ string, payload []byte) error {
			var value float64
			switch string(payload) {
			case "ON":
				value = 1
			case "OFF":
				value = 0
			default:
				return fmt.Errorf("unknown switch payload %q", payload)
			}
			return s.Coordinator.SetValue(context.Background(), slug, value)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SwitchPlatform) Teardown(_ context.Context) error {
	s.teardown()
	return nil
}
