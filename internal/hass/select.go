package hass

import (
	"context"
	"fmt"
)

// selectValueTemplate maps DHW user mode codes to option names.
const selectValueTemplate = `{{ {'0': 'off', '1': 'manual', '2': 'auto'}.get(value, 'off') }}`

// SelectPlatform exposes enumerated parameters as select entities.
type SelectPlatform struct {
	base
}

// NewSelectPlatform creates the select platform for one entry.
func NewSelectPlatform(p Params) *SelectPlatform {
	return &SelectPlatform{base: newBase(p)}
}

func (s *SelectPlatform) Name() string { return "select" }

// Setup announces one select entity per available enumerated parameter.
func (s *SelectPlatform) Setup(_ context.Context) error {
	for _, def := range selectDefs {
		if !s.isAvailable(def.Slug) {
			continue
		}

		// The command topic carries a _mode suffix so this select and the
		// water heater entity (which shares the underlying register) keep
		// separate subscriptions.
		doc := selectConfig{
			Name:              def.Name,
			UniqueID:          s.uniqueID(def.Slug + "_mode"),
			StateTopic:        s.stateTopic(def.Slug),
			CommandTopic:      s.commandTopic(def.Slug + "_mode"),
			AvailabilityTopic: s.availabilityTopic(),
			Options:           def.Options,
			ValueTemplate:     selectValueTemplate,
			Device:            s.Device,
		}
		if err := s.announce("select", def.Slug, doc); err != nil {
			return err
		}

		slug := def.Slug
		toValue := def.ToValue
		err := s.subscribeCommand(slug+"_mode", func(_ string, payload []byte) error {
			value, ok := toValue[string(payload)]
			if !ok {
				return fmt.Errorf("unknown option %q for %s", payload, slug)
			}
			return s.Coordinator.SetValue(context.Background(), slug, value)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SelectPlatform) Teardown(_ context.Context) error {
	s.teardown()
	return nil
}
