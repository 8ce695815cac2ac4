package hass

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/emberlink/ecomax-bridge/internal/infrastructure/logging"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/mqtt"
)

// Coordinator is the data access the platforms need.
// Implemented by *coordinator.Coordinator; faked in tests.
type Coordinator interface {
	Available() []string
	Value(slug string) (float64, error)
	SetValue(ctx context.Context, slug string, value float64) error
}

// Publisher is the MQTT access the platforms need.
// Implemented by *mqtt.Client; faked in tests.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Platform is one Home Assistant entity domain for a single entry.
//
// Setup announces entities via retained discovery documents and subscribes
// to command topics. Teardown retracts the discovery documents (an empty
// retained payload removes the entity from Home Assistant) and drops the
// subscriptions. A platform whose Setup failed must still tolerate
// Teardown.
type Platform interface {
	Name() string
	Setup(ctx context.Context) error
	Teardown(ctx context.Context) error
}

// Params carries the shared wiring every platform receives.
type Params struct {
	// EntryID identifies the controller entry; part of every topic.
	EntryID string

	// EntryName is the human-readable device name.
	EntryName string

	// Circuits lists the physically connected heating circuits (1-7).
	Circuits []int

	// DiscoveryPrefix is Home Assistant's discovery prefix, normally
	// "homeassistant".
	DiscoveryPrefix string

	// QoS is the QoS level for discovery and command traffic.
	QoS byte

	// Device is the discovery device block shared by all entities.
	Device Device

	Coordinator Coordinator
	MQTT        Publisher
	Log         *logging.Logger
}

// FormatValue renders a parameter value the way state topics carry it:
// shortest decimal representation, no trailing zeros.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// base carries the bookkeeping shared by all platform implementations.
type base struct {
	Params

	mu         sync.Mutex
	discovered []string // discovery topics to retract on teardown
	commands   []string // command topics to unsubscribe on teardown
}

func newBase(p Params) base {
	if p.Log == nil {
		p.Log = logging.Default()
	}
	return base{Params: p}
}

// nodeID is the discovery node identifier for this entry.
func (b *base) nodeID() string {
	return "ecomax_" + b.EntryID
}

// uniqueID builds a registry-stable unique id for one entity.
func (b *base) uniqueID(objectID string) string {
	return fmt.Sprintf("ecomax_%s_%s", b.EntryID, objectID)
}

// isAvailable reports whether the controller answered for slug during the
// availability scan.
func (b *base) isAvailable(slug string) bool {
	for _, s := range b.Coordinator.Available() {
		if s == slug {
			return true
		}
	}
	return false
}

// stateTopic returns the retained state topic for a slug.
func (b *base) stateTopic(slug string) string {
	return mqtt.Topics{}.State(b.EntryID, slug)
}

// commandTopic returns the command topic for a slug.
func (b *base) commandTopic(slug string) string {
	return mqtt.Topics{}.Command(b.EntryID, slug)
}

// availabilityTopic returns the entry's availability topic.
func (b *base) availabilityTopic() string {
	return mqtt.Topics{}.Availability(b.EntryID)
}

// announce publishes one retained discovery document and tracks its topic
// for teardown.
func (b *base) announce(component, objectID string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshalling %s/%s discovery: %w", component, objectID, err)
	}

	topic := mqtt.Topics{}.Discovery(b.DiscoveryPrefix, component, b.nodeID(), objectID)
	if err := b.MQTT.Publish(topic, payload, b.QoS, true); err != nil {
		return fmt.Errorf("announcing %s/%s: %w", component, objectID, err)
	}

	b.mu.Lock()
	b.discovered = append(b.discovered, topic)
	b.mu.Unlock()
	return nil
}

// subscribeCommand registers a command handler and tracks the topic.
func (b *base) subscribeCommand(slug string, handler mqtt.MessageHandler) error {
	topic := b.commandTopic(slug)
	if err := b.MQTT.Subscribe(topic, b.QoS, handler); err != nil {
		return fmt.Errorf("subscribing %s: %w", topic, err)
	}

	b.mu.Lock()
	b.commands = append(b.commands, topic)
	b.mu.Unlock()
	return nil
}

// teardown retracts all announced entities and drops command
// subscriptions. Errors are logged, not returned: teardown must run to
// completion even with a flaky broker.
func (b *base) teardown() {
	b.mu.Lock()
	discovered := b.discovered
	commands := b.commands
	b.discovered = nil
	b.commands = nil
	b.mu.Unlock()

	for _, topic := range commands {
		if err := b.MQTT.Unsubscribe(topic); err != nil {
			b.Log.Warn("unsubscribe failed", "topic", topic, "error", err)
		}
	}
	// Empty retained payload removes the entity from Home Assistant.
	for _, topic := range discovered {
		if err := b.MQTT.Publish(topic, nil, b.QoS, true); err != nil {
			b.Log.Warn("discovery retraction failed", "topic", topic, "error", err)
		}
	}
}

// parseCommandValue parses a numeric command payload.
func parseCommandValue(payload []byte) (float64, error) {
	v, err := strconv.ParseFloat(string(payload), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing command payload %q: %w", payload, err)
	}
	return v, nil
}
