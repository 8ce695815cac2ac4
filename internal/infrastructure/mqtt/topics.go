package mqtt

import "fmt"

// TopicPrefix is the base for all bridge topics.
// Scheme: ecomax/{entry}/{category}/{slug}
const TopicPrefix = "ecomax"

// Topics provides builders for the bridge's MQTT topics.
// Using these helpers keeps topic naming consistent across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.State("boiler", "tempcwu")
//	// Returns: "ecomax/boiler/state/tempcwu"
type Topics struct{}

// State returns the retained state topic for one parameter of an entry.
//
// Example: ecomax/boiler/state/tempcwu
func (Topics) State(entryID, slug string) string {
	return fmt.Sprintf("%s/%s/state/%s", TopicPrefix, entryID, slug)
}

// Availability returns the retained availability topic for an entry.
// Carries "online" while the entry's coordinator delivers data.
//
// Example: ecomax/boiler/availability
func (Topics) Availability(entryID string) string {
	return fmt.Sprintf("%s/%s/availability", TopicPrefix, entryID)
}

// Command returns the command topic Home Assistant publishes writes to.
//
// Example: ecomax/boiler/set/hdwtsetpoint
func (Topics) Command(entryID, slug string) string {
	return fmt.Sprintf("%s/%s/set/%s", TopicPrefix, entryID, slug)
}

// EntryCommands returns a pattern matching all commands for an entry.
//
// Pattern: ecomax/boiler/set/+
func (Topics) EntryCommands(entryID string) string {
	return fmt.Sprintf("%s/%s/set/+", TopicPrefix, entryID)
}

// BridgeStatus returns the bridge lifecycle status topic, also used as the
// LWT topic so subscribers learn about crashes.
//
// Example: ecomax/bridge/status
func (Topics) BridgeStatus() string {
	return TopicPrefix + "/bridge/status"
}

// Discovery returns a Home Assistant MQTT discovery config topic.
//
// Example: homeassistant/sensor/ecomax_boiler/tempcwu/config
func (Topics) Discovery(prefix, component, nodeID, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", prefix, component, nodeID, objectID)
}
