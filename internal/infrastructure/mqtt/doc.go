// Package mqtt provides MQTT client connectivity for the ecoMAX bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// The bridge publishes controller state over MQTT and receives entity
// commands the same way. Home Assistant picks both up through its MQTT
// integration; entities are announced via MQTT discovery so no YAML is
// needed on the HA side.
//
//	ecoMAX bridge ↔ MQTT Broker ↔ Home Assistant
//
// # Topic Layout
//
//	ecomax/{entry}/state/{slug}     retained parameter values
//	ecomax/{entry}/availability     retained online/offline per controller
//	ecomax/{entry}/set/{slug}       commands from Home Assistant
//	ecomax/bridge/status            bridge LWT and lifecycle status
//	{prefix}/{component}/{node}/{object}/config   HA discovery documents
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.EntryCommands("boiler"), 1,
//	    func(topic string, payload []byte) error {
//	        return handleCommand(topic, payload)
//	    })
package mqtt
