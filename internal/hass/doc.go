// Package hass exposes controller parameters as Home Assistant entities
// over MQTT discovery.
//
// Each platform (sensor, climate, number, water_heater, switch, select)
// announces its entities by publishing retained discovery documents under
// the configured discovery prefix, then routes commands from Home
// Assistant back to the coordinator. State flows the other way: the bridge
// publishes every validated parameter to a retained state topic that the
// discovery documents point at.
//
// Entities are only announced for parameters the controller actually
// answered during the availability scan, so a boiler with two heating
// circuits never grows seven thermostats.
package hass
