// Package bridge owns the lifecycle of configured controller entries.
//
// The Manager is the composition root for everything per-entry: it builds
// the device handle, loads the register map, runs the first poll, stands
// up the Home Assistant platforms, and fans every completed poll out to
// MQTT state topics, the SQLite history, and the optional InfluxDB
// export. Unloading an entry tears all of that down again, including
// retracting the retained discovery documents.
package bridge
