// Package coordinator centralises data flow between the boiler controller
// and the entity platforms.
//
// It owns the polling loop, a short-lived value cache that keeps bus load
// down, validation that stops outliers and sensor error codes from reaching
// subscribers, and the write-and-verify path for setpoint changes. Platforms
// never talk to the device directly; they read the coordinator's snapshot
// and submit writes through it.
package coordinator
