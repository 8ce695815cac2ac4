// Package database provides SQLite storage for the ecoMAX bridge.
//
// The bridge keeps a local history of polled parameter values so trends
// survive restarts and remain queryable without InfluxDB. SQLite fits the
// deployment target (a single always-on box next to the boiler): no
// server, one file, works on an SD card.
//
// Schema changes ship as embedded SQL migrations applied at startup; see
// the migrations package at the repository root.
package database
