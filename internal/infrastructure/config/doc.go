// Package config provides configuration loading for the ecoMAX bridge.
//
// Configuration is loaded from a YAML file with three layers of precedence:
//
//  1. Hardcoded defaults (factory converter address, polling cadence)
//  2. YAML file values
//  3. Environment variable overrides (ECOMAX_* pattern)
//
// # Entries
//
// Each configured boiler controller is an "entry". Entries are the unit of
// lifecycle: the bridge builds one device handle and one polling coordinator
// per entry, and tears them down together. An entry with no host configured
// falls back to 192.168.1.38, the address the RS485-to-Ethernet converters
// use out of the box.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Security
//
// Controller passwords and the InfluxDB token should be supplied via
// environment variables rather than committed YAML.
package config
