// Package influxdb provides optional time-series export for the bridge.
//
// When enabled, every validated parameter value the coordinator produces
// is also written to InfluxDB, giving long-term boiler telemetry
// (temperatures, power, valve positions) with proper downsampling and
// retention. The local SQLite history remains the source of truth; this
// export is for dashboards.
//
// Writes are non-blocking: points are batched by the underlying client
// and flushed on an interval, so a slow or absent InfluxDB never stalls
// the polling loop. Async write errors surface through SetOnError.
package influxdb
