// Package influxdb mirrors sensor readings and relay transitions into
// an InfluxDB v2 bucket.
//
// The mirror is optional and disabled by default; the hub's own state
// lives in memory and SQLite regardless. Writes are non-blocking and
// batched, so a slow or absent InfluxDB never stalls a poll loop.
package influxdb
