// Package influxdb records portal activity counters (logins, registrations,
// submissions) in InfluxDB v2.
//
// The integration is optional. Connect returns ErrDisabled when
// influxdb.enabled is false and the portal falls back to a no-op recorder.
package influxdb
