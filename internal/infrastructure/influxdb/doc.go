// Package influxdb records bridge usage metrics in InfluxDB v2.
//
// The recorder is optional. When enabled it batches non-blocking writes of
// suggestion query latency, command invocation outcomes, and cache refresh
// counts. Losing points is acceptable; metrics never block the command
// path.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
package influxdb
