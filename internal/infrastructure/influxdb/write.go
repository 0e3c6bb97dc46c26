package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteSuggestionMetric records one suggestion query.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - command: Qualified command name the picker belongs to
//   - parameter: Parameter the suggestions were generated for
//   - latency: Query duration
//   - results: Number of suggestions returned
func (r *Recorder) WriteSuggestionMetric(command, parameter string, latency time.Duration, results int) {
	if !r.IsConnected() {
		return
	}

	point := write.NewPoint(
		"suggestions",
		map[string]string{
			"command":   command,
			"parameter": parameter,
		},
		map[string]interface{}{
			"latency_ms": float64(latency.Microseconds()) / millisecondsPerSecond,
			"results":    results,
		},
		time.Now(),
	)

	r.writeAPI.WritePoint(point)
}

// WriteInvocationMetric records one command invocation outcome.
//
// Parameters:
//   - command: Qualified command name
//   - success: Whether the invocation succeeded
//   - duration: End-to-end invocation duration
func (r *Recorder) WriteInvocationMetric(command string, success bool, duration time.Duration) {
	if !r.IsConnected() {
		return
	}

	point := write.NewPoint(
		"invocations",
		map[string]string{
			"command": command,
			"success": strconv.FormatBool(success),
		},
		map[string]interface{}{
			"duration_ms": float64(duration.Microseconds()) / millisecondsPerSecond,
		},
		time.Now(),
	)

	r.writeAPI.WritePoint(point)
}

// WriteCacheMetric records one snapshot cache fill.
//
// Parameters:
//   - collection: Cache key that was filled (e.g. "entities")
//   - items: Number of items in the fetched snapshot
func (r *Recorder) WriteCacheMetric(collection string, items int) {
	if !r.IsConnected() {
		return
	}

	point := write.NewPoint(
		"cache_fills",
		map[string]string{
			"collection": collection,
		},
		map[string]interface{}{
			"items": items,
		},
		time.Now(),
	)

	r.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (r *Recorder) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !r.IsConnected() {
		return
	}

	r.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}
