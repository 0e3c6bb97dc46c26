// Package mqtt publishes bridge lifecycle and activity events to an MQTT
// broker.
//
// The announcer is optional. When enabled it publishes a retained status
// message on connect and disconnect (with a Last Will for crashes), plus
// transient event messages such as cache refreshes and command inventory
// rebuilds. Nothing in the bridge subscribes; this is a one-way signal for
// dashboards and automations watching the broker.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
package mqtt
