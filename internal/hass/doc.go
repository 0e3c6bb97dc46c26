// Package hass is the Home Assistant boundary client.
//
// It exposes the remote platform's state graph and service surface:
//
//   - REST: entity states, the services schema (raw JSON, parsed by the
//     schema package), service calls and conversation processing
//   - WebSocket: the area/floor/label/device/entity registries, which Home
//     Assistant only exposes over its WebSocket API
//
// Registry rows are joined into the collection models used by the rest of
// the system (areas with their member devices and entities, floors with
// their areas, labels with their attached IDs). Each fetch assembles from
// registries retrieved over a single WebSocket connection so one collection
// reflects one consistent snapshot.
//
// # Error Semantics
//
// Transport and decode failures are returned as plain errors; callers above
// the resolver/suggestion boundary are responsible for degrading them to
// empty results. The one distinguished failure is ErrResponseUnsupported,
// returned when a service call requested a structured response the service
// does not support; the synthesizer retries such calls without a response.
//
// # Thread Safety
//
// Client is safe for concurrent use. Every call dials or reuses independent
// connections; no state is shared between requests.
package hass
