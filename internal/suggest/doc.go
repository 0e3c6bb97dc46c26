// Package suggest binds the ranked fuzzy engine to the live Home Assistant
// collections, producing the suggestion callbacks attached to command
// parameters.
//
// Providers exist per collection kind (entity, device, area, floor, label),
// for static option lists, and for the composite target picker that mixes
// all five kinds behind prefix-tagged values.
//
// Suggestion paths never raise: any upstream failure degrades to an empty
// result so the command framework is never handed an error mid-typing.
package suggest
