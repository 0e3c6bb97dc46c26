// Package snapshot caches the Home Assistant collections behind a
// time-to-live so one suggestion round trip sees a single consistent view.
//
// Each collection (entities, devices, areas, floors, labels, the raw
// service schema and per-integration entity lists) is cached independently
// in a bounded expirable store. Callers always receive a fresh top-level
// slice they may filter freely; the cached backing data is never handed out
// for mutation.
//
// The Cache satisfies the directory contract consumed by the relationship
// resolver.
package snapshot
