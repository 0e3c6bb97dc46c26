// Package relation resolves declarative filter criteria into matching ID
// sets across the entity/device/area/floor/label graph.
//
// Resolution runs strictly bottom-up: entity filters narrow the entity set,
// the device set derives from matching entities plus device filters, areas
// from devices and entities, floors from areas, and labels from whichever of
// the three lower sets are constrained.
//
// # Constrained vs Unconstrained
//
// Every resolved level is an IDSet: either Unconstrained (no filter touched
// this level — pass everything) or an explicit, possibly empty, set of IDs.
// The distinction is load-bearing: supplying any filter field switches a
// level from "pass everything" to "compute an explicit matching set".
//
// # Failure Semantics
//
// If a snapshot cannot be fetched the affected level resolves to an
// explicit empty set, never Unconstrained, so filters fail closed. Resolver
// methods never return transport errors.
//
// # Thread Safety
//
// Resolver is stateless apart from its injected directory and is safe for
// concurrent use.
package relation
