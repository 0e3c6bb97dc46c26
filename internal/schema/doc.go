// Package schema parses the raw Home Assistant service description
// document into typed domains, services, fields and selectors.
//
// The upstream document needs several normalizations before it is usable:
// selector entries serialized as "kind: null" become empty config objects,
// legacy flat entity/device selectors fold their inline criteria into the
// modern filter list form, and filter values appear either as a single
// object or a list (both are accepted, lists are preserved).
//
// Field order matters to the command surface, so field maps are decoded in
// document order rather than through Go's unordered map decoding.
package schema
