// Package command defines the data-only command surface descriptors shared
// between the parameter synthesizer, the suggestion providers and the
// registration runtime.
//
// A Definition is a fully specified, invocable command: its parameters carry
// value types, defaults, bounds, static choice sets, suggestion bindings and
// value transforms. The package holds no behaviour of its own; all function
// fields are bound by the producers.
package command
