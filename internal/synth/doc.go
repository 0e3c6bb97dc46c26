// Package synth turns parsed service schemas into fully specified,
// invocable command definitions.
//
// For every service it decides, per field, a value type, a coerced default,
// an optional suggestion binding and an optional validating transform, all
// derived from the field's selector kind. An action-level target spec
// becomes a synthetic multi-value target parameter whose prefix-tagged
// selections expand into per-kind ID lists at submission.
//
// Synthesis failures are isolated per action: a service with an unknown
// selector kind is skipped and logged, never blocking the rest of the
// command surface.
//
// The invocation handler applies constant-injection fields, resolves
// multi-value sessions, runs transforms, expands the target and submits to
// the upstream boundary, falling back from a structured-response call to a
// plain trigger only on the upstream's specific unsupported signal.
package synth
