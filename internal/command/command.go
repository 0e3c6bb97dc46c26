package command

import "context"

// ValueKind tags the wire type of a parameter value.
type ValueKind string

// Parameter value kinds.
const (
	KindString  ValueKind = "string"
	KindInteger ValueKind = "integer"
	KindFloat   ValueKind = "float"
	KindBoolean ValueKind = "boolean"
)

// Choice is one selectable option presented to the user. Value is what the
// runtime submits when the choice is picked; Label is what the user sees.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SuggestFunc produces ranked choices for free-form query text. Suggestion
// paths never return errors; on any failure they degrade to an empty slice.
type SuggestFunc func(ctx context.Context, userID, query string) []Choice

// TransformFunc converts raw submitted text into a structured value, or
// rejects it with a user-facing validation error.
type TransformFunc func(value string) (any, error)

// Result is the outcome of a successful invocation.
type Result struct {
	Message         string         `json:"message,omitempty"`
	ChangedEntities []string       `json:"changed_entities,omitempty"`
	Response        map[string]any `json:"response,omitempty"`
}

// InvokeFunc submits a fully transformed argument map to the remote action.
type InvokeFunc func(ctx context.Context, userID string, args map[string]any) (*Result, error)

// Parameter describes one command parameter.
type Parameter struct {
	Name        string
	Description string
	Kind        ValueKind
	Required    bool

	// Default is the schema-declared default coerced into Kind, or nil.
	Default any

	// Min and Max are inclusive numeric bounds, nil when unbounded.
	Min *float64
	Max *float64

	// Choices is a static enumerated option set. Mutually exclusive with
	// Suggest.
	Choices []Choice

	// Suggest binds a live suggestion provider for free-text parameters.
	Suggest SuggestFunc

	// Transform validates and converts the raw submitted value. Nil means
	// the value passes through as-is.
	Transform TransformFunc
}

// Definition is one synthesized command.
type Definition struct {
	Namespace   string
	Name        string
	Description string
	Parameters  []Parameter
	Invoke      InvokeFunc
}

// QualifiedName returns the namespace-qualified command name.
func (d Definition) QualifiedName() string {
	return d.Namespace + "." + d.Name
}
