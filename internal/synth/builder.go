package synth

import (
	"context"
	"fmt"

	"github.com/hassbridge/hassbridge-core/internal/command"
	"github.com/hassbridge/hassbridge-core/internal/hass"
	"github.com/hassbridge/hassbridge-core/internal/relation"
	"github.com/hassbridge/hassbridge-core/internal/schema"
	"github.com/hassbridge/hassbridge-core/internal/session"
	"github.com/hassbridge/hassbridge-core/internal/suggest"
)

// Values outside this range lose integer precision in transit; declared
// bounds are clamped to it.
const maxSafeNumber = float64(9007199254740991)

// Enumerated option sets larger than this fall back to free text with a
// suggestion binding.
const maxEnumOptions = 25

// Invoker is the upstream action boundary. *hass.Client satisfies it.
type Invoker interface {
	CallService(ctx context.Context, domain, service string, data map[string]any, returnResponse bool) (*hass.ServiceCallResult, error)
}

// Logger defines the logging interface used by the builder.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Builder synthesizes command definitions from parsed service schemas.
type Builder struct {
	source   *suggest.Source
	protocol *session.Protocol
	invoker  Invoker
	icons    []command.Choice
	logger   Logger
}

// NewBuilder creates a Builder.
func NewBuilder(source *suggest.Source, protocol *session.Protocol, invoker Invoker) *Builder {
	return &Builder{
		source:   source,
		protocol: protocol,
		invoker:  invoker,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the builder.
func (b *Builder) SetLogger(logger Logger) {
	b.logger = logger
}

// SetIconCatalog installs the icon choice list served by icon selectors.
func (b *Builder) SetIconCatalog(icons []command.Choice) {
	b.icons = icons
}

// SynthesizeAll synthesizes every service across the given domains. A
// service that fails synthesis is logged and skipped; the rest of the
// surface is unaffected.
func (b *Builder) SynthesizeAll(domains []schema.Domain) []command.Definition {
	var defs []command.Definition
	for _, d := range domains {
		for _, svc := range d.Services {
			def, err := b.Synthesize(svc)
			if err != nil {
				b.logger.Warn("skipping unsynthesizable service",
					"service", svc.Domain+"."+svc.Name, "error", err)
				continue
			}
			defs = append(defs, *def)
		}
	}
	return defs
}

// fieldPlan records the invocation-time handling of one parameter.
type fieldPlan struct {
	key       string
	constant  any
	multi     bool
	target    bool
	transform command.TransformFunc
	min, max  *float64
}

// Synthesize builds the command definition for one service.
func (b *Builder) Synthesize(svc schema.Service) (*command.Definition, error) {
	def := &command.Definition{
		Namespace:   svc.Domain,
		Name:        svc.Name,
		Description: describeService(svc),
	}

	var plans []fieldPlan
	hasTargetField := false

	for _, field := range svc.Fields {
		if field.Selector == nil {
			continue // YAML-only field, not surfaced
		}
		param, plan, err := b.synthesizeField(field)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Key, err)
		}
		if plan.target {
			hasTargetField = true
		}
		def.Parameters = append(def.Parameters, param)
		plans = append(plans, plan)
	}

	if svc.Target != nil && !hasTargetField {
		param, plan := b.targetParameter("target", svc.Target.Entity.Relation(), svc.Target.Device.Relation(), false)
		def.Parameters = append(def.Parameters, param)
		plans = append(plans, plan)
	}

	def.Invoke = b.invokeFunc(svc, plans)
	return def, nil
}

// synthesizeField maps one schema field to a parameter and its invocation
// plan.
func (b *Builder) synthesizeField(field schema.Field) (command.Parameter, fieldPlan, error) {
	sel := field.Selector
	param := command.Parameter{
		Name:        field.Key,
		Description: describeField(field),
		Kind:        command.KindString,
		Required:    field.Required,
	}
	plan := fieldPlan{key: field.Key}

	switch sel.Kind {
	case schema.KindEntity:
		cfg, err := sel.Entity()
		if err != nil {
			return param, plan, err
		}
		inner := filterChoices(b.source.Entities(cfg.Filter.Relation(), nil),
			cfg.IncludeEntities, cfg.ExcludeEntities)
		b.bindSuggest(&param, &plan, inner, cfg.Multiple)

	case schema.KindDevice:
		cfg, err := sel.Device()
		if err != nil {
			return param, plan, err
		}
		b.bindSuggest(&param, &plan, b.source.Devices(cfg.Entity.Relation(), cfg.Filter.Relation()), cfg.Multiple)

	case schema.KindArea:
		cfg, err := sel.Area()
		if err != nil {
			return param, plan, err
		}
		b.bindSuggest(&param, &plan, b.source.Areas(cfg.Entity.Relation(), cfg.Device.Relation()), cfg.Multiple)

	case schema.KindFloor:
		cfg, err := sel.Floor()
		if err != nil {
			return param, plan, err
		}
		b.bindSuggest(&param, &plan, b.source.Floors(cfg.Entity.Relation(), cfg.Device.Relation()), cfg.Multiple)

	case schema.KindLabel:
		cfg, err := sel.Label()
		if err != nil {
			return param, plan, err
		}
		b.bindSuggest(&param, &plan, b.source.Labels(nil, nil), cfg.Multiple)

	case schema.KindTarget:
		cfg, err := sel.Target()
		if err != nil {
			return param, plan, err
		}
		param, plan = b.targetParameter(field.Key, cfg.Entity.Relation(), cfg.Device.Relation(), field.Required)
		param.Description = describeField(field)

	case schema.KindNumber:
		cfg, err := sel.Number()
		if err != nil {
			return param, plan, err
		}
		if cfg.IsInteger() {
			param.Kind = command.KindInteger
		} else {
			param.Kind = command.KindFloat
		}
		param.Min, param.Max = clampBounds(cfg.Min, cfg.Max)
		plan.min, plan.max = param.Min, param.Max

	case schema.KindColorTemp:
		cfg, err := sel.ColorTemp()
		if err != nil {
			return param, plan, err
		}
		param.Kind = command.KindInteger
		min, max := cfg.Min, cfg.Max
		if min == nil {
			min = cfg.MinMireds
		}
		if max == nil {
			max = cfg.MaxMireds
		}
		param.Min, param.Max = clampBounds(min, max)
		plan.min, plan.max = param.Min, param.Max

	case schema.KindBoolean:
		param.Kind = command.KindBoolean

	case schema.KindConstant:
		cfg, err := sel.Constant()
		if err != nil {
			return param, plan, err
		}
		param.Kind = command.KindBoolean
		if cfg.Label != "" {
			param.Description = cfg.Label
		}
		plan.constant = cfg.Value

	case schema.KindSelect:
		cfg, err := sel.Select()
		if err != nil {
			return param, plan, err
		}
		b.bindSelect(&param, &plan, cfg)

	case schema.KindIcon:
		param.Suggest = b.source.Static(b.icons)

	case schema.KindText:
		cfg, err := sel.Text()
		if err != nil {
			return param, plan, err
		}
		if cfg.Multiple {
			b.bindSuggest(&param, &plan, echoProvider(), true)
		}

	case schema.KindObject:
		plan.transform = objectTransform(field.Key)

	case schema.KindDuration:
		cfg, err := sel.Duration()
		if err != nil {
			return param, plan, err
		}
		plan.transform = durationTransform(field.Key, *cfg)

	case schema.KindTime:
		cfg, err := sel.Time()
		if err != nil {
			return param, plan, err
		}
		plan.transform = timeTransform(field.Key, *cfg)

	case schema.KindDate:
		plan.transform = dateTransform(field.Key)

	case schema.KindDateTime:
		plan.transform = datetimeTransform(field.Key)

	case schema.KindLocation:
		cfg, err := sel.Location()
		if err != nil {
			return param, plan, err
		}
		plan.transform = locationTransform(field.Key, *cfg)

	case schema.KindColorRGB:
		plan.transform = colorRGBTransform(field.Key)

	case schema.KindTemplate, schema.KindAttribute, schema.KindConvAgent,
		schema.KindCountry, schema.KindLanguage, schema.KindTheme:
		// Free text; upstream validates the value.

	default:
		return param, plan, fmt.Errorf("%w: %s", ErrUnsupportedSelector, sel.Kind)
	}

	param.Default = coerceDefault(param.Kind, field.Default)
	param.Transform = plan.transform
	return param, plan, nil
}

// bindSuggest attaches a provider, wrapping it in the multi-value protocol
// when the selector accepts a list.
func (b *Builder) bindSuggest(param *command.Parameter, plan *fieldPlan, inner command.SuggestFunc, multiple bool) {
	if multiple {
		param.Suggest = b.protocol.Wrap(inner)
		plan.multi = true
		return
	}
	param.Suggest = inner
}

// bindSelect picks literal options, free text with validation, or the
// multi-value protocol depending on the select config.
func (b *Builder) bindSelect(param *command.Parameter, plan *fieldPlan, cfg *schema.SelectSelector) {
	values, plain := cfg.StringValues()

	if plain && !cfg.Multiple && !cfg.CustomValue && len(values) <= maxEnumOptions {
		param.Choices = make([]command.Choice, len(cfg.Options))
		for i, o := range cfg.Options {
			param.Choices[i] = command.Choice{Label: o.Label, Value: values[i]}
		}
		plan.transform = selectTransform(param.Name, values, false)
		return
	}

	choices := make([]command.Choice, 0, len(cfg.Options))
	for _, o := range cfg.Options {
		if v, ok := o.Value.(string); ok {
			choices = append(choices, command.Choice{Label: o.Label, Value: v})
		}
	}
	inner := b.source.Static(choices)
	if plain {
		plan.transform = selectTransform(param.Name, values, cfg.CustomValue)
	}
	b.bindSuggest(param, plan, inner, cfg.Multiple)
}

// targetParameter builds the synthetic composite target parameter.
func (b *Builder) targetParameter(key string, entityFilters []relation.EntityFilter, deviceFilters []relation.DeviceFilter, required bool) (command.Parameter, fieldPlan) {
	param := command.Parameter{
		Name:        key,
		Description: "Target areas, devices, entities, floors or labels",
		Kind:        command.KindString,
		Required:    required,
		Suggest:     b.protocol.Wrap(b.source.Targets(entityFilters, deviceFilters)),
	}
	plan := fieldPlan{key: key, multi: true, target: true}
	return param, plan
}

// echoProvider suggests the typed text itself, so free-text fields can
// participate in the multi-value protocol.
func echoProvider() command.SuggestFunc {
	return func(ctx context.Context, userID, query string) []command.Choice {
		if query == "" {
			return nil
		}
		return []command.Choice{{Label: query, Value: query}}
	}
}

// filterChoices applies include/exclude entity ID lists to a provider's
// output.
func filterChoices(inner command.SuggestFunc, include, exclude []string) command.SuggestFunc {
	if len(include) == 0 && len(exclude) == 0 {
		return inner
	}
	includeSet := toSet(include)
	excludeSet := toSet(exclude)
	return func(ctx context.Context, userID, query string) []command.Choice {
		choices := inner(ctx, userID, query)
		kept := choices[:0]
		for _, c := range choices {
			if includeSet != nil {
				if _, ok := includeSet[c.Value]; !ok {
					continue
				}
			}
			if _, ok := excludeSet[c.Value]; ok {
				continue
			}
			kept = append(kept, c)
		}
		return kept
	}
}

func toSet(ids []string) map[string]struct{} {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// clampBounds keeps declared bounds inside the safe numeric range.
func clampBounds(min, max *float64) (*float64, *float64) {
	clamp := func(v *float64) *float64 {
		if v == nil {
			return nil
		}
		c := *v
		if c > maxSafeNumber {
			c = maxSafeNumber
		}
		if c < -maxSafeNumber {
			c = -maxSafeNumber
		}
		return &c
	}
	return clamp(min), clamp(max)
}

// coerceDefault converts a schema default into the parameter's kind, or
// drops it when the shapes do not line up.
func coerceDefault(kind command.ValueKind, def any) any {
	if def == nil {
		return nil
	}
	switch kind {
	case command.KindString:
		if s, ok := def.(string); ok {
			return s
		}
	case command.KindInteger:
		if f, ok := def.(float64); ok && f == float64(int64(f)) {
			return int64(f)
		}
	case command.KindFloat:
		switch v := def.(type) {
		case float64:
			return v
		}
	case command.KindBoolean:
		if v, ok := def.(bool); ok {
			return v
		}
	}
	return nil
}

func describeService(svc schema.Service) string {
	if svc.Description != "" {
		return svc.Description
	}
	return svc.DisplayName
}

func describeField(field schema.Field) string {
	if field.Description != "" {
		return field.Description
	}
	return field.Name
}
