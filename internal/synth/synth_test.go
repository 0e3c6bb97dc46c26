package synth

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hassbridge/hassbridge-core/internal/command"
	"github.com/hassbridge/hassbridge-core/internal/hass"
	"github.com/hassbridge/hassbridge-core/internal/relation"
	"github.com/hassbridge/hassbridge-core/internal/schema"
	"github.com/hassbridge/hassbridge-core/internal/session"
	"github.com/hassbridge/hassbridge-core/internal/suggest"
)

type mockDirectory struct {
	entities []hass.Entity
}

func (m *mockDirectory) Entities(ctx context.Context) ([]hass.Entity, error) {
	return m.entities, nil
}

func (m *mockDirectory) Devices(ctx context.Context) ([]hass.Device, error) { return nil, nil }
func (m *mockDirectory) Areas(ctx context.Context) ([]hass.Area, error)     { return nil, nil }
func (m *mockDirectory) Floors(ctx context.Context) ([]hass.Floor, error)   { return nil, nil }
func (m *mockDirectory) Labels(ctx context.Context) ([]hass.Label, error)   { return nil, nil }
func (m *mockDirectory) IntegrationEntityIDs(ctx context.Context, integration string) ([]string, error) {
	return nil, nil
}

type call struct {
	domain, service string
	data            map[string]any
	returnResponse  bool
}

type mockInvoker struct {
	calls       []call
	unsupported bool
	failWith    error
	response    json.RawMessage
}

func (m *mockInvoker) CallService(ctx context.Context, domain, service string, data map[string]any, returnResponse bool) (*hass.ServiceCallResult, error) {
	m.calls = append(m.calls, call{domain: domain, service: service, data: data, returnResponse: returnResponse})
	if m.failWith != nil {
		return nil, m.failWith
	}
	if returnResponse && m.unsupported {
		return nil, hass.ErrResponseUnsupported
	}
	return &hass.ServiceCallResult{Response: m.response}, nil
}

type harness struct {
	builder *Builder
	invoker *mockInvoker
	store   *session.Store
}

func newHarness(dir *mockDirectory) *harness {
	store := session.NewStore(64, time.Minute)
	protocol := session.NewProtocol(store, 25)
	source := suggest.New(dir, relation.NewResolver(dir), 25, 0.2)
	invoker := &mockInvoker{}
	return &harness{
		builder: NewBuilder(source, protocol, invoker),
		invoker: invoker,
		store:   store,
	}
}

func parseService(t *testing.T, doc string) schema.Service {
	t.Helper()
	domains, err := schema.Parse(json.RawMessage(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return domains[0].Services[0]
}

func TestDurationTransform(t *testing.T) {
	tests := []struct {
		name    string
		cfg     schema.DurationSelector
		input   string
		want    map[string]int
		wantErr bool
	}{
		{
			name:  "plain",
			input: "05:30:12",
			want:  map[string]int{"hours": 5, "minutes": 30, "seconds": 12},
		},
		{name: "wrong arity", input: "5:30", wantErr: true},
		{name: "minutes out of range", input: "1:60:00", wantErr: true},
		{
			name:  "with day",
			cfg:   schema.DurationSelector{EnableDay: true},
			input: "2:03:30:12",
			want:  map[string]int{"days": 2, "hours": 3, "minutes": 30, "seconds": 12},
		},
		{
			name:    "hours capped with day",
			cfg:     schema.DurationSelector{EnableDay: true},
			input:   "2:25:30:12",
			wantErr: true,
		},
		{
			name:  "with milliseconds",
			cfg:   schema.DurationSelector{EnableMillisecond: true},
			input: "0:00:01:500",
			want:  map[string]int{"hours": 0, "minutes": 0, "seconds": 1, "milliseconds": 500},
		},
		{name: "negative", input: "-1:00:00", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := durationTransform("duration", tt.cfg)(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("error %v is not a ValidationError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("transform: %v", err)
			}
			m := got.(map[string]int)
			for k, v := range tt.want {
				if m[k] != v {
					t.Errorf("%s = %d, want %d", k, m[k], v)
				}
			}
			if len(m) != len(tt.want) {
				t.Errorf("got %v, want %v", m, tt.want)
			}
		})
	}
}

func TestLocationTransform(t *testing.T) {
	got, err := locationTransform("location", schema.LocationSelector{Radius: true})("51.5;-0.12;25")
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	m := got.(map[string]any)
	if m["latitude"] != 51.5 || m["longitude"] != -0.12 || m["radius"] != 25.0 {
		t.Errorf("got %v", m)
	}

	for _, bad := range []string{"91;0", "0;181", "x;0", "1"} {
		if _, err := locationTransform("location", schema.LocationSelector{})(bad); err == nil {
			t.Errorf("input %q should fail", bad)
		}
	}
}

func TestObjectTransformYAMLThenJSON(t *testing.T) {
	tr := objectTransform("data")

	got, err := tr("key: value\nitems:\n  - 1\n  - 2")
	if err != nil {
		t.Fatalf("yaml parse: %v", err)
	}
	if m, ok := got.(map[string]any); !ok || m["key"] != "value" {
		t.Errorf("got %v", got)
	}

	got, err = tr(`{"a": 1}`)
	if err != nil {
		t.Fatalf("json parse: %v", err)
	}
	if m, ok := got.(map[string]any); !ok || m["a"] == nil {
		t.Errorf("got %v", got)
	}
}

func TestColorRGBTransform(t *testing.T) {
	got, err := colorRGBTransform("rgb")("255, 128, 0")
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	rgb := got.([]int)
	if rgb[0] != 255 || rgb[1] != 128 || rgb[2] != 0 {
		t.Errorf("got %v", rgb)
	}
	for _, bad := range []string{"256,0,0", "1,2", "a,b,c"} {
		if _, err := colorRGBTransform("rgb")(bad); err == nil {
			t.Errorf("input %q should fail", bad)
		}
	}
}

func TestTimeTransformNoSecond(t *testing.T) {
	tr := timeTransform("at", schema.TimeSelector{NoSecond: true})
	got, err := tr("07:45")
	if err != nil || got != "07:45:00" {
		t.Errorf("got %v, %v; want normalized 07:45:00", got, err)
	}
}

func TestSmallSelectBecomesEnum(t *testing.T) {
	h := newHarness(&mockDirectory{})
	svc := parseService(t, `[{"domain": "fan", "services": {"set_preset_mode": {
		"name": "Set preset",
		"fields": {"preset_mode": {"required": true, "selector": {"select": {"options": ["auto", "smart"]}}}}
	}}}]`)

	def, err := h.builder.Synthesize(svc)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	p := def.Parameters[0]
	if len(p.Choices) != 2 || p.Suggest != nil {
		t.Errorf("small plain select should be a literal enum, got %+v", p)
	}
	if _, err := p.Transform("bogus"); err == nil {
		t.Error("enum transform must reject values outside the option set")
	}
	if v, err := p.Transform("auto"); err != nil || v != "auto" {
		t.Errorf("enum transform rejected a valid option: %v, %v", v, err)
	}
}

func TestCustomValueSelectPassesUnknown(t *testing.T) {
	h := newHarness(&mockDirectory{})
	svc := parseService(t, `[{"domain": "light", "services": {"turn_on": {
		"name": "Turn on",
		"fields": {"effect": {"selector": {"select": {"options": ["rainbow"], "custom_value": true}}}}
	}}}]`)

	def, err := h.builder.Synthesize(svc)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	p := def.Parameters[0]
	if p.Suggest == nil || p.Choices != nil {
		t.Errorf("custom_value select should bind suggestions, got %+v", p)
	}
	if v, err := p.Transform("freeform"); err != nil || v != "freeform" {
		t.Errorf("custom_value must pass unknown values, got %v, %v", v, err)
	}
}

func TestLargeSelectFallsBackToSuggestions(t *testing.T) {
	cfg := &schema.SelectSelector{}
	for i := 0; i < 30; i++ {
		cfg.Options = append(cfg.Options, schema.SelectOption{Label: "x", Value: "x"})
	}
	h := newHarness(&mockDirectory{})
	var param command.Parameter
	var plan fieldPlan
	param.Name = "mode"
	h.builder.bindSelect(&param, &plan, cfg)

	if param.Choices != nil || param.Suggest == nil {
		t.Errorf("oversized option set must fall back to suggestions, got %+v", param)
	}
}

func TestNumberKinds(t *testing.T) {
	h := newHarness(&mockDirectory{})
	svc := parseService(t, `[{"domain": "light", "services": {"turn_on": {
		"name": "Turn on",
		"fields": {
			"transition": {"selector": {"number": {"min": 0, "max": 300}}},
			"brightness_pct": {"selector": {"number": {"min": 0, "max": 100, "step": 0.5}}}
		}
	}}}]`)

	def, err := h.builder.Synthesize(svc)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if def.Parameters[0].Kind != command.KindInteger {
		t.Errorf("integral step should map to integer, got %s", def.Parameters[0].Kind)
	}
	if def.Parameters[1].Kind != command.KindFloat {
		t.Errorf("fractional step should map to float, got %s", def.Parameters[1].Kind)
	}
	if *def.Parameters[0].Max != 300 {
		t.Errorf("max = %v", *def.Parameters[0].Max)
	}
}

func TestUnknownSelectorSkipsOnlyThatService(t *testing.T) {
	h := newHarness(&mockDirectory{})
	domains, err := schema.Parse(json.RawMessage(`[{"domain": "misc", "services": {
		"bad": {"name": "Bad", "fields": {"code": {"selector": {"qr_code": {"data": "x"}}}}},
		"good": {"name": "Good", "fields": {"on": {"selector": {"boolean": null}}}}
	}}]`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	defs := h.builder.SynthesizeAll(domains)
	if len(defs) != 1 || defs[0].Name != "good" {
		t.Fatalf("defs = %+v, want only the good service", defs)
	}
}

func TestInvokeConstantInjection(t *testing.T) {
	h := newHarness(&mockDirectory{})
	svc := parseService(t, `[{"domain": "camera", "services": {"snapshot": {
		"name": "Snapshot",
		"fields": {"flash": {"selector": {"constant": {"value": "on", "label": "Flash"}}}}
	}}}]`)

	def, err := h.builder.Synthesize(svc)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if _, err := def.Invoke(context.Background(), "u", map[string]any{"flash": true}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := h.invoker.calls[0].data["flash"]; got != "on" {
		t.Errorf("enabled constant = %v, want injected value", got)
	}

	h.invoker.calls = nil
	if _, err := def.Invoke(context.Background(), "u", map[string]any{"flash": false}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if _, present := h.invoker.calls[0].data["flash"]; present {
		t.Error("disabled constant must be dropped, not forwarded as false")
	}
}

func TestInvokeTargetExpansion(t *testing.T) {
	h := newHarness(&mockDirectory{})
	svc := parseService(t, `[{"domain": "light", "services": {"turn_on": {
		"name": "Turn on",
		"target": {"entity": [{"domain": "light"}]}
	}}}]`)

	def, err := h.builder.Synthesize(svc)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	id := h.store.Create("u", []string{
		"AREA$kitchen",
		"ENTITY$light.kitchen",
		"BOGUS$dropped",
	})
	_, err = def.Invoke(context.Background(), "u", map[string]any{"target": session.EncodeID(id)})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	data := h.invoker.calls[0].data
	if got := data["area_id"].([]string); len(got) != 1 || got[0] != "kitchen" {
		t.Errorf("area_id = %v", got)
	}
	if got := data["entity_id"].([]string); len(got) != 1 || got[0] != "light.kitchen" {
		t.Errorf("entity_id = %v", got)
	}
	for key := range data {
		if key != "area_id" && key != "entity_id" {
			t.Errorf("unexpected data key %q (unknown prefixes must be dropped silently)", key)
		}
	}
}

func TestInvokeExpiredSessionIsUserError(t *testing.T) {
	h := newHarness(&mockDirectory{})
	svc := parseService(t, `[{"domain": "light", "services": {"turn_on": {
		"name": "Turn on",
		"target": {}
	}}}]`)

	def, err := h.builder.Synthesize(svc)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if _, err := def.Invoke(context.Background(), "u", map[string]any{"target": "zz"}); !errors.Is(err, session.ErrSessionExpired) {
		t.Errorf("err = %v, want ErrSessionExpired", err)
	}
	if len(h.invoker.calls) != 0 {
		t.Error("no remote call may happen after a validation failure")
	}
}

func TestInvokeResponseFallback(t *testing.T) {
	h := newHarness(&mockDirectory{})
	h.invoker.unsupported = true
	svc := parseService(t, `[{"domain": "weather", "services": {"get_forecasts": {
		"name": "Get", "response": {"optional": false}
	}}}]`)

	def, err := h.builder.Synthesize(svc)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if _, err := def.Invoke(context.Background(), "u", nil); err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if len(h.invoker.calls) != 2 {
		t.Fatalf("got %d calls, want structured attempt then plain fallback", len(h.invoker.calls))
	}
	if !h.invoker.calls[0].returnResponse || h.invoker.calls[1].returnResponse {
		t.Errorf("call order wrong: %+v", h.invoker.calls)
	}
}

func TestInvokeGenericFailureDoesNotFallBack(t *testing.T) {
	h := newHarness(&mockDirectory{})
	h.invoker.failWith = errors.New("boom")
	svc := parseService(t, `[{"domain": "weather", "services": {"get_forecasts": {
		"name": "Get", "response": {}
	}}}]`)

	def, err := h.builder.Synthesize(svc)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if _, err := def.Invoke(context.Background(), "u", nil); err == nil {
		t.Fatal("expected failure to surface")
	}
	if len(h.invoker.calls) != 1 {
		t.Errorf("got %d calls, generic failures must not trigger the fallback", len(h.invoker.calls))
	}
}

func TestInvokeNumericBounds(t *testing.T) {
	h := newHarness(&mockDirectory{})
	svc := parseService(t, `[{"domain": "light", "services": {"turn_on": {
		"name": "Turn on",
		"fields": {"brightness_pct": {"selector": {"number": {"min": 0, "max": 100}}}}
	}}}]`)

	def, err := h.builder.Synthesize(svc)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if _, err := def.Invoke(context.Background(), "u", map[string]any{"brightness_pct": float64(150)}); err == nil {
		t.Error("out-of-range value must be rejected before the remote call")
	}
	if len(h.invoker.calls) != 0 {
		t.Error("no remote call may happen after a bounds failure")
	}
}

func TestInvokeMultiEntityResolution(t *testing.T) {
	h := newHarness(&mockDirectory{})
	svc := parseService(t, `[{"domain": "homeassistant", "services": {"update_entity": {
		"name": "Update",
		"fields": {"entity_id": {"required": true, "selector": {"entity": {"multiple": true}}}}
	}}}]`)

	def, err := h.builder.Synthesize(svc)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	id := h.store.Create("u", []string{"light.kitchen", "light.hall"})
	if _, err := def.Invoke(context.Background(), "u", map[string]any{"entity_id": session.EncodeID(id)}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	got := h.invoker.calls[0].data["entity_id"].([]any)
	if len(got) != 2 || got[0] != "light.kitchen" {
		t.Errorf("entity_id = %v", got)
	}
}

func TestCoerceDefault(t *testing.T) {
	tests := []struct {
		kind command.ValueKind
		def  any
		want any
	}{
		{command.KindString, "x", "x"},
		{command.KindString, float64(3), nil},
		{command.KindInteger, float64(3), int64(3)},
		{command.KindInteger, float64(3.5), nil},
		{command.KindFloat, float64(3.5), float64(3.5)},
		{command.KindBoolean, true, true},
		{command.KindBoolean, "true", nil},
	}
	for _, tt := range tests {
		if got := coerceDefault(tt.kind, tt.def); got != tt.want {
			t.Errorf("coerceDefault(%s, %v) = %v, want %v", tt.kind, tt.def, got, tt.want)
		}
	}
}

func TestClampBounds(t *testing.T) {
	big := maxSafeNumber * 2
	min, max := clampBounds(nil, &big)
	if min != nil {
		t.Error("nil min must stay nil")
	}
	if *max != maxSafeNumber {
		t.Errorf("max = %v, want clamped to safe ceiling", *max)
	}
}
