package schema

import (
	"encoding/json"
	"testing"
)

const lightDocument = `[
  {
    "domain": "light",
    "services": {
      "turn_on": {
        "name": "Turn on",
        "description": "Turns on one or more lights.",
        "target": {
          "entity": [{"domain": "light"}]
        },
        "fields": {
          "transition": {
            "name": "Transition",
            "selector": {"number": {"min": 0, "max": 300}}
          },
          "advanced_fields": {
            "collapsed": true,
            "fields": {
              "rgb_color": {
                "selector": {"color_rgb": null}
              },
              "effect": {
                "selector": {"select": {"options": ["rainbow", "none"], "custom_value": true}}
              }
            }
          }
        }
      },
      "turn_off": {
        "name": "Turn off",
        "fields": {}
      }
    }
  }
]`

func TestParseDocumentOrder(t *testing.T) {
	domains, err := Parse(json.RawMessage(lightDocument))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(domains) != 1 || domains[0].Name != "light" {
		t.Fatalf("domains = %+v", domains)
	}

	services := domains[0].Services
	if len(services) != 2 {
		t.Fatalf("got %d services, want 2", len(services))
	}
	if services[0].Name != "turn_on" || services[1].Name != "turn_off" {
		t.Errorf("service order = [%s %s], want document order", services[0].Name, services[1].Name)
	}

	fields := services[0].Fields
	want := []string{"transition", "rgb_color", "effect"}
	if len(fields) != len(want) {
		t.Fatalf("got %d fields (%+v), want %d", len(fields), fields, len(want))
	}
	for i, key := range want {
		if fields[i].Key != key {
			t.Errorf("field[%d] = %s, want %s (collections must flatten in order)", i, fields[i].Key, key)
		}
	}
}

func TestParseNullSelectorConfig(t *testing.T) {
	domains, err := Parse(json.RawMessage(lightDocument))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	var rgb *Field
	for i, f := range domains[0].Services[0].Fields {
		if f.Key == "rgb_color" {
			rgb = &domains[0].Services[0].Fields[i]
		}
	}
	if rgb == nil || rgb.Selector == nil {
		t.Fatal("rgb_color field missing selector")
	}
	if rgb.Selector.Kind != KindColorRGB {
		t.Errorf("kind = %q, want color_rgb", rgb.Selector.Kind)
	}
	if string(rgb.Selector.Config) != "{}" {
		t.Errorf("null config not normalized, got %q", rgb.Selector.Config)
	}
}

func TestParseTargetFilters(t *testing.T) {
	domains, err := Parse(json.RawMessage(lightDocument))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	target := domains[0].Services[0].Target
	if target == nil {
		t.Fatal("missing target spec")
	}
	if len(target.Entity) != 1 || len(target.Entity[0].Domain) != 1 || target.Entity[0].Domain[0] != "light" {
		t.Errorf("target entity filters = %+v", target.Entity)
	}
}

func TestSelectorSingleOrListFilters(t *testing.T) {
	var sel Selector
	raw := `{"entity": {"filter": {"domain": "light", "supported_features": 4}}}`
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	cfg, err := sel.Entity()
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	if len(cfg.Filter) != 1 {
		t.Fatalf("filter = %+v, want single-element list", cfg.Filter)
	}
	f := cfg.Filter[0]
	if len(f.Domain) != 1 || f.Domain[0] != "light" {
		t.Errorf("domain = %v", f.Domain)
	}
	if len(f.SupportedFeatures) != 1 || f.SupportedFeatures[0] != 4 {
		t.Errorf("supported_features = %v", f.SupportedFeatures)
	}
}

func TestLegacyEntitySelectorNormalized(t *testing.T) {
	var sel Selector
	raw := `{"entity": {"integration": "hue", "domain": ["light"], "multiple": true}}`
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	cfg, err := sel.Entity()
	if err != nil {
		t.Fatalf("Entity: %v", err)
	}
	if !cfg.Multiple {
		t.Error("multiple flag lost")
	}
	if len(cfg.Filter) != 1 {
		t.Fatalf("filter = %+v, want legacy criteria folded in", cfg.Filter)
	}
	if cfg.Filter[0].Integration != "hue" || cfg.Filter[0].Domain[0] != "light" {
		t.Errorf("folded filter = %+v", cfg.Filter[0])
	}
	if cfg.Integration != "" || cfg.Domain != nil {
		t.Error("legacy fields must be cleared after folding")
	}
}

func TestLegacyDeviceSelectorNormalized(t *testing.T) {
	var sel Selector
	raw := `{"device": {"manufacturer": "Signify", "filter": {"model": "Hue"}}}`
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	cfg, err := sel.Device()
	if err != nil {
		t.Fatalf("Device: %v", err)
	}
	if len(cfg.Filter) != 2 {
		t.Fatalf("filter = %+v, want existing filter plus folded legacy", cfg.Filter)
	}
	if cfg.Filter[0].Model != "Hue" || cfg.Filter[1].Manufacturer != "Signify" {
		t.Errorf("filters = %+v", cfg.Filter)
	}
}

func TestSelectOptionForms(t *testing.T) {
	var sel Selector
	raw := `{"select": {"options": ["plain", {"label": "Fancy", "value": "fancy"}]}}`
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	cfg, err := sel.Select()
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(cfg.Options) != 2 {
		t.Fatalf("options = %+v", cfg.Options)
	}
	if cfg.Options[0].Label != "plain" || cfg.Options[0].Value != "plain" {
		t.Errorf("plain option = %+v", cfg.Options[0])
	}
	if cfg.Options[1].Label != "Fancy" || cfg.Options[1].Value != "fancy" {
		t.Errorf("object option = %+v", cfg.Options[1])
	}

	values, ok := cfg.StringValues()
	if !ok || len(values) != 2 {
		t.Errorf("StringValues = %v, %v", values, ok)
	}
}

func TestSelectStringValuesRejectsNonStrings(t *testing.T) {
	cfg := SelectSelector{Options: []SelectOption{{Label: "n", Value: float64(3)}}}
	if _, ok := cfg.StringValues(); ok {
		t.Error("numeric option value must not pass as plain string set")
	}
}

func TestNumberSelectorIsInteger(t *testing.T) {
	tests := []struct {
		step any
		want bool
	}{
		{nil, true},
		{float64(1), true},
		{float64(0.5), false},
		{"any", false},
	}
	for _, tt := range tests {
		if got := (NumberSelector{Step: tt.step}).IsInteger(); got != tt.want {
			t.Errorf("IsInteger(step=%v) = %v, want %v", tt.step, got, tt.want)
		}
	}
}

func TestParseResponseSpec(t *testing.T) {
	doc := `[{"domain": "weather", "services": {"get_forecasts": {"name": "Get", "response": {"optional": false}}}}]`
	domains, err := Parse(json.RawMessage(doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	svc := domains[0].Services[0]
	if !svc.SupportsResponse || svc.ResponseOptional {
		t.Errorf("response flags = %v/%v, want supported and mandatory", svc.SupportsResponse, svc.ResponseOptional)
	}
}

func TestParseMalformedDocument(t *testing.T) {
	if _, err := Parse(json.RawMessage(`{"not": "a list"}`)); err == nil {
		t.Error("expected error for non-list document")
	}
}

func TestSelectorUnknownKindSurvivesParse(t *testing.T) {
	var sel Selector
	if err := json.Unmarshal([]byte(`{"qr_code": {"data": "x"}}`), &sel); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sel.Kind != "qr_code" {
		t.Errorf("kind = %q, want qr_code (unknown kinds are a synthesis-time concern)", sel.Kind)
	}
}
