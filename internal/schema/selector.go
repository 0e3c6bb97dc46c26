package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hassbridge/hassbridge-core/internal/relation"
)

// Selector kinds the synthesizer understands. Kinds outside this list are
// reported through Selector.Kind and rejected at synthesis time.
const (
	KindArea      = "area"
	KindAttribute = "attribute"
	KindBoolean   = "boolean"
	KindColorRGB  = "color_rgb"
	KindColorTemp = "color_temp"
	KindConstant  = "constant"
	KindConvAgent = "conversation_agent"
	KindCountry   = "country"
	KindDate      = "date"
	KindDateTime  = "datetime"
	KindDevice    = "device"
	KindDuration  = "duration"
	KindEntity    = "entity"
	KindFloor     = "floor"
	KindIcon      = "icon"
	KindLabel     = "label"
	KindLanguage  = "language"
	KindLocation  = "location"
	KindNumber    = "number"
	KindObject    = "object"
	KindSelect    = "select"
	KindTarget    = "target"
	KindTemplate  = "template"
	KindText      = "text"
	KindTheme     = "theme"
	KindTime      = "time"
)

// Selector is one field's declared capture kind with its raw config. The
// config is decoded lazily by the kind-specific accessors.
type Selector struct {
	Kind   string
	Config json.RawMessage
}

// UnmarshalJSON decodes the first selector entry in document order. A null
// config ("entity: null") is normalized to an empty object.
func (s *Selector) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: selector is not an object", ErrMalformedDocument)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		key := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		if s.Kind != "" {
			continue // first entry wins; the rest are drained
		}
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			raw = json.RawMessage(`{}`)
		}
		s.Kind = key
		s.Config = raw
	}
	return nil
}

// decodeConfig decodes the selector config into out.
func (s *Selector) decodeConfig(out any) error {
	if len(s.Config) == 0 {
		return nil
	}
	if err := json.Unmarshal(s.Config, out); err != nil {
		return fmt.Errorf("%w: %s selector: %v", ErrMalformedDocument, s.Kind, err)
	}
	return nil
}

// StringList accepts both "x" and ["x","y"].
type StringList []string

// UnmarshalJSON implements the single-or-list convention.
func (l *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*l = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = StringList(many)
	return nil
}

// IntList accepts both 1 and [1,2].
type IntList []int64

// UnmarshalJSON implements the single-or-list convention.
func (l *IntList) UnmarshalJSON(data []byte) error {
	var one int64
	if err := json.Unmarshal(data, &one); err == nil {
		*l = IntList{one}
		return nil
	}
	var many []int64
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = IntList(many)
	return nil
}

// EntityFilter narrows entities inside a selector declaration.
type EntityFilter struct {
	Integration       string     `json:"integration,omitempty"`
	Domain            StringList `json:"domain,omitempty"`
	DeviceClass       StringList `json:"device_class,omitempty"`
	SupportedFeatures IntList    `json:"supported_features,omitempty"`
}

// Relation converts the filter to its resolver form.
func (f EntityFilter) Relation() relation.EntityFilter {
	return relation.EntityFilter{
		Integration:       f.Integration,
		Domains:           f.Domain,
		DeviceClasses:     f.DeviceClass,
		SupportedFeatures: f.SupportedFeatures,
	}
}

// DeviceFilter narrows devices inside a selector declaration.
type DeviceFilter struct {
	Integration  string `json:"integration,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	ModelID      string `json:"model_id,omitempty"`
}

// Relation converts the filter to its resolver form.
func (f DeviceFilter) Relation() relation.DeviceFilter {
	return relation.DeviceFilter{
		Integration:  f.Integration,
		Manufacturer: f.Manufacturer,
		Model:        f.Model,
		ModelID:      f.ModelID,
	}
}

// EntityFilterList accepts both a single filter object and a list.
type EntityFilterList []EntityFilter

// UnmarshalJSON implements the single-or-list convention.
func (l *EntityFilterList) UnmarshalJSON(data []byte) error {
	if len(bytes.TrimSpace(data)) > 0 && bytes.TrimSpace(data)[0] == '[' {
		var many []EntityFilter
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*l = EntityFilterList(many)
		return nil
	}
	var one EntityFilter
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = EntityFilterList{one}
	return nil
}

// Relation converts every filter to its resolver form.
func (l EntityFilterList) Relation() []relation.EntityFilter {
	if len(l) == 0 {
		return nil
	}
	out := make([]relation.EntityFilter, len(l))
	for i, f := range l {
		out[i] = f.Relation()
	}
	return out
}

// DeviceFilterList accepts both a single filter object and a list.
type DeviceFilterList []DeviceFilter

// UnmarshalJSON implements the single-or-list convention.
func (l *DeviceFilterList) UnmarshalJSON(data []byte) error {
	if len(bytes.TrimSpace(data)) > 0 && bytes.TrimSpace(data)[0] == '[' {
		var many []DeviceFilter
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*l = DeviceFilterList(many)
		return nil
	}
	var one DeviceFilter
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*l = DeviceFilterList{one}
	return nil
}

// Relation converts every filter to its resolver form.
func (l DeviceFilterList) Relation() []relation.DeviceFilter {
	if len(l) == 0 {
		return nil
	}
	out := make([]relation.DeviceFilter, len(l))
	for i, f := range l {
		out[i] = f.Relation()
	}
	return out
}

// EntitySelector is the config of an entity selector, with the legacy flat
// criteria fields still accepted.
type EntitySelector struct {
	Multiple        bool             `json:"multiple,omitempty"`
	IncludeEntities []string         `json:"include_entities,omitempty"`
	ExcludeEntities []string         `json:"exclude_entities,omitempty"`
	Filter          EntityFilterList `json:"filter,omitempty"`
	Reorder         bool             `json:"reorder,omitempty"`

	// Legacy flat form, folded into Filter by Normalize.
	Integration string     `json:"integration,omitempty"`
	Domain      StringList `json:"domain,omitempty"`
	DeviceClass StringList `json:"device_class,omitempty"`
}

// Normalize folds the legacy flat criteria into the filter list.
func (s *EntitySelector) Normalize() {
	if s.Integration == "" && len(s.Domain) == 0 && len(s.DeviceClass) == 0 {
		return
	}
	s.Filter = append(s.Filter, EntityFilter{
		Integration: s.Integration,
		Domain:      s.Domain,
		DeviceClass: s.DeviceClass,
	})
	s.Integration = ""
	s.Domain = nil
	s.DeviceClass = nil
}

// DeviceSelector is the config of a device selector, with the legacy flat
// criteria fields still accepted.
type DeviceSelector struct {
	Entity   EntityFilterList `json:"entity,omitempty"`
	Filter   DeviceFilterList `json:"filter,omitempty"`
	Multiple bool             `json:"multiple,omitempty"`

	// Legacy flat form, folded into Filter by Normalize.
	Integration  string `json:"integration,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
}

// Normalize folds the legacy flat criteria into the filter list.
func (s *DeviceSelector) Normalize() {
	if s.Integration == "" && s.Manufacturer == "" && s.Model == "" {
		return
	}
	s.Filter = append(s.Filter, DeviceFilter{
		Integration:  s.Integration,
		Manufacturer: s.Manufacturer,
		Model:        s.Model,
	})
	s.Integration = ""
	s.Manufacturer = ""
	s.Model = ""
}

// AreaSelector is the config of an area selector.
type AreaSelector struct {
	Entity   EntityFilterList `json:"entity,omitempty"`
	Device   DeviceFilterList `json:"device,omitempty"`
	Multiple bool             `json:"multiple,omitempty"`
}

// FloorSelector is the config of a floor selector.
type FloorSelector struct {
	Entity   EntityFilterList `json:"entity,omitempty"`
	Device   DeviceFilterList `json:"device,omitempty"`
	Multiple bool             `json:"multiple,omitempty"`
}

// LabelSelector is the config of a label selector.
type LabelSelector struct {
	Multiple bool `json:"multiple,omitempty"`
}

// NumberSelector is the config of a number selector.
type NumberSelector struct {
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step any      `json:"step,omitempty"`
	Unit string   `json:"unit_of_measurement,omitempty"`
	Mode string   `json:"mode,omitempty"`
}

// IsInteger reports whether the declared step keeps values integral. A
// missing step defaults to 1 in the upstream UI, which is integral.
func (s NumberSelector) IsInteger() bool {
	switch v := s.Step.(type) {
	case nil:
		return true
	case float64:
		return v == float64(int64(v))
	default:
		return false // "any" or other markers mean free floats
	}
}

// SelectOption is one option of a select selector, normalized from either
// a plain string or an object form.
type SelectOption struct {
	Label string `json:"label"`
	Value any    `json:"value"`
}

// UnmarshalJSON accepts both "opt" and {"label":..., "value":...}.
func (o *SelectOption) UnmarshalJSON(data []byte) error {
	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		o.Label = plain
		o.Value = plain
		return nil
	}
	type object SelectOption
	var obj object
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*o = SelectOption(obj)
	return nil
}

// SelectSelector is the config of a select selector.
type SelectSelector struct {
	Multiple    bool           `json:"multiple,omitempty"`
	CustomValue bool           `json:"custom_value,omitempty"`
	Mode        string         `json:"mode,omitempty"`
	Options     []SelectOption `json:"options,omitempty"`
	Sort        bool           `json:"sort,omitempty"`
}

// StringValues returns the option values when every value is a plain
// string, or false when any is not.
func (s SelectSelector) StringValues() ([]string, bool) {
	out := make([]string, len(s.Options))
	for i, o := range s.Options {
		v, ok := o.Value.(string)
		if !ok {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}

// TextSelector is the config of a text selector.
type TextSelector struct {
	Multiline bool   `json:"multiline,omitempty"`
	Type      string `json:"type,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	Suffix    string `json:"suffix,omitempty"`
	Multiple  bool   `json:"multiple,omitempty"`
}

// DurationSelector is the config of a duration selector.
type DurationSelector struct {
	EnableDay         bool `json:"enable_day,omitempty"`
	EnableMillisecond bool `json:"enable_millisecond,omitempty"`
}

// TimeSelector is the config of a time selector.
type TimeSelector struct {
	NoSecond bool `json:"no_second,omitempty"`
}

// LocationSelector is the config of a location selector.
type LocationSelector struct {
	Radius         bool `json:"radius,omitempty"`
	RadiusReadonly bool `json:"radius_readonly,omitempty"`
}

// ColorTempSelector is the config of a color temperature selector.
type ColorTempSelector struct {
	Unit      string   `json:"unit,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinMireds *float64 `json:"min_mireds,omitempty"`
	MaxMireds *float64 `json:"max_mireds,omitempty"`
}

// ConstantSelector is the config of a constant selector: a toggle that
// injects a fixed value when enabled.
type ConstantSelector struct {
	Label string `json:"label,omitempty"`
	Value any    `json:"value"`
}

// IconSelector is the config of an icon selector.
type IconSelector struct {
	Placeholder string `json:"placeholder,omitempty"`
}

// ObjectSelector is the config of a free-form structured object selector.
type ObjectSelector struct {
	Multiple bool `json:"multiple,omitempty"`
}

// TargetSelector is an action's target spec or a target-kind field config.
type TargetSelector struct {
	Entity EntityFilterList `json:"entity,omitempty"`
	Device DeviceFilterList `json:"device,omitempty"`
}

// Entity decodes the selector as an entity selector, legacy form folded.
func (s *Selector) Entity() (*EntitySelector, error) {
	var cfg EntitySelector
	if err := s.decodeConfig(&cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Device decodes the selector as a device selector, legacy form folded.
func (s *Selector) Device() (*DeviceSelector, error) {
	var cfg DeviceSelector
	if err := s.decodeConfig(&cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Area decodes the selector as an area selector.
func (s *Selector) Area() (*AreaSelector, error) {
	var cfg AreaSelector
	err := s.decodeConfig(&cfg)
	return &cfg, err
}

// Floor decodes the selector as a floor selector.
func (s *Selector) Floor() (*FloorSelector, error) {
	var cfg FloorSelector
	err := s.decodeConfig(&cfg)
	return &cfg, err
}

// Label decodes the selector as a label selector.
func (s *Selector) Label() (*LabelSelector, error) {
	var cfg LabelSelector
	err := s.decodeConfig(&cfg)
	return &cfg, err
}

// Number decodes the selector as a number selector.
func (s *Selector) Number() (*NumberSelector, error) {
	var cfg NumberSelector
	err := s.decodeConfig(&cfg)
	return &cfg, err
}

// Select decodes the selector as a select selector.
func (s *Selector) Select() (*SelectSelector, error) {
	var cfg SelectSelector
	err := s.decodeConfig(&cfg)
	return &cfg, err
}

// Text decodes the selector as a text selector.
func (s *Selector) Text() (*TextSelector, error) {
	var cfg TextSelector
	err := s.decodeConfig(&cfg)
	return &cfg, err
}

// Duration decodes the selector as a duration selector.
func (s *Selector) Duration() (*DurationSelector, error) {
	var cfg DurationSelector
	err := s.decodeConfig(&cfg)
	return &cfg, err
}

// Time decodes the selector as a time selector.
func (s *Selector) Time() (*TimeSelector, error) {
	var cfg TimeSelector
	err := s.decodeConfig(&cfg)
	return &cfg, err
}

// Location decodes the selector as a location selector.
func (s *Selector) Location() (*LocationSelector, error) {
	var cfg LocationSelector
	err := s.decodeConfig(&cfg)
	return &cfg, err
}

// ColorTemp decodes the selector as a color temperature selector.
func (s *Selector) ColorTemp() (*ColorTempSelector, error) {
	var cfg ColorTempSelector
	err := s.decodeConfig(&cfg)
	return &cfg, err
}

// Constant decodes the selector as a constant selector.
func (s *Selector) Constant() (*ConstantSelector, error) {
	var cfg ConstantSelector
	err := s.decodeConfig(&cfg)
	return &cfg, err
}

// Icon decodes the selector as an icon selector.
func (s *Selector) Icon() (*IconSelector, error) {
	var cfg IconSelector
	err := s.decodeConfig(&cfg)
	return &cfg, err
}

// Object decodes the selector as an object selector.
func (s *Selector) Object() (*ObjectSelector, error) {
	var cfg ObjectSelector
	err := s.decodeConfig(&cfg)
	return &cfg, err
}

// Target decodes the selector as a target selector.
func (s *Selector) Target() (*TargetSelector, error) {
	var cfg TargetSelector
	err := s.decodeConfig(&cfg)
	return &cfg, err
}
