package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Domain is one service namespace with its services in document order.
type Domain struct {
	Name     string
	Services []Service
}

// Service is one invocable action.
type Service struct {
	Domain      string
	Name        string
	DisplayName string
	Description string

	// Fields is the flattened field list in document order; collection
	// sections are inlined.
	Fields []Field

	// Target is the action-level target spec, nil when the action takes no
	// target.
	Target *TargetSelector

	// SupportsResponse reports whether the action can return structured
	// data; ResponseOptional whether returning it must be requested.
	SupportsResponse bool
	ResponseOptional bool
}

// Field is one service parameter declaration.
type Field struct {
	Key         string
	Name        string
	Description string
	Required    bool
	Advanced    bool
	Default     any
	Example     any

	// Selector is nil for YAML-only fields, which are not surfaced.
	Selector *Selector
}

// rawService mirrors the upstream service object, field map left raw for
// ordered decoding.
type rawService struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Fields      json.RawMessage `json:"fields,omitempty"`
	Target      *TargetSelector `json:"target,omitempty"`
	Response    *struct {
		Optional bool `json:"optional,omitempty"`
	} `json:"response,omitempty"`
}

// rawField mirrors one field entry. A non-empty Fields marks a collection
// section whose nested fields are flattened into the parent list.
type rawField struct {
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Required    bool            `json:"required,omitempty"`
	Advanced    bool            `json:"advanced,omitempty"`
	Default     any             `json:"default,omitempty"`
	Example     any             `json:"example,omitempty"`
	Collapsed   bool            `json:"collapsed,omitempty"`
	Selector    *Selector       `json:"selector,omitempty"`
	Fields      json.RawMessage `json:"fields,omitempty"`
}

// Parse decodes the raw service description document ("/api/services"
// response) into domains.
func Parse(raw json.RawMessage) ([]Domain, error) {
	var entries []struct {
		Domain   string          `json:"domain"`
		Services json.RawMessage `json:"services"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	domains := make([]Domain, 0, len(entries))
	for _, entry := range entries {
		d := Domain{Name: entry.Domain}
		err := decodeOrdered(entry.Services, func(name string, value json.RawMessage) error {
			svc, err := parseService(entry.Domain, name, value)
			if err != nil {
				return err
			}
			d.Services = append(d.Services, *svc)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", entry.Domain, err)
		}
		domains = append(domains, d)
	}
	return domains, nil
}

func parseService(domain, name string, raw json.RawMessage) (*Service, error) {
	var rs rawService
	if err := json.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("service %s: %w: %v", name, ErrMalformedDocument, err)
	}

	svc := &Service{
		Domain:      domain,
		Name:        name,
		DisplayName: rs.Name,
		Description: rs.Description,
		Target:      rs.Target,
	}
	if rs.Response != nil {
		svc.SupportsResponse = true
		svc.ResponseOptional = rs.Response.Optional
	}

	if len(rs.Fields) > 0 {
		fields, err := parseFields(rs.Fields)
		if err != nil {
			return nil, fmt.Errorf("service %s: %w", name, err)
		}
		svc.Fields = fields
	}
	return svc, nil
}

// parseFields decodes a field map in document order, flattening collection
// sections.
func parseFields(raw json.RawMessage) ([]Field, error) {
	var fields []Field
	err := decodeOrdered(raw, func(key string, value json.RawMessage) error {
		var rf rawField
		if err := json.Unmarshal(value, &rf); err != nil {
			return fmt.Errorf("field %s: %w: %v", key, ErrMalformedDocument, err)
		}

		if len(rf.Fields) > 0 {
			nested, err := parseFields(rf.Fields)
			if err != nil {
				return err
			}
			fields = append(fields, nested...)
			return nil
		}

		fields = append(fields, Field{
			Key:         key,
			Name:        rf.Name,
			Description: rf.Description,
			Required:    rf.Required,
			Advanced:    rf.Advanced,
			Default:     rf.Default,
			Example:     rf.Example,
			Selector:    rf.Selector,
		})
		return nil
	})
	return fields, err
}

// decodeOrdered walks a JSON object's entries in document order.
func decodeOrdered(data json.RawMessage, fn func(key string, value json.RawMessage) error) error {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("%w: expected object", ErrMalformedDocument)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("%w: non-string key", ErrMalformedDocument)
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDocument, err)
		}
		if err := fn(key, value); err != nil {
			return err
		}
	}
	return nil
}
