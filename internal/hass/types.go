package hass

import (
	"regexp"
	"strings"
	"time"
)

// Entity is a point-in-time snapshot of a Home Assistant entity state.
type Entity struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged *time.Time     `json:"last_changed,omitempty"`
	LastUpdated *time.Time     `json:"last_updated,omitempty"`
}

// Domain returns the entity's domain, parsed from the ID before the first
// separator ("light.kitchen" → "light"). Returns the whole ID if no
// separator is present.
func (e Entity) Domain() string {
	if i := strings.IndexByte(e.EntityID, '.'); i >= 0 {
		return e.EntityID[:i]
	}
	return e.EntityID
}

// FriendlyName returns the entity's human-readable name from its attribute
// map, or false if none is set.
func (e Entity) FriendlyName() (string, bool) {
	v, ok := e.Attributes["friendly_name"]
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}

// DeviceClass returns the entity's device class attribute, or false if none
// is set.
func (e Entity) DeviceClass() (string, bool) {
	v, ok := e.Attributes["device_class"]
	if !ok {
		return "", false
	}
	class, ok := v.(string)
	return class, ok
}

// SupportedFeatures returns the entity's capability bitflags, or 0 if the
// attribute is absent or not numeric.
func (e Entity) SupportedFeatures() int64 {
	switch v := e.Attributes["supported_features"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

// Device is a point-in-time snapshot of a device registry entry with its
// owned entity IDs.
type Device struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	NameByUser   string   `json:"name_by_user,omitempty"`
	AreaID       string   `json:"area_id,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
	ModelID      string   `json:"model_id,omitempty"`
	SWVersion    string   `json:"sw_version,omitempty"`
	HWVersion    string   `json:"hw_version,omitempty"`
	SerialNumber string   `json:"serial_number,omitempty"`
	Entities     []string `json:"entities"`
}

// DisplayName returns the user-assigned name if set, otherwise the
// integration-provided name.
func (d Device) DisplayName() string {
	if d.NameByUser != "" {
		return d.NameByUser
	}
	return d.Name
}

// Area is a point-in-time snapshot of an area with its member device and
// entity IDs.
type Area struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	FloorID  string   `json:"floor_id,omitempty"`
	Devices  []string `json:"devices"`
	Entities []string `json:"entities"`
}

// Floor is a point-in-time snapshot of a floor with its member area IDs and
// directly assigned entity IDs.
type Floor struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Areas    []string `json:"areas"`
	Entities []string `json:"entities"`
}

// Label is a point-in-time snapshot of a label and the area/device/entity
// IDs it is attached to.
type Label struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Areas       []string `json:"areas"`
	Devices     []string `json:"devices"`
	Entities    []string `json:"entities"`
}

var idUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_:.]`)

// EscapeID strips characters outside [a-zA-Z0-9_:.] from an identifier
// before it is interpolated into an outbound request path.
func EscapeID(id string) string {
	return idUnsafe.ReplaceAllString(id, "")
}
