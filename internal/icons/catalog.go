package icons

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/hassbridge/hassbridge-core/internal/command"
)

// Meta is one icon's metadata entry in the upstream MDI meta document.
type Meta struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Aliases    []string `json:"aliases"`
	Deprecated bool     `json:"deprecated"`
	Tags       []string `json:"tags"`
}

// Catalog is the loaded icon set.
type Catalog struct {
	icons []Meta
}

// Load reads an MDI meta.json document from disk. Deprecated icons are
// dropped.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("icons: reading catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes an MDI meta document.
func Parse(data []byte) (*Catalog, error) {
	var all []Meta
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("icons: malformed catalog: %w", err)
	}

	kept := make([]Meta, 0, len(all))
	for _, m := range all {
		if m.Deprecated || m.Name == "" {
			continue
		}
		kept = append(kept, m)
	}
	return &Catalog{icons: kept}, nil
}

// Len returns the number of usable icons.
func (c *Catalog) Len() int {
	return len(c.icons)
}

// Choices renders the catalog as suggestion choices. Values carry the
// "mdi:" prefix the upstream platform expects.
func (c *Catalog) Choices() []command.Choice {
	out := make([]command.Choice, len(c.icons))
	for i, m := range c.icons {
		out[i] = command.Choice{
			Label: "mdi:" + m.Name,
			Value: "mdi:" + m.Name,
		}
	}
	return out
}
