package builtin

import (
	"context"
	"fmt"

	"github.com/hassbridge/hassbridge-core/internal/command"
	"github.com/hassbridge/hassbridge-core/internal/hass"
	"github.com/hassbridge/hassbridge-core/internal/relation"
	"github.com/hassbridge/hassbridge-core/internal/suggest"
)

// Commands builds the fixed command surface.
type Commands struct {
	dir    relation.Directory
	source *suggest.Source
	agent  ConversationAgent
}

// ConversationAgent is the upstream conversational boundary. *hass.Client
// satisfies it.
type ConversationAgent interface {
	Conversation(ctx context.Context, text, language, conversationID string) (*hass.ConversationResult, error)
}

// New creates the builtin command set.
func New(dir relation.Directory, source *suggest.Source, agent ConversationAgent) *Commands {
	return &Commands{dir: dir, source: source, agent: agent}
}

// Definitions returns every builtin command definition.
func (c *Commands) Definitions() []command.Definition {
	defs := []command.Definition{
		c.getEntity(),
		c.getDevice(),
		c.getArea(),
		c.getFloor(),
		c.getLabel(),
	}
	if c.agent != nil {
		defs = append(defs, c.assist())
	}
	return defs
}

func (c *Commands) getEntity() command.Definition {
	return command.Definition{
		Namespace:   "hassbridge",
		Name:        "get_entity",
		Description: "Retrieves information about an entity",
		Parameters: []command.Parameter{{
			Name:        "entity_id",
			Description: "Entity identifier",
			Kind:        command.KindString,
			Required:    true,
			Suggest:     c.source.Entities(nil, nil),
		}},
		Invoke: func(ctx context.Context, userID string, args map[string]any) (*command.Result, error) {
			id, err := stringArg(args, "entity_id")
			if err != nil {
				return nil, err
			}
			entities, err := c.dir.Entities(ctx)
			if err != nil {
				return nil, fmt.Errorf("fetching entities: %w", err)
			}
			for _, e := range entities {
				if e.EntityID != id {
					continue
				}
				detail := map[string]any{
					"entity_id": e.EntityID,
					"state":     e.State,
				}
				if name, ok := e.FriendlyName(); ok {
					detail["friendly_name"] = name
				}
				if e.LastChanged != nil {
					detail["last_changed"] = e.LastChanged
				}
				if e.LastUpdated != nil {
					detail["last_updated"] = e.LastUpdated
				}
				attrs := make(map[string]any, len(e.Attributes))
				for k, v := range e.Attributes {
					if k == "friendly_name" {
						continue
					}
					attrs[k] = v
				}
				detail["attributes"] = attrs
				return &command.Result{Message: e.EntityID, Response: detail}, nil
			}
			return nil, notFound("entity", id)
		},
	}
}

func (c *Commands) getDevice() command.Definition {
	return command.Definition{
		Namespace:   "hassbridge",
		Name:        "get_device",
		Description: "Retrieves information about a device",
		Parameters: []command.Parameter{{
			Name:        "device_id",
			Description: "Device identifier",
			Kind:        command.KindString,
			Required:    true,
			Suggest:     c.source.Devices(nil, nil),
		}},
		Invoke: func(ctx context.Context, userID string, args map[string]any) (*command.Result, error) {
			id, err := stringArg(args, "device_id")
			if err != nil {
				return nil, err
			}
			devices, err := c.dir.Devices(ctx)
			if err != nil {
				return nil, fmt.Errorf("fetching devices: %w", err)
			}
			for _, d := range devices {
				if d.ID != id {
					continue
				}
				detail := map[string]any{
					"id":   d.ID,
					"name": d.DisplayName(),
				}
				if d.AreaID != "" {
					detail["area_id"] = d.AreaID
				}
				if d.Manufacturer != "" {
					detail["manufacturer"] = d.Manufacturer
				}
				if d.Model != "" {
					detail["model"] = d.Model
				}
				if d.SWVersion != "" {
					detail["sw_version"] = d.SWVersion
				}
				if d.SerialNumber != "" {
					detail["serial_number"] = d.SerialNumber
				}
				detail["entities"] = d.Entities
				return &command.Result{Message: d.DisplayName(), Response: detail}, nil
			}
			return nil, notFound("device", id)
		},
	}
}

func (c *Commands) getArea() command.Definition {
	return command.Definition{
		Namespace:   "hassbridge",
		Name:        "get_area",
		Description: "Retrieves information about an area",
		Parameters: []command.Parameter{{
			Name:        "area_id",
			Description: "Area identifier",
			Kind:        command.KindString,
			Required:    true,
			Suggest:     c.source.Areas(nil, nil),
		}},
		Invoke: func(ctx context.Context, userID string, args map[string]any) (*command.Result, error) {
			id, err := stringArg(args, "area_id")
			if err != nil {
				return nil, err
			}
			areas, err := c.dir.Areas(ctx)
			if err != nil {
				return nil, fmt.Errorf("fetching areas: %w", err)
			}
			for _, a := range areas {
				if a.ID != id {
					continue
				}
				detail := map[string]any{
					"id":       a.ID,
					"name":     a.Name,
					"devices":  a.Devices,
					"entities": a.Entities,
				}
				if a.FloorID != "" {
					detail["floor_id"] = a.FloorID
				}
				return &command.Result{Message: a.Name, Response: detail}, nil
			}
			return nil, notFound("area", id)
		},
	}
}

func (c *Commands) getFloor() command.Definition {
	return command.Definition{
		Namespace:   "hassbridge",
		Name:        "get_floor",
		Description: "Retrieves information about a floor",
		Parameters: []command.Parameter{{
			Name:        "floor_id",
			Description: "Floor identifier",
			Kind:        command.KindString,
			Required:    true,
			Suggest:     c.source.Floors(nil, nil),
		}},
		Invoke: func(ctx context.Context, userID string, args map[string]any) (*command.Result, error) {
			id, err := stringArg(args, "floor_id")
			if err != nil {
				return nil, err
			}
			floors, err := c.dir.Floors(ctx)
			if err != nil {
				return nil, fmt.Errorf("fetching floors: %w", err)
			}
			for _, f := range floors {
				if f.ID != id {
					continue
				}
				return &command.Result{Message: f.Name, Response: map[string]any{
					"id":       f.ID,
					"name":     f.Name,
					"areas":    f.Areas,
					"entities": f.Entities,
				}}, nil
			}
			return nil, notFound("floor", id)
		},
	}
}

func (c *Commands) getLabel() command.Definition {
	return command.Definition{
		Namespace:   "hassbridge",
		Name:        "get_label",
		Description: "Retrieves information about a label",
		Parameters: []command.Parameter{{
			Name:        "label_id",
			Description: "Label identifier",
			Kind:        command.KindString,
			Required:    true,
			Suggest:     c.source.Labels(nil, nil),
		}},
		Invoke: func(ctx context.Context, userID string, args map[string]any) (*command.Result, error) {
			id, err := stringArg(args, "label_id")
			if err != nil {
				return nil, err
			}
			labels, err := c.dir.Labels(ctx)
			if err != nil {
				return nil, fmt.Errorf("fetching labels: %w", err)
			}
			for _, l := range labels {
				if l.ID != id {
					continue
				}
				detail := map[string]any{
					"id":       l.ID,
					"name":     l.Name,
					"areas":    l.Areas,
					"devices":  l.Devices,
					"entities": l.Entities,
				}
				if l.Description != "" {
					detail["description"] = l.Description
				}
				return &command.Result{Message: l.Name, Response: detail}, nil
			}
			return nil, notFound("label", id)
		},
	}
}

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("builtin: missing required argument %s", key)
	}
	return v, nil
}

func notFound(kind, id string) error {
	return fmt.Errorf("builtin: %s %q not found", kind, id)
}
