package builtin

import (
	"context"
	"testing"

	"github.com/hassbridge/hassbridge-core/internal/hass"
	"github.com/hassbridge/hassbridge-core/internal/relation"
	"github.com/hassbridge/hassbridge-core/internal/suggest"
)

type mockDirectory struct {
	entities []hass.Entity
	areas    []hass.Area
}

func (m *mockDirectory) Entities(ctx context.Context) ([]hass.Entity, error) {
	return m.entities, nil
}
func (m *mockDirectory) Devices(ctx context.Context) ([]hass.Device, error) { return nil, nil }
func (m *mockDirectory) Areas(ctx context.Context) ([]hass.Area, error)     { return m.areas, nil }
func (m *mockDirectory) Floors(ctx context.Context) ([]hass.Floor, error)   { return nil, nil }
func (m *mockDirectory) Labels(ctx context.Context) ([]hass.Label, error)   { return nil, nil }
func (m *mockDirectory) IntegrationEntityIDs(ctx context.Context, integration string) ([]string, error) {
	return nil, nil
}

type mockAgent struct {
	lastConversationID string
}

func (m *mockAgent) Conversation(ctx context.Context, text, language, conversationID string) (*hass.ConversationResult, error) {
	m.lastConversationID = conversationID
	return &hass.ConversationResult{
		Speech:         "done: " + text,
		Success:        true,
		ConversationID: "conv-1",
	}, nil
}

func newCommands(dir *mockDirectory, agent ConversationAgent) *Commands {
	source := suggest.New(dir, relation.NewResolver(dir), 25, 0.2)
	return New(dir, source, agent)
}

func TestDefinitionsIncludeAllLookups(t *testing.T) {
	c := newCommands(&mockDirectory{}, &mockAgent{})
	names := make(map[string]bool)
	for _, d := range c.Definitions() {
		names[d.Name] = true
	}
	for _, want := range []string{"get_entity", "get_device", "get_area", "get_floor", "get_label", "assist"} {
		if !names[want] {
			t.Errorf("missing builtin command %s", want)
		}
	}
}

func TestGetEntity(t *testing.T) {
	dir := &mockDirectory{entities: []hass.Entity{{
		EntityID:   "light.kitchen",
		State:      "on",
		Attributes: map[string]any{"friendly_name": "Kitchen Light", "brightness": float64(200)},
	}}}
	c := newCommands(dir, nil)

	def := c.getEntity()
	res, err := def.Invoke(context.Background(), "u", map[string]any{"entity_id": "light.kitchen"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.Response["friendly_name"] != "Kitchen Light" || res.Response["state"] != "on" {
		t.Errorf("response = %v", res.Response)
	}
	attrs := res.Response["attributes"].(map[string]any)
	if _, present := attrs["friendly_name"]; present {
		t.Error("friendly_name must be omitted from the attribute dump")
	}
	if attrs["brightness"] != float64(200) {
		t.Errorf("attributes = %v", attrs)
	}
}

func TestGetEntityNotFound(t *testing.T) {
	c := newCommands(&mockDirectory{}, nil)
	def := c.getEntity()
	if _, err := def.Invoke(context.Background(), "u", map[string]any{"entity_id": "light.ghost"}); err == nil {
		t.Error("expected not-found error")
	}
}

func TestGetArea(t *testing.T) {
	dir := &mockDirectory{areas: []hass.Area{{
		ID: "kitchen", Name: "Kitchen", FloorID: "ground",
		Devices: []string{"dev-1"}, Entities: []string{"light.kitchen"},
	}}}
	c := newCommands(dir, nil)

	def := c.getArea()
	res, err := def.Invoke(context.Background(), "u", map[string]any{"area_id": "kitchen"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if res.Message != "Kitchen" || res.Response["floor_id"] != "ground" {
		t.Errorf("result = %+v", res)
	}
}

func TestAssistContinuesConversation(t *testing.T) {
	agent := &mockAgent{}
	c := newCommands(&mockDirectory{}, agent)
	def := c.assist()
	ctx := context.Background()

	res, err := def.Invoke(ctx, "alice", map[string]any{"message": "turn on the lights"})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if agent.lastConversationID != "" {
		t.Error("first message must start a fresh conversation")
	}
	if res.Message != "done: turn on the lights" {
		t.Errorf("message = %q", res.Message)
	}

	if _, err := def.Invoke(ctx, "alice", map[string]any{"message": "and the fan"}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if agent.lastConversationID != "conv-1" {
		t.Errorf("follow-up sent conversation ID %q, want conv-1", agent.lastConversationID)
	}
}

func TestAssistIsolatesUsers(t *testing.T) {
	agent := &mockAgent{}
	c := newCommands(&mockDirectory{}, agent)
	def := c.assist()
	ctx := context.Background()

	if _, err := def.Invoke(ctx, "alice", map[string]any{"message": "hi"}); err != nil {
		t.Fatal(err)
	}
	if _, err := def.Invoke(ctx, "bob", map[string]any{"message": "hi"}); err != nil {
		t.Fatal(err)
	}
	if agent.lastConversationID != "" {
		t.Error("bob's first message must not inherit alice's conversation")
	}
}
