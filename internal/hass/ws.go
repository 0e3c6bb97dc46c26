package hass

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

// Registry list command types exposed only over the WebSocket API.
const (
	cmdAreaRegistry   = "config/area_registry/list"
	cmdFloorRegistry  = "config/floor_registry/list"
	cmdLabelRegistry  = "config/label_registry/list"
	cmdDeviceRegistry = "config/device_registry/list"
	cmdEntityRegistry = "config/entity_registry/list"
)

// Raw registry rows as Home Assistant returns them.

type areaRow struct {
	AreaID  string   `json:"area_id"`
	Name    string   `json:"name"`
	FloorID string   `json:"floor_id"`
	Labels  []string `json:"labels"`
}

type floorRow struct {
	FloorID string `json:"floor_id"`
	Name    string `json:"name"`
	Level   *int   `json:"level"`
}

type labelRow struct {
	LabelID     string `json:"label_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type deviceRow struct {
	ID           string   `json:"id"`
	AreaID       string   `json:"area_id"`
	Name         string   `json:"name"`
	NameByUser   string   `json:"name_by_user"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	ModelID      string   `json:"model_id"`
	SWVersion    string   `json:"sw_version"`
	HWVersion    string   `json:"hw_version"`
	SerialNumber string   `json:"serial_number"`
	Labels       []string `json:"labels"`
}

type entityRow struct {
	EntityID string   `json:"entity_id"`
	DeviceID string   `json:"device_id"`
	AreaID   string   `json:"area_id"`
	Platform string   `json:"platform"`
	Labels   []string `json:"labels"`
}

// registrySnapshot holds every registry fetched over one connection, so the
// collections assembled from it are mutually consistent.
type registrySnapshot struct {
	areas    []areaRow
	floors   []floorRow
	labels   []labelRow
	devices  []deviceRow
	entities []entityRow
}

// wsMessage is the envelope for WebSocket frames in both directions.
type wsMessage struct {
	ID          int             `json:"id,omitempty"`
	Type        string          `json:"type"`
	AccessToken string          `json:"access_token,omitempty"`
	Success     *bool           `json:"success,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       *wsError        `json:"error,omitempty"`
}

type wsError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// fetchRegistries dials the WebSocket API, authenticates, lists every
// registry and closes the connection.
func (c *Client) fetchRegistries(ctx context.Context) (*registrySnapshot, error) {
	conn, err := c.dialWS(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	snap := &registrySnapshot{}
	id := 0

	fetch := func(cmd string, out any) error {
		id++
		return c.wsCommand(ctx, conn, id, cmd, out)
	}

	if err := fetch(cmdAreaRegistry, &snap.areas); err != nil {
		return nil, err
	}
	if err := fetch(cmdFloorRegistry, &snap.floors); err != nil {
		return nil, err
	}
	if err := fetch(cmdLabelRegistry, &snap.labels); err != nil {
		return nil, err
	}
	if err := fetch(cmdDeviceRegistry, &snap.devices); err != nil {
		return nil, err
	}
	if err := fetch(cmdEntityRegistry, &snap.entities); err != nil {
		return nil, err
	}

	return snap, nil
}

// dialWS connects and completes the auth handshake.
func (c *Client) dialWS(ctx context.Context) (*websocket.Conn, error) {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u = *u.JoinPath("api", "websocket")

	dialer := websocket.Dialer{HandshakeTimeout: c.timeout}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing websocket: %w", err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	var hello wsMessage
	if err := conn.ReadJSON(&hello); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading auth challenge: %w", err)
	}
	if hello.Type != "auth_required" {
		conn.Close()
		return nil, fmt.Errorf("unexpected handshake message %q", hello.Type)
	}

	if err := conn.WriteJSON(wsMessage{Type: "auth", AccessToken: c.token}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending auth: %w", err)
	}

	var reply wsMessage
	if err := conn.ReadJSON(&reply); err != nil {
		conn.Close()
		return nil, fmt.Errorf("reading auth reply: %w", err)
	}
	if reply.Type != "auth_ok" {
		conn.Close()
		return nil, ErrUnauthorized
	}

	return conn, nil
}

// wsCommand sends one command and reads frames until its result arrives.
func (c *Client) wsCommand(ctx context.Context, conn *websocket.Conn, id int, cmd string, out any) error {
	if err := conn.WriteJSON(wsMessage{ID: id, Type: cmd}); err != nil {
		return fmt.Errorf("sending %s: %w", cmd, err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("reading %s result: %w", cmd, err)
		}
		// Unrelated frames (events, other command results) are skipped.
		if msg.Type != "result" || msg.ID != id {
			continue
		}
		if msg.Success == nil || !*msg.Success {
			if msg.Error != nil {
				return fmt.Errorf("hass: %s failed: %s (%s)", cmd, msg.Error.Message, msg.Error.Code)
			}
			return fmt.Errorf("hass: %s failed", cmd)
		}
		if err := json.Unmarshal(msg.Result, out); err != nil {
			return fmt.Errorf("decoding %s result: %w", cmd, err)
		}
		return nil
	}
}
