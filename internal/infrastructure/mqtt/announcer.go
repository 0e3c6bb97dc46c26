package mqtt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/hassbridge/hassbridge-core/internal/infrastructure/config"
)

// Connection constants.
const (
	// connectTimeout is the maximum time to wait for the initial connection.
	connectTimeout = 10 * time.Second

	// publishTimeout is the maximum time to wait for publish acknowledgment.
	publishTimeout = 5 * time.Second

	// disconnectQuiesce is the time to wait for pending operations on
	// disconnect, in milliseconds.
	disconnectQuiesce = 1000

	// keepAlive is the keepalive interval for the connection.
	keepAlive = 60 * time.Second

	// reconnectInitialDelay and reconnectMaxDelay bound the backoff.
	reconnectInitialDelay = 2 * time.Second
	reconnectMaxDelay     = 2 * time.Minute

	tlsMinVersion = tls.VersionTLS12
)

// Announcer publishes bridge status and activity events to an MQTT broker.
type Announcer struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig

	// connected tracks current connection state.
	connected bool
	connMu    sync.RWMutex
}

// statusTopic returns the retained lifecycle status topic.
func statusTopic(prefix string) string {
	return prefix + "/status"
}

// eventTopic returns the topic for a named transient event.
func eventTopic(prefix, event string) string {
	return prefix + "/events/" + event
}

// Connect establishes a connection to the MQTT broker and publishes the
// online status.
//
// A Last Will is registered so the broker announces an unexpected
// disconnect on the same status topic.
//
// Parameters:
//   - cfg: MQTT configuration from config.yaml
//
// Returns:
//   - *Announcer: Connected announcer ready for use
//   - error: If the initial connection fails within timeout
func Connect(cfg config.MQTTConfig) (*Announcer, error) {
	opts := buildClientOptions(cfg)

	a := &Announcer{cfg: cfg}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		a.connMu.Lock()
		a.connected = true
		a.connMu.Unlock()
		a.publishStatus("online", "")
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, _ error) {
		a.connMu.Lock()
		a.connected = false
		a.connMu.Unlock()
	})

	a.client = pahomqtt.NewClient(opts)
	token := a.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnectHandler runs asynchronously; mark connected here so
	// IsConnected() is accurate immediately after Connect returns.
	a.connMu.Lock()
	a.connected = true
	a.connMu.Unlock()

	return a, nil
}

// Announce publishes a transient event payload to the events topic.
//
// Parameters:
//   - event: Event name, appended to the topic prefix (e.g. "cache_invalidated")
//   - fields: Event payload fields; timestamp is added automatically
//
// Returns:
//   - error: If disconnected or the publish is not acknowledged in time
func (a *Announcer) Announce(event string, fields map[string]any) error {
	if !a.IsConnected() {
		return ErrNotConnected
	}

	payload := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		payload[k] = v
	}
	payload["timestamp"] = time.Now().UTC().Format(time.RFC3339)

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding event payload: %w", err)
	}

	topic := eventTopic(a.cfg.TopicPrefix, event)
	token := a.client.Publish(topic, byte(a.cfg.QoS), false, data)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt: publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publishing to %s: %w", topic, err)
	}
	return nil
}

// publishStatus publishes a retained lifecycle status message.
func (a *Announcer) publishStatus(status, reason string) {
	token := a.client.Publish(
		statusTopic(a.cfg.TopicPrefix),
		byte(a.cfg.QoS),
		true,
		statusPayload(a.cfg.ClientID, status, reason),
	)
	token.WaitTimeout(publishTimeout)
}

// Close publishes the graceful offline status and disconnects.
//
// Returns:
//   - error: Always nil; kept for lifecycle symmetry with other components
func (a *Announcer) Close() error {
	if a.client == nil {
		return nil
	}

	if a.IsConnected() {
		a.publishStatus("offline", "graceful_shutdown")
	}

	a.client.Disconnect(disconnectQuiesce)

	a.connMu.Lock()
	a.connected = false
	a.connMu.Unlock()

	return nil
}

// HealthCheck verifies the broker connection is alive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (a *Announcer) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !a.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// IsConnected returns the current connection state.
func (a *Announcer) IsConnected() bool {
	a.connMu.RLock()
	defer a.connMu.RUnlock()
	return a.connected && a.client.IsConnected()
}

// buildClientOptions creates paho MQTT options from bridge config.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, cfg.Port))

	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(reconnectInitialDelay)
	opts.SetMaxReconnectInterval(reconnectMaxDelay)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)

	if cfg.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	// Last Will: the broker announces a crash on the same retained topic.
	opts.SetWill(
		statusTopic(cfg.TopicPrefix),
		statusPayload(cfg.ClientID, "offline", "unexpected_disconnect"),
		1,
		true,
	)

	return opts
}

// statusPayload builds the JSON payload for lifecycle status messages.
func statusPayload(clientID, status, reason string) string {
	payload := map[string]string{
		"status":    status,
		"client_id": clientID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if reason != "" {
		payload["reason"] = reason
	}
	data, _ := json.Marshal(payload) //nolint:errcheck // Flat string map cannot fail to encode
	return string(data)
}
