package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/hassbridge/hassbridge-core/internal/infrastructure/config"
)

func TestTopics(t *testing.T) {
	if got := statusTopic("hassbridge"); got != "hassbridge/status" {
		t.Errorf("statusTopic = %q", got)
	}
	if got := eventTopic("hassbridge", "cache_invalidated"); got != "hassbridge/events/cache_invalidated" {
		t.Errorf("eventTopic = %q", got)
	}
}

func TestStatusPayload(t *testing.T) {
	var got map[string]string
	if err := json.Unmarshal([]byte(statusPayload("hb-1", "offline", "graceful_shutdown")), &got); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if got["status"] != "offline" || got["client_id"] != "hb-1" || got["reason"] != "graceful_shutdown" {
		t.Errorf("payload = %v", got)
	}
	if got["timestamp"] == "" {
		t.Error("timestamp missing")
	}

	got = nil
	if err := json.Unmarshal([]byte(statusPayload("hb-1", "online", "")), &got); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if _, present := got["reason"]; present {
		t.Error("online payload must not carry a reason")
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := config.MQTTConfig{
		Host:        "broker.local",
		Port:        8883,
		TLS:         true,
		ClientID:    "hb-1",
		Username:    "user",
		Password:    "pass",
		TopicPrefix: "hassbridge",
		QoS:         1,
	}
	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://broker.local:8883" {
		t.Errorf("servers = %v", opts.Servers)
	}
	if opts.ClientID != "hb-1" || opts.Username != "user" {
		t.Errorf("identity = %q / %q", opts.ClientID, opts.Username)
	}
	if opts.WillTopic != "hassbridge/status" || !opts.WillRetained {
		t.Errorf("will = %q retained=%v", opts.WillTopic, opts.WillRetained)
	}
	if opts.TLSConfig == nil {
		t.Error("TLS config missing")
	}
}

func TestAnnounceRequiresConnection(t *testing.T) {
	a := &Announcer{cfg: config.MQTTConfig{TopicPrefix: "hassbridge"}}
	if err := a.Announce("cache_invalidated", nil); err != ErrNotConnected {
		t.Errorf("err = %v, want ErrNotConnected", err)
	}
}
