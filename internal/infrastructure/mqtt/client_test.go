package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/campusvoice/portal/internal/infrastructure/config"
)

// testConfig targets a local Mosquitto broker at 127.0.0.1:1883.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "portal-test",
		},
		QoS:         1,
		TopicPrefix: "portal-test",
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// requireBroker skips the test when no broker is listening.
func requireBroker(t *testing.T) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", "127.0.0.1:1883", 500*time.Millisecond)
	if err != nil {
		t.Skip("MQTT broker not available at 127.0.0.1:1883")
	}
	conn.Close() //nolint:errcheck // reachability check only
}

// ─── Unit tests (no broker) ─────────────────────────────────────────

func TestTopics(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"status", NewTopics("portal").SystemStatus(), "portal/system/status"},
		{"event", NewTopics("portal").Event("user.registered"), "portal/events/user.registered"},
		{"all events", NewTopics("campus/").AllEvents(), "campus/events/#"},
		{"empty prefix", NewTopics("").Event("x"), "portal/events/x"},
		{"slashes trimmed", NewTopics("/a/b/").SystemStatus(), "a/b/system/status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Auth.Username = "portal"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want ssl://127.0.0.1:1883", opts.Servers)
	}
	if opts.ClientID != "portal-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "portal" || opts.Password != "secret" {
		t.Error("credentials not applied")
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config not applied")
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false")
	}
	if opts.WriteTimeout != defaultPublishTimeout {
		t.Errorf("WriteTimeout = %v, want %v", opts.WriteTimeout, defaultPublishTimeout)
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := pahomqtt.NewClientOptions()
	configureLWT(opts, "portal/system/status", "portal-test")

	if !opts.WillEnabled || opts.WillTopic != "portal/system/status" || !opts.WillRetained {
		t.Errorf("will = enabled:%v topic:%q retained:%v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}

	var will statusMessage
	if err := json.Unmarshal(opts.WillPayload, &will); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if will.Service != statusService || will.Status != statusOffline || will.Reason != reasonUnexpected {
		t.Errorf("will = %+v, want offline/%s from %s", will, reasonUnexpected, statusService)
	}
}

func TestStatusPayloads(t *testing.T) {
	tests := []struct {
		name       string
		payload    []byte
		wantStatus string
		wantReason string
	}{
		{"online", buildOnlinePayload(`portal-"a"`), statusOnline, ""},
		{"offline", buildOfflinePayload(`portal-"a"`), statusOffline, reasonShutdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg statusMessage
			if err := json.Unmarshal(tt.payload, &msg); err != nil {
				t.Fatalf("payload %s is not JSON: %v", tt.payload, err)
			}
			if msg.ClientID != `portal-"a"` {
				t.Errorf("client_id = %q, want quoted ID preserved", msg.ClientID)
			}
			if msg.Status != tt.wantStatus || msg.Reason != tt.wantReason || msg.Service != statusService {
				t.Errorf("status message = %+v", msg)
			}
			if _, err := time.Parse(time.RFC3339, msg.Timestamp); err != nil {
				t.Errorf("timestamp %q: %v", msg.Timestamp, err)
			}
		})
	}
}

func TestPublishValidation(t *testing.T) {
	c := &Client{cfg: testConfig(), topics: NewTopics("portal")}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"bad qos", "portal/events/x", []byte("x"), 3, ErrInvalidQoS},
		{"oversized", "portal/events/x", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "portal/events/x", []byte("x"), 1, ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCloseNil(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on unconnected client error = %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true on unconnected client")
	}
}

// ─── Broker tests ───────────────────────────────────────────────────

func TestConnectInvalidBroker(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999

	if _, err := Connect(cfg); !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnectPublishClose(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.HealthCheck(t.Context()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if err := client.Publish(client.Topics().Event("test.event"), []byte(`{"ok":true}`), client.QoS(), false); err != nil {
		t.Errorf("Publish() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := client.HealthCheck(t.Context()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after Close = %v, want ErrNotConnected", err)
	}
}

func TestRoundtrip(t *testing.T) {
	requireBroker(t)

	client, err := Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // Test cleanup

	subOpts := buildClientOptions(testConfig())
	subOpts.SetClientID("portal-test-sub")
	sub := pahomqtt.NewClient(subOpts)
	if token := sub.Connect(); !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		t.Fatalf("subscriber connect failed: %v", token.Error())
	}
	defer sub.Disconnect(100)

	received := make(chan []byte, 1)
	token := sub.Subscribe(client.Topics().AllEvents(), 1, func(_ pahomqtt.Client, m pahomqtt.Message) {
		received <- m.Payload()
	})
	if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		t.Fatalf("subscribe failed: %v", token.Error())
	}

	if err := client.Publish(client.Topics().Event("roundtrip"), []byte("hello"), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-received:
		if string(msg) != "hello" {
			t.Errorf("payload = %q, want hello", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	c := &Client{}
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}
