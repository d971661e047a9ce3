package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/campusvoice/portal/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout bounds the initial broker handshake.
	defaultConnectTimeout = 10 * time.Second

	// defaultPublishTimeout bounds each event publish acknowledgment.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is in milliseconds.
	defaultDisconnectQuiesce = 1000

	defaultKeepAlive = 60 * time.Second

	maxQoS = 2

	tlsMinVersion = tls.VersionTLS12
)

// statusService names the portal in system status messages.
const statusService = "campus-portal"

// Status values and reasons published on the system status topic.
const (
	statusOnline  = "online"
	statusOffline = "offline"

	reasonUnexpected = "unexpected_disconnect"
	reasonShutdown   = "graceful_shutdown"
)

// statusMessage is the retained payload on the system status topic.
// Event consumers read it to know whether the portal is publishing.
type statusMessage struct {
	Service   string `json:"service"`
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// buildClientOptions creates paho options from the mqtt section of the
// portal config.
//
// This configures:
//   - Broker URL (tcp:// or ssl:// based on broker.tls)
//   - Client ID and optional username/password
//   - Clean session, since the portal only publishes
//   - Auto-reconnect between reconnect.initial_delay and reconnect.max_delay
//   - Connect, write and keepalive timeouts
//
// Parameters:
//   - cfg: validated MQTT configuration
//
// Returns:
//   - *pahomqtt.ClientOptions: ready for LWT setup and pahomqtt.NewClient
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetWriteTimeout(defaultPublishTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}

// configureLWT registers the retained offline status the broker
// publishes if the portal drops without Close.
//
// Parameters:
//   - opts: options being prepared for Connect
//   - topic: the system status topic
//   - clientID: identifies this portal instance in the payload
func configureLWT(opts *pahomqtt.ClientOptions, topic, clientID string) {
	opts.SetWill(topic, string(buildStatusPayload(clientID, statusOffline, reasonUnexpected)), 1, true)
}

func buildOnlinePayload(clientID string) []byte {
	return buildStatusPayload(clientID, statusOnline, "")
}

func buildOfflinePayload(clientID string) []byte {
	return buildStatusPayload(clientID, statusOffline, reasonShutdown)
}

// buildStatusPayload encodes a status message. Marshalling a struct of
// strings cannot fail.
func buildStatusPayload(clientID, status, reason string) []byte {
	payload, _ := json.Marshal(statusMessage{ //nolint:errcheck // strings only
		Service:   statusService,
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return payload
}
