package mqtt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ponytojas/go-tempcheck/config"
	"github.com/ponytojas/go-tempcheck/internal/models"
)

// Publisher forwards a reading to the configured MQTT topic
type Publisher struct {
	client mqtt.Client
	config *config.Config
	log    *logrus.Logger
}

// ClientID returns a per-run client id so concurrent invocations do not
// disconnect each other at the broker.
func ClientID(base string) string {
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
}

// NewPublisher creates a new MQTT publisher
func NewPublisher(cfg *config.Config, log *logrus.Logger) *Publisher {
	opts := mqtt.NewClientOptions()
	brokerURL := cfg.GetMQTTBrokerURL()
	opts.AddBroker(brokerURL)
	opts.SetClientID(ClientID(cfg.MQTT.ClientID))

	// Configure TLS if using SSL
	if strings.HasPrefix(brokerURL, "ssl://") || strings.HasPrefix(brokerURL, "wss://") {
		log.Debugf("Configuring TLS for secure connection to %s", brokerURL)
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	if cfg.MQTT.Username != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}

	// One publish per run: no reconnect loop.
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Warnf("MQTT connection lost: %v", err)
	})

	return &Publisher{
		client: mqtt.NewClient(opts),
		config: cfg,
		log:    log,
	}
}

// Name implements sink.Sink.
func (p *Publisher) Name() string { return "mqtt" }

// Send connects if needed and publishes data as JSON with QoS 1.
func (p *Publisher) Send(ctx context.Context, data *models.SensorData) error {
	if !p.client.IsConnected() {
		if err := wait(ctx, p.client.Connect()); err != nil {
			return fmt.Errorf("failed to connect to MQTT broker: %w", err)
		}
		p.log.Debugf("Connected to MQTT broker: %s", p.config.GetMQTTBrokerURL())
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal sensor data: %w", err)
	}

	if err := wait(ctx, p.client.Publish(p.config.MQTT.Topic, 1, false, payload)); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", p.config.MQTT.Topic, err)
	}
	p.log.Debugf("Published reading to topic %s", p.config.MQTT.Topic)
	return nil
}

// Close disconnects from the MQTT broker
func (p *Publisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		p.log.Debug("Disconnected from MQTT broker")
	}
	return nil
}

// wait blocks until the token completes or ctx is done.
func wait(ctx context.Context, token mqtt.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
