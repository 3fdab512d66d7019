package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig names the broker and topic layout used for all channels routed
// through an MQTTInterface.
type MQTTConfig struct {
	BrokerURL   string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	KeepAlive   time.Duration
	ConnectWait time.Duration
}

// MQTTInterface carries channel traffic as published MQTT messages, one
// topic per channel under TopicPrefix.
type MQTTInterface struct {
	stateMachine

	cfg MQTTConfig

	mu     sync.Mutex
	client mqtt.Client
}

// NewMQTTInterface builds the paho client with auto-reconnect enabled; the
// stateMachine callbacks keep State() in sync with the client's own view of
// connectivity between explicit Send/HealthProbe calls.
func NewMQTTInterface(cfg MQTTConfig) *MQTTInterface {
	if cfg.ConnectWait == 0 {
		cfg.ConnectWait = 5 * time.Second
	}
	m := &MQTTInterface{cfg: cfg}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.KeepAlive > 0 {
		opts.SetKeepAlive(cfg.KeepAlive)
	}
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		m.markDegraded(time.Now())
	})
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		m.markConnected()
	})

	m.client = mqtt.NewClient(opts)
	return m
}

func (m *MQTTInterface) Name() string { return "mqtt" }

func (m *MQTTInterface) connectLocked() error {
	m.markConnecting()
	tok := m.client.Connect()
	if !tok.WaitTimeout(m.cfg.ConnectWait) {
		return fmt.Errorf("dispatch: mqtt connect to %s timed out", m.cfg.BrokerURL)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("dispatch: mqtt connect: %w", err)
	}
	return nil
}

func (m *MQTTInterface) topic(ch ChannelConfig) string {
	return fmt.Sprintf("%s/%s", m.cfg.TopicPrefix, ch.Name)
}

func (m *MQTTInterface) Send(ctx context.Context, ch ChannelConfig, payload []byte) error {
	if len(payload) > ch.MaxMessageLength && ch.MaxMessageLength > 0 {
		return fmt.Errorf("dispatch: message %d bytes exceeds max_message_length %d for channel %s", len(payload), ch.MaxMessageLength, ch.Name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.client.IsConnected() {
		if err := m.connectLocked(); err != nil {
			m.markDegraded(time.Now())
			return err
		}
	}

	tok := m.client.Publish(m.topic(ch), m.cfg.QoS, false, payload)
	if !tok.WaitTimeout(m.cfg.ConnectWait) {
		m.markDegraded(time.Now())
		return fmt.Errorf("dispatch: mqtt publish to %s timed out", m.topic(ch))
	}
	if err := tok.Error(); err != nil {
		m.markDegraded(time.Now())
		return fmt.Errorf("dispatch: mqtt publish: %w", err)
	}
	return nil
}

func (m *MQTTInterface) HealthProbe(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client.IsConnected() {
		m.markConnected()
		return nil
	}
	return m.connectLocked()
}

func (m *MQTTInterface) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client.IsConnected() {
		m.client.Disconnect(250)
	}
	return nil
}
