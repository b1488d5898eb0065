package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sweeney/dht20-agent/internal/logic"
)

const publishTimeout = 5 * time.Second

// Options configures the broker connection.
type Options struct {
	Broker         string // e.g. tcp://test.mosquitto.org:1883
	Topic          string
	ClientID       string // generated when empty
	Username       string
	Password       string
	KeepAlive      time.Duration
	ConnectTimeout time.Duration
	Logger         *zap.Logger
}

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	topic  string
}

// NewRealPublisher connects to the broker once. The initial connection is
// not retried: on failure the returned error wraps ErrConnect. After a
// successful connect, paho reconnects on its own if the session drops.
func NewRealPublisher(opts Options) (*RealPublisher, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}
	if opts.ClientID == "" {
		opts.ClientID = ClientID()
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}

	clientOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetConnectTimeout(opts.ConnectTimeout).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.Warn("mqtt connection lost", zap.Error(err))
		}).
		SetReconnectingHandler(func(_ paho.Client, _ *paho.ClientOptions) {
			logger.Info("mqtt reconnecting", zap.String("broker", opts.Broker))
		})
	if opts.KeepAlive > 0 {
		clientOpts.SetKeepAlive(opts.KeepAlive)
	}
	if opts.Username != "" {
		clientOpts.SetUsername(opts.Username)
		clientOpts.SetPassword(opts.Password)
	}

	client := paho.NewClient(clientOpts)
	token := client.Connect()
	if !token.WaitTimeout(opts.ConnectTimeout) {
		return nil, fmt.Errorf("%w: connection timeout after %v", ErrConnect, opts.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	logger.Info("connected to mqtt broker",
		zap.String("broker", opts.Broker),
		zap.String("client_id", opts.ClientID),
		zap.String("topic", opts.Topic),
	)

	return &RealPublisher{
		client: client,
		topic:  opts.Topic,
	}, nil
}

// ClientID returns a unique client id for brokers that reject duplicates.
func ClientID() string {
	return "dht20-agent-" + uuid.NewString()
}

// Publish sends a reading to the MQTT broker.
func (p *RealPublisher) Publish(reading logic.Reading) error {
	payload, err := FormatPayload(reading)
	if err != nil {
		return fmt.Errorf("%w: format payload: %w", ErrPublish, err)
	}

	if !p.client.IsConnectionOpen() {
		return fmt.Errorf("%w: not connected", ErrPublish)
	}

	// QoS 0 (at-most-once), not retained. The wait only covers handing the
	// packet to the network; QoS 0 has no broker acknowledgement.
	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: timeout", ErrPublish)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	return nil
}

// IsConnected reports whether the client currently has an open connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second quiesce
	return nil
}
