package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xelth-com/eckcosting/internal/config"
)

// qos 0 matches the dashboard contract: publishes are fire-and-forget and
// confirmation arrives as the next snapshot, not as a broker ack.
const qos byte = 0

// PublishErrorHandler is told about publishes the broker rejected after
// Publish already returned
type PublishErrorHandler func(topic string, err error)

// MQTTClient is the Broker implementation for MQTT over ws:// or wss://
type MQTTClient struct {
	*StatusTracker

	cfg      config.BrokerConfig
	endpoint string
	clientID string
	client   mqtt.Client
	log      *zap.Logger

	messages chan Message

	mu             sync.Mutex
	onPublishError PublishErrorHandler
	cancel         context.CancelFunc
	closed         bool
}

// NewMQTTClient builds the adapter; nothing is dialled until Connect
func NewMQTTClient(cfg config.BrokerConfig, queueSize int, log *zap.Logger) *MQTTClient {
	if log == nil {
		log = zap.NewNop()
	}
	if queueSize < 1 {
		queueSize = 1
	}

	c := &MQTTClient{
		StatusTracker: newStatusTracker(),
		cfg:           cfg,
		endpoint:      cfg.Endpoint(),
		clientID:      fmt.Sprintf("%s_%s", cfg.ClientPrefix, uuid.New().String()[:8]),
		log:           log,
		messages:      make(chan Message, queueSize),
	}

	interval := cfg.ReconnectInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	opts := mqtt.NewClientOptions().
		AddBroker(c.endpoint).
		SetClientID(c.clientID).
		SetCleanSession(true).
		SetOrderMatters(true).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(interval).
		SetConnectTimeout(10 * time.Second).
		SetDefaultPublishHandler(c.handleMessage).
		SetOnConnectHandler(func(mqtt.Client) {
			c.log.Info("Broker connected", zap.String("endpoint", c.endpoint), zap.String("client_id", c.clientID))
			c.set(StatusConnected, "connected")
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			c.log.Warn("Broker connection lost", zap.Error(err))
			c.set(StatusDisconnected, err.Error())
		}).
		SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
			c.log.Info("Reconnecting to broker", zap.String("endpoint", c.endpoint))
			c.set(StatusConnecting, "reconnecting")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c.client = mqtt.NewClient(opts)
	return c
}

// ClientID returns the broker client identifier in use
func (c *MQTTClient) ClientID() string { return c.clientID }

// SetPublishErrorHandler installs the callback for asynchronous publish failures
func (c *MQTTClient) SetPublishErrorHandler(h PublishErrorHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPublishError = h
}

// Connect starts dialling in the background. A failed attempt is reported as
// Disconnected and retried every reconnect interval until ctx ends or the
// first attempt succeeds; later drops are handled by paho's auto-reconnect.
func (c *MQTTClient) Connect(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.cancel != nil {
		c.mu.Unlock()
		return
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Unlock()

	go c.connectLoop(ctx)
}

func (c *MQTTClient) connectLoop(ctx context.Context) {
	interval := c.cfg.ReconnectInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	for {
		c.set(StatusConnecting, "dialling")
		c.log.Info("Connecting to broker", zap.String("endpoint", c.endpoint))

		token := c.client.Connect()
		select {
		case <-token.Done():
		case <-ctx.Done():
			return
		}

		err := token.Error()
		if err == nil {
			return
		}

		c.log.Error("Broker connect failed", zap.String("endpoint", c.endpoint), zap.Error(err))
		c.set(StatusDisconnected, err.Error())

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return
		}
	}
}

// Subscribe asks for every topic at once; errors from the broker are logged
func (c *MQTTClient) Subscribe(topics ...string) error {
	if c.Status() != StatusConnected {
		return ErrNotConnected
	}
	if len(topics) == 0 {
		return nil
	}

	filters := make(map[string]byte, len(topics))
	for _, t := range topics {
		filters[t] = qos
	}

	token := c.client.SubscribeMultiple(filters, nil)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			c.log.Error("Subscribe failed", zap.Strings("topics", topics), zap.Error(err))
			return
		}
		c.log.Info("Subscribed", zap.Strings("topics", topics))
	}()
	return nil
}

// Publish hands the payload to paho and returns without waiting for the wire
func (c *MQTTClient) Publish(topic string, payload []byte, opts PublishOptions) error {
	if c.Status() != StatusConnected {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, opts.Retained, payload)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			c.log.Error("Publish failed", zap.String("topic", topic), zap.Error(err))
			c.mu.Lock()
			h := c.onPublishError
			c.mu.Unlock()
			if h != nil {
				h(topic, err)
			}
		}
	}()
	return nil
}

// Messages delivers inbound publishes in arrival order
func (c *MQTTClient) Messages() <-chan Message {
	return c.messages
}

// Close disconnects and stops all background work
func (c *MQTTClient) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.client.Disconnect(250)
	c.stop()
	c.set(StatusDisconnected, "closed")
}

// handleMessage runs on paho's router goroutine; with OrderMatters set it is
// never invoked concurrently, so the channel preserves arrival order.
func (c *MQTTClient) handleMessage(_ mqtt.Client, m mqtt.Message) {
	msg := Message{
		Topic:    m.Topic(),
		Payload:  append([]byte(nil), m.Payload()...),
		Retained: m.Retained(),
	}
	select {
	case c.messages <- msg:
	case <-c.done:
	}
}
