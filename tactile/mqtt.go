package tactile

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// ControlCommand is a remote session-control message published by an
// observing researcher station on {prefix}/control.
type ControlCommand struct {
	Command     string `json:"command"` // "start_session", "end_session", "clear"
	Participant string `json:"participant,omitempty"`
	Condition   string `json:"condition,omitempty"`
}

// ControlHandler is called for each decoded control message.
type ControlHandler func(cmd ControlCommand)

// TelemetryClient manages the MQTT connection for research telemetry and
// remote session control.
type TelemetryClient struct {
	client      mqtt.Client
	config      *Config
	handler     ControlHandler
	log         *zap.Logger
	isConnected bool
	mu          sync.RWMutex
}

// DefaultPublishPrefix is used when neither config nor environment set one.
const DefaultPublishPrefix = "tactilemap"

// publishPrefix resolves the topic prefix from environment or config.
func publishPrefix(config *Config) string {
	if p := os.Getenv("MQTT_PUBLISH_PREFIX"); p != "" {
		return p
	}
	if config != nil && config.MQTT.PublishPrefix != "" {
		return config.MQTT.PublishPrefix
	}
	return DefaultPublishPrefix
}

// InitTelemetry connects to the MQTT broker configured via MQTT_BROKER or
// the config file. Returns (nil, nil) when no broker is configured, which
// disables telemetry.
func InitTelemetry(config *Config, logger *zap.Logger, handler ControlHandler) (*TelemetryClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	// Environment-only setups pass a nil config.
	if config == nil {
		config = &Config{}
	}

	broker := os.Getenv("MQTT_BROKER")
	if broker == "" && config.MQTT.Broker != "" {
		broker = config.MQTT.Broker
	}
	if broker == "" {
		logger.Info("MQTT disabled: no broker configured")
		return nil, nil
	}

	c := &TelemetryClient{
		config:  config,
		handler: handler,
		log:     logger,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" && config.MQTT.ClientID != "" {
		clientID = config.MQTT.ClientID
	}
	if clientID == "" {
		clientID = "tactilemap"
	}
	opts.SetClientID(clientID)

	username := os.Getenv("MQTT_USERNAME")
	if username == "" && config.MQTT.Username != "" {
		username = config.MQTT.Username
	}
	if username != "" {
		opts.SetUsername(username)
		password := os.Getenv("MQTT_PASSWORD")
		if password == "" && config.MQTT.Password != "" {
			password = config.MQTT.Password
		}
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(false) // preserve the control subscription on reconnect

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(opts)

	go c.connectWithRetry()

	return c, nil
}

// connectWithRetry attempts to connect with exponential backoff.
func (c *TelemetryClient) connectWithRetry() {
	retryDelay := 1 * time.Second
	maxRetryDelay := 60 * time.Second

	for {
		c.log.Info("connecting to MQTT broker")

		token := c.client.Connect()
		if token.WaitTimeout(10 * time.Second) {
			if token.Error() == nil {
				c.log.Info("connected to MQTT broker")
				c.setConnected(true)
				return
			}
			c.log.Warn("MQTT connection failed", zap.Error(token.Error()))
		} else {
			c.log.Warn("MQTT connection timeout")
		}

		c.log.Info("retrying MQTT connection", zap.Duration("delay", retryDelay))
		time.Sleep(retryDelay)
		retryDelay *= 2
		if retryDelay > maxRetryDelay {
			retryDelay = maxRetryDelay
		}
	}
}

func (c *TelemetryClient) onConnect(client mqtt.Client) {
	c.setConnected(true)

	topic := publishPrefix(c.config) + "/control"
	c.log.Info("subscribing to control topic", zap.String("topic", topic))

	token := client.Subscribe(topic, 1, c.controlMessageHandler())
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		c.log.Error("control subscription failed", zap.String("topic", topic), zap.Error(token.Error()))
	}
}

func (c *TelemetryClient) onConnectionLost(client mqtt.Client, err error) {
	c.log.Warn("MQTT connection interrupted, auto-reconnect will retry", zap.Error(err))
	c.setConnected(false)
}

// controlMessageHandler decodes control payloads and forwards them to the
// registered handler.
func (c *TelemetryClient) controlMessageHandler() mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		var cmd ControlCommand
		if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
			c.log.Warn("invalid control payload",
				zap.String("topic", msg.Topic()),
				zap.Error(err))
			return
		}
		if cmd.Command == "" {
			c.log.Warn("control payload missing command", zap.String("topic", msg.Topic()))
			return
		}

		c.log.Info("control command received", zap.String("command", cmd.Command))
		if c.handler != nil {
			c.handler(cmd)
		}
	}
}

// IsConnected reports whether the client currently holds a connection.
func (c *TelemetryClient) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

func (c *TelemetryClient) setConnected(connected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isConnected = connected
}

// Disconnect gracefully closes the MQTT connection.
func (c *TelemetryClient) Disconnect() {
	if c.client != nil && c.client.IsConnected() {
		c.log.Info("disconnecting from MQTT broker")
		c.client.Disconnect(250)
		c.setConnected(false)
	}
}

// GetClient returns the underlying MQTT client for publishing.
func (c *TelemetryClient) GetClient() mqtt.Client {
	return c.client
}

// newTelemetryClientWithMock wraps a provided mqtt.Client. Used by tests.
func newTelemetryClientWithMock(client mqtt.Client, config *Config, logger *zap.Logger, handler ControlHandler) *TelemetryClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelemetryClient{
		client:  client,
		config:  config,
		handler: handler,
		log:     logger,
	}
}
