package tactile

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishPrefixResolution(t *testing.T) {
	t.Setenv("MQTT_PUBLISH_PREFIX", "")

	assert.Equal(t, DefaultPublishPrefix, publishPrefix(nil))
	assert.Equal(t, DefaultPublishPrefix, publishPrefix(&Config{}))
	assert.Equal(t, "lab/tactile", publishPrefix(&Config{MQTT: MQTTConfig{PublishPrefix: "lab/tactile"}}))

	t.Setenv("MQTT_PUBLISH_PREFIX", "env/prefix")
	assert.Equal(t, "env/prefix", publishPrefix(&Config{MQTT: MQTTConfig{PublishPrefix: "lab/tactile"}}))
}

func TestInitTelemetryNoBroker(t *testing.T) {
	t.Setenv("MQTT_BROKER", "")

	client, err := InitTelemetry(&Config{PlanPath: "p.json"}, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, client, "telemetry should be disabled without a broker")

	client, err = InitTelemetry(nil, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestInitTelemetryEnvBrokerNilConfig(t *testing.T) {
	t.Setenv("MQTT_BROKER", "tcp://127.0.0.1:1")
	t.Setenv("MQTT_CLIENT_ID", "")
	t.Setenv("MQTT_USERNAME", "")

	client, err := InitTelemetry(nil, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, client, "env-configured broker must work without a config file")
	assert.False(t, client.IsConnected())
	client.Disconnect()
}

func TestControlMessageDispatch(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)

	var mu sync.Mutex
	var received []ControlCommand
	handler := func(cmd ControlCommand) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, cmd)
	}

	config := &Config{MQTT: MQTTConfig{PublishPrefix: "lab/tactile"}}
	c := newTelemetryClientWithMock(mock, config, nil, handler)
	c.onConnect(mock)

	assert.True(t, c.IsConnected())

	mock.SimulateMessage("lab/tactile/control",
		[]byte(`{"command":"start_session","participant":"P04","condition":"hapticOnly"}`))
	mock.SimulateMessage("lab/tactile/control", []byte(`{"command":"end_session"}`))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	assert.Equal(t, ControlCommand{Command: "start_session", Participant: "P04", Condition: "hapticOnly"}, received[0])
	assert.Equal(t, "end_session", received[1].Command)
}

func TestControlMessageInvalidPayloads(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)

	calls := 0
	c := newTelemetryClientWithMock(mock, &Config{}, nil, func(cmd ControlCommand) { calls++ })
	c.onConnect(mock)

	topic := DefaultPublishPrefix + "/control"
	mock.SimulateMessage(topic, []byte(`not json`))
	mock.SimulateMessage(topic, []byte(`{"participant":"P01"}`)) // missing command
	mock.SimulateMessage(topic, []byte(`{"command":"clear"}`))

	assert.Equal(t, 1, calls, "only the valid command should reach the handler")
}

func TestDisconnect(t *testing.T) {
	mock := NewMockClient()
	mock.SetConnected(true)

	c := newTelemetryClientWithMock(mock, &Config{}, nil, nil)
	c.setConnected(true)

	c.Disconnect()
	assert.False(t, c.IsConnected())
	assert.False(t, mock.IsConnected())
}
