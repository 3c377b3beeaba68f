package tactile

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// TelemetryPublisher pushes interaction events and session summaries to MQTT
// so an observing researcher station can follow a study in real time.
type TelemetryPublisher struct {
	client mqtt.Client
	prefix string
	qos    byte
	log    *zap.Logger

	mu          sync.RWMutex
	lastSummary *SessionRecord
}

// NewTelemetryPublisher creates a publisher. A nil client disables
// publishing (used in tests and when MQTT is off).
func NewTelemetryPublisher(client mqtt.Client, prefix string, logger *zap.Logger) *TelemetryPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = DefaultPublishPrefix
	}
	return &TelemetryPublisher{
		client: client,
		prefix: prefix,
		qos:    0, // events are fire and forget
		log:    logger,
	}
}

// PublishInteraction publishes one interaction event to {prefix}/events.
func (p *TelemetryPublisher) PublishInteraction(ev InteractionEvent) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshaling interaction event: %w", err)
	}

	topic := fmt.Sprintf("%s/events", p.prefix)
	token := p.client.Publish(topic, p.qos, false, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// PublishGesture publishes one gesture event to {prefix}/gestures.
func (p *TelemetryPublisher) PublishGesture(g GestureEvent) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshaling gesture event: %w", err)
	}

	topic := fmt.Sprintf("%s/gestures", p.prefix)
	token := p.client.Publish(topic, p.qos, false, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// PublishSummary publishes a session snapshot to {prefix}/summary. The
// message is retained so late-joining observers see the latest state.
func (p *TelemetryPublisher) PublishSummary(rec SessionRecord) error {
	p.mu.Lock()
	p.lastSummary = &rec
	p.mu.Unlock()

	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling session summary: %w", err)
	}

	topic := fmt.Sprintf("%s/summary", p.prefix)
	token := p.client.Publish(topic, p.qos, true, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}

	p.log.Info("published session summary",
		zap.String("session", rec.SessionID),
		zap.Int("interactions", rec.TotalInteractions))
	return nil
}

// LastSummary returns the most recently published session snapshot.
func (p *TelemetryPublisher) LastSummary() (*SessionRecord, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastSummary == nil {
		return nil, false
	}
	rec := *p.lastSummary
	return &rec, true
}

// SetQoS sets the quality-of-service level for publishing (0, 1, or 2).
func (p *TelemetryPublisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}
