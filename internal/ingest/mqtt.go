package ingest

import (
	"context"
	"fmt"
	"time"

	"energisense/internal/logger"
	"energisense/internal/metrics"
	"energisense/internal/service"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	subscribeQoS      = 1
	connectTimeout    = 10 * time.Second
	ingestTimeout     = 5 * time.Second
	disconnectQuiesce = 250 // ms
)

// MQTTOptions selects the broker and topic to consume readings from.
type MQTTOptions struct {
	Broker   string
	Topic    string
	ClientID string
}

// Subscriber feeds readings published on an MQTT topic into the same
// ingestion path as POST /api/data.
type Subscriber struct {
	client   mqtt.Client
	topic    string
	readings service.Readings
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func newSubscriber(topic string, readings service.Readings, m *metrics.Metrics, log *logger.Logger) *Subscriber {
	if log == nil {
		log = logger.Nop()
	}
	return &Subscriber{topic: topic, readings: readings, metrics: m, log: log}
}

// Connect dials the broker and subscribes. The subscription is renewed on
// every reconnect.
func Connect(opts MQTTOptions, readings service.Readings, m *metrics.Metrics, log *logger.Logger) (*Subscriber, error) {
	s := newSubscriber(opts.Topic, readings, m, log)

	co := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetOnConnectHandler(s.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			s.log.Warnw("mqtt_connection_lost", "err", err)
		})

	s.client = mqtt.NewClient(co)
	token := s.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s: timed out", opts.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", opts.Broker, err)
	}
	return s, nil
}

func (s *Subscriber) onConnect(c mqtt.Client) {
	token := c.Subscribe(s.topic, subscribeQoS, s.handle)
	token.Wait()
	if err := token.Error(); err != nil {
		s.log.Errorw("mqtt_subscribe_failed", "topic", s.topic, "err", err)
		return
	}
	s.log.Infow("mqtt_subscribed", "topic", s.topic)
}

// handle ingests one message. Bad payloads are logged and dropped.
func (s *Subscriber) handle(_ mqtt.Client, msg mqtt.Message) {
	in, err := Decode(msg.Payload())
	if err != nil {
		s.log.Infow("mqtt_bad_payload", "topic", msg.Topic(), "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	rd, err := s.readings.Ingest(ctx, in)
	if err != nil {
		s.log.Errorw("mqtt_ingest_failed", "topic", msg.Topic(), "err", err)
		return
	}
	s.metrics.ReadingIngested(metrics.SourceMQTT)
	s.log.Debugw("mqtt_reading_ingested", "id", rd.ID, "value", rd.Value)
}

// Close disconnects from the broker.
func (s *Subscriber) Close() {
	if s.client != nil && s.client.IsConnected() {
		s.client.Disconnect(disconnectQuiesce)
	}
}
