package publish

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/banshee-data/vitals.report/internal/vitals/pipeline"
)

// DefaultMQTTTopic is the topic snapshots are published on.
const DefaultMQTTTopic = "vitals/snapshot"

const (
	mqttConnectTimeout = 5 * time.Second
	mqttPublishTimeout = 2 * time.Second
	mqttQuiesceMs      = 250
)

// mqttClient is the subset of mqtt.Client the sink uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTOptions configures ConnectMQTT.
type MQTTOptions struct {
	Broker   string // host:port
	ClientID string
	Topic    string
	QoS      byte
	Retained bool // Retain the latest snapshot for late subscribers
	Encoding Encoding
}

// MQTTSink publishes snapshots to an MQTT topic.
type MQTTSink struct {
	client   mqttClient
	topic    string
	qos      byte
	retained bool
	encoding Encoding
	counters
}

// ConnectMQTT connects to the broker with automatic reconnects.
func ConnectMQTT(o MQTTOptions) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", o.Broker))
	opts.SetClientID(o.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		diagf("mqtt connected to %s as %s", o.Broker, o.ClientID)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		opsf("mqtt connection to %s lost: %v", o.Broker, err)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect %s: timeout", o.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", o.Broker, err)
	}
	return NewMQTTSink(client, o), nil
}

// NewMQTTSink wraps an existing client. Broker and ClientID are ignored.
func NewMQTTSink(client mqttClient, o MQTTOptions) *MQTTSink {
	topic := o.Topic
	if topic == "" {
		topic = DefaultMQTTTopic
	}
	return &MQTTSink{
		client:   client,
		topic:    topic,
		qos:      o.QoS,
		retained: o.Retained,
		encoding: o.Encoding,
	}
}

// Publish implements Sink. It waits for the broker acknowledgement up to
// the publish timeout or until ctx is done.
func (s *MQTTSink) Publish(ctx context.Context, snap pipeline.Snapshot) error {
	payload, err := Encode(snap, s.encoding)
	if err != nil {
		return s.record(err)
	}
	token := s.client.Publish(s.topic, s.qos, s.retained, payload)

	timer := time.NewTimer(mqttPublishTimeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return s.record(ctx.Err())
	case <-timer.C:
		opsf("mqtt publish to %s timed out", s.topic)
		return s.record(fmt.Errorf("mqtt publish to %s: timeout", s.topic))
	}
	if err := token.Error(); err != nil {
		opsf("mqtt publish to %s failed: %v", s.topic, err)
		return s.record(fmt.Errorf("mqtt publish: %w", err))
	}
	tracef("mqtt %s: %d bytes", s.topic, len(payload))
	return s.record(nil)
}

// Stats reports publish counts.
func (s *MQTTSink) Stats() Stats { return s.stats() }

// Close disconnects after letting in-flight work finish.
func (s *MQTTSink) Close() error {
	s.client.Disconnect(mqttQuiesceMs)
	return nil
}
