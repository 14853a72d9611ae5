package publisher

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/markusressel/pace2go/internal/configuration"
	"github.com/markusressel/pace2go/internal/store"
)

const (
	statusOnline  = "online"
	statusOffline = "offline"
)

// MqttSink publishes every state change as a retained JSON message
type MqttSink struct {
	client      paho.Client
	topic       string
	statusTopic string
	qos         byte
}

func NewMqttSink(config configuration.MqttConfig) (*MqttSink, error) {
	statusTopic := config.Topic + "/status"
	opts := paho.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(config.ClientId).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(statusTopic, statusOffline, 1, true)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		// stop the retry loop started by SetConnectRetry
		client.Disconnect(0)
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	sink := &MqttSink{
		client:      client,
		topic:       config.Topic,
		statusTopic: statusTopic,
		qos:         config.Qos,
	}
	if err := sink.publish(statusTopic, 1, []byte(statusOnline)); err != nil {
		return nil, err
	}
	return sink, nil
}

func (s *MqttSink) Name() string {
	return "mqtt"
}

func (s *MqttSink) Send(snapshot store.Snapshot) error {
	payload, err := FormatPayload(snapshot)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	return s.publish(s.topic, s.qos, payload)
}

func (s *MqttSink) publish(topic string, qos byte, payload []byte) error {
	token := s.client.Publish(topic, qos, true, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close marks the device offline and disconnects from the broker
func (s *MqttSink) Close() error {
	_ = s.publish(s.statusTopic, 1, []byte(statusOffline))
	s.client.Disconnect(1000)
	return nil
}

// FormatPayload renders a snapshot as the JSON message body
func FormatPayload(snapshot store.Snapshot) ([]byte, error) {
	return json.Marshal(snapshot)
}
