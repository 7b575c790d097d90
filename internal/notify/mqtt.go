package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/ayusman/catfence/internal/alert"
	"github.com/ayusman/catfence/internal/motion"
)

// ErrPublishTimeout is returned when the broker does not acknowledge in time.
var ErrPublishTimeout = errors.New("mqtt publish timeout")

// Publisher is the part of mqtt.Client the notifier uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTOptions configures the MQTT notifier.
type MQTTOptions struct {
	Broker   string
	ClientID string
	// Topic is the prefix; alerts go to <Topic>/alerts and snapshots to <Topic>/snapshot.
	Topic          string
	QoS            byte
	PublishTimeout time.Duration
}

// MQTT publishes alert events and snapshots to a broker.
type MQTT struct {
	pub     Publisher
	topic   string
	qos     byte
	timeout time.Duration
}

type mqttEvent struct {
	ID          string          `json:"id"`
	FiredAt     time.Time       `json:"fired_at"`
	Caption     string          `json:"caption"`
	Description string          `json:"description,omitempty"`
	Regions     []motion.Region `json:"regions"`
	LargestArea int             `json:"largest_area"`
}

// NewMQTT wraps an already connected publisher.
func NewMQTT(pub Publisher, opts MQTTOptions) *MQTT {
	timeout := opts.PublishTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &MQTT{
		pub:     pub,
		topic:   strings.TrimSuffix(opts.Topic, "/"),
		qos:     opts.QoS,
		timeout: timeout,
	}
}

// AlertTopic is where alert events are published.
func (m *MQTT) AlertTopic() string { return m.topic + "/alerts" }

// SnapshotTopic is where snapshot images are published.
func (m *MQTT) SnapshotTopic() string { return m.topic + "/snapshot" }

// Send publishes the JSON event and then the PNG snapshot.
func (m *MQTT) Send(ctx context.Context, p alert.Payload) error {
	regions := p.Regions
	if regions == nil {
		regions = []motion.Region{}
	}
	event, err := json.Marshal(mqttEvent{
		ID:          p.ID,
		FiredAt:     p.FiredAt,
		Caption:     p.Caption,
		Description: p.Description,
		Regions:     regions,
		LargestArea: p.LargestArea(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	if err := m.publish(ctx, m.AlertTopic(), event); err != nil {
		return err
	}
	if len(p.Image) == 0 {
		return nil
	}
	return m.publish(ctx, m.SnapshotTopic(), p.Image)
}

func (m *MQTT) publish(ctx context.Context, topic string, payload []byte) error {
	token := m.pub.Publish(topic, m.qos, false, payload)

	timer := time.NewTimer(m.timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-timer.C:
		return fmt.Errorf("%w on %s", ErrPublishTimeout, topic)
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s failed: %w", topic, err)
	}
	return nil
}

// ConnectMQTT dials the broker with auto-reconnect enabled.
func ConnectMQTT(opts MQTTOptions, log *zap.Logger) (mqtt.Client, error) {
	if log == nil {
		log = zap.NewNop()
	}

	broker := opts.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}

	co := mqtt.NewClientOptions()
	co.AddBroker(broker)
	co.SetClientID(opts.ClientID)
	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetConnectRetryInterval(2 * time.Second)
	co.SetMaxReconnectInterval(30 * time.Second)

	co.OnConnect = func(mqtt.Client) {
		log.Info("mqtt connection established", zap.String("broker", broker), zap.String("client_id", opts.ClientID))
	}
	co.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("mqtt connection lost, will auto-reconnect", zap.String("broker", broker), zap.Error(err))
	}

	client := mqtt.NewClient(co)

	log.Info("connecting to mqtt broker", zap.String("broker", broker))
	if err := connect(client, connectTimeout); err != nil {
		return nil, err
	}

	return client, nil
}

const connectTimeout = 5 * time.Second

// connector is the part of mqtt.Client used to dial the broker.
type connector interface {
	Connect() mqtt.Token
	Disconnect(quiesce uint)
}

// connect waits for the first connection. On failure the client is disconnected so
// its connect-retry loop stops.
func connect(c connector, timeout time.Duration) error {
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		c.Disconnect(0)
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		c.Disconnect(0)
		return fmt.Errorf("mqtt connection failed: %w", err)
	}
	return nil
}
