package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	z "github.com/Oudwins/zog"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"liyu1981.xyz/garden-telemetry-service/pkg/common"
	"liyu1981.xyz/garden-telemetry-service/pkg/db"
	"liyu1981.xyz/garden-telemetry-service/pkg/models"
)

const DefaultTopic = "garden/sensors/+/telemetry"

var (
	ErrTopicMismatch  = errors.New("topic does not match subscription")
	ErrMissingField   = errors.New("payload field missing")
	ErrInvalidPayload = errors.New("payload invalid")
)

type telemetryPayload struct {
	Timestamp    *time.Time `json:"timestamp"`
	Temperature  *float64   `json:"temperature"`
	Humidity     *float64   `json:"humidity"`
	SoilMoisture *float64   `json:"soil_moisture"`
}

type telemetryValues struct {
	Temperature  float64
	Humidity     float64
	SoilMoisture float64
}

var telemetryValuesSchema = z.Struct(z.Shape{
	"temperature":  z.Float64().GTE(-40).LTE(85),
	"humidity":     z.Float64().GTE(0).LTE(100),
	"soilMoisture": z.Float64().GTE(0).LTE(100),
})

// Subscriber persists the telemetry devices publish over MQTT. Each message
// becomes one Reading; the sensor id is the topic level under the pattern's
// single-level wildcard.
type Subscriber struct {
	db     *db.DB
	topic  string
	qos    byte
	now    func() time.Time
	logger *zap.Logger
}

func NewSubscriber(d *db.DB, topic string) *Subscriber {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Subscriber{
		db:     d,
		topic:  topic,
		qos:    1,
		now:    time.Now,
		logger: common.GetLoggerWith(common.LoggerNameIngest),
	}
}

func (s *Subscriber) Topic() string {
	return s.topic
}

// Start subscribes on client and unsubscribes once ctx is done.
func (s *Subscriber) Start(ctx context.Context, client mqtt.Client) error {
	token := client.Subscribe(s.topic, s.qos, s.Handle)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.topic, err)
	}
	s.logger.Info("Subscribed to telemetry", zap.String("topic", s.topic))

	go func() {
		<-ctx.Done()
		client.Unsubscribe(s.topic).Wait()
		s.logger.Info("Unsubscribed from telemetry", zap.String("topic", s.topic))
	}()
	return nil
}

// Handle is the paho message callback. Bad messages are logged and dropped.
func (s *Subscriber) Handle(_ mqtt.Client, msg mqtt.Message) {
	reading, err := s.Ingest(context.Background(), msg.Topic(), msg.Payload())
	if err != nil {
		s.logger.Warn("Dropped telemetry message", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}
	s.logger.Debug("Stored reading",
		zap.String("sensor_id", reading.SensorID),
		zap.Time("timestamp", reading.Timestamp),
	)
}

func (s *Subscriber) Ingest(ctx context.Context, topic string, payload []byte) (*models.Reading, error) {
	sensorID, err := SensorFromTopic(s.topic, topic)
	if err != nil {
		return nil, err
	}

	var p telemetryPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.Temperature == nil || p.Humidity == nil || p.SoilMoisture == nil {
		return nil, fmt.Errorf("%w: temperature, humidity and soil_moisture are required", ErrMissingField)
	}

	values := telemetryValues{
		Temperature:  *p.Temperature,
		Humidity:     *p.Humidity,
		SoilMoisture: *p.SoilMoisture,
	}
	if issues := telemetryValuesSchema.Validate(&values); issues != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, issues)
	}

	ts := s.now()
	if p.Timestamp != nil && !p.Timestamp.IsZero() {
		ts = *p.Timestamp
	}

	reading := &models.Reading{
		SensorID:     sensorID,
		Timestamp:    ts.UTC(),
		Temperature:  values.Temperature,
		Humidity:     values.Humidity,
		SoilMoisture: values.SoilMoisture,
	}
	if err := s.db.Conn.WithContext(ctx).Create(reading).Error; err != nil {
		return nil, err
	}
	return reading, nil
}

// SensorFromTopic returns the level of topic that sits under the single "+"
// of pattern.
func SensorFromTopic(pattern, topic string) (string, error) {
	want := strings.Split(pattern, "/")
	got := strings.Split(topic, "/")
	if len(want) != len(got) {
		return "", fmt.Errorf("%w: %s", ErrTopicMismatch, topic)
	}

	sensorID := ""
	for i, level := range want {
		switch level {
		case "+":
			sensorID = got[i]
		default:
			if level != got[i] {
				return "", fmt.Errorf("%w: %s", ErrTopicMismatch, topic)
			}
		}
	}
	if sensorID == "" {
		return "", fmt.Errorf("%w: no sensor id in %s", ErrTopicMismatch, topic)
	}
	return sensorID, nil
}
