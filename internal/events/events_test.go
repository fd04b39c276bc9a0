package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/trip-planner/internal/models"
)

type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Error() error                   { return t.err }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type MockMQTTClient struct {
	mock.Mock
}

func (m *MockMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	args := m.Called(topic, qos, retained, payload)
	return args.Get(0).(mqtt.Token)
}

func (m *MockMQTTClient) Disconnect(quiesce uint) {
	m.Called(quiesce)
}

type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	return m.Called().Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishTrip(ctx context.Context, event TripPlanned) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) Close() error {
	return m.Called().Error(0)
}

func sampleEvent() TripPlanned {
	return TripPlanned{
		Owner:     "user-1",
		Distance:  "1 km",
		Duration:  "00:10:00",
		Trip:      &models.Trip{DistanceMeters: 1000, DurationSeconds: 600},
		Locations: []string{models.HomeID, "loc-A"},
		PlannedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestMQTTPublisher_PublishTrip(t *testing.T) {
	client := new(MockMQTTClient)
	client.On("Publish", "trips/user-1", byte(mqttQoS), false, mock.MatchedBy(func(payload []byte) bool {
		var decoded TripPlanned
		return json.Unmarshal(payload, &decoded) == nil && decoded.Distance == "1 km"
	})).Return(&doneToken{})

	p := newMQTTPublisher(client, "trips")
	require.NoError(t, p.PublishTrip(context.Background(), sampleEvent()))
	client.AssertExpectations(t)
}

func TestMQTTPublisher_PublishError(t *testing.T) {
	client := new(MockMQTTClient)
	client.On("Publish", "trips/user-1", byte(mqttQoS), false, mock.Anything).
		Return(&doneToken{err: errors.New("not connected")})

	p := newMQTTPublisher(client, "trips")
	err := p.PublishTrip(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "not connected")
}

func TestMQTTPublisher_Close(t *testing.T) {
	client := new(MockMQTTClient)
	client.On("Disconnect", uint(250)).Return()

	require.NoError(t, newMQTTPublisher(client, "trips").Close())
	client.AssertExpectations(t)
}

func TestKafkaPublisher_PublishTrip(t *testing.T) {
	writer := new(MockKafkaWriter)
	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		return len(msgs) == 1 && string(msgs[0].Key) == "user-1" && len(msgs[0].Value) > 0
	})).Return(nil)

	p := &KafkaPublisher{writer: writer}
	require.NoError(t, p.PublishTrip(context.Background(), sampleEvent()))
	writer.AssertExpectations(t)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	writer := new(MockKafkaWriter)
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	p := &KafkaPublisher{writer: writer}
	err := p.PublishTrip(context.Background(), sampleEvent())
	assert.ErrorContains(t, err, "broker down")
}

func TestMulti(t *testing.T) {
	ok := new(MockPublisher)
	failing := new(MockPublisher)
	event := sampleEvent()

	ok.On("PublishTrip", mock.Anything, event).Return(nil)
	failing.On("PublishTrip", mock.Anything, event).Return(errors.New("boom"))
	ok.On("Close").Return(nil)
	failing.On("Close").Return(nil)

	m := Multi{ok, failing}
	err := m.PublishTrip(context.Background(), event)
	assert.ErrorContains(t, err, "boom")
	assert.NoError(t, m.Close())

	ok.AssertExpectations(t)
	failing.AssertExpectations(t)
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.PublishTrip(context.Background(), sampleEvent()))
	assert.NoError(t, p.Close())
}
