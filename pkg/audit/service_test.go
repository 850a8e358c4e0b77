package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockStore struct {
	events []*Event
	err    error
}

func (m *mockStore) Create(_ context.Context, event *Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

type mockSink struct {
	name   string
	events []*Event
	err    error
	closed bool
}

func (m *mockSink) Name() string { return m.name }

func (m *mockSink) Write(_ context.Context, event *Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockSink) Close() error {
	m.closed = true
	return nil
}

func newTestService(store Store) *Service {
	return NewService(store, zap.NewNop().Sugar())
}

func TestRecordPersistsEvent(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(store)

	err := svc.Record(context.Background(), ActionPanicButtonTriggered,
		map[string]interface{}{"reason": "compromised"}, "admin")
	require.NoError(t, err)

	require.Len(t, store.events, 1)
	ev := store.events[0]
	assert.Equal(t, ActionPanicButtonTriggered, ev.Action)
	assert.Equal(t, "admin", ev.Actor)
	assert.Equal(t, "compromised", ev.Context["reason"])
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Timestamp.IsZero())
}

func TestRecordStoreFailurePropagates(t *testing.T) {
	store := &mockStore{err: errors.New("disk full")}
	svc := newTestService(store)

	err := svc.Record(context.Background(), ActionPanicButtonTriggered, nil, "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic_button_triggered")
}

func TestRecordForwardsToSinks(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(store)
	sink1 := &mockSink{name: "one"}
	sink2 := &mockSink{name: "two"}
	svc.AddSink(sink1)
	svc.AddSink(sink2)

	require.NoError(t, svc.Record(context.Background(), ActionSessionRevoked, nil, "admin"))

	assert.Len(t, sink1.events, 1)
	assert.Len(t, sink2.events, 1)
}

func TestRecordSinkFailureIsAbsorbed(t *testing.T) {
	store := &mockStore{}
	svc := newTestService(store)
	broken := &mockSink{name: "broken", err: errors.New("broker gone")}
	healthy := &mockSink{name: "healthy"}
	svc.AddSink(broken)
	svc.AddSink(healthy)

	err := svc.Record(context.Background(), ActionLogout, nil, "user")
	require.NoError(t, err)

	// Durable record and remaining sinks are unaffected by one sink failing.
	assert.Len(t, store.events, 1)
	assert.Len(t, healthy.events, 1)
}

func TestCloseClosesSinks(t *testing.T) {
	svc := newTestService(&mockStore{})
	sink := &mockSink{name: "one"}
	svc.AddSink(sink)

	require.NoError(t, svc.Close())
	assert.True(t, sink.closed)
}

func TestLogSink(t *testing.T) {
	sink := NewLogSink(zap.NewNop().Sugar())
	assert.Equal(t, "log", sink.Name())
	assert.NoError(t, sink.Write(context.Background(), NewEvent(ActionLogin, "user", nil)))
	assert.NoError(t, sink.Close())
}

func TestNewKafkaSinkValidation(t *testing.T) {
	log := zap.NewNop().Sugar()

	_, err := NewKafkaSink(KafkaSinkConfig{Topic: "audit"}, log)
	assert.Error(t, err)

	_, err = NewKafkaSink(KafkaSinkConfig{Brokers: []string{"localhost:9092"}}, log)
	assert.Error(t, err)

	sink, err := NewKafkaSink(KafkaSinkConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "audit",
	}, log)
	require.NoError(t, err)
	assert.Equal(t, "kafka", sink.Name())
	assert.NoError(t, sink.Close())
}
