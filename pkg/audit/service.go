package audit

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/openidem/lockdown/pkg/metrics"
)

// Store durably persists audit events. The store is the compliance record:
// a failed write is a fatal error for the operation being audited.
type Store interface {
	Create(ctx context.Context, event *Event) error
}

// Sink receives a best-effort copy of every recorded event (log output,
// Kafka topic). Sink failures never fail the recording.
type Sink interface {
	Name() string
	Write(ctx context.Context, event *Event) error
	Close() error
}

// Service records audit events: one durable write through the Store,
// then best-effort forwarding to all configured sinks.
type Service struct {
	store Store
	sinks []Sink
	log   *zap.SugaredLogger
}

func NewService(store Store, log *zap.SugaredLogger) *Service {
	return &Service{
		store: store,
		log:   log.Named("audit"),
	}
}

// AddSink registers an additional forwarding sink.
func (s *Service) AddSink(sink Sink) {
	s.sinks = append(s.sinks, sink)
	s.log.Infow("Audit sink registered", "sink", sink.Name())
}

// Record persists one audit event. The durable write is synchronous and its
// failure propagates to the caller; sink forwarding is best-effort.
func (s *Service) Record(ctx context.Context, action Action, eventContext map[string]interface{}, actor string) error {
	event := NewEvent(action, actor, eventContext)

	if err := s.store.Create(ctx, event); err != nil {
		metrics.AuditEventsFailed.WithLabelValues(string(action)).Inc()
		return fmt.Errorf("recording audit event %s: %w", action, err)
	}
	metrics.AuditEventsRecorded.WithLabelValues(string(action)).Inc()

	for _, sink := range s.sinks {
		if err := sink.Write(ctx, event); err != nil {
			metrics.AuditSinkErrors.WithLabelValues(sink.Name()).Inc()
			s.log.Warnw("Failed to forward audit event to sink",
				"sink", sink.Name(),
				"event", event.ID,
				"action", action,
				"error", err)
		}
	}
	return nil
}

// Close shuts down all sinks.
func (s *Service) Close() error {
	var closeErr error
	for _, sink := range s.sinks {
		if err := sink.Close(); err != nil {
			s.log.Warnw("Failed to close audit sink", "sink", sink.Name(), "error", err)
			closeErr = err
		}
	}
	s.sinks = nil
	return closeErr
}
