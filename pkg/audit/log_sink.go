package audit

import (
	"context"

	"go.uber.org/zap"
)

// LogSink mirrors audit events into the structured log.
type LogSink struct {
	log *zap.SugaredLogger
}

func NewLogSink(log *zap.SugaredLogger) *LogSink {
	return &LogSink{log: log.Named("audit-log-sink")}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Write(_ context.Context, event *Event) error {
	s.log.Infow("audit event",
		"id", event.ID,
		"action", event.Action,
		"actor", event.Actor,
		"context", event.Context,
		"timestamp", event.Timestamp)
	return nil
}

func (s *LogSink) Close() error { return nil }
