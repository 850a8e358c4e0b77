package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

func TestInitDisabled(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx := context.Background()
	tp, shutdown, err := Init(ctx, Options{Enabled: false})
	if err != nil {
		t.Fatalf("Init(disabled) returned error: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			t.Errorf("shutdown returned error: %v", err)
		}
	}()

	// Should return a noop provider
	if _, ok := tp.(noop.TracerProvider); !ok {
		t.Errorf("expected noop.TracerProvider, got %T", tp)
	}
}

func TestInitEnabledNoneExporter(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx := context.Background()
	log := zap.NewNop().Sugar()
	tp, shutdown, err := Init(ctx, Options{
		Enabled:      true,
		Exporter:     "none",
		ServiceName:  "test-service",
		SamplingRate: 1.0,
		Logger:       log,
	})
	if err != nil {
		t.Fatalf("Init(none exporter) returned error: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			t.Errorf("shutdown returned error: %v", err)
		}
	}()

	// Should return a real (non-noop) provider
	if _, ok := tp.(*noop.TracerProvider); ok {
		t.Error("expected real TracerProvider, got noop")
	}

	if otel.GetTracerProvider() == nil {
		t.Fatal("global TracerProvider is nil")
	}
}

func TestInitEnabledStdoutExporter(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx := context.Background()
	log := zap.NewNop().Sugar()
	tp, shutdown, err := Init(ctx, Options{
		Enabled:      true,
		Exporter:     "stdout",
		ServiceName:  "test-stdout",
		SamplingRate: 0.5,
		Logger:       log,
	})
	if err != nil {
		t.Fatalf("Init(stdout exporter) returned error: %v", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			t.Errorf("shutdown returned error: %v", err)
		}
	}()

	if tp == nil {
		t.Fatal("TracerProvider is nil")
	}
}

func TestInitUnknownExporter(t *testing.T) {
	ctx := context.Background()
	_, _, err := Init(ctx, Options{
		Enabled:  true,
		Exporter: "jaeger-classic",
		Logger:   zap.NewNop().Sugar(),
	})
	if err == nil {
		t.Fatal("expected error for unknown exporter")
	}
}

func TestInitClampsSamplingRate(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	ctx := context.Background()
	_, shutdown, err := Init(ctx, Options{
		Enabled:      true,
		Exporter:     "none",
		SamplingRate: 7.5,
		Logger:       zap.NewNop().Sugar(),
	})
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if err := shutdown(ctx); err != nil {
		t.Errorf("shutdown returned error: %v", err)
	}
}
