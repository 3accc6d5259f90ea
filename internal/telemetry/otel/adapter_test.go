package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"auth-boilerplate/backend/internal/telemetry"
)

// memProcessor captures emitted log records.
type memProcessor struct {
	records []sdklog.Record
}

func (p *memProcessor) OnEmit(ctx context.Context, rec *sdklog.Record) error {
	p.records = append(p.records, *rec)
	return nil
}

func (p *memProcessor) Enabled(ctx context.Context, param sdklog.EnabledParameters) bool {
	return true
}

func (p *memProcessor) Shutdown(ctx context.Context) error   { return nil }
func (p *memProcessor) ForceFlush(ctx context.Context) error { return nil }

func TestNewEventEmitter_NilProvider(t *testing.T) {
	e := NewEventEmitter(nil)
	if e == nil {
		t.Fatal("emitter should not be nil")
	}
	if err := e.Emit(context.Background(), &telemetry.Event{Type: telemetry.EventLoginSucceeded}); err != nil {
		t.Errorf("no-op emit: %v", err)
	}
}

func TestOTelEmitter_RecordFields(t *testing.T) {
	proc := &memProcessor{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(proc))
	e := NewEventEmitter(provider)

	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	err := e.Emit(context.Background(), &telemetry.Event{
		Type:      telemetry.EventPasswordChanged,
		UserID:    42,
		ClientIP:  "203.0.113.9",
		Detail:    "password changed",
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(proc.records) != 1 {
		t.Fatalf("records = %d, want 1", len(proc.records))
	}

	rec := proc.records[0]
	if !rec.Timestamp().Equal(created) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), created)
	}
	if rec.Body().AsString() != "password changed" {
		t.Errorf("body = %q", rec.Body().AsString())
	}
	attrs := map[string]string{}
	var userID int64
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		if kv.Key == "user_id" {
			userID = kv.Value.AsInt64()
		} else {
			attrs[kv.Key] = kv.Value.AsString()
		}
		return true
	})
	if attrs["event_type"] != telemetry.EventPasswordChanged {
		t.Errorf("event_type = %q", attrs["event_type"])
	}
	if attrs["client_ip"] != "203.0.113.9" {
		t.Errorf("client_ip = %q", attrs["client_ip"])
	}
	if userID != 42 {
		t.Errorf("user_id = %d, want 42", userID)
	}
}

func TestOTelEmitter_NilEvent(t *testing.T) {
	proc := &memProcessor{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(proc))
	e := NewEventEmitter(provider)
	if err := e.Emit(context.Background(), nil); err != nil {
		t.Fatalf("Emit(nil): %v", err)
	}
	if len(proc.records) != 0 {
		t.Errorf("nil event must not emit a record")
	}
}

func TestOTelEmitter_DefaultsTimestamp(t *testing.T) {
	proc := &memProcessor{}
	provider := sdklog.NewLoggerProvider(sdklog.WithProcessor(proc))
	e := NewEventEmitter(provider)

	before := time.Now().UTC()
	if err := e.Emit(context.Background(), &telemetry.Event{Type: telemetry.EventLoginFailed}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if len(proc.records) != 1 {
		t.Fatalf("records = %d, want 1", len(proc.records))
	}
	if proc.records[0].Timestamp().Before(before) {
		t.Errorf("timestamp should default to now")
	}
}
