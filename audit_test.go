package goLogin

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestAuditDispatcherDelivers(t *testing.T) {
	sink := NewChannelSink(8)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 8}, sink)
	defer d.Close()

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: "attempt_started",
		AttemptID: "attempt-1",
		Success:   false,
	}
	d.Emit(context.Background(), event)

	select {
	case got := <-sink.Events():
		if got.EventType != "attempt_started" || got.AttemptID != "attempt-1" {
			t.Fatalf("delivered event = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event never reached the sink")
	}
}

func TestAuditDispatcherDisabled(t *testing.T) {
	d := newAuditDispatcher(AuditConfig{Enabled: false}, NewChannelSink(1))
	if d != nil {
		t.Fatalf("disabled config produced a dispatcher: %+v", d)
	}
	// Nil dispatchers are safe to use.
	d.Emit(context.Background(), AuditEvent{EventType: "attempt_started"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatalf("Dropped on nil dispatcher = %d", d.Dropped())
	}
}

type blockingSink struct {
	release chan struct{}
	seen    chan AuditEvent
}

func (s *blockingSink) Emit(_ context.Context, event AuditEvent) {
	<-s.release
	s.seen <- event
}

func TestAuditDispatcherDropIfFull(t *testing.T) {
	sink := &blockingSink{
		release: make(chan struct{}),
		seen:    make(chan AuditEvent, 4),
	}
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	ctx := context.Background()
	// First event is picked up by the worker and blocks inside the sink,
	// second fills the buffer, third has nowhere to go.
	d.Emit(ctx, AuditEvent{EventType: "attempt_started"})
	d.Emit(ctx, AuditEvent{EventType: "attempt_started"})
	d.Emit(ctx, AuditEvent{EventType: "attempt_started"})

	deadline := time.Now().Add(2 * time.Second)
	for d.Dropped() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("no drop recorded, Dropped = %d", d.Dropped())
		}
		time.Sleep(time.Millisecond)
	}

	close(sink.release)
	d.Close()
}

func TestAuditDispatcherCloseDrains(t *testing.T) {
	sink := NewChannelSink(16)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 16}, sink)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		d.Emit(ctx, AuditEvent{EventType: "code_generated"})
	}
	d.Close()

	delivered := 0
	for {
		select {
		case <-sink.Events():
			delivered++
		default:
			if delivered != 5 {
				t.Fatalf("delivered %d events after Close, want 5", delivered)
			}
			return
		}
	}
}

func TestAuditDispatcherEmitAfterClose(t *testing.T) {
	sink := NewChannelSink(4)
	d := newAuditDispatcher(AuditConfig{Enabled: true, BufferSize: 4}, sink)
	d.Close()

	d.Emit(context.Background(), AuditEvent{EventType: "attempt_started"})

	select {
	case got := <-sink.Events():
		t.Fatalf("event delivered after Close: %+v", got)
	default:
	}
}

func TestJSONWriterSinkFormat(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), AuditEvent{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		EventType: "provision_success",
		Success:   true,
		Metadata:  map[string]string{"secret": "JBSW********"},
	})
	sink.Emit(context.Background(), AuditEvent{
		EventType: "attempt_failure",
		Error:     "authentication rejected",
	})

	scanner := bufio.NewScanner(&buf)
	lines := 0
	for scanner.Scan() {
		var event AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", lines, err)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("wrote %d lines, want 2", lines)
	}
}
