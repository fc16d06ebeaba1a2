package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	obscontext "github.com/Vaibhavsahu2810/hcw-home-sub001/internal/observability/context"
)

func TestWithContext_CarriesActorAndRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithActor(ctx, "user", "42")

	WithContext(ctx, base).Info("participant joined")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-1" {
		t.Errorf("request_id = %v, want req-1", fields["request_id"])
	}
	if fields["actor_type"] != "user" {
		t.Errorf("actor_type = %v, want user", fields["actor_type"])
	}
	if fields["actor_id"] != "42" {
		t.Errorf("actor_id = %v, want 42", fields["actor_id"])
	}
}

func TestWithContext_NoActorYieldsEmptyFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	WithContext(context.Background(), zap.New(core)).Info("anonymous traffic")

	fields := logs.All()[0].ContextMap()
	if fields["actor_type"] != "" || fields["actor_id"] != "" {
		t.Errorf("actor fields = %v/%v, want empty", fields["actor_type"], fields["actor_id"])
	}
}

func TestWithActor_AddsTrimmedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	WithActor(zap.New(core), " user ", " 7 ").Info("admitted")

	fields := logs.All()[0].ContextMap()
	if fields["actor_type"] != "user" {
		t.Errorf("actor_type = %v, want user", fields["actor_type"])
	}
	if fields["actor_id"] != "7" {
		t.Errorf("actor_id = %v, want 7", fields["actor_id"])
	}
}
