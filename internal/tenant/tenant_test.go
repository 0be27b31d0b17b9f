package tenant

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestChannelName(t *testing.T) {
	tc := &Context{RoomID: "42", MosqueID: "7"}
	if got := tc.ChannelName(); got != "live-transcription-42-7" {
		t.Errorf("ChannelName() = %q", got)
	}
}

func TestRegistered(t *testing.T) {
	var nilCtx *Context
	if nilCtx.Registered() {
		t.Error("nil context should not be registered")
	}
	if (&Context{}).Registered() {
		t.Error("empty context should not be registered")
	}
	if !(&Context{RoomID: "42"}).Registered() {
		t.Error("context with RoomID should be registered")
	}
}

func TestStore_NilPoolDegradesToDefaults(t *testing.T) {
	s := NewStore(nil, zerolog.Nop())

	tc, err := s.LookupRoom(context.Background(), "any-room")
	if err != nil {
		t.Fatalf("LookupRoom with nil pool should not fail: %v", err)
	}
	if tc.Registered() {
		t.Error("nil pool lookup should yield an unregistered context")
	}

	if err := s.UpdateSessionHeartbeat(context.Background(), "sess"); err != nil {
		t.Errorf("heartbeat with nil pool should be a no-op, got %v", err)
	}
	if err := s.CloseSession(context.Background(), "sess"); err != nil {
		t.Errorf("close with nil pool should be a no-op, got %v", err)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("ping with nil pool should be a no-op, got %v", err)
	}
}
