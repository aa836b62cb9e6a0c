package blobstore

import (
	"context"
	"testing"
)

func TestMemoryPutGetRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Put(ctx, "course:100", []byte("payload")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := m.Get(ctx, "course:100")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok || string(got) != "payload" {
		t.Fatalf("Get = (%q, %v), want (payload, true)", got, ok)
	}
}

func TestMemoryGetMissingKey(t *testing.T) {
	m := NewMemory()
	_, ok, err := m.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for missing key")
	}
}

func TestMemoryPutCopiesValue(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	v := []byte("original")
	if err := m.Put(ctx, "k", v); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v[0] = 'X'

	got, _, err := m.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "original" {
		t.Fatalf("Get = %q, want unaffected by caller mutation", got)
	}
}
