package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestBadgerStoreRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "badger")
	s, err := OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	records := []Record{
		{URL: "wss://relay.example", VariantName: "general", Requests: 2, Weight: 1.2},
		{URL: "wss://inbox.example", VariantName: "inbox", Requests: 0, Weight: 1.0},
	}
	if err := s.PutAll(ctx, DefaultStoreName, records); err != nil {
		t.Fatalf("PutAll: %v", err)
	}

	got, err := s.GetAll(ctx, DefaultStoreName)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetAll returned %d records, want 2", len(got))
	}
}

func TestBadgerStorePutAllClearsStale(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "badger")
	s, err := OpenBadgerStore(dir)
	if err != nil {
		t.Fatalf("OpenBadgerStore: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	s.PutAll(ctx, DefaultStoreName, []Record{{URL: "wss://a", VariantName: "general"}})
	s.PutAll(ctx, DefaultStoreName, []Record{{URL: "wss://b", VariantName: "general"}})

	got, err := s.GetAll(ctx, DefaultStoreName)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(got) != 1 || got[0].URL != "wss://b" {
		t.Errorf("GetAll after second PutAll = %+v, want only wss://b", got)
	}
}
