package store

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	records := []Record{
		{URL: "wss://relay.example", VariantName: "general", Requests: 4, Weight: 1.5},
		{URL: "wss://inbox.example", VariantName: "inbox", Requests: 1, Weight: 1.0},
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

func TestMemoryStorePutAllReplacesContents(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.PutAll(ctx, DefaultStoreName, []Record{{URL: "wss://a", VariantName: "general"}})
	s.PutAll(ctx, DefaultStoreName, []Record{{URL: "wss://b", VariantName: "general"}})

	got, _ := s.GetAll(ctx, DefaultStoreName)
	if len(got) != 1 || got[0].URL != "wss://b" {
		t.Errorf("GetAll after second PutAll = %+v, want only wss://b", got)
	}
}

func TestDurationPairRoundTrip(t *testing.T) {
	cases := []time.Duration{0, 1, 999999999, 5000000000}
	for _, d := range cases {
		pair := DurationPairOf(d)
		if pair.ToDuration() != d {
			t.Errorf("DurationPair round trip of %v = %v", d, pair.ToDuration())
		}
	}
}
