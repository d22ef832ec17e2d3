package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
)

func newTestRedisStore(t *testing.T, pageSize int) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := NewRedisStore(context.Background(), mr.Addr(), "", 0, pageSize)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestRedisStoreContract(t *testing.T) {
	store, _ := newTestRedisStore(t, 2)
	checkStoreContract(t, store)
}

func TestRedisSetNXKeepsValue(t *testing.T) {
	store, mr := newTestRedisStore(t, 10)
	ctx := context.Background()

	if _, err := store.InsertIfAbsent(ctx, Record{Key: 1705330800, Value: "first"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := store.InsertIfAbsent(ctx, Record{Key: 1705330800, Value: "second"}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	got, err := mr.Get("motd:1705330800")
	if err != nil {
		t.Fatalf("Expected key in Redis, got: %v", err)
	}
	if got != "first" {
		t.Errorf("Expected value 'first', got '%s'", got)
	}
}

func TestRedisScanCursor(t *testing.T) {
	store, _ := newTestRedisStore(t, 2)
	ctx := context.Background()

	for _, key := range []int64{1704726000, 1705330800, 1705935600} {
		if _, err := store.InsertIfAbsent(ctx, Record{Key: key, Value: "v"}); err != nil {
			t.Fatalf("Failed to insert record: %v", err)
		}
	}

	page, err := store.Scan(ctx, "", true)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(page.Records) != 2 {
		t.Errorf("Expected 2 records on first page, got %d", len(page.Records))
	}
	if page.Next == "" {
		t.Fatal("Expected continuation cursor after first page")
	}

	page, err = store.Scan(ctx, page.Next, true)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if diff := cmp.Diff([]Record{{Key: 1705935600, Value: "v"}}, page.Records); diff != "" {
		t.Errorf("Second page mismatch (-want +got):\n%s", diff)
	}
	if page.Next != "" {
		t.Errorf("Expected no cursor after last page, got %s", page.Next)
	}
}

func TestRedisScanSkipsNonStringKeys(t *testing.T) {
	store, mr := newTestRedisStore(t, 10)
	ctx := context.Background()

	if _, err := store.InsertIfAbsent(ctx, Record{Key: 1705330800, Value: "v"}); err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}
	mr.HSet("motd:1", "field", "value")

	got, err := ScanAll(ctx, store, true)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if diff := cmp.Diff([]Record{{Key: 1705330800, Value: "v"}}, got); diff != "" {
		t.Errorf("ScanAll mismatch (-want +got):\n%s", diff)
	}
}

func TestRedisScanInvalidCursor(t *testing.T) {
	store, _ := newTestRedisStore(t, 10)

	if _, err := store.Scan(context.Background(), "abc", true); err == nil {
		t.Error("Expected error for invalid cursor")
	}
}
