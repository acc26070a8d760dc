package s3

import (
	"context"
	"io"
	"strings"
	"testing"

	"librarycore/internal/infra/blob"
)

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()

	info, err := store.Put(ctx, "snapshots/a.json", strings.NewReader(`{"users":{}}`), blob.PutOptions{ContentType: "application/json"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "snapshots/a.json" {
		t.Fatalf("unexpected key %q", info.Key)
	}

	got, rc, err := store.Get(ctx, "snapshots/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"users":{}}` {
		t.Fatalf("content corrupted: %q", data)
	}
	if got.ContentType != "application/json" {
		t.Fatalf("content type lost: %q", got.ContentType)
	}
}

func TestPutExistingKeyFails(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()

	if _, err := store.Put(ctx, "k", strings.NewReader("one"), blob.PutOptions{}); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, "k", strings.NewReader("two"), blob.PutOptions{}); err == nil {
		t.Fatal("second put of same key must fail")
	}
}

func TestGetMissingKey(t *testing.T) {
	store := NewMockForTests()
	if _, _, err := store.Get(context.Background(), "absent"); err == nil {
		t.Fatal("expected error for missing key")
	}
}

func TestListFiltersAndSorts(t *testing.T) {
	ctx := context.Background()
	store := NewMockForTests()

	for _, key := range []string{"snapshots/b", "snapshots/a", "other/c"} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), blob.PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", key, err)
		}
	}
	infos, err := store.List(ctx, "snapshots/")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(infos) != 2 || infos[0].Key != "snapshots/a" || infos[1].Key != "snapshots/b" {
		t.Fatalf("unexpected listing %+v", infos)
	}
}

func TestDriverIdentifier(t *testing.T) {
	if NewMockForTests().Driver() != blob.DriverS3 {
		t.Fatal("unexpected driver identifier")
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("missing bucket must error")
	}
}

func TestOpenFromEnvRequiresBucket(t *testing.T) {
	t.Setenv("LIBRARYCORE_BLOB_S3_BUCKET", "")
	if _, err := OpenFromEnv(context.Background()); err == nil {
		t.Fatal("missing bucket env must error")
	}
}
