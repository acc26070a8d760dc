package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubDBStoresAndQueriesBuckets(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}

	_, err := conn.ExecContext(ctx, "INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload", []driver.NamedValue{
		{Value: "users"},
		{Value: []byte(`{"1":{"id":1}}`)},
	})
	if err != nil {
		t.Fatalf("ExecContext insert: %v", err)
	}
	if string(conn.Buckets["users"]) != `{"1":{"id":1}}` {
		t.Fatalf("expected users bucket to be stored, got %q", conn.Buckets["users"])
	}

	rows, err := conn.QueryContext(ctx, "SELECT bucket, payload FROM state", nil)
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	defer func() { _ = rows.Close() }()

	dest := make([]driver.Value, 2)
	if err := rows.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if dest[0] != "users" {
		t.Fatalf("unexpected bucket %v", dest[0])
	}
}
