package store

import (
	"context"
	"database/sql"
	"testing"
)

func TestCursorRoundtrip(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	if _, err := db.LoadCursor(ctx, "missing"); err != sql.ErrNoRows {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
	if err := db.SaveCursor(ctx, "k", "v1"); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveCursor(ctx, "k", "v2"); err != nil {
		t.Fatal(err)
	}
	v, err := db.LoadCursor(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if v != "v2" {
		t.Fatalf("cursor = %q, want v2", v)
	}
}

func TestOpenBadPath(t *testing.T) {
	// a directory is not a database; Open must surface the failure from
	// the first statement rather than hand back a half-opened handle
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("expected error opening a directory as a database")
	}
}

func TestPullStateRoundtrip(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	st, err := db.LoadPullState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st.Offset != 0 || st.StartedAt == "" {
		t.Fatalf("fresh state = %+v", st)
	}

	st.Offset = 500
	st.TotalPulled = 500
	if err := db.SavePullState(ctx, st); err != nil {
		t.Fatal(err)
	}
	got, err := db.LoadPullState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.Offset != 500 || got.TotalPulled != 500 {
		t.Fatalf("loaded state = %+v", got)
	}
}

func TestMarkClassifiedIdempotent(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()

	ids := map[string]string{"p1": "alice", "p2": "bob"}
	if err := db.MarkClassified(ctx, ids); err != nil {
		t.Fatal(err)
	}
	// re-marking must not fail or duplicate
	if err := db.MarkClassified(ctx, ids); err != nil {
		t.Fatal(err)
	}
	got, err := db.LoadClassifiedIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("ids = %d, want 2", len(got))
	}
	if _, ok := got["p1"]; !ok {
		t.Fatalf("p1 missing from index")
	}
}
