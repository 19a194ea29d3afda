package ingest

import (
	"strings"
	"testing"
)

const sampleStream = `{"id":"a1","author":{"id":"u1","name":"alice"},"title":"first","content":"hello","submolt":{"name":"general"},"created_at":"2026-01-01T00:00:00Z","upvotes":3}
{"id":"b1","author":{"id":"u2","name":"bob"},"title":"solo","content":"hi","submolt":"philosophy","created_at":"2026-01-04T00:00:00Z"}
{"id":"a3","author":{"id":"u1","name":"alice"},"title":"third","content":"x","submolt":null,"created_at":"2026-01-03T00:00:00Z"}
{"id":"a2","author":{"id":"u1","name":"alice"},"title":null,"content":"y","created_at":"2026-01-02T00:00:00Z"}
{"id":"orphan","title":"no author","created_at":"2026-01-01T00:00:00Z"}
{"id":"","title":"no id","created_at":"2026-01-01T00:00:00Z"}
{"id":"no-title","created_at":"2026-01-01T00:00:00Z"}
{"id":"no-ts","title":"x"}
not json at all
`

func TestReadRecordsSkipsMalformedAndOrphans(t *testing.T) {
	records, stats, err := ReadRecords(strings.NewReader(sampleStream))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 9 {
		t.Fatalf("total = %d, want 9", stats.Total)
	}
	// empty id, missing title key, missing created_at, unparsable line
	if stats.Malformed != 4 {
		t.Fatalf("malformed = %d, want 4", stats.Malformed)
	}
	if stats.NoAuthor != 1 {
		t.Fatalf("no-author = %d, want 1", stats.NoAuthor)
	}
	if len(records) != 4 {
		t.Fatalf("records = %d, want 4", len(records))
	}
}

func TestReadRecordsResolvesSubmoltVariants(t *testing.T) {
	records, _, err := ReadRecords(strings.NewReader(sampleStream))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"a1": "general", "b1": "philosophy", "a3": "unknown", "a2": "unknown"}
	for _, rec := range records {
		if rec.Submolt != want[rec.ID] {
			t.Fatalf("submolt for %s = %q, want %q", rec.ID, rec.Submolt, want[rec.ID])
		}
	}
}

func TestReadRecordsNullTitleAllowed(t *testing.T) {
	records, stats, err := ReadRecords(strings.NewReader(`{"id":"x","author":{"name":"a"},"title":null,"created_at":"2026-01-01T00:00:00Z"}`))
	if err != nil {
		t.Fatal(err)
	}
	if stats.Malformed != 0 || len(records) != 1 {
		t.Fatalf("null title must not be malformed: %+v", stats)
	}
	if records[0].Title != "" {
		t.Fatalf("title = %q, want empty", records[0].Title)
	}
}

func TestGroupByAuthorOrdersChronologically(t *testing.T) {
	records, _, err := ReadRecords(strings.NewReader(sampleStream))
	if err != nil {
		t.Fatal(err)
	}
	grouped := GroupByAuthor(records, 0)
	alice := grouped["alice"]
	if len(alice) != 3 {
		t.Fatalf("alice posts = %d, want 3", len(alice))
	}
	for i, want := range []string{"a1", "a2", "a3"} {
		if alice[i].ID != want {
			t.Fatalf("alice[%d] = %s, want %s", i, alice[i].ID, want)
		}
	}
	if len(grouped["bob"]) != 1 {
		t.Fatalf("bob posts = %d, want 1", len(grouped["bob"]))
	}
}

func TestGroupByAuthorMinPostsFilter(t *testing.T) {
	records, _, err := ReadRecords(strings.NewReader(sampleStream))
	if err != nil {
		t.Fatal(err)
	}
	grouped := GroupByAuthor(records, 2)
	if _, ok := grouped["bob"]; ok {
		t.Fatalf("bob should be filtered below min posts")
	}
	if _, ok := grouped["alice"]; !ok {
		t.Fatalf("alice should survive the filter")
	}
}

func TestGroupByAuthorStableOnTies(t *testing.T) {
	stream := `{"id":"t1","author":{"name":"a"},"title":"x","created_at":"2026-01-01T00:00:00Z"}
{"id":"t2","author":{"name":"a"},"title":"x","created_at":"2026-01-01T00:00:00Z"}
{"id":"t3","author":{"name":"a"},"title":"x","created_at":"2026-01-01T00:00:00Z"}`
	records, _, err := ReadRecords(strings.NewReader(stream))
	if err != nil {
		t.Fatal(err)
	}
	posts := GroupByAuthor(records, 0)["a"]
	for i, want := range []string{"t1", "t2", "t3"} {
		if posts[i].ID != want {
			t.Fatalf("tie order broken at %d: got %s, want %s", i, posts[i].ID, want)
		}
	}
}
