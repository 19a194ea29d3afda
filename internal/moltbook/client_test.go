package moltbook

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ostegm/moltbook-study/internal/store"
)

func newTestMoltbook(url string) *Client {
	c := NewClient(url, "test")
	c.maxAttempts = 3
	c.baseBackoff = 10 * time.Millisecond
	return c
}

func TestDoWithRetryHandles429(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"posts":[],"has_more":false}`)
	}))
	defer ts.Close()

	c := newTestMoltbook(ts.URL)
	c.httpClient = ts.Client()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/posts", nil)
	resp, err := c.doWithRetry(context.Background(), req)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if attempts < 2 {
		t.Fatalf("expected at least 2 attempts, got %d", attempts)
	}
}

func pagingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("offset")
		switch offset {
		case "0":
			fmt.Fprint(w, `{"posts":[{"id":"p1"},{"id":"p2"}],"has_more":true}`)
		case "2":
			fmt.Fprint(w, `{"posts":[{"id":"p3"}],"has_more":false}`)
		default:
			t.Errorf("unexpected offset %s", offset)
			fmt.Fprint(w, `{"posts":[],"has_more":false}`)
		}
	}))
}

func TestFetchPage(t *testing.T) {
	ts := pagingServer(t)
	defer ts.Close()

	c := newTestMoltbook(ts.URL)
	page, err := c.FetchPage(context.Background(), 0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Posts) != 2 || !page.HasMore {
		t.Fatalf("page = %d posts, has_more=%v", len(page.Posts), page.HasMore)
	}
}

func TestPullWalksAllPages(t *testing.T) {
	ts := pagingServer(t)
	defer ts.Close()

	c := newTestMoltbook(ts.URL)
	var buf bytes.Buffer
	stats, err := Pull(context.Background(), c, &buf, nil, 100)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Pulled != 3 || stats.Pages != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("wrote %d lines, want 3", len(lines))
	}
	if !strings.Contains(lines[0], `"p1"`) || !strings.Contains(lines[2], `"p3"`) {
		t.Fatalf("lines out of order: %v", lines)
	}
}

func TestPullCheckpointsState(t *testing.T) {
	ts := pagingServer(t)
	defer ts.Close()

	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	c := newTestMoltbook(ts.URL)
	var buf bytes.Buffer
	if _, err := Pull(context.Background(), c, &buf, db, 100); err != nil {
		t.Fatal(err)
	}

	st, err := db.LoadPullState(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Offset != 3 || st.TotalPulled != 3 {
		t.Fatalf("checkpoint = %+v", st)
	}
	if st.FinishedAt == "" {
		t.Fatalf("finished_at not set")
	}
}
