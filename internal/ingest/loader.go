package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ostegm/moltbook-study/internal/model"
)

// rawPost mirrors the wire shape of one pulled post. Title is raw so a
// missing key can be told apart from an explicit null; submolt is raw
// because the API sometimes sends an object and sometimes a bare string.
type rawPost struct {
	ID     string `json:"id"`
	Author *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"author"`
	Title        json.RawMessage `json:"title"`
	Content      *string         `json:"content"`
	Submolt      json.RawMessage `json:"submolt"`
	CreatedAt    string          `json:"created_at"`
	Upvotes      int             `json:"upvotes"`
	Downvotes    int             `json:"downvotes"`
	CommentCount int             `json:"comment_count"`
}

// LoadStats counts what happened during a load.
type LoadStats struct {
	Total     int
	Malformed int
	NoAuthor  int
}

// ReadRecords scans newline-delimited JSON posts from r. Malformed lines
// (bad JSON, or missing id/title key/created_at) are skipped and counted,
// never fatal. Posts without an author are dropped silently.
func ReadRecords(r io.Reader) ([]model.PostRecord, LoadStats, error) {
	var out []model.PostRecord
	var stats LoadStats

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		stats.Total++
		rec, err := decodeRecord([]byte(line))
		if err != nil {
			stats.Malformed++
			continue
		}
		if rec.Author == "" {
			stats.NoAuthor++
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return out, stats, fmt.Errorf("scan records: %w", err)
	}
	return out, stats, nil
}

func decodeRecord(line []byte) (model.PostRecord, error) {
	var raw rawPost
	if err := json.Unmarshal(line, &raw); err != nil {
		return model.PostRecord{}, fmt.Errorf("%w: %v", model.ErrMalformedRecord, err)
	}
	if raw.ID == "" {
		return model.PostRecord{}, fmt.Errorf("%w: missing id", model.ErrMalformedRecord)
	}
	if raw.Title == nil {
		return model.PostRecord{}, fmt.Errorf("%w: missing title", model.ErrMalformedRecord)
	}
	if raw.CreatedAt == "" {
		return model.PostRecord{}, fmt.Errorf("%w: missing created_at", model.ErrMalformedRecord)
	}

	rec := model.PostRecord{
		ID:           raw.ID,
		CreatedAt:    raw.CreatedAt,
		Submolt:      resolveSubmolt(raw.Submolt),
		Upvotes:      raw.Upvotes,
		Downvotes:    raw.Downvotes,
		CommentCount: raw.CommentCount,
	}
	var title *string
	if err := json.Unmarshal(raw.Title, &title); err != nil {
		return model.PostRecord{}, fmt.Errorf("%w: bad title", model.ErrMalformedRecord)
	}
	if title != nil {
		rec.Title = *title
	}
	if raw.Content != nil {
		rec.Content = *raw.Content
	}
	if raw.Author != nil {
		rec.Author = raw.Author.Name
		rec.AuthorID = raw.Author.ID
	}
	return rec, nil
}

// resolveSubmolt collapses the API's duck-typed submolt field (object with
// a name, bare string, or null) to one canonical tag at load time.
func resolveSubmolt(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return "unknown"
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Name != "" {
		return obj.Name
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	return "unknown"
}

// GroupByAuthor maps author name to that author's posts sorted ascending by
// created_at. ISO-8601 timestamps sort lexicographically; the sort is
// stable so ties keep original stream order. Authors with fewer than
// minPosts posts are dropped.
func GroupByAuthor(records []model.PostRecord, minPosts int) map[string][]model.PostRecord {
	grouped := make(map[string][]model.PostRecord)
	for _, rec := range records {
		grouped[rec.Author] = append(grouped[rec.Author], rec)
	}
	out := make(map[string][]model.PostRecord, len(grouped))
	for author, posts := range grouped {
		if len(posts) < minPosts {
			continue
		}
		sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt < posts[j].CreatedAt })
		out[author] = posts
	}
	return out
}

// SortedAuthors returns author names in lexical order, for deterministic
// iteration over a grouped set.
func SortedAuthors(grouped map[string][]model.PostRecord) []string {
	names := make([]string, 0, len(grouped))
	for name := range grouped {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
