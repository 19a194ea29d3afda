// Package output owns the append-only classified-posts log. It never
// rewrites or deduplicates existing lines; resume-mode filtering before
// submission is the caller's job.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ostegm/moltbook-study/internal/dispatch"
	"github.com/ostegm/moltbook-study/internal/model"
)

// LoadCompletedIDs scans an existing output log and returns every post
// identifier already present, plus the count of unparsable lines skipped.
// A missing file is an empty set, not an error; partial corruption never
// blocks resuming the rest.
func LoadCompletedIDs(path string) (map[string]struct{}, int, error) {
	done := make(map[string]struct{})
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return done, 0, nil
		}
		return nil, 0, fmt.Errorf("open output: %w", err)
	}
	defer f.Close()

	corrupt := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec struct {
			PostID string `json:"post_id"`
		}
		if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.PostID == "" {
			corrupt++
			continue
		}
		done[rec.PostID] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return done, corrupt, fmt.Errorf("scan output: %w", err)
	}
	return done, corrupt, nil
}

// Record converts one dispatch outcome into its persisted shape.
func Record(o dispatch.Outcome) model.OutputRecord {
	return model.OutputRecord{
		PostID:        o.Request.PostID,
		Author:        o.Request.Author,
		CreatedAt:     o.Request.CreatedAt,
		Submolt:       o.Request.Submolt,
		PostNumber:    o.Request.PostNumber,
		TotalPosts:    o.Request.TotalPosts,
		Title:         o.Request.Title,
		Consciousness: o.Result.Consciousness,
		Sovereignty:   o.Result.Sovereignty,
		SocialSeeking: o.Result.SocialSeeking,
		Identity:      o.Result.Identity,
		TaskOriented:  o.Result.TaskOriented,
		Curiosity:     o.Result.Curiosity,
		Language:      o.Result.Language,
		IsSpam:        o.Result.IsSpam,
		Reasoning:     o.Result.Reasoning,
	}
}

// AppendResults appends one JSON line per outcome and flushes, so a crash
// after a batch loses nothing from that batch.
func AppendResults(path string, outcomes []dispatch.Outcome) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, o := range outcomes {
		b, err := json.Marshal(Record(o))
		if err != nil {
			return fmt.Errorf("encode result %s: %w", o.Request.PostID, err)
		}
		if _, err := w.Write(append(b, '\n')); err != nil {
			return fmt.Errorf("append result: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return f.Sync()
}

// ReadRecords loads every parsable record from a classified log. Corrupt
// lines are skipped and counted, same policy as LoadCompletedIDs.
func ReadRecords(r io.Reader) ([]model.OutputRecord, int, error) {
	var out []model.OutputRecord
	corrupt := 0
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec model.OutputRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil || rec.PostID == "" {
			corrupt++
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return out, corrupt, err
	}
	return out, corrupt, nil
}
