package moltbook

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ostegm/moltbook-study/internal/logging"
	"github.com/ostegm/moltbook-study/internal/store"
)

// PullStats summarizes one pull run.
type PullStats struct {
	Pages  int
	Pulled int
	Offset int
}

const checkpointEvery = 5000

// Pull walks the paginated post stream from the saved checkpoint forward,
// appending one raw JSON line per post to w. The checkpoint is saved to db
// periodically and at the end, so an interrupted pull resumes where it
// stopped. db may be nil, in which case the pull starts from offset 0.
func Pull(ctx context.Context, c *Client, w io.Writer, db *store.DB, pageSize int) (PullStats, error) {
	if pageSize <= 0 {
		pageSize = 100
	}

	st := store.PullState{StartedAt: time.Now().UTC().Format(time.RFC3339)}
	if db != nil {
		loaded, err := db.LoadPullState(ctx)
		if err != nil {
			return PullStats{}, fmt.Errorf("load pull state: %w", err)
		}
		st = loaded
	}
	logging.Info("pull_start", map[string]any{"offset": st.Offset, "already_pulled": st.TotalPulled})

	var stats PullStats
	lastCheckpoint := st.TotalPulled
	for {
		page, err := c.FetchPage(ctx, st.Offset, pageSize)
		if err != nil {
			// save what we have so the next run resumes here
			if db != nil {
				_ = db.SavePullState(ctx, st)
			}
			return stats, fmt.Errorf("fetch offset %d: %w", st.Offset, err)
		}
		stats.Pages++

		for _, raw := range page.Posts {
			if _, err := w.Write(append(raw, '\n')); err != nil {
				return stats, fmt.Errorf("write post: %w", err)
			}
		}
		st.Offset += len(page.Posts)
		st.TotalPulled += len(page.Posts)
		stats.Pulled += len(page.Posts)
		stats.Offset = st.Offset

		if db != nil && st.TotalPulled-lastCheckpoint >= checkpointEvery {
			if err := db.SavePullState(ctx, st); err != nil {
				return stats, fmt.Errorf("checkpoint: %w", err)
			}
			lastCheckpoint = st.TotalPulled
			logging.Info("pull_progress", map[string]any{"pulled": st.TotalPulled, "offset": st.Offset})
		}

		if !page.HasMore || len(page.Posts) == 0 {
			break
		}
	}

	st.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	if db != nil {
		if err := db.SavePullState(ctx, st); err != nil {
			return stats, fmt.Errorf("final checkpoint: %w", err)
		}
	}
	logging.Info("pull_done", map[string]any{"pulled": st.TotalPulled, "pages": stats.Pages})
	return stats, nil
}
