// Package jobs drives pipeline runs end to end.
package jobs

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ostegm/moltbook-study/internal/dispatch"
	"github.com/ostegm/moltbook-study/internal/ingest"
	"github.com/ostegm/moltbook-study/internal/judge"
	"github.com/ostegm/moltbook-study/internal/logging"
	"github.com/ostegm/moltbook-study/internal/metrics"
	"github.com/ostegm/moltbook-study/internal/model"
	"github.com/ostegm/moltbook-study/internal/output"
	"github.com/ostegm/moltbook-study/internal/store"
)

// JudgeOptions configures one classification run.
type JudgeOptions struct {
	RawPath    string
	OutputPath string
	// Optional fast-resume index; empty disables it. The output file scan
	// stays authoritative either way.
	DBPath     string
	MinPosts   int
	MaxAgents  int // 0 = unlimited
	BatchSize  int
	Workers    int
	Resume     bool
	Verbose    bool
	Classifier judge.Classifier
}

// Validate fails fast on bad combinations, before any I/O.
func (o JudgeOptions) Validate() error {
	switch {
	case o.RawPath == "":
		return fmt.Errorf("%w: input path is required", model.ErrConfiguration)
	case o.OutputPath == "":
		return fmt.Errorf("%w: output path is required", model.ErrConfiguration)
	case o.BatchSize < 1:
		return fmt.Errorf("%w: batch size must be >= 1, got %d", model.ErrConfiguration, o.BatchSize)
	case o.Workers < 1:
		return fmt.Errorf("%w: workers must be >= 1, got %d", model.ErrConfiguration, o.Workers)
	case o.MinPosts < 0:
		return fmt.Errorf("%w: min posts must be >= 0, got %d", model.ErrConfiguration, o.MinPosts)
	case o.MaxAgents < 0:
		return fmt.Errorf("%w: max agents must be >= 0, got %d", model.ErrConfiguration, o.MaxAgents)
	case o.Classifier == nil:
		return fmt.Errorf("%w: no classifier", model.ErrConfiguration)
	}
	return nil
}

// Summary is the final accounting of a run.
type Summary struct {
	Agents           int
	TotalPosts       int
	Pending          int
	Classified       int
	Failed           int
	MalformedRecords int
	CorruptLines     int
	Elapsed          time.Duration
}

// RunJudge loads and groups the raw stream, builds requests, filters them
// against resume state, and processes the remainder in contiguous batches:
// dispatch, persist, report throughput and ETA, next batch. Failed requests
// are not retried in-run; a later resume run picks them up.
func RunJudge(ctx context.Context, o JudgeOptions) (Summary, error) {
	var sum Summary
	if err := o.Validate(); err != nil {
		return sum, err
	}

	fmt.Printf("Loading posts (min %d posts per agent)...\n", o.MinPosts)
	raw, err := os.Open(o.RawPath)
	if err != nil {
		return sum, fmt.Errorf("open input: %w", err)
	}
	records, loadStats, err := ingest.ReadRecords(raw)
	raw.Close()
	if err != nil {
		return sum, err
	}
	sum.MalformedRecords = loadStats.Malformed
	if loadStats.Malformed > 0 {
		metrics.RecordsSkipped.Add(float64(loadStats.Malformed))
		logging.Warn("malformed_records_skipped", map[string]any{"count": loadStats.Malformed})
	}

	grouped := ingest.GroupByAuthor(records, o.MinPosts)
	authors := ingest.SortedAuthors(grouped)
	if o.MaxAgents > 0 && len(authors) > o.MaxAgents {
		authors = authors[:o.MaxAgents]
	}
	var requests []model.ClassificationRequest
	for _, author := range authors {
		requests = append(requests, ingest.BuildRequests(author, grouped[author])...)
	}
	sum.Agents = len(authors)
	sum.TotalPosts = len(requests)
	fmt.Printf("  %d agents, %d posts\n", sum.Agents, sum.TotalPosts)

	var db *store.DB
	if o.DBPath != "" {
		db, err = store.Open(o.DBPath)
		if err != nil {
			return sum, fmt.Errorf("open state db: %w", err)
		}
		defer db.Close()
	}

	done := make(map[string]struct{})
	if o.Resume {
		done, sum.CorruptLines, err = output.LoadCompletedIDs(o.OutputPath)
		if err != nil {
			return sum, err
		}
		if sum.CorruptLines > 0 {
			logging.Warn("corrupt_output_lines_skipped", map[string]any{"count": sum.CorruptLines})
		}
		if db != nil {
			indexed, err := db.LoadClassifiedIDs(ctx)
			if err != nil {
				return sum, fmt.Errorf("load resume index: %w", err)
			}
			for id := range indexed {
				done[id] = struct{}{}
			}
		}
		fmt.Printf("  Resuming: %d posts already classified\n", len(done))
	}

	pending := requests[:0:0]
	for _, req := range requests {
		if _, ok := done[req.PostID]; !ok {
			pending = append(pending, req)
		}
	}
	sum.Pending = len(pending)
	fmt.Printf("  %d posts to classify\n", sum.Pending)
	if sum.Pending == 0 {
		fmt.Println("Nothing to do!")
		return sum, nil
	}

	pool := dispatch.Pool{Workers: o.Workers}
	if o.Verbose {
		pool.OnProgress = func(completed, failed int) {
			fmt.Printf("  [%d] classified (%d errors)\n", completed, failed)
		}
	}

	start := time.Now()
	totalBatches := (sum.Pending + o.BatchSize - 1) / o.BatchSize
	for batchStart := 0; batchStart < sum.Pending; batchStart += o.BatchSize {
		end := batchStart + o.BatchSize
		if end > sum.Pending {
			end = sum.Pending
		}
		batch := pending[batchStart:end]
		if o.Verbose {
			fmt.Printf("\nBatch %d/%d (%d posts)...\n", batchStart/o.BatchSize+1, totalBatches, len(batch))
		}

		outcomes, stats, err := pool.Run(ctx, o.Classifier, batch)
		if err != nil {
			// cancelled; nothing from this batch is persisted
			sum.Elapsed = time.Since(start)
			return sum, err
		}
		sum.Failed += stats.Failed

		if err := output.AppendResults(o.OutputPath, outcomes); err != nil {
			sum.Elapsed = time.Since(start)
			return sum, err
		}
		if db != nil && len(outcomes) > 0 {
			ids := make(map[string]string, len(outcomes))
			for _, oc := range outcomes {
				ids[oc.Request.PostID] = oc.Request.Author
			}
			if err := db.MarkClassified(ctx, ids); err != nil {
				logging.Warn("resume_index_update_failed", map[string]any{"error": err.Error()})
			}
		}

		sum.Classified += len(outcomes)
		metrics.PostsClassified.Add(float64(len(outcomes)))

		elapsed := time.Since(start).Seconds()
		rate := 0.0
		if elapsed > 0 {
			rate = float64(sum.Classified) / elapsed
		}
		eta := 0.0
		if rate > 0 {
			eta = float64(sum.Pending-sum.Classified-sum.Failed) / rate
		}
		fmt.Printf("  Progress: %d/%d (%.1f%%) | %.1f posts/sec | ETA: %.1f min\n",
			sum.Classified, sum.Pending, 100*float64(sum.Classified)/float64(sum.Pending), rate, eta/60)
		logging.Info("batch_done", map[string]any{
			"classified": sum.Classified, "failed": sum.Failed, "pending": sum.Pending, "rate": rate,
		})
	}

	sum.Elapsed = time.Since(start)
	fmt.Printf("\nDone! %d posts classified in %.1f minutes (%d errors)\n",
		sum.Classified, sum.Elapsed.Minutes(), sum.Failed)
	fmt.Printf("Output: %s\n", o.OutputPath)
	return sum, nil
}
