// Package dispatch runs many independent judge calls with bounded
// concurrency. Completion order is arbitrary; output order is not: results
// come back in the same relative order the requests went in.
package dispatch

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ostegm/moltbook-study/internal/judge"
	"github.com/ostegm/moltbook-study/internal/logging"
	"github.com/ostegm/moltbook-study/internal/model"
)

// DefaultWorkers bounds outstanding judge calls when Pool.Workers is unset.
const DefaultWorkers = 10

const defaultProgressEvery = 100

// Outcome pairs a request with its successful result.
type Outcome struct {
	Request model.ClassificationRequest
	Result  model.ClassificationResult
}

// Stats summarizes one engine invocation.
type Stats struct {
	Submitted int
	Succeeded int
	Failed    int
}

// Pool is the parallel dispatch engine. Workers bounds concurrent calls;
// OnProgress, if set, fires after every ProgressEvery completions with the
// running completed and failed counts.
type Pool struct {
	Workers       int
	ProgressEvery int
	OnProgress    func(completed, failed int)
}

// Run submits every request, waits for all of them, and returns the
// successful outcomes in original input order. A single request's failure
// never aborts the batch; it is counted and its slot omitted from the
// output. Run returns a non-nil error only when ctx is cancelled, in which
// case the partial outcomes must be discarded by the caller.
func (p *Pool) Run(ctx context.Context, cl judge.Classifier, reqs []model.ClassificationRequest) ([]Outcome, Stats, error) {
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	every := p.ProgressEvery
	if every <= 0 {
		every = defaultProgressEvery
	}

	// Each slot is written at most once, by the one worker that owns its
	// index. Counters live in the aggregator goroutine only.
	slots := make([]*model.ClassificationResult, len(reqs))
	completions := make(chan bool, len(reqs))
	aggDone := make(chan Stats, 1)

	go func() {
		var completed, failed int
		for ok := range completions {
			completed++
			if !ok {
				failed++
			}
			if p.OnProgress != nil && completed%every == 0 {
				p.OnProgress(completed, failed)
			}
		}
		aggDone <- Stats{Submitted: len(reqs), Succeeded: completed - failed, Failed: failed}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range reqs {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			res, err := cl.Classify(gctx, reqs[i])
			if err != nil {
				if gctx.Err() != nil {
					// cancelled mid-flight; the result, had it arrived,
					// would be discarded anyway
					return gctx.Err()
				}
				logging.Debug("judge_error", map[string]any{"post_id": reqs[i].PostID, "error": err.Error()})
				completions <- false
				return nil
			}
			slots[i] = &res
			completions <- true
			return nil
		})
	}

	runErr := g.Wait()
	close(completions)
	stats := <-aggDone

	if runErr != nil {
		return nil, stats, runErr
	}

	out := make([]Outcome, 0, stats.Succeeded)
	for i, res := range slots {
		if res != nil {
			out = append(out, Outcome{Request: reqs[i], Result: *res})
		}
	}
	return out, stats, nil
}
