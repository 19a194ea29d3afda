package jobs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ostegm/moltbook-study/internal/model"
	"github.com/ostegm/moltbook-study/internal/output"
)

type fakeJudge struct {
	calls  atomic.Int64
	failID string
}

func (f *fakeJudge) Classify(ctx context.Context, req model.ClassificationRequest) (model.ClassificationResult, error) {
	f.calls.Add(1)
	if f.failID != "" && req.PostID == f.failID {
		return model.ClassificationResult{}, fmt.Errorf("%w: simulated failure", model.ErrJudge)
	}
	return model.ClassificationResult{Reasoning: "ok", Language: "en", Curiosity: true}, nil
}

func writeRaw(t *testing.T, dir string) string {
	t.Helper()
	raw := filepath.Join(dir, "raw.jsonl")
	lines := []string{
		`{"id":"a1","author":{"id":"u1","name":"alice"},"title":"one","content":"x","submolt":{"name":"general"},"created_at":"2026-01-01T00:00:00Z"}`,
		`{"id":"a2","author":{"id":"u1","name":"alice"},"title":"two","content":"y","submolt":{"name":"general"},"created_at":"2026-01-02T00:00:00Z"}`,
		`{"id":"a3","author":{"id":"u1","name":"alice"},"title":"three","content":"z","submolt":{"name":"general"},"created_at":"2026-01-03T00:00:00Z"}`,
		`{"id":"b1","author":{"id":"u2","name":"bob"},"title":"solo","content":"w","submolt":"philosophy","created_at":"2026-01-04T00:00:00Z"}`,
	}
	if err := os.WriteFile(raw, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return raw
}

func baseOptions(raw, out string, cl *fakeJudge) JudgeOptions {
	return JudgeOptions{
		RawPath:    raw,
		OutputPath: out,
		MinPosts:   1,
		BatchSize:  2,
		Workers:    2,
		Classifier: cl,
	}
}

func TestRunJudgeClassifiesEverything(t *testing.T) {
	dir := t.TempDir()
	raw := writeRaw(t, dir)
	out := filepath.Join(dir, "classified.jsonl")
	cl := &fakeJudge{}

	sum, err := RunJudge(context.Background(), baseOptions(raw, out, cl))
	if err != nil {
		t.Fatal(err)
	}
	if sum.Agents != 2 || sum.TotalPosts != 4 || sum.Classified != 4 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if cl.calls.Load() != 4 {
		t.Fatalf("judge calls = %d, want 4", cl.calls.Load())
	}

	done, _, err := output.LoadCompletedIDs(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(done) != 4 {
		t.Fatalf("persisted = %d, want 4", len(done))
	}
}

func TestRunJudgeResumeIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	raw := writeRaw(t, dir)
	out := filepath.Join(dir, "classified.jsonl")
	cl := &fakeJudge{}

	opts := baseOptions(raw, out, cl)
	opts.Resume = true
	if _, err := RunJudge(context.Background(), opts); err != nil {
		t.Fatal(err)
	}
	firstCalls := cl.calls.Load()

	sum, err := RunJudge(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Pending != 0 {
		t.Fatalf("second run pending = %d, want 0", sum.Pending)
	}
	if cl.calls.Load() != firstCalls {
		t.Fatalf("second run dispatched %d extra calls", cl.calls.Load()-firstCalls)
	}
}

func TestRunJudgeResumeRetriesOnlyFailures(t *testing.T) {
	dir := t.TempDir()
	raw := writeRaw(t, dir)
	out := filepath.Join(dir, "classified.jsonl")

	cl := &fakeJudge{failID: "a2"}
	opts := baseOptions(raw, out, cl)
	sum, err := RunJudge(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Classified != 3 || sum.Failed != 1 {
		t.Fatalf("first run summary = %+v", sum)
	}

	// next run with resume picks up only the failed post
	cl2 := &fakeJudge{}
	opts.Classifier = cl2
	opts.Resume = true
	sum, err = RunJudge(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Pending != 1 || sum.Classified != 1 {
		t.Fatalf("resume summary = %+v", sum)
	}
	if cl2.calls.Load() != 1 {
		t.Fatalf("resume dispatched %d calls, want 1", cl2.calls.Load())
	}
}

func TestRunJudgeMinPostsAndMaxAgents(t *testing.T) {
	dir := t.TempDir()
	raw := writeRaw(t, dir)
	out := filepath.Join(dir, "classified.jsonl")
	cl := &fakeJudge{}

	opts := baseOptions(raw, out, cl)
	opts.MinPosts = 2 // drops bob
	sum, err := RunJudge(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Agents != 1 || sum.TotalPosts != 3 {
		t.Fatalf("min-posts summary = %+v", sum)
	}

	opts.MinPosts = 1
	opts.MaxAgents = 1 // alice sorts first
	opts.OutputPath = filepath.Join(dir, "classified2.jsonl")
	sum, err = RunJudge(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Agents != 1 || sum.TotalPosts != 3 {
		t.Fatalf("max-agents summary = %+v", sum)
	}
}

func TestRunJudgeFastResumeIndex(t *testing.T) {
	dir := t.TempDir()
	raw := writeRaw(t, dir)
	out := filepath.Join(dir, "classified.jsonl")
	cl := &fakeJudge{}

	opts := baseOptions(raw, out, cl)
	opts.DBPath = filepath.Join(dir, "state.db")
	opts.Resume = true
	if _, err := RunJudge(context.Background(), opts); err != nil {
		t.Fatal(err)
	}

	// wipe the output file; the index alone must prevent re-dispatch
	if err := os.Remove(out); err != nil {
		t.Fatal(err)
	}
	sum, err := RunJudge(context.Background(), opts)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Pending != 0 {
		t.Fatalf("index resume pending = %d, want 0", sum.Pending)
	}
}

func TestValidateRejectsBadOptions(t *testing.T) {
	good := JudgeOptions{RawPath: "r", OutputPath: "o", BatchSize: 1, Workers: 1, Classifier: &fakeJudge{}}
	if err := good.Validate(); err != nil {
		t.Fatal(err)
	}

	cases := []func(*JudgeOptions){
		func(o *JudgeOptions) { o.RawPath = "" },
		func(o *JudgeOptions) { o.OutputPath = "" },
		func(o *JudgeOptions) { o.BatchSize = 0 },
		func(o *JudgeOptions) { o.Workers = 0 },
		func(o *JudgeOptions) { o.MinPosts = -1 },
		func(o *JudgeOptions) { o.MaxAgents = -1 },
		func(o *JudgeOptions) { o.Classifier = nil },
	}
	for i, mutate := range cases {
		o := good
		mutate(&o)
		if err := o.Validate(); !errors.Is(err, model.ErrConfiguration) {
			t.Fatalf("case %d: expected configuration error, got %v", i, err)
		}
	}
}
