package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JudgeRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moltjudge_judge_requests_total",
		Help: "Total classification calls issued to the judge",
	})
	JudgeErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moltjudge_judge_errors_total",
		Help: "Total failed classification calls",
	})
	JudgeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "moltjudge_judge_duration_seconds",
		Help:    "Judge call duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	PostsClassified = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moltjudge_posts_classified_total",
		Help: "Total posts classified and persisted",
	})
	RecordsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moltjudge_records_skipped_total",
		Help: "Total malformed input records skipped",
	})
	PullPages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "moltjudge_pull_pages_total",
		Help: "Total pages fetched from the Moltbook API",
	})
	PullRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moltjudge_pull_retries_total",
		Help: "Total Moltbook API retry attempts",
	}, []string{"endpoint"})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moltjudge_command_runs_total",
		Help: "Total CLI command invocations",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "moltjudge_command_errors_total",
		Help: "Total CLI command failures",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(
		JudgeRequests, JudgeErrors, JudgeDuration,
		PostsClassified, RecordsSkipped,
		PullPages, PullRetries,
		CommandRuns, CommandErrors,
	)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, nil) }()
}

// ObserveJudgeDuration records one judge call duration.
func ObserveJudgeDuration(start time.Time) {
	JudgeDuration.Observe(time.Since(start).Seconds())
}

// IncPullRetry increments the retry counter for an endpoint.
func IncPullRetry(endpoint string) { PullRetries.WithLabelValues(endpoint).Inc() }

// IncCommandRun increments the invocation counter for a CLI command.
func IncCommandRun(cmd string) { CommandRuns.WithLabelValues(cmd).Inc() }

// IncCommandError increments the failure counter for a CLI command.
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
