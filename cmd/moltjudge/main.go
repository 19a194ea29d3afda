package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ostegm/moltbook-study/internal/analytics"
	"github.com/ostegm/moltbook-study/internal/cmdlog"
	"github.com/ostegm/moltbook-study/internal/config"
	"github.com/ostegm/moltbook-study/internal/dispatch"
	"github.com/ostegm/moltbook-study/internal/ingest"
	"github.com/ostegm/moltbook-study/internal/jobs"
	"github.com/ostegm/moltbook-study/internal/judge"
	"github.com/ostegm/moltbook-study/internal/logging"
	"github.com/ostegm/moltbook-study/internal/metrics"
	"github.com/ostegm/moltbook-study/internal/model"
	"github.com/ostegm/moltbook-study/internal/moltbook"
	"github.com/ostegm/moltbook-study/internal/output"
	"github.com/ostegm/moltbook-study/internal/prefilter"
	"github.com/ostegm/moltbook-study/internal/store"
	"github.com/ostegm/moltbook-study/internal/theme"
	"github.com/ostegm/moltbook-study/internal/util"
)

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	metrics.StartServer("")
	var err error
	switch cmd {
	case "init":
		err = cmdlog.Run(cmd, cmdInit)
	case "pull":
		err = cmdlog.Run(cmd, cmdPull)
	case "prefilter":
		err = cmdlog.Run(cmd, cmdPrefilter)
	case "judge":
		err = cmdlog.Run(cmd, cmdJudge)
	case "roster":
		err = cmdlog.Run(cmd, cmdRoster)
	case "explore":
		err = cmdlog.Run(cmd, cmdExplore)
	default:
		printHelp()
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: moltjudge <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init        Create a config file at ./moltjudge.yaml")
	fmt.Println("  pull        Pull the raw post stream from the Moltbook API")
	fmt.Println("  prefilter   Keyword scan of raw posts with a judge cost estimate")
	fmt.Println("  judge       Classify posts with the LLM judge")
	fmt.Println("  roster      Build a per-agent roster from raw posts")
	fmt.Println("  explore     Label stats over the classified output")
}

// interruptContext is cancelled on SIGINT/SIGTERM so in-flight work stops
// cleanly without corrupting the output log.
func interruptContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func cmdInit() error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("path", "./moltjudge.yaml", "path to write config")
	_ = fs.Parse(os.Args[2:])
	cfg := config.Default()
	if err := config.Save(*path, cfg); err != nil {
		return err
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
	return nil
}

func cmdPull() error {
	fs := flag.NewFlagSet("pull", flag.ExitOnError)
	cfgPath := fs.String("config", "./moltjudge.yaml", "config path")
	rawPath := fs.String("raw", "", "raw output path (default from config)")
	_ = fs.Parse(os.Args[2:])
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *rawPath == "" {
		*rawPath = cfg.Paths.Raw
	}
	if cfg.Moltbook.APIKey == "" {
		fmt.Println("warning: missing MOLTBOOK_API_KEY; API calls will fail")
	}

	ctx, cancel := interruptContext()
	defer cancel()

	db, err := store.Open(cfg.Paths.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.OpenFile(*rawPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	client := moltbook.NewClient(cfg.Moltbook.BaseURL, cfg.Moltbook.APIKey)
	stats, err := moltbook.Pull(ctx, client, f, db, cfg.Moltbook.PageSize)
	if err != nil {
		return err
	}
	fmt.Printf("Done! Pulled %d posts in %d pages\n", stats.Pulled, stats.Pages)
	return nil
}

func cmdPrefilter() error {
	fs := flag.NewFlagSet("prefilter", flag.ExitOnError)
	cfgPath := fs.String("config", "./moltjudge.yaml", "config path")
	rawPath := fs.String("raw", "", "raw posts path (default from config)")
	statsOut := fs.String("stats-out", "", "stats JSON path (default from config)")
	_ = fs.Parse(os.Args[2:])
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *rawPath == "" {
		*rawPath = cfg.Paths.Raw
	}
	if *statsOut == "" {
		*statsOut = cfg.Paths.Stats
	}

	f, err := os.Open(*rawPath)
	if err != nil {
		return err
	}
	defer f.Close()
	stats, err := prefilter.Scan(f)
	if err != nil {
		return err
	}

	fmt.Printf("Total posts scanned: %d\n", stats.TotalPosts)
	fmt.Printf("Posts matching any keyword: %d (%.1f%%)\n", stats.MatchingPosts, pct(stats.MatchingPosts, stats.TotalPosts))
	fmt.Println("Per-category matches:")
	for _, cat := range model.Labels() {
		n := stats.CategoryCounts[cat]
		fmt.Printf("  %-20s: %6d (%.1f%%)\n", cat, n, pct(n, stats.TotalPosts))
	}
	fmt.Printf("Agents with matches: %d\n", stats.AgentsWithMatch)
	fmt.Printf("Posts to judge: %d (+%d calibration sample)\n", stats.MatchingPosts, stats.CalibrationPosts)
	fmt.Printf("Est. tokens: %d | est. cost: $%.2f\n", stats.EstimatedTokens, stats.CostEstimateUSD)

	b, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(*statsOut, b, 0o644); err != nil {
		return err
	}
	fmt.Println("Saved stats to", *statsOut)
	return nil
}

func cmdJudge() error {
	fs := flag.NewFlagSet("judge", flag.ExitOnError)
	cfgPath := fs.String("config", "./moltjudge.yaml", "config path")
	minPosts := fs.Int("min-posts", 5, "only classify agents with at least N posts")
	maxAgents := fs.Int("max-agents", 0, "limit to N agents (0 = all)")
	batchSize := fs.Int("batch-size", 100, "posts per batch")
	judgeModel := fs.String("model", "", "judge model (default from config)")
	workers := fs.Int("workers", dispatch.DefaultWorkers, "parallel judge calls")
	resume := fs.Bool("resume", false, "skip posts already in the output file")
	verbose := fs.Bool("verbose", false, "per-batch progress detail")
	outPath := fs.String("output", "", "classified output path (default from config)")
	rawPath := fs.String("raw", "", "raw posts path (default from config)")
	dbPath := fs.String("db", "", "optional state db for the fast-resume index")
	_ = fs.Parse(os.Args[2:])

	logging.SetVerbose(*verbose)
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *rawPath == "" {
		*rawPath = cfg.Paths.Raw
	}
	if *outPath == "" {
		*outPath = cfg.Paths.Classified
	}
	cfg.Judge.Model = util.Coalesce(*judgeModel, cfg.Judge.Model)
	if err := cfg.Judge.Validate(); err != nil {
		return err
	}
	if cfg.Judge.APIKey == "" {
		fmt.Println("warning: missing OPENAI_API_KEY; judge calls will fail")
	}

	classifier := judge.NewClient(cfg.Judge.APIKey, cfg.Judge.Model,
		judge.WithBaseURL(cfg.Judge.BaseURL),
		judge.WithTimeout(time.Duration(cfg.Judge.TimeoutSeconds)*time.Second),
		judge.WithRateLimit(cfg.Judge.RPS, cfg.Judge.Burst),
	)

	ctx, cancel := interruptContext()
	defer cancel()

	_, err = jobs.RunJudge(ctx, jobs.JudgeOptions{
		RawPath:    *rawPath,
		OutputPath: *outPath,
		DBPath:     *dbPath,
		MinPosts:   *minPosts,
		MaxAgents:  *maxAgents,
		BatchSize:  *batchSize,
		Workers:    *workers,
		Resume:     *resume,
		Verbose:    *verbose,
		Classifier: classifier,
	})
	if errors.Is(err, context.Canceled) {
		fmt.Println("\nInterrupted; completed batches are persisted, rerun with -resume")
		return nil
	}
	return err
}

func cmdRoster() error {
	fs := flag.NewFlagSet("roster", flag.ExitOnError)
	cfgPath := fs.String("config", "./moltjudge.yaml", "config path")
	rawPath := fs.String("raw", "", "raw posts path (default from config)")
	out := fs.String("out", "./agent_roster.json", "roster JSON path")
	_ = fs.Parse(os.Args[2:])
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *rawPath == "" {
		*rawPath = cfg.Paths.Raw
	}

	f, err := os.Open(*rawPath)
	if err != nil {
		return err
	}
	records, stats, err := ingest.ReadRecords(f)
	f.Close()
	if err != nil {
		return err
	}
	roster := analytics.BuildRoster(records)
	b, err := json.MarshalIndent(roster, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, b, 0o644); err != nil {
		return err
	}
	fmt.Printf("Roster for %d agents written to %s (%d malformed records skipped)\n", len(roster), *out, stats.Malformed)
	return nil
}

func cmdExplore() error {
	fs := flag.NewFlagSet("explore", flag.ExitOnError)
	cfgPath := fs.String("config", "./moltjudge.yaml", "config path")
	classified := fs.String("classified", "", "classified posts path (default from config)")
	_ = fs.Parse(os.Args[2:])
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if *classified == "" {
		*classified = cfg.Paths.Classified
	}

	f, err := os.Open(*classified)
	if err != nil {
		return err
	}
	defer f.Close()
	posts, corrupt, err := output.ReadRecords(f)
	if err != nil {
		return err
	}
	if corrupt > 0 {
		fmt.Printf("warning: %d corrupt lines skipped\n", corrupt)
	}
	if len(posts) == 0 {
		fmt.Println("No classified posts yet.")
		return nil
	}

	stats := analytics.ComputeLabelStats(posts)
	fmt.Printf("BASIC STATS (%d classified posts)\n", stats.Total)
	fmt.Println("Label distribution:")
	for _, label := range model.Labels() {
		n := stats.LabelCounts[label]
		fmt.Printf("  %-20s: %6d (%.1f%%)\n", label, n, pct(n, stats.Total))
	}
	fmt.Printf("  %-20s: %6d (%.1f%%)\n", "spam", stats.SpamCount, pct(stats.SpamCount, stats.Total))
	fmt.Println("Top languages:")
	for _, lang := range stats.TopLanguages(10) {
		fmt.Printf("  %-5s: %6d\n", lang, stats.Languages[lang])
	}

	fmt.Println("\nTIME-TO-FIRST ANALYSIS")
	for _, occ := range analytics.TimeToFirst(posts) {
		if occ.AgentsEver == 0 {
			fmt.Printf("  %s: no occurrences\n", occ.Label)
			continue
		}
		fmt.Printf("  %s: %d agents ever, median first post #%d, mean #%.1f, first-post %d\n",
			occ.Label, occ.AgentsEver, occ.MedianFirst, occ.MeanFirst, occ.FirstPostCount)
	}
	return nil
}

func loadConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg = config.Default()
			cfg.ResolveEnv()
			return cfg, nil
		}
		return cfg, err
	}
	return cfg, nil
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
