// Package cmdlog ties each CLI command run to its counters and a
// structured start/finish log line.
package cmdlog

import (
	"time"

	"github.com/ostegm/moltbook-study/internal/logging"
	"github.com/ostegm/moltbook-study/internal/metrics"
)

// Run executes one command body, counting the invocation and logging how
// it ended. The command's error passes through unchanged.
func Run(cmd string, f func() error) error {
	metrics.IncCommandRun(cmd)
	start := time.Now()
	err := f()
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		metrics.IncCommandError(cmd)
		logging.Error("command_failed", map[string]any{"command": cmd, "elapsed_ms": elapsed, "error": err.Error()})
		return err
	}
	logging.Info("command_done", map[string]any{"command": cmd, "elapsed_ms": elapsed})
	return nil
}
