package i3block

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// sigRTMin is SIGRTMIN on Linux as seen by i3blocks' signal= option.
const sigRTMin = 34

const refreshInterval = 10 * time.Second

var errNotFound = errors.New("i3blocks process not found")

// Controller tracks the i3blocks PID and asks it to refresh the lyrics block.
type Controller struct {
	signal   syscall.Signal
	pid      int
	pidMutex sync.RWMutex
	logger   zerolog.Logger
}

// NewController creates a controller that sends SIGRTMIN+signal, matching a
// block configured with "signal=<signal>".
func NewController(signal int) *Controller {
	return &Controller{
		signal: syscall.Signal(sigRTMin + signal),
		pid:    -1,
		logger: log.With().Str("component", "i3block").Logger(),
	}
}

// Run refreshes the PID every 10 seconds until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	if err := c.refreshPID(ctx); err != nil {
		c.logger.Debug().Err(err).Msg("i3blocks not found yet")
	}

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	c.logger.Info().Int("signal", int(c.signal)).Msg("i3block controller started")

	for {
		select {
		case <-ticker.C:
			if err := c.refreshPID(ctx); err != nil {
				c.logger.Debug().Err(err).Msg("Failed to refresh i3blocks PID")
			}
		case <-ctx.Done():
			c.logger.Info().Msg("i3block controller stopped")
			return
		}
	}
}

func (c *Controller) refreshPID(ctx context.Context) error {
	pid, err := findPID(ctx)
	if err != nil {
		c.setPID(-1)
		return err
	}
	c.setPID(pid)
	return nil
}

func (c *Controller) setPID(pid int) {
	c.pidMutex.Lock()
	oldPID := c.pid
	c.pid = pid
	c.pidMutex.Unlock()

	if oldPID != pid {
		c.logger.Info().Int("old_pid", oldPID).Int("pid", pid).Msg("i3blocks PID updated")
	}
}

// PID returns the last known i3blocks PID, or -1.
func (c *Controller) PID() int {
	c.pidMutex.RLock()
	defer c.pidMutex.RUnlock()
	return c.pid
}

// Signal asks i3blocks to re-run the lyrics block.
func (c *Controller) Signal() error {
	pid := c.PID()
	if pid <= 0 {
		return errNotFound
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := process.Signal(c.signal); err != nil {
		return fmt.Errorf("failed to send signal %d to process %d: %w", c.signal, pid, err)
	}
	return nil
}

// findPID asks pgrep first and falls back to scanning ps output.
func findPID(ctx context.Context) (int, error) {
	if out, err := exec.CommandContext(ctx, "pgrep", "-x", "i3blocks").Output(); err == nil {
		if pid, ok := parsePgrep(string(out)); ok {
			return pid, nil
		}
	}

	out, err := exec.CommandContext(ctx, "ps", "-eo", "pid,comm").Output()
	if err != nil {
		return -1, fmt.Errorf("failed to run ps: %w", err)
	}
	if pid, ok := parsePs(string(out)); ok {
		return pid, nil
	}
	return -1, errNotFound
}

// parsePgrep takes the first PID when several instances run.
func parsePgrep(out string) (int, bool) {
	first, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil || pid <= 0 {
		return -1, false
	}
	return pid, true
}

func parsePs(out string) (int, bool) {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[1] != "i3blocks" {
			continue
		}
		if pid, err := strconv.Atoi(fields[0]); err == nil {
			return pid, true
		}
	}
	return -1, false
}
