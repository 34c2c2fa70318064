package process

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrNoCommand is returned when neither a stop nor a start command is configured.
var ErrNoCommand = errors.New("no restart command configured")

// Runner executes a shell command line.
type Runner func(ctx context.Context, command string) error

// Checker is satisfied by Probe.
type Checker interface {
	Check(ctx context.Context) (map[string]bool, error)
}

// RestarterConfig configures CommandRestarter.
type RestarterConfig struct {
	StopCommand   string
	StartCommand  string
	SettleTimeout time.Duration
}

// CommandRestarter stops and starts the fleet with shell commands, then
// waits until every required process is back.
type CommandRestarter struct {
	cfg     RestarterConfig
	checker Checker
	run     Runner
	log     *slog.Logger
}

func NewCommandRestarter(cfg RestarterConfig, checker Checker) *CommandRestarter {
	return &CommandRestarter{
		cfg:     cfg,
		checker: checker,
		run:     runShell,
		log:     slog.Default().With("component", "restarter"),
	}
}

// WithRunner replaces the command runner.
func (r *CommandRestarter) WithRunner(run Runner) *CommandRestarter {
	r.run = run
	return r
}

// Restart runs the stop command, then the start command, then waits for
// the processes to come up within the settle timeout.
func (r *CommandRestarter) Restart(ctx context.Context) error {
	if r.cfg.StopCommand == "" && r.cfg.StartCommand == "" {
		return ErrNoCommand
	}

	if r.cfg.StopCommand != "" {
		r.log.Info("stopping processes", "command", r.cfg.StopCommand)
		if err := r.run(ctx, r.cfg.StopCommand); err != nil {
			return fmt.Errorf("stop command: %w", err)
		}
	}
	if r.cfg.StartCommand != "" {
		r.log.Info("starting processes", "command", r.cfg.StartCommand)
		if err := r.run(ctx, r.cfg.StartCommand); err != nil {
			return fmt.Errorf("start command: %w", err)
		}
	}

	return r.waitRunning(ctx)
}

func (r *CommandRestarter) waitRunning(ctx context.Context) error {
	if r.checker == nil {
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = r.cfg.SettleTimeout
	if b.MaxElapsedTime <= 0 {
		b.MaxElapsedTime = 2 * time.Minute
	}

	op := func() error {
		running, err := r.checker.Check(ctx)
		if err != nil {
			return err
		}
		var down []string
		for name, up := range running {
			if !up {
				down = append(down, name)
			}
		}
		if len(down) > 0 {
			return fmt.Errorf("processes not running: %s", strings.Join(down, ", "))
		}
		return nil
	}

	notify := func(err error, wait time.Duration) {
		r.log.Debug("waiting for processes", "error", err, "retry_in", wait)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return fmt.Errorf("processes did not settle: %w", err)
	}
	return nil
}

func runShell(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	out, err := cmd.CombinedOutput()
	if len(out) > 0 {
		slog.Debug("command output", "command", command, "output", strings.TrimSpace(string(out)))
	}
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
