// Package scheduler runs the generated import pipeline on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/osm-campaigns/dashboard/internal/config"
	prommetrics "github.com/osm-campaigns/dashboard/internal/metrics"
	"github.com/osm-campaigns/dashboard/pkg/logger"
)

// Pipeline modes understood by the generated script.
const (
	ModeInit   = "init"
	ModeUpdate = "update"
)

const defaultScriptTimeout = time.Hour

var (
	// ErrAlreadyRunning is returned when an import is requested while another one is in progress.
	ErrAlreadyRunning = errors.New("an import is already running")
	// ErrInvalidMode is returned for modes other than init and update.
	ErrInvalidMode = errors.New("invalid import mode")
)

// CommandFunc runs an external command and returns its combined output.
type CommandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Service handles the periodic import job.
type Service struct {
	config  *config.SchedulerConfig
	run     CommandFunc
	timeout time.Duration
	log     *logger.Logger
	cron    *cron.Cron
	running atomic.Bool
}

// NewService creates a new scheduler service running the pipeline script with os/exec.
func NewService(cfg *config.SchedulerConfig, log *logger.Logger) *Service {
	return NewServiceWithRunner(cfg, execCommand, log)
}

// NewServiceWithRunner creates a new scheduler service with a custom command runner (useful for testing).
func NewServiceWithRunner(cfg *config.SchedulerConfig, run CommandFunc, log *logger.Logger) *Service {
	timeout := time.Duration(cfg.ScriptTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultScriptTimeout
	}
	return &Service{
		config:  cfg,
		run:     run,
		timeout: timeout,
		log:     log,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := s.config.GetLocation()
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Timezone, err)
	}

	cronExpr, err := s.buildCronExpression()
	if err != nil {
		return fmt.Errorf("failed to build cron expression: %w", err)
	}

	s.cron = cron.New(cron.WithLocation(location))
	_, err = s.cron.AddFunc(cronExpr, func() {
		if err := s.RunImport(context.Background(), ModeUpdate); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			s.log.Error().Err(err).Msg("Scheduled import failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to register import job: %w", err)
	}

	s.cron.Start()

	nextRun := ""
	if entries := s.cron.Entries(); len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("schedule", cronExpr).
		Str("timezone", s.config.Timezone).
		Str("script", s.config.ScriptPath).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running import.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// buildCronExpression returns the configured cron spec, or a daily spec built from HH:MM.
func (s *Service) buildCronExpression() (string, error) {
	if s.config.Schedule != "" {
		if _, err := cron.ParseStandard(s.config.Schedule); err != nil {
			return "", fmt.Errorf("invalid schedule %q: %w", s.config.Schedule, err)
		}
		return s.config.Schedule, nil
	}

	parts := strings.Split(s.config.Time, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time format %q, expected HH:MM", s.config.Time)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour %q", parts[0])
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute %q", parts[1])
	}

	// minute hour day month weekday
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// RunImport runs the pipeline script in the given mode. Only one run happens at a time;
// a concurrent request returns ErrAlreadyRunning without starting the script.
func (s *Service) RunImport(ctx context.Context, mode string) error {
	if mode != ModeInit && mode != ModeUpdate {
		return fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn().Str("mode", mode).Msg("Skipping import, previous run still in progress")
		prommetrics.RecordImportJobRun(mode, "skipped")
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	start := time.Now()
	defer func() {
		prommetrics.ObserveImportJobDuration(time.Since(start).Seconds())
		prommetrics.SetImportJobLastRun()
	}()

	s.log.Info().
		Str("mode", mode).
		Str("script", s.config.ScriptPath).
		Msg("Running import pipeline")

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	output, err := s.run(ctx, s.config.ScriptPath, mode)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = fmt.Errorf("timed out after %s: %w", s.timeout, err)
		}
		s.log.Error().
			Err(err).
			Str("mode", mode).
			Str("output", tail(output, 20)).
			Dur("duration", time.Since(start)).
			Msg("Import pipeline failed")
		prommetrics.RecordImportJobRun(mode, "error")
		return fmt.Errorf("import pipeline %s failed: %w", mode, err)
	}

	prommetrics.RecordImportJobRun(mode, "success")
	s.log.Info().
		Str("mode", mode).
		Dur("duration", time.Since(start)).
		Msg("Import pipeline completed successfully")

	return nil
}

// tail returns the last n lines of output.
func tail(output []byte, n int) string {
	lines := strings.Split(strings.TrimRight(string(output), "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
