package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osm-campaigns/dashboard/internal/config"
	"github.com/osm-campaigns/dashboard/pkg/logger"
)

func TestBuildCronExpression(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		time     string
		want     string
		wantErr  bool
	}{
		{name: "daily at 9am", time: "09:00", want: "0 9 * * *"},
		{name: "daily at 14:30", time: "14:30", want: "30 14 * * *"},
		{name: "cron spec wins", schedule: "*/30 * * * *", time: "09:00", want: "*/30 * * * *"},
		{name: "invalid cron spec", schedule: "every hour", wantErr: true},
		{name: "invalid format no colon", time: "0900", wantErr: true},
		{name: "invalid hour", time: "25:00", wantErr: true},
		{name: "invalid minute", time: "09:60", wantErr: true},
		{name: "non-numeric", time: "ab:cd", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServiceWithRunner(&config.SchedulerConfig{Schedule: tt.schedule, Time: tt.time}, nil, logger.Nop())

			got, err := s.buildCronExpression()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunImport(t *testing.T) {
	var gotName string
	var gotArgs []string
	run := func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotName, gotArgs = name, args
		return []byte("done\n"), nil
	}
	s := NewServiceWithRunner(&config.SchedulerConfig{ScriptPath: "/opt/pipeline.sh"}, run, logger.Nop())

	require.NoError(t, s.RunImport(context.Background(), ModeUpdate))
	assert.Equal(t, "/opt/pipeline.sh", gotName)
	assert.Equal(t, []string{"update"}, gotArgs)
}

func TestRunImport_InvalidMode(t *testing.T) {
	called := false
	run := func(context.Context, string, ...string) ([]byte, error) {
		called = true
		return nil, nil
	}
	s := NewServiceWithRunner(&config.SchedulerConfig{ScriptPath: "/opt/pipeline.sh"}, run, logger.Nop())

	err := s.RunImport(context.Background(), "rebuild")
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.False(t, called)
}

func TestRunImport_Failure(t *testing.T) {
	run := func(context.Context, string, ...string) ([]byte, error) {
		return []byte("imposm: connection refused\n"), errors.New("exit status 1")
	}
	s := NewServiceWithRunner(&config.SchedulerConfig{ScriptPath: "/opt/pipeline.sh"}, run, logger.Nop())

	err := s.RunImport(context.Background(), ModeInit)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 1")
	assert.False(t, s.running.Load(), "a failed run must release the lock")
}

func TestRunImport_Timeout(t *testing.T) {
	run := func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	s := NewServiceWithRunner(&config.SchedulerConfig{ScriptPath: "/opt/pipeline.sh"}, run, logger.Nop())
	s.timeout = 10 * time.Millisecond

	err := s.RunImport(context.Background(), ModeUpdate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
}

func TestRunImport_SkipsWhileRunning(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	run := func(context.Context, string, ...string) ([]byte, error) {
		close(started)
		<-release
		return nil, nil
	}
	s := NewServiceWithRunner(&config.SchedulerConfig{ScriptPath: "/opt/pipeline.sh"}, run, logger.Nop())

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = s.RunImport(context.Background(), ModeUpdate)
	}()

	<-started
	err := s.RunImport(context.Background(), ModeUpdate)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(release)
	wg.Wait()
	assert.NoError(t, firstErr)
}

func TestStart_Disabled(t *testing.T) {
	s := NewService(&config.SchedulerConfig{Enabled: false}, logger.Nop())

	require.NoError(t, s.Start())
	assert.Nil(t, s.cron)
	s.Stop()
}

func TestStart_RegistersJob(t *testing.T) {
	s := NewService(&config.SchedulerConfig{
		Enabled:    true,
		Time:       "03:15",
		Timezone:   "Europe/Paris",
		ScriptPath: "/opt/pipeline.sh",
	}, logger.Nop())

	require.NoError(t, s.Start())
	defer s.Stop()

	entries := s.cron.Entries()
	require.Len(t, entries, 1)
	next := entries[0].Next
	assert.Equal(t, 3, next.Hour())
	assert.Equal(t, 15, next.Minute())
}

func TestStart_InvalidTimezone(t *testing.T) {
	s := NewService(&config.SchedulerConfig{Enabled: true, Time: "03:00", Timezone: "Mars/Olympus"}, logger.Nop())

	assert.Error(t, s.Start())
}

func TestTail(t *testing.T) {
	assert.Equal(t, "c\nd", tail([]byte("a\nb\nc\nd\n"), 2))
	assert.Equal(t, "a", tail([]byte("a"), 5))
}
