package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/trend-keywords-bot/internal/pipeline"
)

type countingRunner struct {
	calls atomic.Int32
	err   error
}

func (r *countingRunner) Run(ctx context.Context) (*pipeline.Result, error) {
	r.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("expected deadline")
	}
	if r.err != nil {
		return nil, r.err
	}
	return &pipeline.Result{Outcome: pipeline.OutcomeNoItems}, nil
}

func TestNewRejectsInvalidSpec(t *testing.T) {
	_, err := New("not a cron", &countingRunner{}, time.Minute, nil)
	assert.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	r := &countingRunner{}
	s, err := New("0 9 * * 1", r, time.Minute, nil)
	require.NoError(t, err)

	res, err := s.RunOnce()
	require.NoError(t, err)
	assert.Equal(t, pipeline.OutcomeNoItems, res.Outcome)
	assert.Equal(t, int32(1), r.calls.Load())
}

func TestRunOnceError(t *testing.T) {
	r := &countingRunner{err: pipeline.ErrRunInProgress}
	s, err := New("@weekly", r, time.Minute, nil)
	require.NoError(t, err)

	_, err = s.RunOnce()
	assert.ErrorIs(t, err, pipeline.ErrRunInProgress)
}

func TestStartupDelayTriggersRun(t *testing.T) {
	r := &countingRunner{}
	s, err := New("0 9 * * 1", r, time.Minute, nil)
	require.NoError(t, err)
	s.StartupDelay = 10 * time.Millisecond

	s.Start()
	defer s.Stop()
	assert.Eventually(t, func() bool { return r.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

type busyRunner struct {
	countingRunner
	busy bool
}

func (b *busyRunner) Busy() bool { return b.busy }

func TestBusyDelegatesToRunner(t *testing.T) {
	s, err := New("0 9 * * 1", &countingRunner{}, time.Minute, nil)
	require.NoError(t, err)
	assert.False(t, s.Busy())

	s, err = New("0 9 * * 1", &busyRunner{busy: true}, time.Minute, nil)
	require.NoError(t, err)
	assert.True(t, s.Busy())
}
