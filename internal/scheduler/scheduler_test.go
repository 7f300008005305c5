package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	costsync "github.com/xelth-com/eckcosting/internal/sync"
)

type fakeSweeper struct {
	calls   atomic.Int32
	expired []costsync.PendingAction
	err     error
}

func (f *fakeSweeper) SweepPending(ctx context.Context) ([]costsync.PendingAction, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("sweep without deadline")
	}
	return f.expired, f.err
}

func TestInvalidSchedule(t *testing.T) {
	s := NewScheduler("every now and then", &fakeSweeper{}, zaptest.NewLogger(t))
	assert.Error(t, s.Start())
}

func TestSweepCallsEngine(t *testing.T) {
	f := &fakeSweeper{expired: []costsync.PendingAction{{Kind: costsync.ActionSubmit, DN: "DN-1"}}}
	s := NewScheduler("@every 1m", f, zaptest.NewLogger(t))

	s.sweepPending()
	f.err = costsync.ErrEngineStopped
	s.sweepPending()

	assert.EqualValues(t, 2, f.calls.Load())
}

func TestScheduledSweep(t *testing.T) {
	f := &fakeSweeper{}
	s := NewScheduler("@every 1s", f, zaptest.NewLogger(t))
	require.NoError(t, s.Start())
	defer s.Stop()

	require.Eventually(t, func() bool { return f.calls.Load() > 0 }, 3*time.Second, 20*time.Millisecond)
}
