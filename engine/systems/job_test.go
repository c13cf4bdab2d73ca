package systems

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-custom-asset/engine/core"
)

func TestNewJobSystemValidation(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)

	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystemRoutesResults(t *testing.T) {
	js, err := NewJobSystem(4, 8)
	require.NoError(t, err)

	var completed, failed atomic.Int32
	var wg sync.WaitGroup
	boom := errors.New("boom")

	for i := 0; i < 10; i++ {
		wg.Add(1)
		fail := i%2 == 0
		require.NoError(t, js.Submit(JobTask{
			Name: "job",
			Run: func(ctx context.Context) error {
				if fail {
					return boom
				}
				return nil
			},
			OnComplete: func() {
				completed.Add(1)
				wg.Done()
			},
			OnFailure: func(err error) {
				assert.ErrorIs(t, err, boom)
				failed.Add(1)
				wg.Done()
			},
		}))
	}

	wg.Wait()
	assert.Equal(t, int32(5), completed.Load())
	assert.Equal(t, int32(5), failed.Load())
	require.NoError(t, js.Shutdown())
}

func TestJobSystemShutdownDrainsQueue(t *testing.T) {
	js, err := NewJobSystem(1, 16)
	require.NoError(t, err)

	var ran atomic.Int32
	for i := 0; i < 16; i++ {
		require.NoError(t, js.Submit(JobTask{Run: func(context.Context) error {
			ran.Add(1)
			return nil
		}}))
	}
	require.NoError(t, js.Shutdown())
	assert.Equal(t, int32(16), ran.Load())

	err = js.Submit(JobTask{Run: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, core.ErrJobSystemClosed)
	assert.NoError(t, js.Shutdown(), "shutdown is idempotent")
}

func TestJobSystemRejectsEmptyJob(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	require.NoError(t, err)
	defer js.Shutdown()

	assert.Error(t, js.Submit(JobTask{Name: "empty"}))
}
