package systems

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-loader/engine/core"
)

func TestNewJobSystem_Invalid(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestSystems_LogConstructionErrors(t *testing.T) {
	var buf bytes.Buffer
	core.SetLogOutput(&buf)
	t.Cleanup(func() { core.SetLogOutput(io.Discard) })

	_, err := NewResourceSystem(ResourceSystemConfig{})
	require.Error(t, err)
	_, err = NewTextureSystem(&TextureSystemConfig{}, nil)
	require.Error(t, err)

	js, err := NewJobSystem(1, 1)
	require.NoError(t, err)
	failed := make(chan error, 1)
	require.NoError(t, js.Submit(JobTask{
		OnStart:   func(interface{}) (interface{}, error) { return nil, errors.New("disk 100% full") },
		OnFailure: func(err error) { failed <- err },
	}))
	<-failed
	require.NoError(t, js.Shutdown())

	assert.Contains(t, buf.String(), "config.MaxLoaderCount==0")
	assert.Contains(t, buf.String(), "config.MaxTextureCount must be > 0")
	assert.Contains(t, buf.String(), "disk 100% full")
	assert.NotContains(t, buf.String(), "%!")
}

func TestJobSystem_RunsCallbacks(t *testing.T) {
	quietLogs(t)
	js, err := NewJobSystem(3, 4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var completed, failed, finished atomic.Int32
	var mu sync.Mutex
	results := map[int]bool{}

	for i := 0; i < 20; i++ {
		wg.Add(1)
		require.NoError(t, js.Submit(JobTask{
			InputParams: i,
			OnStart: func(params interface{}) (interface{}, error) {
				n := params.(int)
				if n%5 == 0 {
					return nil, errors.New("multiple of five")
				}
				if n == 7 {
					panic("seven")
				}
				return n * 2, nil
			},
			OnComplete: func(result interface{}) {
				completed.Add(1)
				mu.Lock()
				results[result.(int)] = true
				mu.Unlock()
			},
			OnFailure: func(err error) {
				failed.Add(1)
			},
			OnCompletionCallback: func() {
				finished.Add(1)
				wg.Done()
			},
		}))
	}
	wg.Wait()
	require.NoError(t, js.Shutdown())

	assert.Equal(t, int32(15), completed.Load())
	assert.Equal(t, int32(5), failed.Load())
	assert.Equal(t, int32(20), finished.Load())
	assert.True(t, results[2])
	assert.False(t, results[14])
}

func TestJobSystem_Shutdown(t *testing.T) {
	quietLogs(t)
	js, err := NewJobSystem(1, 0)
	require.NoError(t, err)

	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		require.NoError(t, js.Submit(JobTask{OnStart: func(interface{}) (interface{}, error) {
			ran.Add(1)
			return nil, nil
		}}))
	}
	require.NoError(t, js.Shutdown())
	require.NoError(t, js.Shutdown())
	assert.Equal(t, int32(3), ran.Load())
	assert.ErrorIs(t, js.Submit(JobTask{}), ErrJobSystemClosed)

	var failedErr error
	js2, err := NewJobSystem(1, 1)
	require.NoError(t, err)
	require.NoError(t, js2.Submit(JobTask{OnFailure: func(err error) { failedErr = err }}))
	require.NoError(t, js2.Shutdown())
	assert.Error(t, failedErr)
}
