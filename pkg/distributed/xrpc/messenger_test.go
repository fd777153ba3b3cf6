package xrpc

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInProcessMessengerFiresAfterDelay(t *testing.T) {
	m := NewInProcessMessenger()
	defer m.Close()

	fired := make(chan error, 1)
	id := m.ScheduleOnReactor(10*time.Millisecond, func(status error) {
		fired <- status
	})
	assert.NotEqual(t, InvalidTaskID, id)

	select {
	case status := <-fired:
		assert.NoError(t, status)
	case <-time.After(time.Second):
		t.Fatal("task never fired")
	}
}

func TestInProcessMessengerAbortBeforeFire(t *testing.T) {
	m := NewInProcessMessenger()
	defer m.Close()

	fired := make(chan error, 1)
	id := m.ScheduleOnReactor(time.Hour, func(status error) {
		fired <- status
	})
	require.NotEqual(t, InvalidTaskID, id)

	m.AbortOnReactor(id)

	select {
	case status := <-fired:
		require.Error(t, status)
		assert.True(t, IsAborted(status))
	case <-time.After(time.Second):
		t.Fatal("aborted task never notified its callback")
	}
}

func TestInProcessMessengerAbortUnknownIDIsNoop(t *testing.T) {
	m := NewInProcessMessenger()
	defer m.Close()

	assert.NotPanics(t, func() {
		m.AbortOnReactor(TaskID(999))
		m.AbortOnReactor(InvalidTaskID)
	})
}

func TestInProcessMessengerCloseRejectsFurtherSchedules(t *testing.T) {
	m := NewInProcessMessenger()

	fired := make(chan error, 1)
	id := m.ScheduleOnReactor(time.Hour, func(status error) {
		fired <- status
	})
	require.NotEqual(t, InvalidTaskID, id)

	m.Close()

	select {
	case status := <-fired:
		require.Error(t, status)
		assert.True(t, IsServiceUnavailable(status))
	case <-time.After(time.Second):
		t.Fatal("in-flight task was not notified on Close")
	}

	assert.Equal(t, InvalidTaskID, m.ScheduleOnReactor(time.Millisecond, func(error) {}))
}

func TestInProcessMessengerConcurrentScheduleAndAbort(t *testing.T) {
	m := NewInProcessMessenger()
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done := make(chan struct{}, 1)
			id := m.ScheduleOnReactor(time.Millisecond, func(error) {
				done <- struct{}{}
			})
			if id != InvalidTaskID {
				m.AbortOnReactor(id)
			}
			<-done
		}()
	}
	wg.Wait()
}
