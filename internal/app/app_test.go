package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/config"
)

type fakeOutbox struct {
	mu      sync.Mutex
	batches []int
	calls   atomic.Int32
	err     error
	kicks   chan struct{}
}

func newFakeOutbox(batches ...int) *fakeOutbox {
	return &fakeOutbox{batches: batches, kicks: make(chan struct{}, 1)}
}

func (f *fakeOutbox) DispatchPending(context.Context) (int, error) {
	f.calls.Add(1)
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		return 0, nil
	}
	n := f.batches[0]
	f.batches = f.batches[1:]
	return n, nil
}

func (f *fakeOutbox) Kicks() <-chan struct{} { return f.kicks }

func (f *fakeOutbox) push(batches ...int) {
	f.mu.Lock()
	f.batches = append(f.batches, batches...)
	f.mu.Unlock()
}

func runProcess(t *testing.T, p *OutboxProcess) (context.CancelFunc, <-chan struct{}) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	return cancel, done
}

func TestOutboxProcess_DrainsOnStart(t *testing.T) {
	h := newFakeOutbox(10, 10, 3)
	cancel, done := runProcess(t, NewOutboxProcess(h, time.Hour))
	defer func() { cancel(); <-done }()

	// three batches plus the empty read that ends the sweep
	assert.Eventually(t, func() bool { return h.calls.Load() == 4 }, time.Second, 5*time.Millisecond)
}

func TestOutboxProcess_SweepsOnKick(t *testing.T) {
	h := newFakeOutbox()
	cancel, done := runProcess(t, NewOutboxProcess(h, time.Hour))
	defer func() { cancel(); <-done }()

	require.Eventually(t, func() bool { return h.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	h.push(2)
	h.kicks <- struct{}{}
	assert.Eventually(t, func() bool { return h.calls.Load() == 3 }, time.Second, 5*time.Millisecond)
}

func TestOutboxProcess_SweepsOnTick(t *testing.T) {
	h := newFakeOutbox()
	cancel, done := runProcess(t, NewOutboxProcess(h, 10*time.Millisecond))
	defer func() { cancel(); <-done }()

	assert.Eventually(t, func() bool { return h.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestOutboxProcess_ErrorEndsSweepAndStops(t *testing.T) {
	h := newFakeOutbox()
	h.err = errors.New("db down")
	cancel, done := runProcess(t, NewOutboxProcess(h, time.Hour))

	require.Eventually(t, func() bool { return h.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("outbox process did not stop")
	}
	assert.EqualValues(t, 1, h.calls.Load())
}

type countingRefresher struct {
	calls atomic.Int32
}

func (c *countingRefresher) Execute(context.Context) error {
	c.calls.Add(1)
	return errors.New("provider down")
}

func TestRatesRefreshJob(t *testing.T) {
	t.Run("runs immediately and on schedule", func(t *testing.T) {
		r := &countingRefresher{}
		job := NewRatesRefreshJob(r, "@every 1s")
		require.NoError(t, job.Start(context.Background()))
		defer job.Stop()

		assert.Eventually(t, func() bool { return r.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
		assert.Eventually(t, func() bool { return r.calls.Load() >= 2 }, 3*time.Second, 20*time.Millisecond)
	})

	t.Run("invalid schedule", func(t *testing.T) {
		job := NewRatesRefreshJob(&countingRefresher{}, "every now and then")
		assert.Error(t, job.Start(context.Background()))
	})

	t.Run("cancelled context skips runs", func(t *testing.T) {
		r := &countingRefresher{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		job := NewRatesRefreshJob(r, "@every 1h")
		require.NoError(t, job.Start(ctx))
		job.Stop()
		time.Sleep(20 * time.Millisecond)
		assert.Zero(t, r.calls.Load())
	})
}

func TestService_RunStopsOnContextCancel(t *testing.T) {
	t.Setenv("SERVER_HOST", "127.0.0.1")
	t.Setenv("PORT", "0")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "1s")
	cfg, err := config.Parse(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewService(cfg).Run(ctx, chi.NewRouter())
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("service did not stop after cancellation")
	}
}
