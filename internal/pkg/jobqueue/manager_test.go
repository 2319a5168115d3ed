package jobqueue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	mu         sync.Mutex
	pending    []string
	reconciled []string
}

func (f *fakeReconciler) PendingReferences() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.pending...), nil
}

func (f *fakeReconciler) ReconcilePending(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reconciled = append(f.reconciled, ref)
	return nil
}

type fakePublisher struct {
	mu    sync.Mutex
	calls int
}

func (f *fakePublisher) PublishDue(time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 0, nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeFlusher struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeFlusher) FlushAll() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func TestEnqueuePendingDonationsRunsThroughProcessor(t *testing.T) {
	q, _ := newTestQueue(t)
	rec := &fakeReconciler{pending: []string{"cs_1", "cs_2"}}
	NewManager(q, nil, rec, nil, Intervals{})

	n, err := EnqueuePendingDonations(context.Background(), q, rec)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	runNext(t, q)
	runNext(t, q)
	// LPUSH + BRPOPLPUSH keeps FIFO order
	assert.Equal(t, []string{"cs_1", "cs_2"}, rec.reconciled)
}

func TestManagerTickersAndFinalFlush(t *testing.T) {
	q, _ := newTestQueue(t)
	pub := &fakePublisher{}
	flush := &fakeFlusher{}
	m := NewManager(q, pub, nil, flush, Intervals{StoryPublish: 20 * time.Millisecond})

	assert.False(t, m.IsRunning())
	m.Start()
	assert.True(t, m.IsRunning())
	assert.True(t, waitFor(func() bool { return pub.count() >= 2 }, 2*time.Second))

	m.Stop()
	assert.False(t, m.IsRunning())
	assert.Equal(t, 1, flush.calls, "counter ticker disabled, only the final flush runs")

	// restartable
	m.Start()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	q, _ := newTestQueue(t)
	m := NewManager(q, nil, nil, nil, Intervals{})
	m.Stop()
	assert.False(t, m.IsRunning())
}
