package jobqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ourstoryourvoice/osov/internal/pkg/mail"
)

func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	q := NewQueue(client, 1)
	q.retryBackoff = 10 * time.Millisecond
	return q, mr
}

// runNext processes one queued job synchronously.
func runNext(t *testing.T, q *Queue) *Job {
	t.Helper()
	ctx := context.Background()
	job, err := q.dequeueJob(ctx)
	require.NoError(t, err)
	q.processJob(ctx, job)
	return job
}

// waitFor waits for a condition to be true with timeout
func waitFor(condition func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

type fakeSender struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestNewQueue(t *testing.T) {
	tests := []struct {
		name            string
		workers         int
		expectedWorkers int
	}{
		{"Valid worker count", 5, 5},
		{"Zero workers", 0, 3},
		{"Negative workers", -1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := NewQueue(nil, tt.workers)

			assert.Equal(t, tt.expectedWorkers, queue.workers)
			assert.False(t, queue.running)
		})
	}
}

func TestJob_BasicMethods(t *testing.T) {
	job := &Job{Status: JobStatusFailed, RetryCount: 1, MaxRetries: 3}
	assert.True(t, job.IsRetryable())

	job.RetryCount = 3
	assert.False(t, job.IsRetryable())

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.NotNil(t, job.ProcessedAt)

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)

	job.MarkAsFailed("boom")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "boom", job.ErrorMsg)
	assert.Equal(t, 4, job.RetryCount)
}

func TestDispatcherEnqueuesAndEmailProcessorDelivers(t *testing.T) {
	q, _ := newTestQueue(t)
	sender := &fakeSender{}
	q.Register(JobTypeSendEmail, EmailProcessor(sender))

	msg := mail.Message{To: []string{"a@example.org"}, Bcc: []string{"b@example.org"}, ReplyTo: "r@example.org", Subject: "Hello", HTML: "<p>x</p>"}
	require.NoError(t, NewDispatcher(q).Send(context.Background(), msg))

	assert.Equal(t, int64(1), q.client.LLen(context.Background(), pendingKey).Val())

	job := runNext(t, q)
	assert.Equal(t, JobTypeSendEmail, job.Type)
	require.Equal(t, 1, sender.count())
	assert.Equal(t, msg, sender.sent[0])

	// finished jobs leave nothing behind
	_, err := q.load(context.Background(), job.ID)
	assert.ErrorIs(t, err, redis.Nil)
	assert.Zero(t, q.client.LLen(context.Background(), activeKey).Val())
}

func TestDispatcherRejectsInvalidMessage(t *testing.T) {
	q, _ := newTestQueue(t)
	err := NewDispatcher(q).Send(context.Background(), mail.Message{Subject: "no one"})
	assert.ErrorIs(t, err, mail.ErrNoRecipients)
}

func TestFailedJobIsRetriedThenGivesUp(t *testing.T) {
	q, _ := newTestQueue(t)
	sender := &fakeSender{err: errors.New("smtp down")}
	q.Register(JobTypeSendEmail, EmailProcessor(sender))
	ctx := context.Background()

	_, err := q.EnqueueJob(ctx, JobTypeSendEmail, SendEmailJobPayload{Message: mail.Message{To: []string{"a@b.c"}, Subject: "s"}}.ToMap())
	require.NoError(t, err)

	var job *Job
	for attempt := 1; attempt <= DefaultMaxRetries; attempt++ {
		if attempt > 1 {
			// not due yet
			n, err := q.promoteDue(ctx, time.Now().Add(-time.Hour))
			require.NoError(t, err)
			assert.Zero(t, n)

			n, err = q.promoteDue(ctx, time.Now().Add(time.Hour))
			require.NoError(t, err)
			require.Equal(t, 1, n, "attempt %d not promoted", attempt)
		}
		job = runNext(t, q)
	}

	stored, err := q.load(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, stored.Status)
	assert.Equal(t, DefaultMaxRetries, stored.RetryCount)
	assert.Equal(t, "smtp down", stored.ErrorMsg)

	assert.Zero(t, q.client.ZCard(ctx, delayedKey).Val())
	assert.Zero(t, q.client.LLen(ctx, activeKey).Val())
	assert.Zero(t, q.client.LLen(ctx, pendingKey).Val())
}

func TestStalledJobIsRequeued(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	stalled, err := q.EnqueueJob(ctx, JobTypeSendEmail, nil)
	require.NoError(t, err)
	job, err := q.dequeueJob(ctx)
	require.NoError(t, err)
	require.Equal(t, stalled.ID, job.ID)

	job.MarkAsProcessing()
	started := time.Now().Add(-2 * StallTimeout)
	job.ProcessedAt = &started
	q.save(ctx, job)

	fresh, err := q.EnqueueJob(ctx, JobTypeSendEmail, nil)
	require.NoError(t, err)
	running, err := q.dequeueJob(ctx)
	require.NoError(t, err)
	running.MarkAsProcessing()
	q.save(ctx, running)

	n, err := q.recoverStalled(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, []string{fresh.ID}, q.client.LRange(ctx, activeKey, 0, -1).Val())
	assert.Equal(t, []string{stalled.ID}, q.client.LRange(ctx, pendingKey, 0, -1).Val())

	stored, err := q.load(ctx, stalled.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, stored.Status)
}

func TestUnknownJobTypeFails(t *testing.T) {
	q, _ := newTestQueue(t)
	_, err := q.EnqueueJob(context.Background(), JobType("mystery"), nil)
	require.NoError(t, err)

	job := runNext(t, q)
	assert.Equal(t, JobStatusRetrying, job.Status)
	assert.Contains(t, job.ErrorMsg, "unknown job type")
}

func TestQueueStartStopProcessesJobs(t *testing.T) {
	q, _ := newTestQueue(t)
	sender := &fakeSender{}
	q.Register(JobTypeSendEmail, EmailProcessor(sender))

	q.Start()
	defer q.Stop()

	require.NoError(t, NewDispatcher(q).Send(context.Background(), mail.Message{To: []string{"a@b.c"}, Subject: "s"}))
	assert.True(t, waitFor(func() bool { return sender.count() == 1 }, 3*time.Second))
}
