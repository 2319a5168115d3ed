package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "osov:jobs:"
	pendingKey = keyPrefix + "pending"
	activeKey  = keyPrefix + "active"
	delayedKey = keyPrefix + "delayed"

	DefaultMaxRetries = 3
	JobTTL            = 24 * time.Hour

	// StallTimeout is how long a job may stay active before maintenance
	// hands it back to the pending list.
	StallTimeout = 10 * time.Minute
)

func jobKey(id string) string { return keyPrefix + "job:" + id }

// Processor handles one job; a returned error schedules a retry.
type Processor func(ctx context.Context, job *Job) error

// Queue is a Redis list backed job queue. Jobs move pending -> active and
// are deleted on success; failed attempts wait in a sorted set keyed by due
// time until maintenance promotes them again.
type Queue struct {
	client       *redis.Client
	workers      int
	stopCh       chan struct{}
	wg           sync.WaitGroup
	mu           sync.Mutex
	running      bool
	processors   map[JobType]Processor
	retryBackoff time.Duration
	tick         time.Duration
}

func NewQueue(client *redis.Client, workers int) *Queue {
	if workers <= 0 {
		workers = 3
	}
	return &Queue{
		client:       client,
		workers:      workers,
		stopCh:       make(chan struct{}),
		processors:   make(map[JobType]Processor),
		retryBackoff: time.Minute,
		tick:         time.Second,
	}
}

// Register binds a processor to a job type. Call before Start.
func (q *Queue) Register(jobType JobType, p Processor) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processors[jobType] = p
}

func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}

	q.running = true
	q.stopCh = make(chan struct{})
	log.Infof("[JobQueue] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.wg.Add(1)
	go q.maintain()
}

// Stop waits for in-flight jobs to finish.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return
	}

	log.Info("[JobQueue] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[JobQueue] All workers stopped")
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Debugf("[JobQueue] Worker %d stopping", id)
			return
		default:
		}

		job, err := q.dequeueJob(ctx)
		switch {
		case errors.Is(err, redis.Nil):
			// idle, the blocking pop already waited
		case err != nil:
			log.Errorf("[JobQueue] Worker %d: dequeue failed: %v", id, err)
			time.Sleep(time.Second)
		default:
			log.Debugf("[JobQueue] Worker %d running job %s (%s)", id, job.ID, job.Type)
			q.processJob(ctx, job)
		}
	}
}

func (q *Queue) maintain() {
	defer q.wg.Done()
	ticker := time.NewTicker(q.tick)
	defer ticker.Stop()
	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			return
		case now := <-ticker.C:
			if _, err := q.promoteDue(ctx, now); err != nil {
				log.Errorf("[JobQueue] Promoting retries failed: %v", err)
			}
			if n, err := q.recoverStalled(ctx, now); err != nil {
				log.Errorf("[JobQueue] Stall recovery failed: %v", err)
			} else if n > 0 {
				log.Warnf("[JobQueue] Requeued %d stalled jobs", n)
			}
		}
	}
}

// EnqueueJob stores the job and pushes it onto the pending list.
func (q *Queue) EnqueueJob(ctx context.Context, jobType JobType, payload map[string]interface{}) (*Job, error) {
	now := time.Now()
	job := &Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		Status:     JobStatusPending,
		Payload:    payload,
		CreatedAt:  now,
		UpdatedAt:  now,
		MaxRetries: DefaultMaxRetries,
	}
	data, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, jobKey(job.ID), data, JobTTL)
	pipe.LPush(ctx, pendingKey, job.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	log.Debugf("[JobQueue] Enqueued job %s (%s)", job.ID, job.Type)
	return job, nil
}

func (q *Queue) dequeueJob(ctx context.Context) (*Job, error) {
	id, err := q.client.BRPopLPush(ctx, pendingKey, activeKey, time.Second).Result()
	if err != nil {
		return nil, err
	}
	job, err := q.load(ctx, id)
	if err != nil {
		q.client.LRem(ctx, activeKey, 1, id)
		return nil, fmt.Errorf("load job %s: %v", id, err)
	}
	return job, nil
}

func (q *Queue) processJob(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	q.save(ctx, job)

	q.mu.Lock()
	processor, ok := q.processors[job.Type]
	q.mu.Unlock()

	var err error
	if ok {
		err = processor(ctx, job)
	} else {
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err == nil {
		job.MarkAsCompleted()
		if derr := q.client.Del(ctx, jobKey(job.ID)).Err(); derr != nil {
			log.Errorf("[JobQueue] Deleting finished job %s: %v", job.ID, derr)
		}
	} else {
		job.MarkAsFailed(err.Error())
		if job.IsRetryable() {
			job.MarkAsRetrying()
			q.save(ctx, job)
			due := time.Now().Add(q.retryBackoff * time.Duration(job.RetryCount))
			if zerr := q.client.ZAdd(ctx, delayedKey, redis.Z{Score: float64(due.UnixMilli()), Member: job.ID}).Err(); zerr != nil {
				log.Errorf("[JobQueue] Scheduling retry for %s: %v", job.ID, zerr)
			}
			log.Warnf("[JobQueue] Job %s failed (attempt %d/%d): %v", job.ID, job.RetryCount, job.MaxRetries, err)
		} else {
			q.save(ctx, job)
			log.Errorf("[JobQueue] Job %s gave up after %d attempts: %v", job.ID, job.RetryCount, err)
		}
	}

	if lerr := q.client.LRem(ctx, activeKey, 1, job.ID).Err(); lerr != nil {
		log.Errorf("[JobQueue] Releasing job %s: %v", job.ID, lerr)
	}
}

// promoteDue moves retries whose back-off has passed onto the pending list.
// ZRem decides which instance wins when several run maintenance.
func (q *Queue) promoteDue(ctx context.Context, now time.Time) (int, error) {
	ids, err := q.client.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, id := range ids {
		removed, err := q.client.ZRem(ctx, delayedKey, id).Result()
		if err != nil {
			return promoted, err
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, pendingKey, id).Err(); err != nil {
			return promoted, err
		}
		promoted++
	}
	return promoted, nil
}

// recoverStalled returns jobs left active by a crashed worker to the head
// of the pending list.
func (q *Queue) recoverStalled(ctx context.Context, now time.Time) (int, error) {
	ids, err := q.client.LRange(ctx, activeKey, 0, -1).Result()
	if err != nil {
		return 0, err
	}

	recovered := 0
	for _, id := range ids {
		job, err := q.load(ctx, id)
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Errorf("[JobQueue] Dropping unreadable job %s: %v", id, err)
			}
			q.client.LRem(ctx, activeKey, 1, id)
			continue
		}

		since := job.UpdatedAt
		if job.ProcessedAt != nil {
			since = *job.ProcessedAt
		}
		if now.Sub(since) <= StallTimeout {
			continue
		}

		job.Status = JobStatusPending
		job.ErrorMsg = "requeued after stall"
		job.UpdatedAt = now
		q.save(ctx, job)
		q.client.LRem(ctx, activeKey, 1, id)
		if err := q.client.RPush(ctx, pendingKey, id).Err(); err != nil {
			return recovered, err
		}
		recovered++
	}
	return recovered, nil
}

func (q *Queue) load(ctx context.Context, id string) (*Job, error) {
	data, err := q.client.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (q *Queue) save(ctx context.Context, job *Job) {
	data, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[JobQueue] Marshal job %s: %v", job.ID, err)
		return
	}
	if err := q.client.Set(ctx, jobKey(job.ID), data, JobTTL).Err(); err != nil {
		log.Errorf("[JobQueue] Saving job %s: %v", job.ID, err)
	}
}
