package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ourstoryourvoice/osov/internal/pkg/env"
)

const mailTimeout = 15 * time.Second

// StoryPublisher flips due Scheduled stories to Published.
type StoryPublisher interface {
	PublishDue(now time.Time) (int64, error)
}

// CounterFlusher moves buffered counters from Redis into the database.
type CounterFlusher interface {
	FlushAll() error
}

// Intervals configures the background tickers.
type Intervals struct {
	StoryPublish  time.Duration
	DonationSweep time.Duration
	CounterFlush  time.Duration
}

// IntervalsFromEnv reads STORY_PUBLISH_INTERVAL, DONATION_SWEEP_INTERVAL and
// VIEW_FLUSH_INTERVAL.
func IntervalsFromEnv() Intervals {
	return Intervals{
		StoryPublish:  env.GetEnvDuration("STORY_PUBLISH_INTERVAL", time.Minute),
		DonationSweep: env.GetEnvDuration("DONATION_SWEEP_INTERVAL", 15*time.Minute),
		CounterFlush:  env.GetEnvDuration("VIEW_FLUSH_INTERVAL", 30*time.Second),
	}
}

// Manager manages the job queue and background tasks
type Manager struct {
	queue     *Queue
	stories   StoryPublisher
	donations DonationReconciler
	counters  CounterFlusher
	intervals Intervals
	stopCh    chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
}

// NewManager wires the queue with its background tasks. Any dependency may be
// nil, which disables the matching ticker.
func NewManager(queue *Queue, stories StoryPublisher, donations DonationReconciler, counters CounterFlusher, intervals Intervals) *Manager {
	if donations != nil {
		queue.Register(JobTypeDonationReconcile, DonationProcessor(donations))
	}
	return &Manager{
		queue:     queue,
		stories:   stories,
		donations: donations,
		counters:  counters,
		intervals: intervals,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	m.queue.Start()

	if m.stories != nil {
		m.every("story publish", m.intervals.StoryPublish, m.publishDueStoriesOnce)
	}
	if m.donations != nil {
		m.every("donation sweep", m.intervals.DonationSweep, m.sweepPendingDonationsOnce)
	}
	if m.counters != nil {
		m.every("counter flush", m.intervals.CounterFlush, m.counters.FlushAll)
	}

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	close(m.stopCh)
	m.running = false
	m.wg.Wait()

	// flush what the last interval buffered
	if m.counters != nil {
		if err := m.counters.FlushAll(); err != nil {
			log.Errorf("[JobQueue Manager] Final counter flush error: %v", err)
		}
	}

	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// every runs fn on a ticker until Stop. Non-positive intervals disable it.
func (m *Manager) every(name string, interval time.Duration, fn func() error) {
	if interval <= 0 {
		log.Infof("[JobQueue Manager] %s worker disabled", name)
		return
	}
	ticker := time.NewTicker(interval)
	stopCh := m.stopCh
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer ticker.Stop()
		log.Infof("[JobQueue Manager] Started %s worker (interval: %s)", name, interval)
		for {
			select {
			case <-stopCh:
				log.Infof("[JobQueue Manager] %s worker stopping", name)
				return
			case <-ticker.C:
				if err := fn(); err != nil {
					log.Errorf("[JobQueue Manager] %s error: %v", name, err)
				}
			}
		}
	}()
}

func (m *Manager) publishDueStoriesOnce() error {
	n, err := m.stories.PublishDue(time.Now().UTC())
	if err != nil {
		return err
	}
	if n > 0 {
		log.Infof("[JobQueue Manager] Published %d scheduled stories", n)
	}
	return nil
}

func (m *Manager) sweepPendingDonationsOnce() error {
	n, err := EnqueuePendingDonations(context.Background(), m.queue, m.donations)
	if n > 0 {
		log.Infof("[JobQueue Manager] Queued %d pending donations for reconciliation", n)
	}
	return err
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
