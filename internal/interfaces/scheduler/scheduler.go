package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"ledgerlink/internal/domain/link"
)

// Config controls when and how aggressively syncs run.
type Config struct {
	// ScheduleTimes are local times of day ("15:04") at which a full sync
	// of every user with linked accounts is kicked off.
	ScheduleTimes []string
	WorkerCount   int
	JobDelay      time.Duration
	QueueSize     int
	RunOnStartup  bool
}

// Scheduler runs periodic background syncs for every user with at least
// one linked account.
type Scheduler struct {
	links    link.Repository
	syncer   link.TransactionSyncer
	insights link.InsightRefresher
	notifier RelinkNotifier

	pool          *WorkerPool
	scheduleTimes []time.Time
	cancel        context.CancelFunc
	done          chan struct{}
}

// NewScheduler validates the schedule and wires the worker pool.
func NewScheduler(links link.Repository, syncer link.TransactionSyncer, insights link.InsightRefresher, notifier RelinkNotifier, cfg Config) (*Scheduler, error) {
	if len(cfg.ScheduleTimes) == 0 {
		return nil, fmt.Errorf("at least one schedule time is required")
	}

	times := make([]time.Time, 0, len(cfg.ScheduleTimes))
	for _, raw := range cfg.ScheduleTimes {
		t, err := time.Parse("15:04", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid schedule time %q: %w", raw, err)
		}
		times = append(times, t)
	}

	s := &Scheduler{
		links:         links,
		syncer:        syncer,
		insights:      insights,
		notifier:      notifier,
		pool:          NewWorkerPool(cfg.WorkerCount, cfg.JobDelay, cfg.QueueSize),
		scheduleTimes: times,
		done:          make(chan struct{}),
	}

	if cfg.RunOnStartup {
		go s.runAllUsers(context.Background())
	}

	return s, nil
}

// Start launches the workers and the schedule loop.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.pool.Start()

	go func() {
		defer close(s.done)
		for {
			next := s.nextRun(time.Now())
			log.Printf("Scheduler: next sync run at %s", next.Format(time.RFC3339))

			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Until(next)):
				s.runAllUsers(ctx)
			}
		}
	}()
}

// nextRun returns the earliest scheduled time strictly after now.
func (s *Scheduler) nextRun(now time.Time) time.Time {
	var next time.Time
	for _, st := range s.scheduleTimes {
		candidate := time.Date(now.Year(), now.Month(), now.Day(),
			st.Hour(), st.Minute(), 0, 0, now.Location())
		if !candidate.After(now) {
			candidate = candidate.Add(24 * time.Hour)
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next
}

// runAllUsers enqueues a sync job for every user with linked accounts.
func (s *Scheduler) runAllUsers(ctx context.Context) {
	userIDs, err := s.links.ListUserIDsWithLinks(ctx)
	if err != nil {
		log.Printf("Scheduler: failed to list users with linked accounts: %v", err)
		return
	}
	if len(userIDs) == 0 {
		log.Println("Scheduler: no users with linked accounts, skipping run")
		return
	}

	jobs := make([]Job, 0, len(userIDs))
	for _, userID := range userIDs {
		jobs = append(jobs, NewUserSyncJob(userID, s.links, s.syncer, s.insights, s.notifier))
	}
	s.pool.SubmitBatch(jobs)
}

// Shutdown stops the schedule loop and drains the worker pool.
func (s *Scheduler) Shutdown(timeout time.Duration) {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.pool.ShutdownWithTimeout(timeout)
}
