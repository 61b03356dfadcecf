package background

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"studiobook/internal/caching"
	"studiobook/internal/services"

	"github.com/go-co-op/gocron/v2"
)

const (
	lastSweepRunKey     = "sweep:last_run"
	lastSweepExpiredKey = "sweep:last_expired"

	// The invariant "no active plan stays past its end date longer than one
	// sweep interval" is only as good as this interval.
	sweepInterval = 24 * time.Hour
)

// JobScheduler owns the periodic jobs around the plan engine: the daily
// expiry sweep and cache maintenance.
type JobScheduler struct {
	scheduler   gocron.Scheduler
	planService services.PlanService
	cacheSvc    caching.CacheService
	jobs        map[string]gocron.Job
	mu          sync.RWMutex
}

func NewJobScheduler(planService services.PlanService, cacheSvc caching.CacheService) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:   scheduler,
		planService: planService,
		cacheSvc:    cacheSvc,
		jobs:        make(map[string]gocron.Job),
	}

	js.registerJobs()
	return js
}

// Start starts the job scheduler
func (js *JobScheduler) Start() error {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
	return nil
}

// Stop stops the job scheduler
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	// Plan expiry sweep - once per day, never overlapping itself. Concurrent
	// sweeps are safe anyway (the transition predicate is idempotent), so
	// singleton mode only avoids wasted work.
	sweepJob, err := js.scheduler.NewJob(
		gocron.DurationJob(sweepInterval),
		gocron.NewTask(js.runExpirySweep, context.Background()),
		gocron.WithName("plan-expiry-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create sweep job: %v", err)
	} else {
		js.jobs["plan-expiry-sweep"] = sweepJob
	}

	// Cache maintenance - every hour
	cacheJob, err := js.scheduler.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(js.cleanupExpiredCache),
		gocron.WithName("cache-maintenance"),
	)
	if err != nil {
		log.Printf("Failed to create cache maintenance job: %v", err)
	} else {
		js.jobs["cache-maintenance"] = cacheJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// runExpirySweep transitions overdue active plans to inactive and records
// the batch in the cache for the status endpoint.
func (js *JobScheduler) runExpirySweep(ctx context.Context) error {
	now := time.Now().UTC()
	log.Printf("Starting plan expiry sweep")

	expired, err := js.planService.SweepExpired(ctx, now)
	if err != nil {
		log.Printf("Plan expiry sweep failed: %v", err)
		return err
	}

	if err := js.cacheSvc.SetString(ctx, lastSweepRunKey, now.Format(time.RFC3339), 0); err != nil {
		log.Printf("Failed to record sweep time: %v", err)
	}
	if err := js.cacheSvc.SetString(ctx, lastSweepExpiredKey, strconv.Itoa(len(expired)), 0); err != nil {
		log.Printf("Failed to record sweep count: %v", err)
	}

	log.Printf("Plan expiry sweep completed, %d plans expired", len(expired))
	return nil
}

// cleanupExpiredCache performs cleanup of expired cache entries
func (js *JobScheduler) cleanupExpiredCache() error {
	// Redis evicts TTL'd plan entries itself; this hook exists for patterns
	// that need explicit cleanup.
	log.Printf("Cache maintenance completed (Redis handles TTL automatically)")
	return nil
}

// AddJob adds a custom job to the scheduler
func (js *JobScheduler) AddJob(name string, interval time.Duration, taskFn interface{}, params ...interface{}) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(taskFn, params...),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}

	js.jobs[name] = job
	log.Printf("Added custom job: %s", name)
	return nil
}

// RemoveJob removes a job from the scheduler
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[name]; exists {
		err := js.scheduler.RemoveJob(job.ID())
		delete(js.jobs, name)
		return err
	}
	return nil
}

// GetJobStatus returns information about scheduled jobs plus the last sweep
// bookkeeping.
func (js *JobScheduler) GetJobStatus(ctx context.Context) map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	status := make(map[string]interface{})
	status["total_jobs"] = len(js.jobs)

	jobs := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		jobs = append(jobs, name)
	}
	status["jobs"] = jobs

	if lastRun, err := js.cacheSvc.GetString(ctx, lastSweepRunKey); err == nil && lastRun != "" {
		status["last_sweep_at"] = lastRun
	}
	if lastExpired, err := js.cacheSvc.GetString(ctx, lastSweepExpiredKey); err == nil && lastExpired != "" {
		status["last_sweep_expired"] = lastExpired
	}
	return status
}
