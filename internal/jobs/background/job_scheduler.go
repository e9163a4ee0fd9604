package background

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"factura/internal/config"
	"factura/internal/jobs"

	"github.com/go-co-op/gocron/v2"
)

// JobScheduler wires the billing-cycle jobs onto cron schedules. Actual
// execution (including locking) lives in the BillingJobRunner; this type only
// owns the cadence.
type JobScheduler struct {
	scheduler gocron.Scheduler
	runner    *jobs.BillingJobRunner
	settings  config.BillingSettings
	cronJobs  map[string]gocron.Job
	mu        sync.RWMutex
}

// NewJobScheduler creates a new job scheduler.
func NewJobScheduler(runner *jobs.BillingJobRunner, settings config.BillingSettings) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		runner:    runner,
		settings:  settings,
		cronJobs:  make(map[string]gocron.Job),
	}

	js.registerJobs()
	return js, nil
}

// Start starts the job scheduler.
func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

// Stop stops the job scheduler.
func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

// registerJobs registers the billing cadence: the billing run early in the
// morning, then the reminder ladder, then the overdue sweep. Reminder jobs
// are staggered by 15 minutes so they never race each other on the lock.
func (js *JobScheduler) registerJobs() {
	js.register("recurring-billing", "0 6 * * *", func(ctx context.Context) {
		if _, err := js.runner.RunBilling(ctx, js.settings.LookaheadDays); err != nil && !errors.Is(err, jobs.ErrRunInProgress) {
			log.Printf("Recurring billing run failed: %v", err)
		}
	})

	for i, daysAhead := range js.settings.ReminderDays {
		days := daysAhead
		name := fmt.Sprintf("payment-reminders-%d", days)
		cron := fmt.Sprintf("%d 8 * * *", (i*15)%60)
		js.register(name, cron, func(ctx context.Context) {
			if _, err := js.runner.RunReminders(ctx, days); err != nil && !errors.Is(err, jobs.ErrRunInProgress) {
				log.Printf("Reminder run (%d days) failed: %v", days, err)
			}
		})
	}

	js.register("overdue-sweep", "0 7 * * *", func(ctx context.Context) {
		if _, err := js.runner.RunOverdueSweep(ctx); err != nil && !errors.Is(err, jobs.ErrRunInProgress) {
			log.Printf("Overdue sweep failed: %v", err)
		}
	})

	js.mu.RLock()
	count := len(js.cronJobs)
	js.mu.RUnlock()
	log.Printf("Registered %d background jobs", count)
}

func (js *JobScheduler) register(name, cron string, task func(ctx context.Context)) {
	job, err := js.scheduler.NewJob(
		gocron.CronJob(cron, false),
		gocron.NewTask(task, context.Background()),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create %s job: %v", name, err)
		return
	}

	js.mu.Lock()
	js.cronJobs[name] = job
	js.mu.Unlock()
}

// ScheduledJobs lists the registered job names with their next run times.
func (js *JobScheduler) ScheduledJobs() map[string]string {
	js.mu.RLock()
	defer js.mu.RUnlock()

	out := make(map[string]string, len(js.cronJobs))
	for name, job := range js.cronJobs {
		next, err := job.NextRun()
		if err != nil {
			out[name] = "unknown"
			continue
		}
		out[name] = next.Format("2006-01-02 15:04:05 MST")
	}
	return out
}
