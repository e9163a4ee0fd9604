package jobs

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"factura/internal/caching"
	"factura/internal/services"
)

const (
	JobNameBilling      = "recurring-billing"
	JobNameReminders    = "payment-reminders"
	JobNameOverdueSweep = "overdue-sweep"
)

// JobStatus describes a job's last observed run for the operations endpoint.
type JobStatus struct {
	Name      string     `json:"name"`
	Running   bool       `json:"running"`
	LastRun   *time.Time `json:"last_run"`
	LastError string     `json:"last_error,omitempty"`
}

// BillingJobRunner executes the billing-cycle jobs behind a distributed run
// lock, so overlapping scheduler ticks and concurrent replicas cannot double
// bill. Manual HTTP triggers go through the same runner and the same lock.
type BillingJobRunner struct {
	billingSvc services.BillingService
	notifier   services.NotifierService
	invoiceSvc services.InvoiceService
	cacheSvc   caching.CacheService
	lockTTL    time.Duration

	mu        sync.RWMutex
	running   map[string]bool
	lastRun   map[string]time.Time
	lastError map[string]string
}

// NewBillingJobRunner creates a new BillingJobRunner.
func NewBillingJobRunner(
	billingSvc services.BillingService,
	notifier services.NotifierService,
	invoiceSvc services.InvoiceService,
	cacheSvc caching.CacheService,
	lockTTL time.Duration,
) *BillingJobRunner {
	return &BillingJobRunner{
		billingSvc: billingSvc,
		notifier:   notifier,
		invoiceSvc: invoiceSvc,
		cacheSvc:   cacheSvc,
		lockTTL:    lockTTL,
		running:    make(map[string]bool),
		lastRun:    make(map[string]time.Time),
		lastError:  make(map[string]string),
	}
}

// RunBilling executes one billing run under the run lock.
func (r *BillingJobRunner) RunBilling(ctx context.Context, lookaheadDays int) (*services.BillingRunSummary, error) {
	var summary *services.BillingRunSummary
	err := r.withLock(ctx, JobNameBilling, func(ctx context.Context) error {
		var err error
		summary, err = r.billingSvc.ProcessSubscriptions(ctx, lookaheadDays)
		return err
	})
	return summary, err
}

// RunReminders sends payment reminders for invoices due in daysAhead days.
func (r *BillingJobRunner) RunReminders(ctx context.Context, daysAhead int) (*services.ReminderSummary, error) {
	lockName := fmt.Sprintf("%s-%d", JobNameReminders, daysAhead)
	var summary *services.ReminderSummary
	err := r.withLock(ctx, lockName, func(ctx context.Context) error {
		var err error
		summary, err = r.notifier.SendUpcomingReminders(ctx, daysAhead)
		return err
	})
	return summary, err
}

// RunOverdueSweep marks past-due sent invoices overdue.
func (r *BillingJobRunner) RunOverdueSweep(ctx context.Context) (int, error) {
	var marked int
	err := r.withLock(ctx, JobNameOverdueSweep, func(ctx context.Context) error {
		var err error
		marked, err = r.invoiceSvc.MarkOverdueInvoices(ctx)
		return err
	})
	return marked, err
}

// ErrRunInProgress is returned when another run of the same job holds the lock.
var ErrRunInProgress = fmt.Errorf("a run of this job is already in progress")

func (r *BillingJobRunner) withLock(ctx context.Context, jobName string, fn func(ctx context.Context) error) error {
	if r.cacheSvc != nil {
		acquired, err := r.cacheSvc.AcquireRunLock(ctx, jobName, r.lockTTL)
		if err != nil {
			// Redis being down should not stop billing; the singleton
			// scheduler mode still prevents overlap within this process.
			log.Printf("Run lock unavailable for %s, proceeding without it: %v", jobName, err)
		} else if !acquired {
			log.Printf("Skipping %s: lock held by another run", jobName)
			return ErrRunInProgress
		} else {
			defer func() {
				if err := r.cacheSvc.ReleaseRunLock(ctx, jobName); err != nil {
					log.Printf("Failed to release run lock for %s: %v", jobName, err)
				}
			}()
		}
	}

	r.setRunning(jobName, true)
	defer r.setRunning(jobName, false)

	err := fn(ctx)
	r.recordResult(jobName, err)
	if err == nil {
		r.publishLastRun(ctx, jobName)
	}
	return err
}

// publishLastRun records the completion time in Redis so any replica can
// answer the ops endpoint, not just the one that ran the job.
func (r *BillingJobRunner) publishLastRun(ctx context.Context, jobName string) {
	if r.cacheSvc == nil {
		return
	}
	key := fmt.Sprintf("factura:lastrun:%s", jobName)
	if err := r.cacheSvc.SetString(ctx, key, time.Now().Format(time.RFC3339), 0); err != nil {
		log.Printf("Failed to publish last run time for %s: %v", jobName, err)
	}
}

func (r *BillingJobRunner) setRunning(jobName string, running bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running[jobName] = running
}

func (r *BillingJobRunner) recordResult(jobName string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastRun[jobName] = time.Now()
	if err != nil {
		r.lastError[jobName] = err.Error()
	} else {
		r.lastError[jobName] = ""
	}
}

// Statuses returns the observed state of every billing job that has run or
// is running. Reminder runs appear per lookahead, e.g. payment-reminders-7.
func (r *BillingJobRunner) Statuses() []JobStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for name := range r.running {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range r.lastRun {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)

	statuses := make([]JobStatus, 0, len(names))
	for _, name := range names {
		status := JobStatus{Name: name, Running: r.running[name]}
		if t, ok := r.lastRun[name]; ok {
			lastRun := t
			status.LastRun = &lastRun
		}
		status.LastError = r.lastError[name]
		statuses = append(statuses, status)
	}
	return statuses
}
