package background

import (
	"context"
	"log"
	"sync"
	"time"

	"appaudit/internal/models"
	"appaudit/internal/repositories"
	"appaudit/internal/services"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

// JobScheduler runs the periodic tenant scans and the scan-history
// retention cleanup.
type JobScheduler struct {
	scheduler      gocron.Scheduler
	scanSvc        services.ScanService
	connectionRepo repositories.ConnectionRepository
	scanRepo       repositories.ScanRepository
	scanInterval   time.Duration
	concurrency    int
	jobs           map[string]gocron.Job
	mu             sync.RWMutex
}

func NewJobScheduler(scanSvc services.ScanService, connectionRepo repositories.ConnectionRepository,
	scanRepo repositories.ScanRepository, scanInterval time.Duration, concurrency int) *JobScheduler {

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	if scanInterval <= 0 {
		scanInterval = time.Hour
	}
	if concurrency <= 0 {
		concurrency = 5
	}

	js := &JobScheduler{
		scheduler:      scheduler,
		scanSvc:        scanSvc,
		connectionRepo: connectionRepo,
		scanRepo:       scanRepo,
		scanInterval:   scanInterval,
		concurrency:    concurrency,
		jobs:           make(map[string]gocron.Job),
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
	scanJob, err := js.scheduler.NewJob(
		gocron.DurationJob(js.scanInterval),
		gocron.NewTask(js.scanActiveConnections, context.Background()),
		gocron.WithName("connection-scans"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Printf("Failed to create scan job: %v", err)
	} else {
		js.jobs["connection-scans"] = scanJob
	}

	retentionJob, err := js.scheduler.NewJob(
		gocron.DurationJob(24*time.Hour),
		gocron.NewTask(js.cleanupExpiredScans, context.Background()),
		gocron.WithName("scan-retention"),
	)
	if err != nil {
		log.Printf("Failed to create retention job: %v", err)
	} else {
		js.jobs["scan-retention"] = retentionJob
	}

	log.Printf("Registered %d background jobs", len(js.jobs))
}

// scanActiveConnections audits every scannable connection with bounded
// concurrency so one run cannot flood the provider. Connections parked in
// error status after a failed scan are swept too; a successful scan
// restores them to active.
func (js *JobScheduler) scanActiveConnections(ctx context.Context) error {
	log.Printf("Starting scheduled connection scans")

	var conns []*models.Connection
	for _, status := range []string{models.ConnectionStatusActive, models.ConnectionStatusError} {
		batch, err := js.connectionRepo.ListByStatus(ctx, status)
		if err != nil {
			log.Printf("Failed to list %s connections: %v", status, err)
			return err
		}
		conns = append(conns, batch...)
	}

	semaphore := make(chan struct{}, js.concurrency)
	var wg sync.WaitGroup

	for _, conn := range conns {
		wg.Add(1)
		go func(connID uuid.UUID) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if _, err := js.scanSvc.RunSystem(ctx, connID); err != nil {
				// A held lock just means someone else is scanning right now.
				log.Printf("Scheduled scan for connection %s: %v", connID.String(), err)
			}
		}(conn.ID)
	}

	wg.Wait()
	log.Printf("Completed scheduled scans for %d connections", len(conns))
	return nil
}

// cleanupExpiredScans drops scan-history rows past their retention window.
func (js *JobScheduler) cleanupExpiredScans(ctx context.Context) error {
	removed, err := js.scanRepo.DeleteExpired(ctx)
	if err != nil {
		log.Printf("Failed to delete expired scans: %v", err)
		return err
	}
	log.Printf("Scan retention cleanup removed %d records", removed)
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

// GetJobStatus returns information about scheduled jobs
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	status := make(map[string]interface{})
	status["total_jobs"] = len(js.jobs)
	jobs := make([]string, 0, len(js.jobs))

	for name := range js.jobs {
		jobs = append(jobs, name)
	}

	status["jobs"] = jobs

	return status
}
