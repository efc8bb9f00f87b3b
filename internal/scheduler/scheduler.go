// Package scheduler runs background jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of background work. An empty schedule registers the job for
// on-demand runs only.
type Job interface {
	Name() string
	Schedule() string
	Run(ctx context.Context) error
}

// JobFunc builds a Job from a function.
func JobFunc(name, schedule string, fn func(ctx context.Context) error) Job {
	return funcJob{name: name, schedule: schedule, fn: fn}
}

type funcJob struct {
	name     string
	schedule string
	fn       func(ctx context.Context) error
}

func (j funcJob) Name() string                  { return j.name }
func (j funcJob) Schedule() string              { return j.schedule }
func (j funcJob) Run(ctx context.Context) error { return j.fn(ctx) }

type Scheduler struct {
	cron    *cron.Cron
	jobs    []Job
	timeout time.Duration
}

// New creates a scheduler whose runs are each bounded by timeout.
func New(timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		timeout: timeout,
	}
}

// Register adds a job and schedules it when it has a schedule.
func (s *Scheduler) Register(job Job) error {
	schedule := job.Schedule()
	if schedule != "" {
		if _, err := s.cron.AddFunc(schedule, func() { s.execute(context.Background(), job) }); err != nil {
			return fmt.Errorf("schedule %s with %q: %w", job.Name(), schedule, err)
		}
		log.Printf("📅 [%s] Scheduled with cron: %s", job.Name(), schedule)
	} else {
		log.Printf("📝 [%s] Registered as on-demand job", job.Name())
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *Scheduler) execute(ctx context.Context, job Job) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := job.Run(ctx); err != nil {
		log.Printf("❌ [%s] Job failed: %v", job.Name(), err)
		return err
	}
	log.Printf("✅ [%s] Job completed", job.Name())
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("🚀 Scheduler started with jobs %v", s.Jobs())
}

// Stop halts scheduling and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 Scheduler stopped")
}

// RunByName runs a registered job immediately.
func (s *Scheduler) RunByName(ctx context.Context, name string) error {
	for _, job := range s.jobs {
		if job.Name() == name {
			return s.execute(ctx, job)
		}
	}
	return fmt.Errorf("job %q is not registered", name)
}

func (s *Scheduler) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, job := range s.jobs {
		names[i] = job.Name()
	}
	return names
}
