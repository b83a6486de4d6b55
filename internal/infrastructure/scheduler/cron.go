// Package scheduler drives recurring tasks with robfig/cron.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"news-ingest/internal/ports"
)

// CronDriver adapts a cron.Cron to the TimerDriver port. Specs use the
// standard 5-field format.
type CronDriver struct {
	cron *cron.Cron
}

var _ ports.TimerDriver = (*CronDriver)(nil)

// NewCronDriver builds a driver in the given timezone; panics inside jobs are
// recovered so one bad cycle cannot kill the timers.
func NewCronDriver(loc *time.Location) *CronDriver {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)
	return &CronDriver{cron: c}
}

// Schedule registers a recurring job.
func (d *CronDriver) Schedule(spec string, job func()) (ports.TaskID, error) {
	id, err := d.cron.AddFunc(spec, job)
	if err != nil {
		return 0, err
	}
	return ports.TaskID(id), nil
}

// Remove unregisters one task.
func (d *CronDriver) Remove(id ports.TaskID) {
	d.cron.Remove(cron.EntryID(id))
}

// Next reports the task's next firing time; zero when unknown.
func (d *CronDriver) Next(id ports.TaskID) time.Time {
	return d.cron.Entry(cron.EntryID(id)).Next
}

// Start begins firing scheduled tasks.
func (d *CronDriver) Start() {
	d.cron.Start()
}

// Stop cancels future firings. An in-flight job runs to completion on its
// own goroutine; we deliberately do not wait for it.
func (d *CronDriver) Stop() {
	d.cron.Stop()
}
