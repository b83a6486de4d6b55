package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"news-ingest/internal/domain"
	"news-ingest/internal/ports"
)

type fakeDriver struct {
	mu      sync.Mutex
	nextID  ports.TaskID
	jobs    map[ports.TaskID]func()
	nexts   map[ports.TaskID]time.Time
	started int
	stopped int
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		jobs:  map[ports.TaskID]func(){},
		nexts: map[ports.TaskID]time.Time{},
	}
}

func (d *fakeDriver) Schedule(spec string, job func()) (ports.TaskID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.jobs[d.nextID] = job
	d.nexts[d.nextID] = time.Now().Add(time.Duration(d.nextID) * time.Hour)
	return d.nextID, nil
}

func (d *fakeDriver) Remove(id ports.TaskID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.jobs, id)
	delete(d.nexts, id)
}

func (d *fakeDriver) Next(id ports.TaskID) time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.nexts[id]
}

func (d *fakeDriver) Start() { d.mu.Lock(); d.started++; d.mu.Unlock() }
func (d *fakeDriver) Stop()  { d.mu.Lock(); d.stopped++; d.mu.Unlock() }

func (d *fakeDriver) jobCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}

func (d *fakeDriver) fire(id ports.TaskID) {
	d.mu.Lock()
	job := d.jobs[id]
	d.mu.Unlock()
	if job != nil {
		job()
	}
}

type fakeRunner struct {
	mu        sync.Mutex
	summary   domain.CycleSummary
	err       error
	fullCalls int
	feedCalls int
}

func (r *fakeRunner) RunFullCycle(ctx context.Context) (domain.CycleSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fullCalls++
	return r.summary, r.err
}

func (r *fakeRunner) RunFeedOnlyCycle(ctx context.Context) (domain.CycleSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.feedCalls++
	return r.summary, r.err
}

func TestEnableIsIdempotent(t *testing.T) {
	t.Parallel()

	driver := newFakeDriver()
	s := NewScheduler(driver, &fakeRunner{}, "*/30 * * * *", "15 */6 * * *", nil)

	require.NoError(t, s.Enable(context.Background()))
	require.NoError(t, s.Enable(context.Background()))

	require.Equal(t, 2, driver.jobCount())
	require.Equal(t, 2, s.Status().ActiveTasks)
	require.Equal(t, 1, driver.started)
}

func TestDisableClearsTasks(t *testing.T) {
	t.Parallel()

	driver := newFakeDriver()
	s := NewScheduler(driver, &fakeRunner{}, "*/30 * * * *", "15 */6 * * *", nil)

	require.NoError(t, s.Enable(context.Background()))
	s.Disable()
	s.Disable()

	require.Equal(t, 0, driver.jobCount())
	require.Equal(t, 1, driver.stopped)

	status := s.Status()
	require.False(t, status.Enabled)
	require.Equal(t, 0, status.ActiveTasks)
	require.Nil(t, status.NextRun)
}

func TestStatusReportsEarliestNextRun(t *testing.T) {
	t.Parallel()

	driver := newFakeDriver()
	s := NewScheduler(driver, &fakeRunner{}, "*/30 * * * *", "15 */6 * * *", nil)

	require.NoError(t, s.Enable(context.Background()))

	status := s.Status()
	require.True(t, status.Enabled)
	require.NotNil(t, status.NextRun)
	require.Equal(t, driver.Next(1), *status.NextRun)
}

func TestScheduledRunUpdatesLastRun(t *testing.T) {
	t.Parallel()

	driver := newFakeDriver()
	runner := &fakeRunner{summary: domain.CycleSummary{Saved: 3}}
	s := NewScheduler(driver, runner, "*/30 * * * *", "15 */6 * * *", nil)

	require.NoError(t, s.Enable(context.Background()))
	require.Nil(t, s.Status().LastRun)

	driver.fire(1)
	require.Equal(t, 1, runner.feedCalls)
	require.NotNil(t, s.Status().LastRun)

	driver.fire(2)
	require.Equal(t, 1, runner.fullCalls)
}

func TestScheduledRunSkippedWhenInFlight(t *testing.T) {
	t.Parallel()

	driver := newFakeDriver()
	runner := &fakeRunner{err: domain.ErrCycleInFlight}
	s := NewScheduler(driver, runner, "*/30 * * * *", "15 */6 * * *", nil)

	require.NoError(t, s.Enable(context.Background()))
	driver.fire(1)

	require.Nil(t, s.Status().LastRun)
}

func TestTriggerNowReturnsSummary(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{summary: domain.CycleSummary{Saved: 2, Duplicates: 1}}
	s := NewScheduler(newFakeDriver(), runner, "*/30 * * * *", "15 */6 * * *", nil)

	summary, err := s.TriggerNow(context.Background())
	require.NoError(t, err)
	require.Equal(t, domain.CycleSummary{Saved: 2, Duplicates: 1}, summary)
	require.Equal(t, 1, runner.fullCalls)
	require.NotNil(t, s.Status().LastRun)
}

func TestTriggerNowPropagatesError(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{err: errors.New("store down")}
	s := NewScheduler(newFakeDriver(), runner, "*/30 * * * *", "15 */6 * * *", nil)

	_, err := s.TriggerNow(context.Background())
	require.Error(t, err)
	require.Nil(t, s.Status().LastRun)
}
