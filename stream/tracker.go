package stream

import (
	"fmt"
	"sync"
	"time"

	"github.com/vodstream/jit-api/metrics"
)

// JobKey identifies one transcode task. There is at most one in-flight job
// per key.
type JobKey struct {
	MediaID       string
	Quality       string
	SegmentNumber int
}

func (k JobKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.MediaID, k.Quality, k.SegmentNumber)
}

// Job is one in-flight transcode task. Its result is a one-shot future:
// complete resolves it exactly once, and any number of Wait callers observe
// the same result.
type Job struct {
	Key        JobKey
	IsPrefetch bool
	StartedAt  time.Time

	done chan struct{}
	once sync.Once
	path string
	err  error
}

func newJob(key JobKey, isPrefetch bool) *Job {
	return &Job{
		Key:        key,
		IsPrefetch: isPrefetch,
		StartedAt:  time.Now(),
		done:       make(chan struct{}),
	}
}

func (j *Job) complete(path string, err error) {
	j.once.Do(func() {
		j.path = path
		j.err = err
		close(j.done)
	})
}

// Wait blocks until the job resolves and returns the produced segment path
// or the error every waiter shares.
func (j *Job) Wait() (string, error) {
	<-j.done
	return j.path, j.err
}

func (j *Job) RunningFor() time.Duration {
	return time.Since(j.StartedAt)
}

// PrefetchOutcome reports what TryRegisterPrefetch did with a candidate.
type PrefetchOutcome string

const (
	PrefetchRegistered PrefetchOutcome = "registered"
	PrefetchInFlight   PrefetchOutcome = "in_flight"
	PrefetchAtCapacity PrefetchOutcome = "at_capacity"
)

// JobStat is the diagnostic view of one in-flight job.
type JobStat struct {
	Key          string `json:"key"`
	IsPrefetch   bool   `json:"isPrefetch"`
	RunningForMs int64  `json:"runningForMs"`
}

// JobTracker is the single-flight map of in-flight transcode jobs. All
// operations are atomic with respect to each other; the lookup-then-insert
// paths share one critical section, which is what makes coalescing and the
// prefetch cap hold under any interleaving.
type JobTracker struct {
	mu   sync.RWMutex
	jobs map[JobKey]*Job
}

func NewJobTracker() *JobTracker {
	return &JobTracker{jobs: make(map[JobKey]*Job)}
}

func (t *JobTracker) Get(key JobKey) (*Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[key]
	return job, ok
}

// GetOrRegister returns the in-flight job for key, or registers a new
// foreground job when there is none. existing reports which happened.
func (t *JobTracker) GetOrRegister(key JobKey) (job *Job, existing bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[key]; ok {
		return job, true
	}
	job = newJob(key, false)
	t.jobs[key] = job
	t.updateGauges()
	return job, false
}

// TryRegisterPrefetch registers a prefetch job for key unless the key is
// already in flight or prefetchLimit prefetch jobs are running. The capacity
// check sits inside the insert's critical section so the limit holds at
// every instant.
func (t *JobTracker) TryRegisterPrefetch(key JobKey, prefetchLimit int) (*Job, PrefetchOutcome) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[key]; ok {
		return job, PrefetchInFlight
	}
	if t.prefetchCountLocked() >= prefetchLimit {
		return nil, PrefetchAtCapacity
	}
	job := newJob(key, true)
	t.jobs[key] = job
	t.updateGauges()
	return job, PrefetchRegistered
}

// Complete removes the job for key. Resolving the job's future is the
// caller's responsibility and should happen first, so late arrivals either
// find the resolved job or miss it and hit the segment cache.
func (t *JobTracker) Complete(key JobKey) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.jobs, key)
	t.updateGauges()
}

func (t *JobTracker) ActiveCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.jobs)
}

func (t *JobTracker) PrefetchCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.prefetchCountLocked()
}

// CountForMedia returns how many jobs are in flight for one media item,
// prefetch and thumbnails included.
func (t *JobTracker) CountForMedia(mediaID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	count := 0
	for key := range t.jobs {
		if key.MediaID == mediaID {
			count++
		}
	}
	return count
}

func (t *JobTracker) Stats() []JobStat {
	t.mu.RLock()
	defer t.mu.RUnlock()
	stats := make([]JobStat, 0, len(t.jobs))
	for key, job := range t.jobs {
		stats = append(stats, JobStat{
			Key:          key.String(),
			IsPrefetch:   job.IsPrefetch,
			RunningForMs: job.RunningFor().Milliseconds(),
		})
	}
	return stats
}

// Clear fails every registered job with ErrShutdown and empties the map.
// Only used on shutdown; the encoder processes behind the jobs are killed
// separately by the process group.
func (t *JobTracker) Clear() int {
	t.mu.Lock()
	cleared := make([]*Job, 0, len(t.jobs))
	for _, job := range t.jobs {
		cleared = append(cleared, job)
	}
	t.jobs = make(map[JobKey]*Job)
	t.updateGauges()
	t.mu.Unlock()

	for _, job := range cleared {
		job.complete("", ErrShutdown)
	}
	return len(cleared)
}

func (t *JobTracker) prefetchCountLocked() int {
	count := 0
	for _, job := range t.jobs {
		if job.IsPrefetch {
			count++
		}
	}
	return count
}

func (t *JobTracker) updateGauges() {
	metrics.Metrics.JobsInFlight.Set(float64(len(t.jobs)))
	metrics.Metrics.PrefetchInFlight.Set(float64(t.prefetchCountLocked()))
}
