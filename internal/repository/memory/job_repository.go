package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"lumir-agentic-be/pkg/ingest"
)

// Job statuses.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// IngestJob tracks one asynchronous ingestion run.
type IngestJob struct {
	ID        string
	SessionID string
	Status    string
	Result    *ingest.Result
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JobRepository keeps recent ingestion jobs in process memory. Jobs expire
// after their TTL; callers polling an expired job get not-found.
type JobRepository struct {
	cache *cache.Cache
}

func NewJobRepository(ttl time.Duration) *JobRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JobRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *JobRepository) Save(job *IngestJob) {
	job.UpdatedAt = time.Now()
	r.cache.Set(job.ID, job, cache.DefaultExpiration)
}

func (r *JobRepository) Get(jobID string) (*IngestJob, bool) {
	if x, found := r.cache.Get(jobID); found {
		return x.(*IngestJob), true
	}
	return nil, false
}

func (r *JobRepository) Delete(jobID string) {
	r.cache.Delete(jobID)
}
