package repository

import (
	"context"
	"database/sql"
	"errors"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"scene-worker/constant"
	"scene-worker/entities"
	"sort"
	"sync"
)

var ErrJobNotFound = errors.New("job not found")

// JobRepository is the run ledger.
type JobRepository interface {
	CreateJob(ctx context.Context, job *entities.Job) error
	FindJobById(ctx context.Context, id uuid.UUID) (*entities.Job, error)
	ListJobs(ctx context.Context, limit int) ([]*entities.Job, error)
	UpdateStatusJob(ctx context.Context, status constant.JobStatus, id uuid.UUID) error
	FinishJob(ctx context.Context, job *entities.Job) error
}

type repo struct {
	db *gorm.DB
}

func (r *repo) CreateJob(ctx context.Context, job *entities.Job) error {
	return r.GetDB(ctx).Create(job).Error
}

func (r *repo) FindJobById(ctx context.Context, id uuid.UUID) (*entities.Job, error) {
	job := &entities.Job{}
	err := r.GetDB(ctx).First(job, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}

	return job, nil
}

func (r *repo) ListJobs(ctx context.Context, limit int) ([]*entities.Job, error) {
	var jobs []*entities.Job
	err := r.GetDB(ctx).Order("created_at DESC").Limit(limit).Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *repo) UpdateStatusJob(ctx context.Context, status constant.JobStatus, id uuid.UUID) error {
	job := &entities.Job{}
	err := r.GetDB(ctx).Model(job).Where("id = ?", id).Update("status", status).Error
	if err != nil {
		return err
	}
	return nil
}

func (r *repo) FinishJob(ctx context.Context, job *entities.Job) error {
	return r.GetDB(ctx).Save(job).Error
}

func (r *repo) GetDB(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx)
}

// NewRepo opens the ledger on db and migrates the jobs table.
func NewRepo(db *sql.DB) (JobRepository, error) {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		},
	)
	if err != nil {
		return nil, err
	}
	if err := gormDB.AutoMigrate(&entities.Job{}); err != nil {
		return nil, err
	}
	return &repo{
		db: gormDB,
	}, nil
}

// memRepo keeps the ledger in process when no database is configured.
type memRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]entities.Job
}

func NewMemRepo() JobRepository {
	return &memRepo{jobs: make(map[uuid.UUID]entities.Job)}
}

func (r *memRepo) CreateJob(ctx context.Context, job *entities.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; ok {
		return errors.New("job already exists")
	}
	job.CreatedAt = now()
	job.UpdatedAt = job.CreatedAt
	r.jobs[job.ID] = *job
	return nil
}

func (r *memRepo) FindJobById(ctx context.Context, id uuid.UUID) (*entities.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return &job, nil
}

func (r *memRepo) ListJobs(ctx context.Context, limit int) ([]*entities.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	jobs := make([]*entities.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		j := j
		jobs = append(jobs, &j)
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].CreatedAt.After(jobs[k].CreatedAt) })
	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (r *memRepo) UpdateStatusJob(ctx context.Context, status constant.JobStatus, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = status
	job.UpdatedAt = now()
	r.jobs[id] = job
	return nil
}

func (r *memRepo) FinishJob(ctx context.Context, job *entities.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return ErrJobNotFound
	}
	job.UpdatedAt = now()
	r.jobs[job.ID] = *job
	return nil
}
