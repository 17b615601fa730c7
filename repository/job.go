package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tnqbao/gau-marine-service/entity"
)

var (
	ErrJobNotFound     = errors.New("job not found")
	ErrDuplicateSerial = errors.New("serial already used by this owner")
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// ListByOwner returns the owner's jobs ordered by serial ascending.
func (r *JobRepository) ListByOwner(ctx context.Context, owner uuid.UUID) ([]entity.Job, error) {
	var jobs []entity.Job
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", owner).
		Order("serial ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

func (r *JobRepository) FindBySerial(ctx context.Context, owner uuid.UUID, serial int) (*entity.Job, error) {
	var job entity.Job
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND serial = ?", owner, serial).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Insert writes job and fills in its identity and timestamps.
func (r *JobRepository) Insert(ctx context.Context, job *entity.Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Create(job).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %d", ErrDuplicateSerial, job.Serial)
	}
	return err
}

// UpdateFields updates the given columns of one job. Keys are column names.
func (r *JobRepository) UpdateFields(ctx context.Context, owner uuid.UUID, serial int, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Job{}).
		Where("owner_id = ? AND serial = ?", owner, serial).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// UpdateFiles replaces the whole files list. Concurrent writers race: last write wins.
func (r *JobRepository) UpdateFiles(ctx context.Context, owner uuid.UUID, serial int, files []entity.JobFile) error {
	return r.UpdateFields(ctx, owner, serial, map[string]interface{}{
		"files": datatypes.JSONSlice[entity.JobFile](files),
	})
}

func (r *JobRepository) Delete(ctx context.Context, owner uuid.UUID, serial int) error {
	result := r.db.WithContext(ctx).
		Where("owner_id = ? AND serial = ?", owner, serial).
		Delete(&entity.Job{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// ReferencedKeys returns the object key of every attachment of every owner.
func (r *JobRepository) ReferencedKeys(ctx context.Context) ([]string, error) {
	var jobs []entity.Job
	err := r.db.WithContext(ctx).
		Select("serial", "files").
		Where("files IS NOT NULL").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, job := range jobs {
		for _, f := range job.Files {
			keys = append(keys, entity.JobFileKey(job.Serial, f.StorageName))
		}
	}
	return keys, nil
}
