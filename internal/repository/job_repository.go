package repository

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/checkflow/internal/apperror"
	"github.com/example/checkflow/internal/models"
)

// JobRepository provides persistence access for PrintJob aggregates. A job
// owns its scan, recognition result and history rows; they are written in the
// same transaction as the job itself.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository constructs a repository using the provided gorm DB.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// CreateWithSequence persists a new job, assigning its office-scoped short id
// inside one transaction. The office row is locked so concurrent creates in
// the same office cannot produce duplicate sequence numbers.
func (r *JobRepository) CreateWithSequence(ctx context.Context, job *models.PrintJob) error {
	return errors.WithStack(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var office models.Office
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&office, "id = ?", job.OfficeID).Error; err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.PrintJob{}).
			Where("office_id = ?", job.OfficeID).
			Count(&count).Error; err != nil {
			return err
		}
		job.ShortID = fmt.Sprintf("%s-%03d", office.Code, count+1)
		return tx.Create(job).Error
	}))
}

// FindByID returns the job with its scan, recognition result and ordered
// history loaded.
func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.PrintJob, error) {
	var job models.PrintJob
	err := r.db.WithContext(ctx).
		Preload("Scan").
		Preload("RecognitionResult").
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("seq asc") }).
		First(&job, "id = ?", id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("print job not found", err)
		}
		return nil, errors.WithStack(err)
	}
	return &job, nil
}

// UpdateWithEvent persists the modified job together with exactly one new
// history event. A replaced scan drops the previous scan row, and a re-scan
// with no result yet clears any stale recognition result, keeping the job's
// 1:0..1 ownership of scan and result intact.
func (r *JobRepository) UpdateWithEvent(ctx context.Context, job *models.PrintJob, event *models.HistoryEvent) error {
	return errors.WithStack(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(job).Error; err != nil {
			return err
		}
		if job.Scan != nil {
			job.Scan.PrintJobID = job.ID
			if err := tx.Where("print_job_id = ? AND id <> ?", job.ID, job.Scan.ID).
				Delete(&models.Scan{}).Error; err != nil {
				return err
			}
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(job.Scan).Error; err != nil {
				return err
			}
		}
		if job.RecognitionResult != nil {
			job.RecognitionResult.PrintJobID = job.ID
			if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(job.RecognitionResult).Error; err != nil {
				return err
			}
		} else {
			if err := tx.Where("print_job_id = ?", job.ID).
				Delete(&models.RecognitionResult{}).Error; err != nil {
				return err
			}
		}
		event.PrintJobID = job.ID
		return tx.Create(event).Error
	}))
}

// List returns jobs matching the filter ordered by descending creation time.
func (r *JobRepository) List(ctx context.Context, f models.JobFilter) ([]models.PrintJob, error) {
	q := r.db.WithContext(ctx).Model(&models.PrintJob{})
	if f.OfficeID != uuid.Nil {
		q = q.Where("office_id = ?", f.OfficeID)
	}
	if len(f.OfficeIDs) > 0 {
		q = q.Where("office_id IN ?", f.OfficeIDs)
	}
	if f.TemplateID != uuid.Nil {
		q = q.Where("template_id = ?", f.TemplateID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CreatedBy != uuid.Nil {
		q = q.Where("created_by = ?", f.CreatedBy)
	}
	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		q = q.Where("LOWER(short_id) LIKE ? OR LOWER(template_name) LIKE ? OR LOWER(created_by_name) LIKE ?", like, like, like)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	var jobs []models.PrintJob
	err := q.Order("created_at desc").Limit(limit).Find(&jobs).Error
	return jobs, errors.WithStack(err)
}
