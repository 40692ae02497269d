package repository

import (
	"context"

	"applicant-review-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubmissionRepository is the data-access boundary to the capture store.
// Everything except the external status write-back is read-only here.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.Submission) error
	FindByID(ctx context.Context, id int64) (*model.Submission, error)
	FindLatestByAccount(ctx context.Context, accountID uuid.UUID, category model.Category) (*model.Submission, error)
	List(ctx context.Context, category model.Category, externalStatus model.ExternalStatus, page, limit int) ([]model.Submission, int64, error)
	UpdateExternalStatus(ctx context.Context, id int64, status model.ExternalStatus) error
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) error
}

type submissionRepository struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) Create(ctx context.Context, sub *model.Submission) error {
	return GetDB(ctx, r.db).Create(sub).Error
}

func (r *submissionRepository) FindByID(ctx context.Context, id int64) (*model.Submission, error) {
	var sub model.Submission
	if err := GetDB(ctx, r.db).
		Preload("Values", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&sub, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepository) FindLatestByAccount(ctx context.Context, accountID uuid.UUID, category model.Category) (*model.Submission, error) {
	var sub model.Submission
	if err := GetDB(ctx, r.db).
		Preload("Values", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Where("owner_account_id = ? AND category = ?", accountID, category).
		Order("created_at DESC").
		First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepository) List(ctx context.Context, category model.Category, externalStatus model.ExternalStatus, page, limit int) ([]model.Submission, int64, error) {
	var subs []model.Submission
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Submission{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if externalStatus != "" {
		query = query.Where("external_status = ?", externalStatus)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&subs).Error; err != nil {
		return nil, 0, err
	}

	return subs, total, nil
}

func (r *submissionRepository) UpdateExternalStatus(ctx context.Context, id int64, status model.ExternalStatus) error {
	return GetDB(ctx, r.db).Model(&model.Submission{}).
		Where("id = ?", id).
		Update("external_status", status).Error
}

func (r *submissionRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("submission_id IN (?)",
		db.Session(&gorm.Session{NewDB: true}).Model(&model.Submission{}).Select("id").Where("owner_account_id = ?", accountID),
	).Delete(&model.SubmissionValue{}).Error; err != nil {
		return err
	}
	return db.Where("owner_account_id = ?", accountID).Delete(&model.Submission{}).Error
}
