package repository

import (
	"context"

	"applicant-review-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusRecordRepository is the data-access boundary to the review ledger.
type StatusRecordRepository interface {
	Create(ctx context.Context, rec *model.StatusRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StatusRecord, error)
	FindBySubmissionID(ctx context.Context, submissionID int64) (*model.StatusRecord, error)
	FindNonArchivedByAccount(ctx context.Context, accountID uuid.UUID, category model.Category) ([]model.StatusRecord, error)
	FindLatestByAccount(ctx context.Context, accountID uuid.UUID, category model.Category) (*model.StatusRecord, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, category model.Category, page, limit int) ([]model.StatusRecord, int64, error)
	FindAllByAccount(ctx context.Context, accountID uuid.UUID, category model.Category) ([]model.StatusRecord, error)
	ListByFilter(ctx context.Context, category model.Category, status model.ReviewStatus) ([]model.StatusRecord, error)
	CountActiveApproved(ctx context.Context, accountID uuid.UUID, excludeSubmissionID int64) (int64, error)
	Update(ctx context.Context, rec *model.StatusRecord) error
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) error
	LockAccount(ctx context.Context, accountID uuid.UUID) error
}

type statusRecordRepository struct {
	db *gorm.DB
}

func NewStatusRecordRepository(db *gorm.DB) StatusRecordRepository {
	return &statusRecordRepository{db: db}
}

func (r *statusRecordRepository) Create(ctx context.Context, rec *model.StatusRecord) error {
	return GetDB(ctx, r.db).Create(rec).Error
}

func (r *statusRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.StatusRecord, error) {
	var rec model.StatusRecord
	if err := GetDB(ctx, r.db).First(&rec, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *statusRecordRepository) FindBySubmissionID(ctx context.Context, submissionID int64) (*model.StatusRecord, error) {
	var rec model.StatusRecord
	if err := GetDB(ctx, r.db).First(&rec, "submission_id = ?", submissionID).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *statusRecordRepository) FindNonArchivedByAccount(ctx context.Context, accountID uuid.UUID, category model.Category) ([]model.StatusRecord, error) {
	var recs []model.StatusRecord
	if err := GetDB(ctx, r.db).
		Where("account_id = ? AND category = ? AND review_status <> ?", accountID, category, model.StatusArchived).
		Order("created_at ASC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *statusRecordRepository) FindLatestByAccount(ctx context.Context, accountID uuid.UUID, category model.Category) (*model.StatusRecord, error) {
	var rec model.StatusRecord
	if err := GetDB(ctx, r.db).
		Where("account_id = ? AND category = ?", accountID, category).
		Order("created_at DESC").
		First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *statusRecordRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, category model.Category, page, limit int) ([]model.StatusRecord, int64, error) {
	var recs []model.StatusRecord
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.StatusRecord{}).Where("account_id = ?", accountID)
	if category != "" {
		query = query.Where("category = ?", category)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&recs).Error; err != nil {
		return nil, 0, err
	}

	return recs, total, nil
}

func (r *statusRecordRepository) ListByFilter(ctx context.Context, category model.Category, status model.ReviewStatus) ([]model.StatusRecord, error) {
	var recs []model.StatusRecord
	query := GetDB(ctx, r.db).Model(&model.StatusRecord{})
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if status != "" {
		query = query.Where("review_status = ?", status)
	}
	if err := query.Order("created_at DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// FindAllByAccount returns the full ledger history for an account in
// latest-first order.
func (r *statusRecordRepository) FindAllByAccount(ctx context.Context, accountID uuid.UUID, category model.Category) ([]model.StatusRecord, error) {
	var recs []model.StatusRecord
	if err := GetDB(ctx, r.db).
		Where("account_id = ? AND category = ?", accountID, category).
		Order("created_at DESC").
		Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *statusRecordRepository) CountActiveApproved(ctx context.Context, accountID uuid.UUID, excludeSubmissionID int64) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.StatusRecord{}).
		Where("account_id = ? AND category = ? AND is_active = ? AND review_status = ? AND submission_id <> ?",
			accountID, model.CategoryProvider, true, model.StatusApproved, excludeSubmissionID).
		Count(&count).Error
	return count, err
}

func (r *statusRecordRepository) Update(ctx context.Context, rec *model.StatusRecord) error {
	return GetDB(ctx, r.db).Save(rec).Error
}

func (r *statusRecordRepository) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("account_id = ?", accountID).Delete(&model.StatusRecord{}).Error
}

// LockAccount takes a transaction-scoped advisory lock keyed by account id
// so concurrent archival+admission for the same account serialize instead
// of racing. Only postgres supports it; other dialects fall through, which
// keeps the duplicate-admission race observable there.
func (r *statusRecordRepository) LockAccount(ctx context.Context, accountID uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	return db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "submission_admit:"+accountID.String()).Error
}
