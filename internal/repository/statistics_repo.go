package repository

import (
	"context"
	"fmt"
	"time"

	"applicant-review-api/internal/model"

	"gorm.io/gorm"
)

type StatisticsRepository interface {
	CountByCategory(ctx context.Context, category model.Category) (int64, error)
	CountByReviewStatus(ctx context.Context, category model.Category) (map[model.ReviewStatus]int64, error)
	CountActiveProfiles(ctx context.Context, category model.Category) (int64, error)
	CountAdmittedSince(ctx context.Context, category model.Category, since time.Time) (int64, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) CountByCategory(ctx context.Context, category model.Category) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.StatusRecord{}).
		Where("category = ?", category).
		Count(&count).Error
	return count, err
}

func (r *statisticsRepository) CountByReviewStatus(ctx context.Context, category model.Category) (map[model.ReviewStatus]int64, error) {
	var rows []struct {
		ReviewStatus model.ReviewStatus
		Count        int64
	}
	if err := GetDB(ctx, r.db).Model(&model.StatusRecord{}).
		Select("review_status, COUNT(*) as count").
		Where("category = ?", category).
		Group("review_status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query status breakdown: %w", err)
	}

	breakdown := make(map[model.ReviewStatus]int64, len(rows))
	for _, row := range rows {
		breakdown[row.ReviewStatus] = row.Count
	}
	return breakdown, nil
}

func (r *statisticsRepository) CountActiveProfiles(ctx context.Context, category model.Category) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.StatusRecord{}).
		Where("category = ? AND profile_status = ?", category, model.ProfileActive).
		Count(&count).Error
	return count, err
}

func (r *statisticsRepository) CountAdmittedSince(ctx context.Context, category model.Category, since time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.StatusRecord{}).
		Where("category = ? AND created_at >= ?", category, since).
		Count(&count).Error
	return count, err
}
