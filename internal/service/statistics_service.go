package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"applicant-review-api/internal/cache"
	"applicant-review-api/internal/model"
	"applicant-review-api/internal/repository"
)

type StatisticsService interface {
	GetStatistics(ctx context.Context) (*model.StatisticsResponse, error)
}

type statisticsService struct {
	repo  repository.StatisticsRepository
	cache cache.Cache
	ttl   time.Duration
}

func NewStatisticsService(repo repository.StatisticsRepository, c cache.Cache) StatisticsService {
	return &statisticsService{repo: repo, cache: c, ttl: 5 * time.Minute}
}

// GetStatistics aggregates review-queue metrics for both categories,
// served from cache when fresh.
func (s *statisticsService) GetStatistics(ctx context.Context) (*model.StatisticsResponse, error) {
	if cached, ok, err := s.cache.Get(ctx, statsCacheKey); err == nil && ok {
		var response model.StatisticsResponse
		if err := json.Unmarshal(cached, &response); err == nil {
			return &response, nil
		}
	}

	provider, err := s.categoryStats(ctx, model.CategoryProvider)
	if err != nil {
		return nil, err
	}
	requester, err := s.categoryStats(ctx, model.CategoryRequester)
	if err != nil {
		return nil, err
	}

	response := &model.StatisticsResponse{
		Provider:    *provider,
		Requester:   *requester,
		GeneratedAt: time.Now().Format(time.RFC3339),
	}

	if payload, err := json.Marshal(response); err == nil {
		if err := s.cache.Set(ctx, statsCacheKey, payload, s.ttl); err != nil {
			log.Printf("statistics: cache write failed: %v", err)
		}
	}

	return response, nil
}

func (s *statisticsService) categoryStats(ctx context.Context, category model.Category) (*model.SubmissionStats, error) {
	total, err := s.repo.CountByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.repo.CountByReviewStatus(ctx, category)
	if err != nil {
		return nil, err
	}
	activeProfiles, err := s.repo.CountActiveProfiles(ctx, category)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := s.repo.CountAdmittedSince(ctx, category, dayStart)
	if err != nil {
		return nil, err
	}
	week, err := s.repo.CountAdmittedSince(ctx, category, dayStart.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	month, err := s.repo.CountAdmittedSince(ctx, category, dayStart.AddDate(0, -1, 0))
	if err != nil {
		return nil, err
	}

	return &model.SubmissionStats{
		Category:       category,
		Total:          total,
		ByReviewStatus: breakdown,
		ActiveProfiles: activeProfiles,
		AdmittedToday:  today,
		AdmittedWeek:   week,
		AdmittedMonth:  month,
	}, nil
}
