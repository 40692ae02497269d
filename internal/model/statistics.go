package model

// SubmissionStats aggregates review-queue metrics per applicant category
type SubmissionStats struct {
	Category       Category               `json:"category"`
	Total          int64                  `json:"total"`
	ByReviewStatus map[ReviewStatus]int64 `json:"by_review_status"`
	ActiveProfiles int64                  `json:"active_profiles"`
	AdmittedToday  int64                  `json:"admitted_today"`
	AdmittedWeek   int64                  `json:"admitted_week"`
	AdmittedMonth  int64                  `json:"admitted_month"`
}

// StatisticsResponse is the full stats payload returned to the admin UI
type StatisticsResponse struct {
	Provider    SubmissionStats `json:"provider"`
	Requester   SubmissionStats `json:"requester"`
	GeneratedAt string          `json:"generated_at"`
}
