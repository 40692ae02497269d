package service

import (
	"context"
	"testing"

	"applicant-review-api/internal/cache"
	"applicant-review-api/internal/model"
	"applicant-review-api/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSubmissionStatus_Pending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryProvider)
	f.createSubmission(t, 2001, &account.ID, model.CategoryProvider, nil)
	f.admit(t, 2001, &account.ID, model.CategoryProvider, model.KindInitial, nil)

	summary, err := f.querySvc.GetSubmissionStatus(ctx, account.ID, model.CategoryProvider)
	require.NoError(t, err)

	assert.True(t, summary.HasPending)
	assert.False(t, summary.HasActive)
	assert.False(t, summary.HasAnyApproved)
	assert.False(t, summary.HasRejected)
	require.NotNil(t, summary.PendingSubmission)
	assert.EqualValues(t, 2001, summary.PendingSubmission.SubmissionID)
}

func TestGetSubmissionStatus_ApprovedProvider(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryProvider)
	f.createSubmission(t, 2101, &account.ID, model.CategoryProvider, map[string]string{"name": "Dr. Smith"})
	f.admit(t, 2101, &account.ID, model.CategoryProvider, model.KindInitial, nil)
	_, err := f.reviewSvc.Transition(ctx, 2101, "approved", "", nil)
	require.NoError(t, err)

	summary, err := f.querySvc.GetSubmissionStatus(ctx, account.ID, model.CategoryProvider)
	require.NoError(t, err)

	assert.False(t, summary.HasPending)
	assert.True(t, summary.HasActive)
	assert.True(t, summary.HasAnyApproved)
	require.NotNil(t, summary.ActiveSubmission)
	assert.EqualValues(t, 2101, summary.ActiveSubmission.SubmissionID)
}

// Requesters have no active-record notion of their own; any approval
// counts as active.
func TestGetSubmissionStatus_RequesterApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryRequester)
	f.createSubmission(t, 2201, &account.ID, model.CategoryRequester, nil)
	f.admit(t, 2201, &account.ID, model.CategoryRequester, model.KindInitial, nil)
	_, err := f.reviewSvc.Transition(ctx, 2201, "approved", "", nil)
	require.NoError(t, err)

	summary, err := f.querySvc.GetSubmissionStatus(ctx, account.ID, model.CategoryRequester)
	require.NoError(t, err)

	assert.True(t, summary.HasAnyApproved)
	assert.True(t, summary.HasActive)
	assert.Nil(t, summary.ActiveSubmission)
}

// has_rejected follows the latest record. Older archived history never
// clears it, and a newer pending submission always does.
func TestGetSubmissionStatus_RejectedLatestWins(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryProvider)

	f.createSubmission(t, 2301, &account.ID, model.CategoryProvider, map[string]string{"name": "Dr. Smith"})
	f.admit(t, 2301, &account.ID, model.CategoryProvider, model.KindInitial, nil)
	_, err := f.reviewSvc.Transition(ctx, 2301, "approved", "", nil)
	require.NoError(t, err)

	_, err = f.submissionSvc.RequestRevision(ctx, account.ID)
	require.NoError(t, err)

	f.createSubmission(t, 2302, &account.ID, model.CategoryProvider, nil)
	old := int64(2301)
	f.admit(t, 2302, &account.ID, model.CategoryProvider, model.KindRevision, &old)
	_, err = f.reviewSvc.Transition(ctx, 2302, "rejected", "insufficient documents", nil)
	require.NoError(t, err)

	summary, err := f.querySvc.GetSubmissionStatus(ctx, account.ID, model.CategoryProvider)
	require.NoError(t, err)
	assert.True(t, summary.HasRejected)
	assert.False(t, summary.HasPending)
	require.NotNil(t, summary.RejectedSubmission)
	assert.EqualValues(t, 2302, summary.RejectedSubmission.SubmissionID)

	// A fresh resubmission supersedes the rejection.
	f.createSubmission(t, 2303, &account.ID, model.CategoryProvider, nil)
	old = 2302
	f.admit(t, 2303, &account.ID, model.CategoryProvider, model.KindRevision, &old)

	summary, err = f.querySvc.GetSubmissionStatus(ctx, account.ID, model.CategoryProvider)
	require.NoError(t, err)
	assert.False(t, summary.HasRejected)
	assert.True(t, summary.HasPending)
}

func TestGetSubmissionStatus_EmptyLedger(t *testing.T) {
	f := newFixture(t)
	account := f.createAccount(t, model.CategoryProvider)

	summary, err := f.querySvc.GetSubmissionStatus(context.Background(), account.ID, model.CategoryProvider)
	require.NoError(t, err)
	assert.Equal(t, &SubmissionStatusSummary{}, summary)
}

func TestGetSubmissionStatus_UnknownCategory(t *testing.T) {
	f := newFixture(t)
	account := f.createAccount(t, model.CategoryProvider)

	_, err := f.querySvc.GetSubmissionStatus(context.Background(), account.ID, model.Category("vendor"))
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

// A cached summary is served until a write invalidates it.
func TestGetSubmissionStatus_CacheInvalidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mem := cache.NewMemory()
	query := NewStatusQueryService(f.records, mem)
	review := NewReviewService(f.txm, f.submissions, f.records, f.accounts, f.audit, f.profileSvc, NoopNotifier{}, mem)

	account := f.createAccount(t, model.CategoryProvider)
	f.createSubmission(t, 2401, &account.ID, model.CategoryProvider, map[string]string{"name": "Dr. Smith"})
	f.admit(t, 2401, &account.ID, model.CategoryProvider, model.KindInitial, nil)

	summary, err := query.GetSubmissionStatus(ctx, account.ID, model.CategoryProvider)
	require.NoError(t, err)
	assert.True(t, summary.HasPending)

	// Mutating the ledger behind the cache's back proves the second read
	// was served from the cache.
	rec := f.recordFor(t, 2401)
	rec.ReviewStatus = model.StatusApproved
	require.NoError(t, f.records.Update(ctx, rec))

	stale, err := query.GetSubmissionStatus(ctx, account.ID, model.CategoryProvider)
	require.NoError(t, err)
	assert.True(t, stale.HasPending)
	assert.False(t, stale.HasActive)

	// A transition through the service invalidates and the next read is fresh.
	_, err = review.Transition(ctx, 2401, "approved", "", nil)
	require.NoError(t, err)

	fresh, err := query.GetSubmissionStatus(ctx, account.ID, model.CategoryProvider)
	require.NoError(t, err)
	assert.False(t, fresh.HasPending)
	assert.True(t, fresh.HasActive)
}

func TestListHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryRequester)

	for id := int64(2501); id <= 2503; id++ {
		f.createSubmission(t, id, &account.ID, model.CategoryRequester, nil)
		kind := model.KindNewRequest
		if id == 2501 {
			kind = model.KindInitial
		}
		f.admit(t, id, &account.ID, model.CategoryRequester, kind, nil)
	}

	recs, total, err := f.querySvc.ListHistory(ctx, account.ID, model.CategoryRequester, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, recs, 2)
}
