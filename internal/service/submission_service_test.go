package service

import (
	"context"
	"strings"
	"testing"

	"applicant-review-api/internal/model"
	"applicant-review-api/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdmitSubmission_CreatesPendingRecord(t *testing.T) {
	f := newFixture(t)
	account := f.createAccount(t, model.CategoryProvider)
	f.createSubmission(t, 101, &account.ID, model.CategoryProvider, map[string]string{"name": "Dr. Smith"})

	result := f.admit(t, 101, &account.ID, model.CategoryProvider, model.KindInitial, nil)

	assert.True(t, result.Created)
	assert.Equal(t, 0, result.ArchivedCount)

	rec := f.recordFor(t, 101)
	assert.Equal(t, model.StatusPending, rec.ReviewStatus)
	assert.Equal(t, model.KindInitial, rec.SubmissionKind)
	assert.True(t, rec.IsActive)
	assert.Equal(t, model.ProfileNone, rec.ProfileStatus)
	assert.Nil(t, rec.ProfileID)

	// Admission alone must not touch the external store.
	assert.Equal(t, model.ExternalNew, f.submissionFor(t, 101).ExternalStatus)
}

func TestAdmitSubmission_RequesterRecordIsNotActive(t *testing.T) {
	f := newFixture(t)
	account := f.createAccount(t, model.CategoryRequester)
	f.createSubmission(t, 102, &account.ID, model.CategoryRequester, nil)

	f.admit(t, 102, &account.ID, model.CategoryRequester, model.KindInitial, nil)

	assert.False(t, f.recordFor(t, 102).IsActive)
}

func TestAdmitSubmission_Idempotent(t *testing.T) {
	f := newFixture(t)
	account := f.createAccount(t, model.CategoryProvider)
	f.createSubmission(t, 103, &account.ID, model.CategoryProvider, nil)

	first := f.admit(t, 103, &account.ID, model.CategoryProvider, model.KindInitial, nil)
	second := f.admit(t, 103, &account.ID, model.CategoryProvider, model.KindInitial, nil)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.StatusRecordID, second.StatusRecordID)

	var count int64
	require.NoError(t, f.db.Model(&model.StatusRecord{}).Where("submission_id = ?", int64(103)).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// A provider resubmission must retire the entire prior history in one
// step: ledger status, active flag, write-back and published profile.
func TestAdmitSubmission_ProviderResubmissionArchivesPrior(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryProvider)
	f.createSubmission(t, 201, &account.ID, model.CategoryProvider, map[string]string{"name": "Dr. Smith"})

	f.admit(t, 201, &account.ID, model.CategoryProvider, model.KindInitial, nil)
	approved, err := f.reviewSvc.Transition(ctx, 201, "approved", "", nil)
	require.NoError(t, err)
	require.NotNil(t, approved.ProfileID)

	old := int64(201)
	f.createSubmission(t, 202, &account.ID, model.CategoryProvider, map[string]string{"name": "Dr. Smith"})
	result := f.admit(t, 202, &account.ID, model.CategoryProvider, model.KindRevision, &old)

	assert.True(t, result.Created)
	assert.Equal(t, 1, result.ArchivedCount)

	prior := f.recordFor(t, 201)
	assert.Equal(t, model.StatusArchived, prior.ReviewStatus)
	assert.False(t, prior.IsActive)
	assert.Equal(t, model.ReasonUserResubmission, prior.ArchivedReason)
	assert.NotNil(t, prior.ArchivedAt)
	assert.Contains(t, prior.AdminNotes, "archived: "+model.ReasonUserResubmission)
	assert.Equal(t, model.ProfileStatusArchived, prior.ProfileStatus)
	assert.Equal(t, model.ExternalArchived, f.submissionFor(t, 201).ExternalStatus)

	profile, err := f.profiles.FindByID(ctx, *prior.ProfileID)
	require.NoError(t, err)
	assert.False(t, profile.Visible)

	fresh := f.recordFor(t, 202)
	assert.Equal(t, model.StatusPending, fresh.ReviewStatus)
	assert.True(t, fresh.IsActive)
	assert.Equal(t, model.KindRevision, fresh.SubmissionKind)
	require.NotNil(t, fresh.ReplacesSubmissionID)
	assert.EqualValues(t, 201, *fresh.ReplacesSubmissionID)
}

// If the write-back fails while a resubmission is retiring the prior
// record, the whole admission rolls back: the prior record stays approved
// and published, and no ledger row exists for the new submission.
func TestAdmitSubmission_ArchivalFailureRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryProvider)
	f.createSubmission(t, 211, &account.ID, model.CategoryProvider, map[string]string{"name": "Dr. Smith"})

	f.admit(t, 211, &account.ID, model.CategoryProvider, model.KindInitial, nil)
	approved, err := f.reviewSvc.Transition(ctx, 211, "approved", "", nil)
	require.NoError(t, err)
	require.NotNil(t, approved.ProfileID)

	old := int64(211)
	f.createSubmission(t, 212, &account.ID, model.CategoryProvider, nil)
	svc := NewSubmissionService(f.txm, failingWriteBackSubmissions{f.submissions}, f.records, f.accounts, f.audit, f.profileSvc, NoopNotifier{}, f.cache)
	_, err = svc.AdmitSubmission(ctx, AdmitRequest{
		SubmissionID: 212,
		Category:     model.CategoryProvider,
		AccountID:    &account.ID,
		Kind:         model.KindRevision,
		ReplacesID:   &old,
	})
	assert.True(t, apperr.IsKind(err, apperr.KindPersistence))

	prior := f.recordFor(t, 211)
	assert.Equal(t, model.StatusApproved, prior.ReviewStatus)
	assert.True(t, prior.IsActive)
	assert.Nil(t, prior.ArchivedAt)
	assert.Equal(t, model.ProfileActive, prior.ProfileStatus)
	assert.Equal(t, model.ExternalApproved, f.submissionFor(t, 211).ExternalStatus)

	profile, err := f.profiles.FindByID(ctx, *prior.ProfileID)
	require.NoError(t, err)
	assert.True(t, profile.Visible)

	var count int64
	require.NoError(t, f.db.Model(&model.StatusRecord{}).Where("submission_id = ?", int64(212)).Count(&count).Error)
	assert.Zero(t, count)
}

// Requesters accumulate history: a new request never archives earlier ones.
func TestAdmitSubmission_RequesterKeepsHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryRequester)
	f.createSubmission(t, 301, &account.ID, model.CategoryRequester, nil)

	f.admit(t, 301, &account.ID, model.CategoryRequester, model.KindInitial, nil)
	_, err := f.reviewSvc.Transition(ctx, 301, "approved", "", nil)
	require.NoError(t, err)

	f.createSubmission(t, 302, &account.ID, model.CategoryRequester, nil)
	result := f.admit(t, 302, &account.ID, model.CategoryRequester, model.KindNewRequest, nil)

	assert.Equal(t, 0, result.ArchivedCount)
	assert.Equal(t, model.StatusApproved, f.recordFor(t, 301).ReviewStatus)
	assert.Equal(t, model.ExternalApproved, f.submissionFor(t, 301).ExternalStatus)
	assert.Equal(t, model.StatusPending, f.recordFor(t, 302).ReviewStatus)
}

func TestAdmitSubmission_CategoryMismatch(t *testing.T) {
	f := newFixture(t)
	account := f.createAccount(t, model.CategoryRequester)
	f.createSubmission(t, 401, &account.ID, model.CategoryRequester, nil)

	_, err := f.submissionSvc.AdmitSubmission(context.Background(), AdmitRequest{
		SubmissionID: 401,
		Category:     model.CategoryProvider,
		AccountID:    &account.ID,
		Kind:         model.KindInitial,
	})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestAdmitSubmission_UnknownSubmission(t *testing.T) {
	f := newFixture(t)
	_, err := f.submissionSvc.AdmitSubmission(context.Background(), AdmitRequest{
		SubmissionID: 99999,
		Category:     model.CategoryProvider,
		Kind:         model.KindInitial,
	})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRequestRevision_ArchivesAllNonArchived(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryProvider)

	// One approved and one still pending record for the same account;
	// legacy data can hold several non-archived rows at once.
	f.createSubmission(t, 501, &account.ID, model.CategoryProvider, map[string]string{"name": "Dr. Smith"})
	f.admit(t, 501, &account.ID, model.CategoryProvider, model.KindInitial, nil)
	_, err := f.reviewSvc.Transition(ctx, 501, "approved", "", nil)
	require.NoError(t, err)

	f.createSubmission(t, 502, &account.ID, model.CategoryProvider, nil)
	rec2 := &model.StatusRecord{
		SubmissionID:   502,
		AccountID:      &account.ID,
		Category:       model.CategoryProvider,
		ReviewStatus:   model.StatusPending,
		SubmissionKind: model.KindRevision,
		IsActive:       true,
		ProfileStatus:  model.ProfileNone,
	}
	require.NoError(t, f.records.Create(ctx, rec2))

	archived, err := f.submissionSvc.RequestRevision(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, archived)

	for _, id := range []int64{501, 502} {
		rec := f.recordFor(t, id)
		assert.Equal(t, model.StatusArchived, rec.ReviewStatus, "submission %d", id)
		assert.False(t, rec.IsActive, "submission %d", id)
		assert.Equal(t, model.ReasonUserRevisionRequest, rec.ArchivedReason, "submission %d", id)
		assert.Equal(t, model.ExternalArchived, f.submissionFor(t, id).ExternalStatus, "submission %d", id)
	}

	updated, err := f.accounts.GetByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppStatusRevisionPending, updated.ApplicationStatus)

	// Nothing left to archive on a second call.
	archived, err = f.submissionSvc.RequestRevision(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, archived)
}

func TestSyncLatest_InfersRevisionKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryProvider)

	f.createSubmission(t, 601, &account.ID, model.CategoryProvider, nil)
	first, err := f.submissionSvc.SyncLatest(ctx, account.ID, model.CategoryProvider)
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.Equal(t, model.KindInitial, f.recordFor(t, 601).SubmissionKind)

	// Re-running against the same latest submission is a no-op.
	again, err := f.submissionSvc.SyncLatest(ctx, account.ID, model.CategoryProvider)
	require.NoError(t, err)
	assert.False(t, again.Created)

	f.createSubmission(t, 602, &account.ID, model.CategoryProvider, nil)
	second, err := f.submissionSvc.SyncLatest(ctx, account.ID, model.CategoryProvider)
	require.NoError(t, err)
	assert.True(t, second.Created)

	rec := f.recordFor(t, 602)
	assert.Equal(t, model.KindRevision, rec.SubmissionKind)
	require.NotNil(t, rec.ReplacesSubmissionID)
	assert.EqualValues(t, 601, *rec.ReplacesSubmissionID)
}

func TestSyncLatest_RequesterGetsNewRequestKind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryRequester)

	f.createSubmission(t, 701, &account.ID, model.CategoryRequester, nil)
	_, err := f.submissionSvc.SyncLatest(ctx, account.ID, model.CategoryRequester)
	require.NoError(t, err)

	f.createSubmission(t, 702, &account.ID, model.CategoryRequester, nil)
	_, err = f.submissionSvc.SyncLatest(ctx, account.ID, model.CategoryRequester)
	require.NoError(t, err)

	rec := f.recordFor(t, 702)
	assert.Equal(t, model.KindNewRequest, rec.SubmissionKind)
	assert.Nil(t, rec.ReplacesSubmissionID)
}

// Duplicate deliveries race for the same submission id. The account lock
// serializes them on PostgreSQL; here the second delivery must still
// resolve to the existing row rather than a second one.
func TestAdmitSubmission_DuplicateDeliveryResolvesToExistingRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryProvider)
	f.createSubmission(t, 801, &account.ID, model.CategoryProvider, nil)

	require.NoError(t, f.records.LockAccount(ctx, account.ID))

	first := f.admit(t, 801, &account.ID, model.CategoryProvider, model.KindInitial, nil)
	second := f.admit(t, 801, &account.ID, model.CategoryProvider, model.KindInitial, nil)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.StatusRecordID, second.StatusRecordID)
}

func TestAppendNote(t *testing.T) {
	now := mustParseTime(t, "2025-03-01 10:30:00")

	first := appendNote("", "archived: user_resubmission", now)
	assert.Equal(t, "[2025-03-01 10:30:00] archived: user_resubmission", first)

	second := appendNote(first, "follow-up", now)
	lines := strings.Split(second, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[2025-03-01 10:30:00] follow-up", lines[1])
}
