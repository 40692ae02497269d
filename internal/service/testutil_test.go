package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"applicant-review-api/internal/cache"
	"applicant-review-api/internal/database"
	"applicant-review-api/internal/model"
	"applicant-review-api/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fixture wires the full service stack against an in-memory database
// with a no-op notifier so tests observe only core state.
type fixture struct {
	db            *gorm.DB
	txm           repository.TransactionManager
	cache         cache.Cache
	accounts      repository.AccountRepository
	submissions   repository.SubmissionRepository
	records       repository.StatusRecordRepository
	profiles      repository.ProfileRepository
	audit         repository.AuditRepository
	profileSvc    ProfileService
	submissionSvc SubmissionService
	reviewSvc     ReviewService
	querySvc      StatusQueryService
	exportSvc     ExportService
	accountSvc    AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	txm := repository.NewTransactionManager(db)
	accounts := repository.NewAccountRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	records := repository.NewStatusRecordRepository(db)
	profiles := repository.NewProfileRepository(db)
	audit := repository.NewAuditRepository(db)

	c := cache.NewNoop()
	profileSvc := NewProfileService(profiles, accounts)

	return &fixture{
		db:            db,
		txm:           txm,
		cache:         c,
		accounts:      accounts,
		submissions:   submissions,
		records:       records,
		profiles:      profiles,
		audit:         audit,
		profileSvc:    profileSvc,
		submissionSvc: NewSubmissionService(txm, submissions, records, accounts, audit, profileSvc, NoopNotifier{}, c),
		reviewSvc:     NewReviewService(txm, submissions, records, accounts, audit, profileSvc, NoopNotifier{}, c),
		querySvc:      NewStatusQueryService(records, c),
		exportSvc:     NewExportService(records),
		accountSvc:    NewAccountService(txm, accounts, records, submissions, profiles, audit),
	}
}

func (f *fixture) createAccount(t *testing.T, category model.Category) *model.Account {
	t.Helper()
	account := &model.Account{
		Email:       fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		DisplayName: "Test Applicant",
		Password:    "x",
		Role:        model.RoleApplicant,
		Category:    category,
	}
	require.NoError(t, f.accounts.Create(context.Background(), account))
	return account
}

func (f *fixture) createSubmission(t *testing.T, id int64, accountID *uuid.UUID, category model.Category, fields map[string]string) *model.Submission {
	t.Helper()
	sub := &model.Submission{
		ID:             id,
		OwnerAccountID: accountID,
		Category:       category,
		ExternalStatus: model.ExternalNew,
		CreatedAt:      time.Now(),
	}
	pos := 0
	for key, value := range fields {
		sub.Values = append(sub.Values, model.SubmissionValue{
			FieldKey:   key,
			FieldValue: value,
			Position:   pos,
		})
		pos++
	}
	require.NoError(t, f.submissions.Create(context.Background(), sub))
	return sub
}

func (f *fixture) admit(t *testing.T, submissionID int64, accountID *uuid.UUID, category model.Category, kind model.SubmissionKind, replaces *int64) *AdmitResult {
	t.Helper()
	result, err := f.submissionSvc.AdmitSubmission(context.Background(), AdmitRequest{
		SubmissionID: submissionID,
		Category:     category,
		AccountID:    accountID,
		Kind:         kind,
		ReplacesID:   replaces,
	})
	require.NoError(t, err)
	return result
}

func (f *fixture) recordFor(t *testing.T, submissionID int64) *model.StatusRecord {
	t.Helper()
	rec, err := f.records.FindBySubmissionID(context.Background(), submissionID)
	require.NoError(t, err)
	return rec
}

func (f *fixture) applicationStatus(t *testing.T, accountID uuid.UUID) string {
	t.Helper()
	account, err := f.accounts.GetByID(context.Background(), accountID)
	require.NoError(t, err)
	return account.ApplicationStatus
}

func mustParseTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04:05", value)
	require.NoError(t, err)
	return parsed
}

func (f *fixture) submissionFor(t *testing.T, id int64) *model.Submission {
	t.Helper()
	sub, err := f.submissions.FindByID(context.Background(), id)
	require.NoError(t, err)
	return sub
}
