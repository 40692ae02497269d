package service

import (
	"context"
	"testing"

	"applicant-review-api/internal/model"
	"applicant-review-api/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTitle_Fallbacks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryProvider)

	// 1. Captured name field wins.
	sub := f.createSubmission(t, 3001, &account.ID, model.CategoryProvider, map[string]string{"name": "  Dr. Smith  "})
	rec := &model.StatusRecord{AccountID: &account.ID, Category: model.CategoryProvider}
	profile, err := f.profileSvc.CreateOrUpdate(ctx, rec, sub)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Smith", profile.Title)

	// 2. Account display name when the field is missing.
	sub = f.createSubmission(t, 3002, &account.ID, model.CategoryProvider, map[string]string{"expertise": "Cardiology"})
	rec = &model.StatusRecord{AccountID: &account.ID, Category: model.CategoryProvider}
	profile, err = f.profileSvc.CreateOrUpdate(ctx, rec, sub)
	require.NoError(t, err)
	assert.Equal(t, "Test Applicant", profile.Title)

	// 3. Synthetic label when neither exists.
	sub = f.createSubmission(t, 3003, nil, model.CategoryProvider, nil)
	rec = &model.StatusRecord{Category: model.CategoryProvider}
	profile, err = f.profileSvc.CreateOrUpdate(ctx, rec, sub)
	require.NoError(t, err)
	assert.Equal(t, "provider #3003", profile.Title)
}

// Only whitelisted fields reach the published document, and values are
// escaped on the way in.
func TestBuildContent_WhitelistAndEscaping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryProvider)
	sub := f.createSubmission(t, 3101, &account.ID, model.CategoryProvider, map[string]string{
		"name":          "Dr. Smith",
		"expertise":     "<script>alert(1)</script>",
		"internal_flag": "should never appear",
	})
	rec := &model.StatusRecord{AccountID: &account.ID, Category: model.CategoryProvider}

	profile, err := f.profileSvc.CreateOrUpdate(ctx, rec, sub)
	require.NoError(t, err)

	keys := make(map[string]string, len(profile.Content))
	for _, row := range profile.Content {
		keys[row.Key] = row.Value
	}
	assert.NotContains(t, keys, "internal_flag")
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", keys["expertise"])
	assert.Equal(t, "Dr. Smith", keys["name"])
}

func TestCreateOrUpdate_ImageBestEffort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryProvider)

	sub := f.createSubmission(t, 3201, &account.ID, model.CategoryProvider, map[string]string{
		"name":      "Dr. Smith",
		"photo_url": "https://cdn.example.com/p/1.jpg",
	})
	rec := &model.StatusRecord{AccountID: &account.ID, Category: model.CategoryProvider}
	profile, err := f.profileSvc.CreateOrUpdate(ctx, rec, sub)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/p/1.jpg", profile.ImageURL)

	// A junk value is dropped without failing the approval.
	sub = f.createSubmission(t, 3202, &account.ID, model.CategoryProvider, map[string]string{
		"name":      "Dr. Smith",
		"photo_url": "c:\\photos\\me.jpg",
	})
	rec = &model.StatusRecord{AccountID: &account.ID, Category: model.CategoryProvider}
	profile, err = f.profileSvc.CreateOrUpdate(ctx, rec, sub)
	require.NoError(t, err)
	assert.Empty(t, profile.ImageURL)
}

func TestCreateOrUpdate_UpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryProvider)
	sub := f.createSubmission(t, 3301, &account.ID, model.CategoryProvider, map[string]string{"name": "Dr. Smith"})
	rec := &model.StatusRecord{AccountID: &account.ID, Category: model.CategoryProvider}

	first, err := f.profileSvc.CreateOrUpdate(ctx, rec, sub)
	require.NoError(t, err)

	require.NoError(t, f.profileSvc.Unpublish(ctx, first.ID))
	rec.ProfileID = &first.ID

	second, err := f.profileSvc.CreateOrUpdate(ctx, rec, sub)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.True(t, second.Visible)
}

func TestGetVisible_HiddenLooksLikeMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.createAccount(t, model.CategoryProvider)
	sub := f.createSubmission(t, 3401, &account.ID, model.CategoryProvider, map[string]string{"name": "Dr. Smith"})
	rec := &model.StatusRecord{AccountID: &account.ID, Category: model.CategoryProvider}

	profile, err := f.profileSvc.CreateOrUpdate(ctx, rec, sub)
	require.NoError(t, err)

	got, err := f.profileSvc.GetVisible(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Smith", got.Title)

	require.NoError(t, f.profileSvc.Unpublish(ctx, profile.ID))
	_, err = f.profileSvc.GetVisible(ctx, profile.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
