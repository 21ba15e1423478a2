package newsletter_test

import (
	"context"
	"strings"
	"testing"

	newsletter "github.com/goliatone/go-newsletter"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewsletterTypesCreate(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	repo := newsletter.NewNewsletterTypesRepository(db)

	record, err := repo.Create(ctx, &newsletter.NewsletterType{
		UserID: uuid.New(),
		Name:   "Weekly Digest",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.True(t, strings.HasPrefix(record.APIKey, "nlt_"))
	assert.Equal(t, newsletter.NewsletterTypeActive, record.Status)
}

func TestResolveAPIKey(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	repo := newsletter.NewNewsletterTypesRepository(db)

	record, err := repo.Create(ctx, &newsletter.NewsletterType{
		UserID: uuid.New(),
		Name:   "Weekly Digest",
	})
	require.NoError(t, err)

	t.Run("active key resolves its tenant", func(t *testing.T) {
		got, err := repo.ResolveAPIKey(ctx, record.APIKey)
		require.NoError(t, err)

		assert.Equal(t, record.ID, got.ID)
		assert.Equal(t, record.UserID, got.UserID)
	})

	t.Run("empty key is unauthorized", func(t *testing.T) {
		_, err := repo.ResolveAPIKey(ctx, "   ")
		require.Error(t, err)
		assert.Equal(t, newsletter.TextCodeUnauthorized, newsletter.AsRichError(err).TextCode)
	})

	t.Run("unknown key is unauthorized", func(t *testing.T) {
		_, err := repo.ResolveAPIKey(ctx, "nlt_doesnotexist")
		require.Error(t, err)
		assert.Equal(t, newsletter.TextCodeUnauthorized, newsletter.AsRichError(err).TextCode)
	})

	t.Run("a revoked tenant's key stops resolving", func(t *testing.T) {
		doomed, err := repo.Create(ctx, &newsletter.NewsletterType{
			UserID: uuid.New(),
			Name:   "Short Lived",
		})
		require.NoError(t, err)

		require.NoError(t, repo.SoftDelete(ctx, doomed.ID))

		_, err = repo.ResolveAPIKey(ctx, doomed.APIKey)
		require.Error(t, err)
		assert.Equal(t, newsletter.TextCodeUnauthorized, newsletter.AsRichError(err).TextCode)
	})
}

func TestRegenerateKey(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	repo := newsletter.NewNewsletterTypesRepository(db)

	record, err := repo.Create(ctx, &newsletter.NewsletterType{
		UserID: uuid.New(),
		Name:   "Weekly Digest",
	})
	require.NoError(t, err)
	oldKey := record.APIKey

	rotated, err := repo.RegenerateKey(ctx, record.ID)
	require.NoError(t, err)

	assert.NotEqual(t, oldKey, rotated.APIKey)
	assert.True(t, strings.HasPrefix(rotated.APIKey, "nlt_"))

	t.Run("the old key is dead immediately", func(t *testing.T) {
		_, err := repo.ResolveAPIKey(ctx, oldKey)
		assert.Error(t, err)
	})

	t.Run("the new key resolves", func(t *testing.T) {
		got, err := repo.ResolveAPIKey(ctx, rotated.APIKey)
		require.NoError(t, err)
		assert.Equal(t, record.ID, got.ID)
	})
}

func TestEmailSettingsSave(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	repo := newsletter.NewEmailSettingsRepository(db)

	userID := uuid.New()

	created, err := repo.Save(ctx, &newsletter.EmailSetting{
		UserID:      userID,
		SMTPHost:    "smtp.example.com",
		SMTPPort:    587,
		FromAddress: "news@example.com",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)

	t.Run("a second save updates in place", func(t *testing.T) {
		updated, err := repo.Save(ctx, &newsletter.EmailSetting{
			UserID:      userID,
			SMTPHost:    "smtp2.example.com",
			SMTPPort:    465,
			FromAddress: "news@example.com",
		})
		require.NoError(t, err)

		assert.Equal(t, created.ID, updated.ID)

		current, err := repo.GetByUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, "smtp2.example.com", current.SMTPHost)
	})
}
