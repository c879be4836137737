package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"planora-ticketing/internal/models"
)

func TestTemplateService_PutAndGet(t *testing.T) {
	storage := newMemStorage()
	svc := NewTemplateService(storage, testLogger())
	ctx := context.Background()

	tpl, err := svc.Put(ctx, "akcomsoc-2025", []byte(`{"brandPrimary":"#112233","headerTitle":"VIP PASS"}`))
	require.NoError(t, err)
	assert.Equal(t, "#112233", tpl.BrandPrimary)
	assert.Contains(t, storage.objects, "templates/akcomsoc-2025.json")

	got := svc.Get(ctx, "akcomsoc-2025")
	assert.Equal(t, "#112233", got.BrandPrimary)
	assert.Equal(t, "VIP PASS", got.HeaderTitle)
	assert.Equal(t, models.DefaultBrandAccent, got.BrandAccent)

	raw, err := svc.Raw(ctx, "akcomsoc-2025")
	require.NoError(t, err)
	assert.Empty(t, raw.BrandAccent)
}

func TestTemplateService_PutRejectsBadInput(t *testing.T) {
	svc := NewTemplateService(newMemStorage(), testLogger())

	_, err := svc.Put(context.Background(), "e1", []byte(`not json`))
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.Put(context.Background(), "e1", []byte(`{"brandAccent":"pink"}`))
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "brandAccent")
}

func TestTemplateService_GetFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		svc := NewTemplateService(newMemStorage(), testLogger())
		assert.Equal(t, models.DefaultTemplate(), svc.Get(ctx, "unknown"))

		_, err := svc.Raw(ctx, "unknown")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("no event", func(t *testing.T) {
		svc := NewTemplateService(new(MockStorageService), testLogger())
		assert.Equal(t, models.DefaultTemplate(), svc.Get(ctx, ""))
	})

	t.Run("storage error", func(t *testing.T) {
		storage := new(MockStorageService)
		storage.On("Download", mock.Anything, "templates/e1.json").Return(nil, errors.New("timeout"))
		svc := NewTemplateService(storage, testLogger())

		assert.Equal(t, models.DefaultTemplate(), svc.Get(ctx, "e1"))
		storage.AssertExpectations(t)
	})

	t.Run("malformed", func(t *testing.T) {
		storage := newMemStorage()
		storage.objects["templates/e1.json"] = []byte("{")
		svc := NewTemplateService(storage, testLogger())

		assert.Equal(t, models.DefaultTemplate(), svc.Get(ctx, "e1"))
	})
}
