package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/portfolio/internal/domain"
)

func TestServiceRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := setupTestDB(t)

	web := &domain.Service{Title: "Web Development", Features: []string{"APIs"}, PriceFrom: 150000, Active: true, SortOrder: 1}
	old := &domain.Service{Title: "Legacy Support", Active: false, SortOrder: 2}
	require.NoError(t, repo.CreateService(ctx, web))
	require.NoError(t, repo.CreateService(ctx, old))
	assert.Equal(t, "web-development", web.Slug)

	t.Run("should list only active services", func(t *testing.T) {
		got, err := repo.ListServices(ctx, true)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, web.ID, got[0].ID)
		assert.Equal(t, []string{"APIs"}, got[0].Features)
		assert.Equal(t, int64(150000), got[0].PriceFrom)
	})

	t.Run("should list all services", func(t *testing.T) {
		got, err := repo.ListServices(ctx, false)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("should update a service", func(t *testing.T) {
		old.Active = true
		old.Description = "Back in business"
		require.NoError(t, repo.UpdateService(ctx, old))

		got, err := repo.GetService(ctx, old.ID)
		require.NoError(t, err)
		assert.True(t, got.Active)
		assert.Equal(t, "Back in business", got.Description)
	})

	t.Run("should delete a service", func(t *testing.T) {
		require.NoError(t, repo.DeleteService(ctx, old.ID))
		_, err := repo.GetService(ctx, old.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestServiceRepo_DeleteKeepsInquiries(t *testing.T) {
	ctx := context.Background()
	repo := setupTestDB(t)

	svc := &domain.Service{Title: "Audit", Active: true}
	require.NoError(t, repo.CreateService(ctx, svc))

	in := &domain.Inquiry{Name: "Ada", Email: "ada@example.com", Message: "Hello", ServiceID: &svc.ID}
	require.NoError(t, repo.CreateInquiry(ctx, in))

	require.NoError(t, repo.DeleteService(ctx, svc.ID))

	got, err := repo.GetInquiry(ctx, in.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ServiceID)
	assert.Equal(t, "Hello", got.Message)
}
