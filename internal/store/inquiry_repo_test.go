package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/portfolio/internal/domain"
)

func TestInquiryRepo_CreateInquiry(t *testing.T) {
	ctx := context.Background()

	t.Run("should store an inquiry with its service", func(t *testing.T) {
		repo := setupTestDB(t)
		svc := &domain.Service{Title: "Security Review", Active: true}
		require.NoError(t, repo.CreateService(ctx, svc))

		in := &domain.Inquiry{
			Name:      "Grace",
			Email:     "grace@example.com",
			Company:   "Navy",
			Message:   "Can you review our app?",
			Budget:    "5k",
			ServiceID: &svc.ID,
		}
		require.NoError(t, repo.CreateInquiry(ctx, in))
		assert.Equal(t, domain.InquiryNew, in.Status)

		got, err := repo.GetInquiry(ctx, in.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ServiceID)
		assert.Equal(t, svc.ID, *got.ServiceID)
		assert.Equal(t, "Security Review", got.ServiceTitle)
		assert.Equal(t, "Navy", got.Company)
	})

	t.Run("should store an inquiry without a service", func(t *testing.T) {
		repo := setupTestDB(t)
		in := &domain.Inquiry{Name: "Linus", Email: "linus@example.com", Message: "Hi"}
		require.NoError(t, repo.CreateInquiry(ctx, in))

		got, err := repo.GetInquiry(ctx, in.ID)
		require.NoError(t, err)
		assert.Nil(t, got.ServiceID)
		assert.Empty(t, got.ServiceTitle)
	})

	t.Run("should reject an unknown service", func(t *testing.T) {
		repo := setupTestDB(t)
		missing := "no-such-service"
		err := repo.CreateInquiry(ctx, &domain.Inquiry{Name: "x", Email: "x@example.com", Message: "x", ServiceID: &missing})
		assert.Error(t, err)
	})
}

func TestInquiryRepo_ListAndStatus(t *testing.T) {
	ctx := context.Background()
	repo := setupTestDB(t)

	ids := make([]string, 5)
	for i := range ids {
		in := &domain.Inquiry{Name: fmt.Sprintf("Person %d", i), Email: "p@example.com", Message: "m"}
		require.NoError(t, repo.CreateInquiry(ctx, in))
		ids[i] = in.ID
	}
	require.NoError(t, repo.UpdateInquiryStatus(ctx, ids[0], domain.InquiryReplied))
	require.NoError(t, repo.UpdateInquiryStatus(ctx, ids[1], domain.InquiryArchived))

	t.Run("should list newest first", func(t *testing.T) {
		got, err := repo.ListInquiries(ctx, domain.InquiryFilter{})
		require.NoError(t, err)
		require.Len(t, got, 5)
		assert.Equal(t, ids[4], got[0].ID)
		assert.Equal(t, ids[0], got[4].ID)
	})

	t.Run("should filter by status", func(t *testing.T) {
		got, err := repo.ListInquiries(ctx, domain.InquiryFilter{Status: domain.InquiryNew})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("should paginate", func(t *testing.T) {
		got, err := repo.ListInquiries(ctx, domain.InquiryFilter{Limit: 2, Offset: 2})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, ids[2], got[0].ID)
	})

	t.Run("should count by status", func(t *testing.T) {
		got, err := repo.CountInquiriesByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, got[domain.InquiryNew])
		assert.Equal(t, 1, got[domain.InquiryReplied])
		assert.Equal(t, 1, got[domain.InquiryArchived])
		assert.Equal(t, 0, got[domain.InquiryRead])
	})

	t.Run("should reject unknown statuses", func(t *testing.T) {
		err := repo.UpdateInquiryStatus(ctx, ids[2], domain.InquiryStatus("spam"))
		assert.Error(t, err)
	})

	t.Run("should delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteInquiry(ctx, ids[3]))
		_, err := repo.GetInquiry(ctx, ids[3])
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, repo.UpdateInquiryStatus(ctx, ids[3], domain.InquiryRead), domain.ErrNotFound)
	})
}
