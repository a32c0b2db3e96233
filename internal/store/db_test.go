package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/portfolio/internal/content"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	dbConn, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "store.Open() failed")

	repo := NewRepository(dbConn)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestOpen_AppliesMigrations(t *testing.T) {
	repo := setupTestDB(t)

	for _, table := range []string{"projects", "services", "inquiries", "visitor_sessions", "page_views", "bounty_profiles", "bounty_sync_runs"} {
		var n int
		err := repo.DB().Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
		require.NoError(t, err)
		assert.Equal(t, 1, n, "table %s should exist", table)
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()

	t.Run("should fill empty tables", func(t *testing.T) {
		repo := setupTestDB(t)
		require.NoError(t, repo.Seed(ctx, zerolog.Nop()))

		projects, err := repo.ListProjects(ctx, false)
		require.NoError(t, err)
		assert.Len(t, projects, len(content.Projects()))

		services, err := repo.ListServices(ctx, false)
		require.NoError(t, err)
		assert.Len(t, services, len(content.Services()))

		profiles, err := repo.ListProfiles(ctx, false)
		require.NoError(t, err)
		assert.Len(t, profiles, len(content.BountyProfiles()))
	})

	t.Run("should be idempotent", func(t *testing.T) {
		repo := setupTestDB(t)
		require.NoError(t, repo.Seed(ctx, zerolog.Nop()))
		require.NoError(t, repo.Seed(ctx, zerolog.Nop()))

		projects, err := repo.ListProjects(ctx, false)
		require.NoError(t, err)
		assert.Len(t, projects, len(content.Projects()))
	})
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Terminal Mail":        "terminal-mail",
		"  CLI & Tooling!  ":   "cli-tooling",
		"Go/Gin + HTMX (2025)": "go-gin-htmx-2025",
		"???":                  "item",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestStringList(t *testing.T) {
	var l StringList
	require.NoError(t, l.Scan(`["a","b"]`))
	assert.Equal(t, StringList{"a", "b"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Equal(t, StringList{}, l)

	assert.Error(t, l.Scan(42))

	v, err := StringList(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}
