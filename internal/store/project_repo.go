package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zachkp/portfolio/internal/domain"
)

// dbProject represents a project as stored in the database.
type dbProject struct {
	ID          string     `db:"id"`
	Slug        string     `db:"slug"`
	Title       string     `db:"title"`
	Summary     string     `db:"summary"`
	Description string     `db:"description"`
	TechStack   StringList `db:"tech_stack"`
	RepoURL     string     `db:"repo_url"`
	LiveURL     string     `db:"live_url"`
	ImageURL    string     `db:"image_url"`
	Featured    bool       `db:"featured"`
	Published   bool       `db:"published"`
	SortOrder   int        `db:"sort_order"`
	CreatedAt   int64      `db:"created_at"`
	UpdatedAt   int64      `db:"updated_at"`
}

func toDomainProject(p *dbProject) *domain.Project {
	return &domain.Project{
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       p.Title,
		Summary:     p.Summary,
		Description: p.Description,
		TechStack:   []string(p.TechStack),
		RepoURL:     p.RepoURL,
		LiveURL:     p.LiveURL,
		ImageURL:    p.ImageURL,
		Featured:    p.Featured,
		Published:   p.Published,
		SortOrder:   p.SortOrder,
		CreatedAt:   fromMillis(p.CreatedAt),
		UpdatedAt:   fromMillis(p.UpdatedAt),
	}
}

const projectColumns = `id, slug, title, summary, description, tech_stack, repo_url, live_url,
	image_url, featured, published, sort_order, created_at, updated_at`

// ListProjects retrieves projects ordered for display.
func (repo *Repository) ListProjects(ctx context.Context, publishedOnly bool) ([]*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	if publishedOnly {
		query += ` WHERE published = 1`
	}
	query += ` ORDER BY sort_order, created_at`

	var rows []*dbProject
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	projects := make([]*domain.Project, len(rows))
	for i, row := range rows {
		projects[i] = toDomainProject(row)
	}
	return projects, nil
}

// GetProject retrieves a project by ID.
func (repo *Repository) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	return repo.getProject(ctx, `id`, id)
}

// GetProjectBySlug retrieves a project by its URL slug.
func (repo *Repository) GetProjectBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	return repo.getProject(ctx, `slug`, slug)
}

func (repo *Repository) getProject(ctx context.Context, column, value string) (*domain.Project, error) {
	var row dbProject
	err := repo.db.GetContext(ctx, &row, `SELECT `+projectColumns+` FROM projects WHERE `+column+` = ?`, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", value, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting project %s: %w", value, err)
	}
	return toDomainProject(&row), nil
}

// CreateProject inserts p, deriving a unique slug from the title when p.Slug is empty.
func (repo *Repository) CreateProject(ctx context.Context, p *domain.Project) error {
	id, err := newID()
	if err != nil {
		return err
	}
	slug, err := repo.uniqueSlug(ctx, "projects", p.Slug, p.Title, "")
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO projects (id, slug, title, summary, description, tech_stack, repo_url, live_url,
			image_url, featured, published, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, slug, p.Title, p.Summary, p.Description, StringList(p.TechStack), p.RepoURL, p.LiveURL,
		p.ImageURL, p.Featured, p.Published, p.SortOrder, toMillis(now), toMillis(now))
	if isUniqueViolation(err) {
		return fmt.Errorf("project slug %q: %w", slug, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("creating project %s: %w", p.Title, err)
	}

	p.ID, p.Slug, p.CreatedAt, p.UpdatedAt = id, slug, now, now
	if p.TechStack == nil {
		p.TechStack = []string{}
	}
	return nil
}

// UpdateProject overwrites the editable fields of an existing project.
func (repo *Repository) UpdateProject(ctx context.Context, p *domain.Project) error {
	slug, err := repo.uniqueSlug(ctx, "projects", p.Slug, p.Title, p.ID)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := repo.db.ExecContext(ctx, `
		UPDATE projects SET slug = ?, title = ?, summary = ?, description = ?, tech_stack = ?,
			repo_url = ?, live_url = ?, image_url = ?, featured = ?, published = ?, sort_order = ?,
			updated_at = ?
		WHERE id = ?`,
		slug, p.Title, p.Summary, p.Description, StringList(p.TechStack), p.RepoURL, p.LiveURL,
		p.ImageURL, p.Featured, p.Published, p.SortOrder, toMillis(now), p.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("project slug %q: %w", slug, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("updating project %s: %w", p.ID, err)
	}
	if err := checkAffected(res, "project", p.ID); err != nil {
		return err
	}
	p.Slug, p.UpdatedAt = slug, now
	return nil
}

// DeleteProject removes a project.
func (repo *Repository) DeleteProject(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	return checkAffected(res, "project", id)
}

// uniqueSlug returns want when given, otherwise a slug of title with a numeric
// suffix appended until no other row of table uses it.
func (repo *Repository) uniqueSlug(ctx context.Context, table, want, title, excludeID string) (string, error) {
	if want != "" {
		return Slugify(want), nil
	}
	base := Slugify(title)
	slug := base
	for i := 2; ; i++ {
		var taken int
		err := repo.db.GetContext(ctx, &taken,
			`SELECT COUNT(*) FROM `+table+` WHERE slug = ? AND id != ?`, slug, excludeID)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", slug, err)
		}
		if taken == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
