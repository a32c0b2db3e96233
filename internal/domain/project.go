package domain

import (
	"context"
	"time"
)

// ProjectRepository manages the portfolio projects shown on the projects page.
type ProjectRepository interface {
	// ListProjects returns projects ordered by sort order then creation time.
	// When publishedOnly is set, drafts are left out.
	ListProjects(ctx context.Context, publishedOnly bool) ([]*Project, error)
	GetProject(ctx context.Context, id string) (*Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (*Project, error)
	// CreateProject assigns the ID, slug and timestamps of p.
	CreateProject(ctx context.Context, p *Project) error
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, id string) error
}

// Project is a piece of work featured in the portfolio.
type Project struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	TechStack   []string  `json:"tech_stack"`
	RepoURL     string    `json:"repo_url,omitempty"`
	LiveURL     string    `json:"live_url,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Featured    bool      `json:"featured"`
	Published   bool      `json:"published"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
