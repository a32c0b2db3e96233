package domain

import (
	"context"
	"time"
)

// ServiceRepository manages the offered services an inquiry can refer to.
type ServiceRepository interface {
	ListServices(ctx context.Context, activeOnly bool) ([]*Service, error)
	GetService(ctx context.Context, id string) (*Service, error)
	CreateService(ctx context.Context, s *Service) error
	UpdateService(ctx context.Context, s *Service) error
	DeleteService(ctx context.Context, id string) error
}

// Service is something the portfolio owner offers for hire.
type Service struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Features    []string  `json:"features"`
	PriceFrom   int64     `json:"price_from"` // in cents, 0 means "on request"
	Active      bool      `json:"active"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
