package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Zachkp/portfolio/internal/domain"
)

// dbInquiry represents an inquiry joined with the title of its service.
type dbInquiry struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	Company      string         `db:"company"`
	Subject      string         `db:"subject"`
	Message      string         `db:"message"`
	Budget       string         `db:"budget"`
	ServiceID    sql.NullString `db:"service_id"`
	ServiceTitle sql.NullString `db:"service_title"`
	Status       string         `db:"status"`
	Fingerprint  string         `db:"fingerprint"`
	CreatedAt    int64          `db:"created_at"`
	UpdatedAt    int64          `db:"updated_at"`
}

func toDomainInquiry(in *dbInquiry) *domain.Inquiry {
	out := &domain.Inquiry{
		ID:           in.ID,
		Name:         in.Name,
		Email:        in.Email,
		Company:      in.Company,
		Subject:      in.Subject,
		Message:      in.Message,
		Budget:       in.Budget,
		ServiceTitle: in.ServiceTitle.String,
		Status:       domain.InquiryStatus(in.Status),
		Fingerprint:  in.Fingerprint,
		CreatedAt:    fromMillis(in.CreatedAt),
		UpdatedAt:    fromMillis(in.UpdatedAt),
	}
	if in.ServiceID.Valid {
		id := in.ServiceID.String
		out.ServiceID = &id
	}
	return out
}

const inquirySelect = `SELECT i.id, i.name, i.email, i.company, i.subject, i.message, i.budget,
	i.service_id, s.title AS service_title, i.status, i.fingerprint, i.created_at, i.updated_at
	FROM inquiries i LEFT JOIN services s ON s.id = i.service_id`

// CreateInquiry stores a new contact-form submission with status "new".
func (repo *Repository) CreateInquiry(ctx context.Context, in *domain.Inquiry) error {
	id, err := newID()
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Millisecond)

	var serviceID sql.NullString
	if in.ServiceID != nil && *in.ServiceID != "" {
		serviceID = sql.NullString{String: *in.ServiceID, Valid: true}
	}

	_, err = repo.db.ExecContext(ctx, `
		INSERT INTO inquiries (id, name, email, company, subject, message, budget, service_id, status,
			fingerprint, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, in.Name, in.Email, in.Company, in.Subject, in.Message, in.Budget, serviceID,
		string(domain.InquiryNew), in.Fingerprint, toMillis(now), toMillis(now))
	if err != nil {
		return fmt.Errorf("creating inquiry from %s: %w", in.Email, err)
	}

	in.ID, in.Status, in.CreatedAt, in.UpdatedAt = id, domain.InquiryNew, now, now
	return nil
}

// ListInquiries retrieves inquiries newest first.
func (repo *Repository) ListInquiries(ctx context.Context, filter domain.InquiryFilter) ([]*domain.Inquiry, error) {
	query := inquirySelect
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE i.status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY i.created_at DESC, i.id DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, max(filter.Offset, 0))

	var rows []*dbInquiry
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("listing inquiries: %w", err)
	}
	out := make([]*domain.Inquiry, len(rows))
	for i, row := range rows {
		out[i] = toDomainInquiry(row)
	}
	return out, nil
}

// GetInquiry retrieves a single inquiry.
func (repo *Repository) GetInquiry(ctx context.Context, id string) (*domain.Inquiry, error) {
	var row dbInquiry
	err := repo.db.GetContext(ctx, &row, inquirySelect+` WHERE i.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("inquiry %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting inquiry %s: %w", id, err)
	}
	return toDomainInquiry(&row), nil
}

// UpdateInquiryStatus moves an inquiry to a new status.
func (repo *Repository) UpdateInquiryStatus(ctx context.Context, id string, status domain.InquiryStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid inquiry status %q", status)
	}
	res, err := repo.db.ExecContext(ctx, `UPDATE inquiries SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), toMillis(time.Now()), id)
	if err != nil {
		return fmt.Errorf("updating inquiry %s: %w", id, err)
	}
	return checkAffected(res, "inquiry", id)
}

// DeleteInquiry removes an inquiry.
func (repo *Repository) DeleteInquiry(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM inquiries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting inquiry %s: %w", id, err)
	}
	return checkAffected(res, "inquiry", id)
}

// CountInquiriesByStatus returns the number of inquiries per status. Every
// known status is present in the result, with zero when unused.
func (repo *Repository) CountInquiriesByStatus(ctx context.Context) (map[domain.InquiryStatus]int, error) {
	var rows []domain.Count
	err := repo.db.SelectContext(ctx, &rows, `SELECT status AS "key", COUNT(*) AS "count" FROM inquiries GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting inquiries: %w", err)
	}
	out := map[domain.InquiryStatus]int{
		domain.InquiryNew:      0,
		domain.InquiryRead:     0,
		domain.InquiryReplied:  0,
		domain.InquiryArchived: 0,
	}
	for _, r := range rows {
		out[domain.InquiryStatus(r.Key)] = r.Count
	}
	return out, nil
}
