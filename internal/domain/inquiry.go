package domain

import (
	"context"
	"time"
)

// InquiryStatus tracks how far an inquiry has been handled.
type InquiryStatus string

const (
	InquiryNew      InquiryStatus = "new"
	InquiryRead     InquiryStatus = "read"
	InquiryReplied  InquiryStatus = "replied"
	InquiryArchived InquiryStatus = "archived"
)

// Valid reports whether s is a known status.
func (s InquiryStatus) Valid() bool {
	switch s {
	case InquiryNew, InquiryRead, InquiryReplied, InquiryArchived:
		return true
	}
	return false
}

// InquiryRepository stores contact-form submissions.
type InquiryRepository interface {
	CreateInquiry(ctx context.Context, in *Inquiry) error
	// ListInquiries returns inquiries newest first. An empty status matches all.
	ListInquiries(ctx context.Context, filter InquiryFilter) ([]*Inquiry, error)
	GetInquiry(ctx context.Context, id string) (*Inquiry, error)
	UpdateInquiryStatus(ctx context.Context, id string, status InquiryStatus) error
	DeleteInquiry(ctx context.Context, id string) error
	CountInquiriesByStatus(ctx context.Context) (map[InquiryStatus]int, error)
}

// InquiryFilter narrows ListInquiries.
type InquiryFilter struct {
	Status InquiryStatus
	Limit  int
	Offset int
}

// Inquiry is a contact-form submission, optionally tied to a Service.
type Inquiry struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Company      string        `json:"company,omitempty"`
	Subject      string        `json:"subject,omitempty"`
	Message      string        `json:"message"`
	Budget       string        `json:"budget,omitempty"`
	ServiceID    *string       `json:"service_id,omitempty"`
	ServiceTitle string        `json:"service_title,omitempty"`
	Status       InquiryStatus `json:"status"`
	Fingerprint  string        `json:"fingerprint,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
