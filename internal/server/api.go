package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/analytics"
	"github.com/Zachkp/portfolio/internal/bounty"
	"github.com/Zachkp/portfolio/internal/domain"
	"github.com/Zachkp/portfolio/internal/mail"
	"github.com/Zachkp/portfolio/internal/metrics"
)

const mailTimeout = 30 * time.Second

func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context(), true)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (s *Server) handleGetProject(c *gin.Context) {
	p, err := s.store.GetProjectBySlug(c.Request.Context(), c.Param("slug"))
	if err == nil && !p.Published {
		err = domain.ErrNotFound
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleListServices(c *gin.Context) {
	services, err := s.store.ListServices(c.Request.Context(), true)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// inquiryRequest is bound from both the JSON API and the HTML form, whose
// name field is called fullName.
type inquiryRequest struct {
	Name      string `json:"name" form:"fullName" binding:"required,max=200"`
	Email     string `json:"email" form:"email" binding:"required,email,max=320"`
	Company   string `json:"company" form:"company" binding:"max=200"`
	Subject   string `json:"subject" form:"subject" binding:"max=200"`
	Message   string `json:"message" form:"message" binding:"required,max=5000"`
	Budget    string `json:"budget" form:"budget" binding:"max=100"`
	ServiceID string `json:"service_id" form:"service_id" binding:"omitempty,uuid"`
}

func (s *Server) handleCreateInquiry(c *gin.Context) {
	var req inquiryRequest
	if !bindJSON(c, &req) {
		return
	}
	in, err := s.submitInquiry(c, &req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": in.ID, "status": in.Status})
}

// submitInquiry stores the inquiry and forwards it by email in the background.
// A failed email never fails the submission.
func (s *Server) submitInquiry(c *gin.Context, req *inquiryRequest) (*domain.Inquiry, error) {
	ctx := c.Request.Context()

	in := &domain.Inquiry{
		Name:        strings.TrimSpace(req.Name),
		Email:       strings.TrimSpace(req.Email),
		Company:     strings.TrimSpace(req.Company),
		Subject:     strings.TrimSpace(req.Subject),
		Message:     strings.TrimSpace(req.Message),
		Budget:      strings.TrimSpace(req.Budget),
		Fingerprint: analytics.Fingerprint(s.cfg.HashSalt, c.ClientIP(), c.Request.UserAgent()),
	}
	if in.Name == "" {
		return nil, &fieldError{Field: "name", Message: "is required"}
	}
	if in.Message == "" {
		return nil, &fieldError{Field: "message", Message: "is required"}
	}

	if req.ServiceID != "" {
		svc, err := s.store.GetService(ctx, req.ServiceID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && !svc.Active) {
			return nil, &fieldError{Field: "service_id", Message: "unknown service"}
		}
		if err != nil {
			return nil, err
		}
		in.ServiceID = &svc.ID
		in.ServiceTitle = svc.Title
	}

	if err := s.store.CreateInquiry(ctx, in); err != nil {
		return nil, err
	}
	metrics.Inquiries.Inc()
	s.log.Info().Str("inquiry", in.ID).Str("service", in.ServiceTitle).Msg("Inquiry received")

	msg := mail.Message{
		Name:    in.Name,
		Email:   in.Email,
		Company: in.Company,
		Service: in.ServiceTitle,
		Budget:  in.Budget,
		Body:    in.Message,
	}
	s.mailWG.Add(1)
	go func() {
		defer s.mailWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()
		if err := s.mailer.Send(ctx, msg); err != nil {
			s.log.Warn().Err(err).Str("inquiry", in.ID).Msg("Sending contact email failed")
		}
	}()
	return in, nil
}

type trackRequest struct {
	Path     string `json:"path" binding:"required,max=2048"`
	Title    string `json:"title" binding:"max=300"`
	Referrer string `json:"referrer" binding:"max=2048"`
	URL      string `json:"url" binding:"max=4096"`
}

// handleTrack is the beacon for pages rendered on the client. Requests that
// are not counted (bots, DNT, excluded paths) are accepted all the same.
func (s *Server) handleTrack(c *gin.Context) {
	var req trackRequest
	if !bindJSON(c, &req) {
		return
	}

	hit := analytics.RequestFromHTTP(c.Request, c.ClientIP(), req.Title)
	hit.Path = req.Path
	hit.Referrer = req.Referrer
	hit.LandingURL = req.URL
	if hit.LandingURL == "" {
		hit.LandingURL = req.Path
	}

	if _, err := s.tracker.Track(c.Request.Context(), hit); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleBounty(c *gin.Context) {
	profiles, err := s.store.ListProfiles(c.Request.Context(), true)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profiles": profiles,
		"summary":  bounty.Summarize(profiles),
	})
}
