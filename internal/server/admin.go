package server

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/domain"
)

type projectRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Slug        string   `json:"slug" binding:"max=200"`
	Summary     string   `json:"summary" binding:"max=500"`
	Description string   `json:"description" binding:"max=20000"`
	TechStack   []string `json:"tech_stack" binding:"max=30,dive,max=50"`
	RepoURL     string   `json:"repo_url" binding:"omitempty,url"`
	LiveURL     string   `json:"live_url" binding:"omitempty,url"`
	ImageURL    string   `json:"image_url" binding:"omitempty,max=2048"`
	Featured    bool     `json:"featured"`
	Published   bool     `json:"published"`
	SortOrder   int      `json:"sort_order"`
}

func (r *projectRequest) apply(p *domain.Project) {
	p.Title = r.Title
	p.Slug = r.Slug
	p.Summary = r.Summary
	p.Description = r.Description
	p.TechStack = r.TechStack
	p.RepoURL = r.RepoURL
	p.LiveURL = r.LiveURL
	p.ImageURL = r.ImageURL
	p.Featured = r.Featured
	p.Published = r.Published
	p.SortOrder = r.SortOrder
}

func (s *Server) handleAdminListProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context(), false)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (s *Server) handleAdminGetProject(c *gin.Context) {
	p, err := s.store.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleAdminCreateProject(c *gin.Context) {
	var req projectRequest
	if !bindJSON(c, &req) {
		return
	}
	p := &domain.Project{}
	req.apply(p)
	if err := s.store.CreateProject(c.Request.Context(), p); err != nil {
		s.respondError(c, err)
		return
	}
	s.log.Info().Str("project", p.ID).Str("slug", p.Slug).Msg("Project created")
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleAdminUpdateProject(c *gin.Context) {
	var req projectRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	p, err := s.store.GetProject(ctx, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	req.apply(p)
	if err := s.store.UpdateProject(ctx, p); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleAdminDeleteProject(c *gin.Context) {
	if err := s.store.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type serviceRequest struct {
	Title       string   `json:"title" binding:"required,max=200"`
	Slug        string   `json:"slug" binding:"max=200"`
	Description string   `json:"description" binding:"max=5000"`
	Features    []string `json:"features" binding:"max=30,dive,max=200"`
	PriceFrom   int64    `json:"price_from" binding:"gte=0"`
	Active      bool     `json:"active"`
	SortOrder   int      `json:"sort_order"`
}

func (r *serviceRequest) apply(svc *domain.Service) {
	svc.Title = r.Title
	svc.Slug = r.Slug
	svc.Description = r.Description
	svc.Features = r.Features
	svc.PriceFrom = r.PriceFrom
	svc.Active = r.Active
	svc.SortOrder = r.SortOrder
}

func (s *Server) handleAdminListServices(c *gin.Context) {
	services, err := s.store.ListServices(c.Request.Context(), false)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

func (s *Server) handleAdminGetService(c *gin.Context) {
	svc, err := s.store.GetService(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (s *Server) handleAdminCreateService(c *gin.Context) {
	var req serviceRequest
	if !bindJSON(c, &req) {
		return
	}
	svc := &domain.Service{}
	req.apply(svc)
	if err := s.store.CreateService(c.Request.Context(), svc); err != nil {
		s.respondError(c, err)
		return
	}
	s.log.Info().Str("service", svc.ID).Str("slug", svc.Slug).Msg("Service created")
	c.JSON(http.StatusCreated, svc)
}

func (s *Server) handleAdminUpdateService(c *gin.Context) {
	var req serviceRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	svc, err := s.store.GetService(ctx, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	req.apply(svc)
	if err := s.store.UpdateService(ctx, svc); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, svc)
}

func (s *Server) handleAdminDeleteService(c *gin.Context) {
	if err := s.store.DeleteService(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAdminListInquiries(c *gin.Context) {
	filter := domain.InquiryFilter{
		Status: domain.InquiryStatus(c.Query("status")),
		Limit:  queryInt(c, "limit", 50, 200),
		Offset: queryInt(c, "offset", 0, 1<<20),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	inquiries, err := s.store.ListInquiries(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"inquiries": inquiries,
		"limit":     filter.Limit,
		"offset":    filter.Offset,
	})
}

func (s *Server) handleAdminInquiryCounts(c *gin.Context) {
	counts, err := s.store.CountInquiriesByStatus(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

func (s *Server) handleAdminGetInquiry(c *gin.Context) {
	in, err := s.store.GetInquiry(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}

type inquiryStatusRequest struct {
	Status domain.InquiryStatus `json:"status" binding:"required,oneof=new read replied archived"`
}

func (s *Server) handleAdminUpdateInquiryStatus(c *gin.Context) {
	var req inquiryStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	if err := s.store.UpdateInquiryStatus(ctx, id, req.Status); err != nil {
		s.respondError(c, err)
		return
	}
	in, err := s.store.GetInquiry(ctx, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, in)
}

func (s *Server) handleAdminDeleteInquiry(c *gin.Context) {
	if err := s.store.DeleteInquiry(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type profileRequest struct {
	Platform    string `json:"platform" binding:"required"`
	Username    string `json:"username" binding:"required,max=100"`
	ProfileURL  string `json:"profile_url" binding:"omitempty,url"`
	DisplayName string `json:"display_name" binding:"max=200"`
	Active      bool   `json:"active"`
}

func (s *Server) bindProfile(c *gin.Context) (*profileRequest, bool) {
	var req profileRequest
	if !bindJSON(c, &req) {
		return nil, false
	}
	if !slices.Contains(domain.Platforms, req.Platform) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{"platform": "unsupported platform"}})
		return nil, false
	}
	return &req, true
}

func (r *profileRequest) apply(p *domain.BountyProfile) {
	p.Platform = r.Platform
	p.Username = r.Username
	p.ProfileURL = r.ProfileURL
	p.DisplayName = r.DisplayName
	p.Active = r.Active
}

func (s *Server) handleAdminListProfiles(c *gin.Context) {
	profiles, err := s.store.ListProfiles(c.Request.Context(), false)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

func (s *Server) handleAdminGetProfile(c *gin.Context) {
	p, err := s.store.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleAdminCreateProfile(c *gin.Context) {
	req, ok := s.bindProfile(c)
	if !ok {
		return
	}
	p := &domain.BountyProfile{}
	req.apply(p)
	if err := s.store.CreateProfile(c.Request.Context(), p); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleAdminUpdateProfile(c *gin.Context) {
	req, ok := s.bindProfile(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	p, err := s.store.GetProfile(ctx, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	req.apply(p)
	if err := s.store.UpdateProfile(ctx, p); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleAdminDeleteProfile(c *gin.Context) {
	if err := s.store.DeleteProfile(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
