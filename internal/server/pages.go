package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/analytics"
	"github.com/Zachkp/portfolio/internal/content"
	"github.com/Zachkp/portfolio/internal/domain"
)

var templateFuncs = template.FuncMap{
	"price": formatPrice,
	"join":  strings.Join,
	"year":  func() int { return time.Now().Year() },

	"percent":  func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"seconds":  formatSeconds,
	"datetime": func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04 UTC") },
}

// formatSeconds renders a duration in seconds as "3m 20s".
func formatSeconds(secs float64) string {
	d := time.Duration(secs * float64(time.Second)).Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

// formatPrice renders cents as whole dollars with thousand separators.
func formatPrice(cents int64) string {
	if cents <= 0 {
		return "On request"
	}
	s := fmt.Sprintf("%d", cents/100)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return "$" + s
}

// render writes a full page and names it for the page-view tracker.
func (s *Server) render(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	data["path"] = c.Request.URL.Path
	c.Set(analytics.TitleKey, title)
	c.HTML(status, name, data)
}

func (s *Server) pageError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		s.notFound(c)
		return
	}
	s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Rendering page failed")
	s.render(c, http.StatusInternalServerError, "error.html", "Something went wrong", nil)
}

func (s *Server) notFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	s.render(c, http.StatusNotFound, "404.html", "Page not found", nil)
}

func (s *Server) handleHome(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context(), true)
	if err != nil {
		s.pageError(c, err)
		return
	}
	featured := make([]*domain.Project, 0, len(projects))
	for _, p := range projects {
		if p.Featured {
			featured = append(featured, p)
		}
	}

	s.render(c, http.StatusOK, "home.html", "Home", gin.H{
		"headline": content.Headline,
		"about":    content.AboutMe,
		"projects": featured,
	})
}

func (s *Server) handleAbout(c *gin.Context) {
	s.render(c, http.StatusOK, "about.html", "About", gin.H{
		"about":      content.AboutMe,
		"experience": content.Experience(),
		"education":  content.Education(),
	})
}

func (s *Server) handleProjects(c *gin.Context) {
	projects, err := s.store.ListProjects(c.Request.Context(), true)
	if err != nil {
		s.pageError(c, err)
		return
	}
	s.render(c, http.StatusOK, "projects.html", "Projects", gin.H{"projects": projects})
}

func (s *Server) handleProject(c *gin.Context) {
	p, err := s.store.GetProjectBySlug(c.Request.Context(), c.Param("slug"))
	if err == nil && !p.Published {
		err = domain.ErrNotFound
	}
	if err != nil {
		s.pageError(c, err)
		return
	}
	s.render(c, http.StatusOK, "project.html", p.Title, gin.H{"project": p})
}

func (s *Server) handleServices(c *gin.Context) {
	services, err := s.store.ListServices(c.Request.Context(), true)
	if err != nil {
		s.pageError(c, err)
		return
	}
	s.render(c, http.StatusOK, "services.html", "Services", gin.H{"services": services})
}

func (s *Server) handleContact(c *gin.Context) {
	services, err := s.store.ListServices(c.Request.Context(), true)
	if err != nil {
		s.pageError(c, err)
		return
	}
	s.render(c, http.StatusOK, "contact.html", "Contact", gin.H{
		"services": services,
		"selected": c.Query("service"),
	})
}

func (s *Server) handlePrivacy(c *gin.Context) {
	s.render(c, http.StatusOK, "privacy.html", "Privacy Policy", gin.H{
		"notice":          content.PrivacyNotice,
		"retentionMonths": s.cfg.RetentionMonths,
	})
}

// handleContactSubmit handles the HTML form and answers with a fragment
// that replaces the form.
func (s *Server) handleContactSubmit(c *gin.Context) {
	var req inquiryRequest
	if err := c.ShouldBind(&req); err != nil {
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error":  "Please check the highlighted fields and try again.",
			"fields": bindingErrors(err, &req)["errors"],
		})
		return
	}

	if _, err := s.submitInquiry(c, &req); err != nil {
		var fe *fieldError
		if errors.As(err, &fe) {
			c.HTML(http.StatusOK, "contact-error.html", gin.H{
				"error":  "Please check the highlighted fields and try again.",
				"fields": map[string]string{fe.Field: fe.Message},
			})
			return
		}
		s.log.Error().Err(err).Msg("Storing contact form failed")
		c.HTML(http.StatusOK, "contact-error.html", gin.H{
			"error": "Sorry, there was an error sending your message. Please try again later.",
		})
		return
	}

	c.HTML(http.StatusOK, "contact-success.html", gin.H{
		"success": "Thank you for your message! I'll get back to you soon.",
	})
}
