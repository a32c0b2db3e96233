package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/analytics"
	"github.com/Zachkp/portfolio/internal/auth"
)

type loginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=200"`
}

type verifyRequest struct {
	Challenge string `json:"challenge" binding:"required"`
	Code      string `json:"code" binding:"required,max=20"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := s.auth.Login(req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		s.log.Warn().Str("client", analytics.HashIP(s.cfg.HashSalt, c.ClientIP())).Msg("Failed admin login attempt")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}

	if res.Token != "" {
		s.setSessionCookie(c, res.Token)
		s.log.Info().Str("client", analytics.HashIP(s.cfg.HashSalt, c.ClientIP())).Msg("Admin login successful")
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleVerifyTwoFactor(c *gin.Context) {
	var req verifyRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := s.auth.VerifyTwoFactor(req.Challenge, req.Code)
	switch {
	case errors.Is(err, auth.ErrInvalidCode):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid verification code"})
		return
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "challenge expired or invalid"})
		return
	case err != nil:
		s.respondError(c, err)
		return
	}

	s.setSessionCookie(c, res.Token)
	s.log.Info().Str("client", analytics.HashIP(s.cfg.HashSalt, c.ClientIP())).Msg("Admin login successful")
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleLogout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.CookieName, "", -1, "/", "", s.cfg.IsProd(), true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) handleMe(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"username":   claims.Subject,
		"email":      claims.Email,
		"expires_at": claims.ExpiresAt.Time,
	})
}

func (s *Server) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.CookieName, token, int(s.auth.TokenTTL().Seconds()), "/", "", s.cfg.IsProd(), true)
}
