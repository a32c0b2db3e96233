// Package auth implements the single-admin login of the back-office.
//
// Credentials come from configuration. The second factor is a placeholder
// that accepts a fixed list of demo codes; it is not a TOTP verifier.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Token purposes.
const (
	PurposeSession   = "session"
	PurposeTwoFactor = "2fa"
)

// ChallengeTTL bounds the time between password and code entry.
const ChallengeTTL = 5 * time.Minute

const issuer = "portfolio"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrInvalidToken       = errors.New("invalid token")
)

// Claims are the JWT claims of both session and challenge tokens.
type Claims struct {
	Purpose string `json:"purpose"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Config configures the admin account.
type Config struct {
	Username  string
	Password  string
	Email     string
	Secret    string
	TokenTTL  time.Duration
	TwoFactor bool
	DemoCodes []string
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// Service issues and checks admin tokens.
type Service struct {
	cfg    Config
	hash   []byte
	secret []byte
	now    func() time.Time
}

// LoginResult is returned by Login and VerifyTwoFactor. Exactly one of
// Token and Challenge is set.
type LoginResult struct {
	RequiresTwoFactor bool      `json:"requires_2fa"`
	Token             string    `json:"token,omitempty"`
	Challenge         string    `json:"challenge,omitempty"`
	ExpiresAt         time.Time `json:"expires_at"`
}

// New hashes the configured password and returns the service.
func New(cfg Config) (*Service, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("admin username and password are required")
	}
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing admin password: %w", err)
	}
	cfg.Password = ""
	return &Service{cfg: cfg, hash: hash, secret: []byte(cfg.Secret), now: time.Now}, nil
}

// TokenTTL is the lifetime of session tokens.
func (s *Service) TokenTTL() time.Duration { return s.cfg.TokenTTL }

// Login checks the credentials. With two-factor enabled it returns a
// challenge token to be exchanged by VerifyTwoFactor, otherwise a session token.
func (s *Service) Login(username, password string) (*LoginResult, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Username)) == 1
	// The hash is compared even for a wrong username.
	passOK := bcrypt.CompareHashAndPassword(s.hash, []byte(password)) == nil
	if !userOK || !passOK {
		return nil, ErrInvalidCredentials
	}

	if !s.cfg.TwoFactor {
		return s.session()
	}
	exp := s.now().Add(ChallengeTTL)
	challenge, err := s.sign(PurposeTwoFactor, exp)
	if err != nil {
		return nil, err
	}
	return &LoginResult{RequiresTwoFactor: true, Challenge: challenge, ExpiresAt: exp}, nil
}

// VerifyTwoFactor exchanges a valid challenge and demo code for a session token.
func (s *Service) VerifyTwoFactor(challenge, code string) (*LoginResult, error) {
	if _, err := s.parse(challenge, PurposeTwoFactor); err != nil {
		return nil, err
	}
	if !s.validCode(code) {
		return nil, ErrInvalidCode
	}
	return s.session()
}

// Authenticate returns the claims of a valid session token.
func (s *Service) Authenticate(token string) (*Claims, error) {
	return s.parse(token, PurposeSession)
}

func (s *Service) validCode(code string) bool {
	code = strings.TrimSpace(code)
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	ok := false
	for _, c := range s.cfg.DemoCodes {
		if subtle.ConstantTimeCompare([]byte(code), []byte(c)) == 1 {
			ok = true
		}
	}
	return ok
}

func (s *Service) session() (*LoginResult, error) {
	exp := s.now().Add(s.cfg.TokenTTL)
	token, err := s.sign(PurposeSession, exp)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp}, nil
}

func (s *Service) sign(purpose string, exp time.Time) (string, error) {
	now := s.now()
	claims := Claims{
		Purpose: purpose,
		Email:   s.cfg.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   s.cfg.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", purpose, err)
	}
	return token, nil
}

func (s *Service) parse(raw, purpose string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purpose || claims.Subject != s.cfg.Username {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
