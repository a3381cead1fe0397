package services

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"camwall/internal/core/ports"
	"camwall/pkg/config"
	apperrors "camwall/pkg/errors"
)

// AuthService issues and validates JWT token pairs for the single API user
// configured for the wall.
type AuthService struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
}

func NewAuthService(cfg *config.Config, logger *zap.SugaredLogger) *AuthService {
	return &AuthService{cfg: cfg, logger: logger}
}

// Login checks the credentials against the configured API user and returns
// an access/refresh pair.
func (s *AuthService) Login(username, password string) (*ports.TokenPair, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.cfg.Auth.APIUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.Auth.APIPassword)) == 1
	if !userOK || !passOK {
		s.logger.Warnw("login rejected", "username", username)
		return nil, apperrors.NewUnauthorizedError("invalid credentials")
	}

	return s.issuePair(username)
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*ports.TokenClaims, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if len(claims.Audience) == 0 || claims.Audience[0] != "access" {
		return nil, apperrors.NewUnauthorizedError("not an access token")
	}
	if claims.ExpiresAt == nil {
		return nil, apperrors.NewUnauthorizedError("token has no expiry")
	}
	return &ports.TokenClaims{
		Subject:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// RefreshToken exchanges a valid refresh token for a fresh pair.
func (s *AuthService) RefreshToken(refreshToken string) (*ports.TokenPair, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return nil, err
	}
	if len(claims.Audience) == 0 || claims.Audience[0] != "refresh" {
		return nil, apperrors.NewUnauthorizedError("not a refresh token")
	}
	return s.issuePair(claims.Subject)
}

func (s *AuthService) issuePair(subject string) (*ports.TokenPair, error) {
	now := time.Now()

	access, err := s.sign(subject, "access", now, s.cfg.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := s.sign(subject, "refresh", now, s.cfg.Auth.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &ports.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.Auth.AccessTokenTTL.Seconds()),
	}, nil
}

func (s *AuthService) sign(subject, audience string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Audience:  jwt.ClaimStrings{audience},
		Issuer:    "camwall",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.Auth.JWTSecret))
}

func (s *AuthService) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Auth.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apperrors.NewUnauthorizedError("invalid token")
	}
	return claims, nil
}
