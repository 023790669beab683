package service

import (
	"errors"
	"fmt"
	"time"
	"vidtube-api/logger"
	"vidtube-api/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TokenConfig holds the signing material of both token classes.
type TokenConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// TokenService issues and verifies signed access and refresh tokens.
// Verification is stateless: signature, algorithm, expiry and claim shape only.
type TokenService struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenService(cfg TokenConfig) *TokenService {
	return &TokenService{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        time.Now,
	}
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

func (s *TokenService) IssueAccessToken(userID string) (string, time.Time, error) {
	return s.issue(userID, model.AccessToken)
}

func (s *TokenService) IssueRefreshToken(userID string) (string, time.Time, error) {
	return s.issue(userID, model.RefreshToken)
}

// IssuePair issues a fresh access and refresh token for userID.
func (s *TokenService) IssuePair(userID string) (*model.TokenPair, error) {
	access, accessExp, err := s.IssueAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.IssueRefreshToken(userID)
	if err != nil {
		return nil, err
	}
	return &model.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *TokenService) issue(userID string, class model.TokenClass) (string, time.Time, error) {
	key, ttl := s.keyFor(class)
	now := s.now()

	claims := &model.TokenClaims{
		Class: class,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"class":   class,
		}).Error("Failed to sign JWT")
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", class, err)
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// Verify checks raw against the key of class. A token of the other class fails
// the signature check even when it is well formed.
func (s *TokenService) Verify(raw string, class model.TokenClass) (*model.TokenClaims, error) {
	if raw == "" {
		return nil, ErrTokenMalformed
	}
	key, _ := s.keyFor(class)

	claims := &model.TokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, classifyJWTError(err)
	}

	if claims.Class != class || claims.Subject == "" {
		return nil, ErrTokenClaims
	}
	return claims, nil
}

func (s *TokenService) keyFor(class model.TokenClass) ([]byte, time.Duration) {
	if class == model.RefreshToken {
		return s.refreshKey, s.refreshTTL
	}
	return s.accessKey, s.accessTTL
}

func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrTokenMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignature
	default:
		return ErrTokenClaims
	}
}
