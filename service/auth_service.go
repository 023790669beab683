package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"vidtube-api/logger"
	"vidtube-api/model"
	"vidtube-api/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AuthService owns the session lifecycle of accounts: login, refresh rotation,
// logout and password changes. Each account holds at most one live refresh token.
type AuthService struct {
	userRepo  repository.IUserRepository
	tokenRepo repository.ITokenRepository
	tokens    *TokenService
	hasher    *PasswordHasher
	storage   MediaStorage
}

func NewAuthService(userRepo repository.IUserRepository, tokenRepo repository.ITokenRepository,
	tokens *TokenService, hasher *PasswordHasher, storage MediaStorage) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		tokens:    tokens,
		hasher:    hasher,
		storage:   storage,
	}
}

// Tokens exposes the token service used by the auth gate.
func (s *AuthService) Tokens() *TokenService {
	return s.tokens
}

// Register creates an account after uploading its avatar and optional cover image.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest, avatar, cover *Upload) (*model.PublicUser, error) {
	log := logger.Log.WithField("username", req.Username)

	exists, err := s.userRepo.ExistsByUsernameOrEmail(ctx, req.Username, req.Email)
	if err != nil {
		return nil, fmt.Errorf("could not check existing users: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}
	if avatar == nil {
		return nil, ErrAvatarRequired
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	avatarURL, err := s.storage.Upload(ctx, MediaAvatar, avatar)
	if err != nil {
		return nil, err
	}
	uploaded := []string{avatarURL}
	var coverURL string
	if cover != nil {
		if coverURL, err = s.storage.Upload(ctx, MediaCover, cover); err != nil {
			s.discardMedia(ctx, uploaded)
			return nil, err
		}
		uploaded = append(uploaded, coverURL)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Username:     strings.ToLower(strings.TrimSpace(req.Username)),
		Email:        strings.TrimSpace(req.Email),
		Fullname:     strings.TrimSpace(req.Fullname),
		PasswordHash: hash,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		s.discardMedia(ctx, uploaded)
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("could not create user: %w", err)
	}

	log.WithField("user_id", user.ID).Info("User registered")
	return user.Public(), nil
}

// discardMedia removes objects uploaded for a registration that did not complete.
func (s *AuthService) discardMedia(ctx context.Context, urls []string) {
	ctx = context.WithoutCancel(ctx)
	for _, url := range urls {
		if err := s.storage.Delete(ctx, url); err != nil {
			logger.Log.WithError(err).WithField("url", url).Warn("Could not remove orphaned media object")
		}
	}
}

// Login checks the credentials and starts a new session, superseding any previous one.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*model.User, *model.TokenPair, error) {
	user, err := s.userRepo.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("could not load user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		logger.Log.WithField("user_id", user.ID).Warn("Login rejected: wrong password")
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.Rotate(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	user.RefreshToken = pair.RefreshToken
	return user, pair, nil
}

// Rotate issues a fresh pair and stores the refresh token in the account's
// single slot with one write.
func (s *AuthService) Rotate(ctx context.Context, userID string) (*model.TokenPair, error) {
	pair, err := s.tokens.IssuePair(userID)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.SetRefreshToken(ctx, userID, pair.RefreshToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("could not store refresh token: %w", err)
	}
	return pair, nil
}

// Invalidate clears the stored refresh token; every outstanding refresh token of
// the account becomes unusable.
func (s *AuthService) Invalidate(ctx context.Context, userID string) error {
	if err := s.tokenRepo.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("could not clear refresh token: %w", err)
	}
	logger.Log.WithField("user_id", userID).Info("Session invalidated")
	return nil
}

// RedeemRefresh exchanges a live refresh token for a new pair. The presented
// token must verify as a refresh token and equal the stored value; the swap to
// the new value is conditional on that value, so of two concurrent redemptions
// of the same token only one succeeds.
func (s *AuthService) RedeemRefresh(ctx context.Context, presented string) (*model.User, *model.TokenPair, error) {
	claims, err := s.tokens.Verify(presented, model.RefreshToken)
	if err != nil {
		return nil, nil, err
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id": claims.Subject,
		"jti":     claims.ID,
	})

	user, err := s.userRepo.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, fmt.Errorf("could not load user: %w", err)
	}

	if user.RefreshToken == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(user.RefreshToken)) != 1 {
		log.Warn("Refresh rejected: token superseded or revoked")
		return nil, nil, ErrStaleRefreshToken
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}

	swapped, err := s.tokenRepo.SwapRefreshToken(ctx, user.ID, presented, pair.RefreshToken)
	if err != nil {
		return nil, nil, fmt.Errorf("could not rotate refresh token: %w", err)
	}
	if !swapped {
		log.Warn("Refresh rejected: lost rotation race")
		return nil, nil, ErrStaleRefreshToken
	}

	user.RefreshToken = pair.RefreshToken
	log.Info("Refresh token rotated")
	return user, pair, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req model.ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmNewPassword {
		return ErrPasswordMismatch
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("could not load user: %w", err)
	}

	if !s.hasher.Verify(req.CurrentPassword, user.PasswordHash) {
		return ErrWrongPassword
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("could not update password: %w", err)
	}

	logger.Log.WithField("user_id", userID).Info("Password changed")
	return nil
}

// Principal resolves the account owning an access token.
func (s *AuthService) Principal(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.tokens.Verify(accessToken, model.AccessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("could not load user: %w", err)
	}
	return user, nil
}
