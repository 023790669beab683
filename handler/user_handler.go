package handler

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"vidtube-api/common"
	"vidtube-api/logger"
	"vidtube-api/model"
	"vidtube-api/service"

	"github.com/sirupsen/logrus"
)

// maxUploadBytes caps the multipart registration form, files included.
const maxUploadBytes = 10 << 20

// SessionService is the account and session behavior used by UserHandler.
type SessionService interface {
	Register(ctx context.Context, req model.RegisterRequest, avatar, cover *service.Upload) (*model.PublicUser, error)
	Login(ctx context.Context, identifier, password string) (*model.User, *model.TokenPair, error)
	Invalidate(ctx context.Context, userID string) error
	RedeemRefresh(ctx context.Context, refreshToken string) (*model.User, *model.TokenPair, error)
	ChangePassword(ctx context.Context, userID string, req model.ChangePasswordRequest) error
}

type UserHandler struct {
	service SessionService
}

func NewUserHandler(s SessionService) *UserHandler {
	return &UserHandler{service: s}
}

type MessageResponse struct {
	Message string `json:"message"`
}

// formUpload opens an optional multipart file field.
func formUpload(r *http.Request, field string) (*service.Upload, multipart.File, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, file, nil
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates an account from a multipart form. The avatar file is required, the cover image is optional.
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        fullname    formData  string  true   "Full name"
// @Param        email       formData  string  true   "Email"
// @Param        username    formData  string  true   "Username"
// @Param        password    formData  string  true   "Password"
// @Param        avatar      formData  file    true   "Avatar image"
// @Param        coverImage  formData  file    false  "Cover image"
// @Success      201  {object}  model.PublicUser
// @Failure      400  {object}  common.AppError
// @Failure      409  {object}  common.AppError
// @Failure      500  {object}  common.AppError
// @Router       /api/v1/users/register [post]
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) *common.AppError {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid multipart form", err)
	}
	defer r.MultipartForm.RemoveAll()

	req := model.RegisterRequest{
		Fullname: r.FormValue("fullname"),
		Email:    r.FormValue("email"),
		Username: r.FormValue("username"),
		Password: r.FormValue("password"),
	}
	if appErr := common.ValidateStruct(&req); appErr != nil {
		return appErr
	}

	avatar, avatarFile, err := formUpload(r, "avatar")
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid avatar file", err)
	}
	if avatarFile != nil {
		defer avatarFile.Close()
	}
	cover, coverFile, err := formUpload(r, "coverImage")
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid cover image file", err)
	}
	if coverFile != nil {
		defer coverFile.Close()
	}

	user, err := h.service.Register(r.Context(), req, avatar, cover)
	if err != nil {
		return toAppError(err, "Could not register user")
	}

	common.WriteJSON(w, http.StatusCreated, user)
	return nil
}

// Login godoc
// @Summary      Log in
// @Description  Authenticates with a username or email and a password. Sets the accessToken and refreshToken cookies.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        credentials  body  model.LoginRequest  true  "Login credentials"
// @Success      200  {object}  model.LoginResponse
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Failure      429  {object}  common.AppError
// @Router       /api/v1/users/login [post]
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.LoginRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return appErr
	}

	user, pair, err := h.service.Login(r.Context(), req.Identifier(), req.Password)
	if err != nil {
		return toAppError(err, "Could not log in")
	}

	logger.Log.WithField("user_id", user.ID).Info("User logged in")
	setAuthCookies(w, pair)
	common.WriteJSON(w, http.StatusOK, model.LoginResponse{
		User:         user.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
	return nil
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the stored refresh token and clears both token cookies.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  common.AppError
// @Router       /api/v1/users/logout [post]
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) *common.AppError {
	principal, appErr := requirePrincipal(r)
	if appErr != nil {
		return appErr
	}

	if err := h.service.Invalidate(r.Context(), principal.ID); err != nil {
		return toAppError(err, "Could not log out")
	}

	clearAuthCookies(w)
	common.WriteJSON(w, http.StatusOK, MessageResponse{Message: "User logged out"})
	return nil
}

// refreshCredential reads the refresh token from its cookie, then from a JSON body.
func refreshCredential(r *http.Request) (string, *common.AppError) {
	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	if r.Body == nil || r.Body == http.NoBody || r.ContentLength == 0 {
		return "", nil
	}

	var req model.RefreshRequest
	if appErr := common.ValidateAndDecode(r, &req); appErr != nil {
		return "", appErr
	}
	return req.RefreshToken, nil
}

// Refresh godoc
// @Summary      Rotate tokens
// @Description  Redeems the refresh token from the refreshToken cookie or the request body for a new token pair. A refresh token can be redeemed once.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body  model.RefreshRequest  false  "Refresh token, when not sent as a cookie"
// @Success      200  {object}  model.LoginResponse
// @Failure      401  {object}  common.AppError
// @Router       /api/v1/users/refresh [get]
// @Router       /api/v1/users/refresh [post]
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) *common.AppError {
	token, appErr := refreshCredential(r)
	if appErr != nil {
		return appErr
	}
	if token == "" {
		clearAuthCookies(w)
		return common.NewUnauthorizedError("missing credential", nil)
	}

	user, pair, err := h.service.RedeemRefresh(r.Context(), token)
	if err != nil {
		// Stale tokens leave the cookies alone: they may already hold the pair
		// of a concurrent rotation.
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrAccountNotFound) {
			clearAuthCookies(w)
		}
		return toAppError(err, "Could not refresh session")
	}

	logger.Log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"path":    r.URL.Path,
	}).Info("Session refreshed")
	setAuthCookies(w, pair)
	common.WriteJSON(w, http.StatusOK, model.LoginResponse{
		User:         user.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
	return nil
}

// ChangePassword godoc
// @Summary      Change password
// @Description  Replaces the password of the authenticated user after checking the current one.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  model.ChangePasswordRequest  true  "Current and new password"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  common.AppError
// @Failure      401  {object}  common.AppError
// @Router       /api/v1/users/change-password [post]
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) *common.AppError {
	principal, appErr := requirePrincipal(r)
	if appErr != nil {
		return appErr
	}

	var req model.ChangePasswordRequest
	if appErr := common.DecodeJSON(r, &req); appErr != nil {
		return appErr
	}
	if req.NewPassword != req.ConfirmNewPassword {
		return toAppError(service.ErrPasswordMismatch, "Could not change password")
	}
	if appErr := common.ValidateStruct(&req); appErr != nil {
		return appErr
	}

	if err := h.service.ChangePassword(r.Context(), principal.ID, req); err != nil {
		return toAppError(err, "Could not change password")
	}

	common.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Password changed successfully"})
	return nil
}

// CurrentUser godoc
// @Summary      Current user
// @Description  Returns the authenticated user.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  model.PublicUser
// @Failure      401  {object}  common.AppError
// @Router       /api/v1/users/profile [get]
func (h *UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) *common.AppError {
	principal, appErr := requirePrincipal(r)
	if appErr != nil {
		return appErr
	}
	common.WriteJSON(w, http.StatusOK, principal)
	return nil
}
