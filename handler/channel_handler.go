package handler

import (
	"context"
	"net/http"
	"vidtube-api/common"
	"vidtube-api/model"
)

// ChannelViews produces the read-only channel views.
type ChannelViews interface {
	ChannelProfile(ctx context.Context, username, viewerID string) (*model.ChannelProfile, error)
	WatchHistory(ctx context.Context, viewerID string) ([]model.WatchHistoryEntry, error)
}

type ChannelHandler struct {
	views ChannelViews
}

func NewChannelHandler(views ChannelViews) *ChannelHandler {
	return &ChannelHandler{views: views}
}

// ChannelProfile godoc
// @Summary      Channel profile
// @Description  Returns a channel with its subscriber counts. isSubscribed reflects the caller and is false for anonymous requests.
// @Tags         channels
// @Produce      json
// @Param        username  path  string  true  "Channel username"
// @Success      200  {object}  model.ChannelProfile
// @Failure      400  {object}  common.AppError
// @Failure      404  {object}  common.AppError
// @Router       /api/v1/users/channel/{username} [get]
func (h *ChannelHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) *common.AppError {
	var viewerID string
	if principal, ok := PrincipalFromContext(r.Context()); ok {
		viewerID = principal.ID
	}

	profile, err := h.views.ChannelProfile(r.Context(), r.PathValue("username"), viewerID)
	if err != nil {
		return toAppError(err, "Could not load channel profile")
	}

	common.WriteJSON(w, http.StatusOK, profile)
	return nil
}

// WatchHistory godoc
// @Summary      Watch history
// @Description  Returns the videos watched by the authenticated user, in history order, with owner summaries.
// @Tags         channels
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   model.WatchHistoryEntry
// @Failure      401  {object}  common.AppError
// @Router       /api/v1/users/history [get]
func (h *ChannelHandler) WatchHistory(w http.ResponseWriter, r *http.Request) *common.AppError {
	principal, appErr := requirePrincipal(r)
	if appErr != nil {
		return appErr
	}

	entries, err := h.views.WatchHistory(r.Context(), principal.ID)
	if err != nil {
		return toAppError(err, "Could not load watch history")
	}
	if entries == nil {
		entries = []model.WatchHistoryEntry{}
	}

	common.WriteJSON(w, http.StatusOK, entries)
	return nil
}
