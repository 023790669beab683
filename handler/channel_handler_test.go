package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"vidtube-api/model"
	"vidtube-api/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func channelRequest(username string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/channel/"+url.PathEscape(username), nil)
	req.SetPathValue("username", username)
	return req
}

func TestChannelHandler_ChannelProfile(t *testing.T) {
	t.Run("anonymous viewer", func(t *testing.T) {
		views := new(mockChannelViews)
		h := NewChannelHandler(views)
		views.On("ChannelProfile", mock.Anything, "alice", "").Return(&model.ChannelProfile{
			ID:               "alice-id",
			Username:         "alice",
			SubscribersCount: 1,
		}, nil)

		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.ChannelProfile).ServeHTTP(rr, channelRequest("alice"))

		require.Equal(t, http.StatusOK, rr.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, false, body["isSubscribed"])
		assert.EqualValues(t, 1, body["subscribersCount"])
	})

	t.Run("authenticated viewer", func(t *testing.T) {
		views := new(mockChannelViews)
		h := NewChannelHandler(views)
		views.On("ChannelProfile", mock.Anything, "bob", "alice-id").Return(&model.ChannelProfile{
			ID:           "bob-id",
			Username:     "bob",
			IsSubscribed: true,
		}, nil)

		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.ChannelProfile).ServeHTTP(rr, authenticated(channelRequest("bob")))

		assert.Equal(t, http.StatusOK, rr.Code)
		views.AssertExpectations(t)
	})

	t.Run("unknown channel", func(t *testing.T) {
		views := new(mockChannelViews)
		h := NewChannelHandler(views)
		views.On("ChannelProfile", mock.Anything, "ghost", "").Return(nil, service.ErrChannelNotFound)

		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.ChannelProfile).ServeHTTP(rr, channelRequest("ghost"))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("blank username", func(t *testing.T) {
		views := new(mockChannelViews)
		h := NewChannelHandler(views)
		views.On("ChannelProfile", mock.Anything, " ", "").Return(nil, service.ErrUsernameRequired)

		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.ChannelProfile).ServeHTTP(rr, channelRequest(" "))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestChannelHandler_WatchHistory(t *testing.T) {
	t.Run("entries in order", func(t *testing.T) {
		views := new(mockChannelViews)
		h := NewChannelHandler(views)
		views.On("WatchHistory", mock.Anything, "alice-id").Return([]model.WatchHistoryEntry{
			{ID: "v-3", Title: "third", Owner: &model.OwnerSummary{ID: "bob-id", Username: "bob"}},
			{ID: "v-1", Title: "first"},
		}, nil)

		req := authenticated(httptest.NewRequest(http.MethodGet, "/api/v1/users/history", nil))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.WatchHistory).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var entries []model.WatchHistoryEntry
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &entries))
		require.Len(t, entries, 2)
		assert.Equal(t, "v-3", entries[0].ID)
		assert.Equal(t, "bob", entries[0].Owner.Username)
		assert.Nil(t, entries[1].Owner)
	})

	t.Run("empty history renders an array", func(t *testing.T) {
		views := new(mockChannelViews)
		h := NewChannelHandler(views)
		views.On("WatchHistory", mock.Anything, "alice-id").Return(nil, nil)

		req := authenticated(httptest.NewRequest(http.MethodGet, "/api/v1/users/history", nil))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.WatchHistory).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `[]`, rr.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		views := new(mockChannelViews)
		h := NewChannelHandler(views)
		views.On("WatchHistory", mock.Anything, "alice-id").Return(nil, errors.New("join videos: timeout"))

		req := authenticated(httptest.NewRequest(http.MethodGet, "/api/v1/users/history", nil))
		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.WatchHistory).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "timeout")
	})

	t.Run("no principal", func(t *testing.T) {
		h := NewChannelHandler(new(mockChannelViews))

		rr := httptest.NewRecorder()
		ErrorHandlingMiddleware(h.WatchHistory).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/users/history", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
