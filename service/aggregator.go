package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"vidtube-api/model"
	"vidtube-api/repository"
)

// Aggregator computes the read-only channel profile and watch-history views.
// Each view is an explicit sequence of named stages over a typed query state.
type Aggregator struct {
	users         repository.IUserRepository
	subscriptions repository.ISubscriptionRepository
	videos        repository.IVideoRepository
	cache         ProfileCache
}

func NewAggregator(users repository.IUserRepository, subscriptions repository.ISubscriptionRepository,
	videos repository.IVideoRepository, cache ProfileCache) *Aggregator {
	if cache == nil {
		cache = NoopProfileCache{}
	}
	return &Aggregator{
		users:         users,
		subscriptions: subscriptions,
		videos:        videos,
		cache:         cache,
	}
}

// runStages runs stages in order and stops at the first failure.
func runStages[T any](ctx context.Context, state *T, stages ...func(context.Context, *T) error) error {
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := stage(ctx, state); err != nil {
			return err
		}
	}
	return nil
}

type profileQuery struct {
	username string
	viewerID string
	profile  model.ChannelProfile
}

// ChannelProfile returns the profile of username as seen by viewerID. An empty
// viewerID is an anonymous viewer and is never subscribed.
func (a *Aggregator) ChannelProfile(ctx context.Context, username, viewerID string) (*model.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return nil, ErrUsernameRequired
	}
	q := &profileQuery{username: username, viewerID: viewerID}

	if cached, ok := a.cache.Get(ctx, username); ok {
		q.profile = *cached
	} else {
		if err := runStages(ctx, q, a.resolveChannel); err != nil {
			return nil, err
		}
		a.cache.Set(ctx, username, &q.profile)
	}

	// Counts and the viewer relation are never served from the cache.
	if err := runStages(ctx, q, a.countSubscribers, a.countSubscriptions, a.resolveViewerRelation); err != nil {
		return nil, err
	}
	return &q.profile, nil
}

func (a *Aggregator) resolveChannel(ctx context.Context, q *profileQuery) error {
	channel, err := a.users.GetUserByUsername(ctx, q.username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrChannelNotFound
		}
		return fmt.Errorf("resolve channel: %w", err)
	}
	q.profile = model.ChannelProfile{
		ID:         channel.ID,
		Username:   channel.Username,
		Email:      channel.Email,
		Fullname:   channel.Fullname,
		Avatar:     channel.Avatar,
		CoverImage: channel.CoverImage,
	}
	return nil
}

func (a *Aggregator) countSubscribers(ctx context.Context, q *profileQuery) error {
	n, err := a.subscriptions.CountSubscribers(ctx, q.profile.ID)
	if err != nil {
		return fmt.Errorf("count subscribers: %w", err)
	}
	q.profile.SubscribersCount = n
	return nil
}

func (a *Aggregator) countSubscriptions(ctx context.Context, q *profileQuery) error {
	n, err := a.subscriptions.CountSubscriptions(ctx, q.profile.ID)
	if err != nil {
		return fmt.Errorf("count subscriptions: %w", err)
	}
	q.profile.SubscribedToCount = n
	return nil
}

func (a *Aggregator) resolveViewerRelation(ctx context.Context, q *profileQuery) error {
	q.profile.IsSubscribed = false
	if q.viewerID == "" {
		return nil
	}
	ok, err := a.subscriptions.IsSubscribed(ctx, q.viewerID, q.profile.ID)
	if err != nil {
		return fmt.Errorf("resolve viewer relation: %w", err)
	}
	q.profile.IsSubscribed = ok
	return nil
}

type historyQuery struct {
	viewerID string
	ids      []string
	videos   map[string]*model.Video
	owners   map[string]*model.OwnerSummary
	entries  []model.WatchHistoryEntry
}

// WatchHistory resolves the viewer's watch history in its stored order.
// Ids whose video no longer exists are left out.
func (a *Aggregator) WatchHistory(ctx context.Context, viewerID string) ([]model.WatchHistoryEntry, error) {
	q := &historyQuery{viewerID: viewerID}
	if err := runStages(ctx, q, a.resolveHistory, a.joinVideos, a.joinOwners, a.projectHistory); err != nil {
		return nil, err
	}
	return q.entries, nil
}

func (a *Aggregator) resolveHistory(ctx context.Context, q *historyQuery) error {
	ids, err := a.users.GetWatchHistory(ctx, q.viewerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("resolve history: %w", err)
	}
	q.ids = ids
	return nil
}

func (a *Aggregator) joinVideos(ctx context.Context, q *historyQuery) error {
	videos, err := a.videos.GetVideosByIDs(ctx, uniqueStrings(q.ids))
	if err != nil {
		return fmt.Errorf("join videos: %w", err)
	}
	q.videos = videos
	return nil
}

func (a *Aggregator) joinOwners(ctx context.Context, q *historyQuery) error {
	ownerIDs := make([]string, 0, len(q.videos))
	for _, v := range q.videos {
		if v.OwnerID != "" {
			ownerIDs = append(ownerIDs, v.OwnerID)
		}
	}
	owners, err := a.users.GetOwnerSummaries(ctx, uniqueStrings(ownerIDs))
	if err != nil {
		return fmt.Errorf("join owners: %w", err)
	}
	q.owners = owners
	return nil
}

func (a *Aggregator) projectHistory(_ context.Context, q *historyQuery) error {
	q.entries = make([]model.WatchHistoryEntry, 0, len(q.ids))
	for _, id := range q.ids {
		v, ok := q.videos[id]
		if !ok {
			continue
		}
		q.entries = append(q.entries, model.WatchHistoryEntry{
			ID:          v.ID,
			VideoFile:   v.VideoFile,
			Thumbnail:   v.Thumbnail,
			Title:       v.Title,
			Description: v.Description,
			Duration:    v.Duration,
			Views:       v.Views,
			Owner:       q.owners[v.OwnerID],
		})
	}
	return nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
