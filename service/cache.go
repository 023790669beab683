// file: service/cache.go

package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"
	"vidtube-api/logger"
	"vidtube-api/model"

	"github.com/redis/go-redis/v9"
)

// ICacheClient defines the contract for a cache client.
type ICacheClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// ProfileCache stores the identity part of channel profiles: id and public
// fields. Counts and the viewer relation are always computed per request.
type ProfileCache interface {
	Get(ctx context.Context, username string) (*model.ChannelProfile, bool)
	Set(ctx context.Context, username string, profile *model.ChannelProfile)
}

// RedisProfileCache is a cache-aside ProfileCache on Redis. Cache errors are
// logged and treated as misses.
type RedisProfileCache struct {
	client ICacheClient
	ttl    time.Duration
}

func NewRedisProfileCache(client ICacheClient, ttl time.Duration) *RedisProfileCache {
	return &RedisProfileCache{client: client, ttl: ttl}
}

func profileCacheKey(username string) string {
	return "channel:profile:" + strings.ToLower(username)
}

func identityOnly(profile *model.ChannelProfile) *model.ChannelProfile {
	return &model.ChannelProfile{
		ID:         profile.ID,
		Username:   profile.Username,
		Email:      profile.Email,
		Fullname:   profile.Fullname,
		Avatar:     profile.Avatar,
		CoverImage: profile.CoverImage,
	}
}

func (c *RedisProfileCache) Get(ctx context.Context, username string) (*model.ChannelProfile, bool) {
	cached, err := c.client.Get(ctx, profileCacheKey(username)).Result()
	if err != nil {
		if err != redis.Nil {
			logger.Log.WithError(err).Warn("Profile cache read failed")
		}
		return nil, false
	}

	var profile model.ChannelProfile
	if err := json.Unmarshal([]byte(cached), &profile); err != nil {
		logger.Log.WithError(err).Warn("Discarding undecodable cached profile")
		return nil, false
	}
	return identityOnly(&profile), true
}

func (c *RedisProfileCache) Set(ctx context.Context, username string, profile *model.ChannelProfile) {
	data, err := json.Marshal(identityOnly(profile))
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, profileCacheKey(username), data, c.ttl).Err(); err != nil {
		logger.Log.WithError(err).Warn("Profile cache write failed")
	}
}

// NoopProfileCache disables profile caching.
type NoopProfileCache struct{}

func (NoopProfileCache) Get(context.Context, string) (*model.ChannelProfile, bool) { return nil, false }
func (NoopProfileCache) Set(context.Context, string, *model.ChannelProfile)        {}
