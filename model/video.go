package model

import "time"

type Video struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	VideoFile   string    `json:"videoFile"`
	Thumbnail   string    `json:"thumbnail"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Views       int64     `json:"views"`
	IsPublished bool      `json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Subscription is a directed edge from a subscriber to a channel.
type Subscription struct {
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}
