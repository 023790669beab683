package model

// ChannelProfile is the public view of a channel together with its relationship counts.
type ChannelProfile struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	Fullname          string `json:"fullname"`
	Avatar            string `json:"avatar"`
	CoverImage        string `json:"coverImage,omitempty"`
	SubscribersCount  int64  `json:"subscribersCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

// WatchHistoryEntry is one resolved video of a viewer's watch history.
type WatchHistoryEntry struct {
	ID          string        `json:"id"`
	VideoFile   string        `json:"videoFile"`
	Thumbnail   string        `json:"thumbnail"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Duration    float64       `json:"duration"`
	Views       int64         `json:"views"`
	Owner       *OwnerSummary `json:"owner"`
}
