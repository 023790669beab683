package repository

import (
	"context"
	"database/sql"
	"vidtube-api/logger"

	"github.com/sirupsen/logrus"
)

// ISubscriptionRepository defines the read operations on subscription edges.
type ISubscriptionRepository interface {
	CountSubscribers(ctx context.Context, channelID string) (int64, error)
	CountSubscriptions(ctx context.Context, subscriberID string) (int64, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
}

type SubscriptionRepository struct {
	DB *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db}
}

// CountSubscribers counts edges pointing at channelID.
func (r *SubscriptionRepository) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE channel_id = $1`, channelID)
}

// CountSubscriptions counts edges leaving subscriberID.
func (r *SubscriptionRepository) CountSubscriptions(ctx context.Context, subscriberID string) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM subscriptions WHERE subscriber_id = $1`, subscriberID)
}

func (r *SubscriptionRepository) count(ctx context.Context, query, id string) (int64, error) {
	var n int64
	if err := r.DB.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		logger.Log.WithError(err).WithField("id", id).Error("Failed to execute subscription count query")
		return 0, err
	}
	return n, nil
}

func (r *SubscriptionRepository) IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"subscriber_id": subscriberID,
		"channel_id":    channelID,
	})

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2)`
	if err := r.DB.QueryRowContext(ctx, query, subscriberID, channelID).Scan(&exists); err != nil {
		log.WithError(err).Error("Failed to execute subscription lookup query")
		return false, err
	}
	return exists, nil
}
