package repository

import (
	"context"
	"database/sql"
	"vidtube-api/logger"
	"vidtube-api/model"

	"github.com/lib/pq"
)

// IVideoRepository defines the contract for video lookups.
type IVideoRepository interface {
	GetVideosByIDs(ctx context.Context, ids []string) (map[string]*model.Video, error)
}

type VideoRepository struct {
	DB *sql.DB
}

func NewVideoRepository(db *sql.DB) *VideoRepository {
	return &VideoRepository{DB: db}
}

// GetVideosByIDs loads every video in ids, keyed by id. Unknown ids are absent from the map.
func (r *VideoRepository) GetVideosByIDs(ctx context.Context, ids []string) (map[string]*model.Video, error) {
	videos := make(map[string]*model.Video, len(ids))
	if len(ids) == 0 {
		return videos, nil
	}

	log := logger.Log.WithField("count", len(ids))
	log.Info("Executing query to get videos by ids")

	query := `
		SELECT id, COALESCE(owner_id::text, ''), video_file, thumbnail, title, description,
			duration, views, is_published, created_at, updated_at
		FROM videos
		WHERE id = ANY($1::uuid[])`

	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		log.WithError(err).Error("Failed to execute query for videos by ids")
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var v model.Video
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.VideoFile, &v.Thumbnail, &v.Title, &v.Description,
			&v.Duration, &v.Views, &v.IsPublished, &v.CreatedAt, &v.UpdatedAt); err != nil {
			log.WithError(err).Error("Failed to scan video row")
			return nil, err
		}
		videos[v.ID] = &v
	}
	return videos, rows.Err()
}
