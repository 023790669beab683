package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"vidtube-api/logger"
	"vidtube-api/model"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// ErrDuplicateUser is returned when a unique username or email index is violated.
var ErrDuplicateUser = errors.New("username or email already taken")

// IUserRepository defines the contract for account database operations.
type IUserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByIdentifier(ctx context.Context, identifier string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	GetWatchHistory(ctx context.Context, id string) ([]string, error)
	GetOwnerSummaries(ctx context.Context, ids []string) (map[string]*model.OwnerSummary, error)
}

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

const userColumns = `id, username, email, fullname, password_hash, refresh_token, avatar, cover_image, watch_history, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*model.User, error) {
	user := &model.User{}
	var refreshToken sql.NullString
	var history pq.StringArray
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Fullname, &user.PasswordHash,
		&refreshToken, &user.Avatar, &user.CoverImage, &history, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.RefreshToken = refreshToken.String
	user.WatchHistory = []string(history)
	return user, nil
}

// CreateUser inserts a new account. The caller assigns the id.
func (r *UserRepository) CreateUser(ctx context.Context, user *model.User) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	})
	log.Info("Executing query to create a new user")

	query := `INSERT INTO users (id, username, email, fullname, password_hash, avatar, cover_image)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query, user.ID, user.Username, user.Email, user.Fullname,
		user.PasswordHash, user.Avatar, user.CoverImage).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			log.Warn("Duplicate username or email on insert")
			return ErrDuplicateUser
		}
		log.WithError(err).Error("Failed to execute create user query")
		return err
	}
	return nil
}

// GetUserByID returns sql.ErrNoRows when the account does not exist.
func (r *UserRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Log.WithError(err).WithField("user_id", id).Error("Failed to execute get user by id query")
		}
		return nil, err
	}
	return user, nil
}

// GetUserByIdentifier matches identifier case-insensitively against username or email.
func (r *UserRepository) GetUserByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = $1 OR LOWER(email) = $1 LIMIT 1`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(identifier))))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Log.WithError(err).Error("Failed to execute get user by identifier query")
		}
		return nil, err
	}
	return user, nil
}

// GetUserByUsername matches username case-insensitively.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(username) = $1`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(username))))
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Log.WithError(err).WithField("username", username).Error("Failed to execute get user by username query")
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE LOWER(username) = $1 OR LOWER(email) = $2)`
	err := r.DB.QueryRowContext(ctx, query, strings.ToLower(username), strings.ToLower(email)).Scan(&exists)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute user existence query")
		return false, err
	}
	return exists, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	log := logger.Log.WithField("user_id", id)
	log.Info("Executing query to update user password")

	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.DB.ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		log.WithError(err).Error("Failed to execute update password query")
		return err
	}
	return expectOneRow(res)
}

// GetWatchHistory returns the ordered video ids watched by the account, most recent first.
func (r *UserRepository) GetWatchHistory(ctx context.Context, id string) ([]string, error) {
	var history pq.StringArray
	query := `SELECT watch_history FROM users WHERE id = $1`
	if err := r.DB.QueryRowContext(ctx, query, id).Scan(&history); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Log.WithError(err).WithField("user_id", id).Error("Failed to execute get watch history query")
		}
		return nil, err
	}
	return []string(history), nil
}

// GetOwnerSummaries loads the reduced projection of every account in ids, keyed by id.
// Ids without an account are absent from the map.
func (r *UserRepository) GetOwnerSummaries(ctx context.Context, ids []string) (map[string]*model.OwnerSummary, error) {
	owners := make(map[string]*model.OwnerSummary, len(ids))
	if len(ids) == 0 {
		return owners, nil
	}

	query := `SELECT id, fullname, username, avatar FROM users WHERE id = ANY($1::uuid[])`
	rows, err := r.DB.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute owner summaries query")
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var o model.OwnerSummary
		if err := rows.Scan(&o.ID, &o.Fullname, &o.Username, &o.Avatar); err != nil {
			logger.Log.WithError(err).Error("Failed to scan owner summary row")
			return nil, err
		}
		owners[o.ID] = &o
	}
	return owners, rows.Err()
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
