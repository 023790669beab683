// file: service/mocks_test.go

package service

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"sync"
	"testing"
	"vidtube-api/logger"
	"vidtube-api/model"
	"vidtube-api/repository"

	"github.com/stretchr/testify/mock"
)

// TestMain runs setup before any tests in this package are executed.
func TestMain(m *testing.M) {
	logger.Init()
	logger.SetLevel("error")
	os.Exit(m.Run())
}

// mockUserRepo is a mock implementation of repository.IUserRepository.
type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) GetUserByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	args := m.Called(ctx, identifier)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockUserRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	args := m.Called(ctx, username, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepo) GetWatchHistory(ctx context.Context, id string) ([]string, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockUserRepo) GetOwnerSummaries(ctx context.Context, ids []string) (map[string]*model.OwnerSummary, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*model.OwnerSummary), args.Error(1)
}

// mockTokenRepo is a mock implementation of repository.ITokenRepository.
type mockTokenRepo struct{ mock.Mock }

func (m *mockTokenRepo) SetRefreshToken(ctx context.Context, userID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *mockTokenRepo) SwapRefreshToken(ctx context.Context, userID, current, next string) (bool, error) {
	args := m.Called(ctx, userID, current, next)
	return args.Bool(0), args.Error(1)
}

func (m *mockTokenRepo) ClearRefreshToken(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockSubscriptionRepo struct{ mock.Mock }

func (m *mockSubscriptionRepo) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	args := m.Called(ctx, channelID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSubscriptionRepo) CountSubscriptions(ctx context.Context, subscriberID string) (int64, error) {
	args := m.Called(ctx, subscriberID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSubscriptionRepo) IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error) {
	args := m.Called(ctx, subscriberID, channelID)
	return args.Bool(0), args.Error(1)
}

type mockVideoRepo struct{ mock.Mock }

func (m *mockVideoRepo) GetVideosByIDs(ctx context.Context, ids []string) (map[string]*model.Video, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*model.Video), args.Error(1)
}

type mockStorage struct{ mock.Mock }

func (m *mockStorage) Upload(ctx context.Context, kind MediaKind, file *Upload) (string, error) {
	args := m.Called(ctx, kind, file)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

// memStore is an in-memory account store with the same compare-and-swap
// semantics as the Postgres repositories. It serializes all writes.
type memStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

var (
	_ repository.IUserRepository  = (*memStore)(nil)
	_ repository.ITokenRepository = (*memStore)(nil)
)

func newMemStore(users ...*model.User) *memStore {
	s := &memStore{users: make(map[string]*model.User)}
	for _, u := range users {
		cp := *u
		s.users[u.ID] = &cp
	}
	return s
}

func (s *memStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *memStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) GetUserByIdentifier(_ context.Context, identifier string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, identifier) || strings.EqualFold(u.Email, identifier) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.GetUserByIdentifier(ctx, username)
}

func (s *memStore) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if _, err := s.GetUserByIdentifier(ctx, username); err == nil {
		return true, nil
	}
	_, err := s.GetUserByIdentifier(ctx, email)
	return err == nil, nil
}

func (s *memStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	return nil
}

func (s *memStore) GetWatchHistory(ctx context.Context, id string) ([]string, error) {
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.WatchHistory, nil
}

func (s *memStore) GetOwnerSummaries(_ context.Context, ids []string) (map[string]*model.OwnerSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*model.OwnerSummary)
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = &model.OwnerSummary{ID: u.ID, Fullname: u.Fullname, Username: u.Username, Avatar: u.Avatar}
		}
	}
	return out, nil
}

func (s *memStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return sql.ErrNoRows
	}
	u.RefreshToken = token
	return nil
}

func (s *memStore) SwapRefreshToken(_ context.Context, userID, current, next string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.RefreshToken == "" || u.RefreshToken != current {
		return false, nil
	}
	u.RefreshToken = next
	return true, nil
}

func (s *memStore) ClearRefreshToken(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		u.RefreshToken = ""
	}
	return nil
}

func (s *memStore) refreshToken(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id].RefreshToken
}
