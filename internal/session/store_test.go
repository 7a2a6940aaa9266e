package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-portal/internal/api"
	"github.com/magabrotheeeer/subscription-portal/internal/models"
	"github.com/magabrotheeeer/subscription-portal/internal/session"
	"github.com/magabrotheeeer/subscription-portal/internal/storage"
)

// Мок для AuthAPI
type AuthAPIMock struct {
	mock.Mock
}

func (m *AuthAPIMock) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*api.RegisterResponse)
	return resp, args.Error(1)
}

func (m *AuthAPIMock) Login(ctx context.Context, email, password string) (*api.LoginResponse, error) {
	args := m.Called(ctx, email, password)
	resp, _ := args.Get(0).(*api.LoginResponse)
	return resp, args.Error(1)
}

func (m *AuthAPIMock) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *AuthAPIMock) Profile(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *AuthAPIMock) UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

// requireInvariant проверяет, что токен и профиль присутствуют только вместе
func requireInvariant(t *testing.T, sess models.Session) {
	t.Helper()
	require.Equal(t, sess.Token != "", sess.User != nil,
		"token and user must be set and cleared together")
}

func TestStore_Login_Success(t *testing.T) {
	authMock := new(AuthAPIMock)
	db := storage.NewMemoryStore()

	authMock.On("Login", mock.Anything, "user@example.com", "password123").
		Return(&api.LoginResponse{
			Token: "tok-1",
			User:  models.User{ID: "u1", Email: "user@example.com"},
		}, nil).Once()

	store, err := session.New(newNoopLogger(), authMock, db)
	require.NoError(t, err)

	require.NoError(t, store.Login(context.Background(), "user@example.com", "password123"))

	sess := store.Current()
	requireInvariant(t, sess)
	assert.Equal(t, "tok-1", sess.Token)
	assert.Equal(t, "u1", sess.User.ID)
	assert.True(t, store.IsAuthenticated())
	assert.Empty(t, store.Err())

	// Токен и профиль сохранены в хранилище
	token, ok, err := db.Get(storage.KeySessionToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", token)

	rawUser, ok, err := db.Get(storage.KeySessionUser)
	require.NoError(t, err)
	assert.True(t, ok)
	var user models.User
	require.NoError(t, json.Unmarshal([]byte(rawUser), &user))
	assert.Equal(t, "u1", user.ID)

	authMock.AssertExpectations(t)
}

func TestStore_Login_Failure(t *testing.T) {
	authMock := new(AuthAPIMock)
	db := storage.NewMemoryStore()

	authMock.On("Login", mock.Anything, "user@example.com", "wrong").
		Return(nil, &api.AuthError{Message: "invalid email or password"}).Once()

	store, err := session.New(newNoopLogger(), authMock, db)
	require.NoError(t, err)

	err = store.Login(context.Background(), "user@example.com", "wrong")
	require.Error(t, err)

	// Состояние сессии не тронуто, ошибка видима
	sess := store.Current()
	requireInvariant(t, sess)
	assert.False(t, store.IsAuthenticated())
	assert.Equal(t, "invalid email or password", store.Err())

	_, ok, err := db.Get(storage.KeySessionToken)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Login_ClearsPreviousError(t *testing.T) {
	authMock := new(AuthAPIMock)
	db := storage.NewMemoryStore()

	authMock.On("Login", mock.Anything, "user@example.com", "wrong").
		Return(nil, &api.AuthError{Message: "invalid email or password"}).Once()
	authMock.On("Login", mock.Anything, "user@example.com", "password123").
		Return(&api.LoginResponse{Token: "tok-1", User: models.User{ID: "u1"}}, nil).Once()

	store, err := session.New(newNoopLogger(), authMock, db)
	require.NoError(t, err)

	_ = store.Login(context.Background(), "user@example.com", "wrong")
	require.NotEmpty(t, store.Err())

	require.NoError(t, store.Login(context.Background(), "user@example.com", "password123"))
	assert.Empty(t, store.Err())
}

func TestStore_Logout_RemoteFailureStillClears(t *testing.T) {
	authMock := new(AuthAPIMock)
	db := storage.NewMemoryStore()

	authMock.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(&api.LoginResponse{Token: "tok-1", User: models.User{ID: "u1"}}, nil).Once()
	authMock.On("Logout", mock.Anything).
		Return(errors.New("connection refused")).Once()

	store, err := session.New(newNoopLogger(), authMock, db)
	require.NoError(t, err)
	require.NoError(t, store.Login(context.Background(), "user@example.com", "password123"))

	store.Logout(context.Background())

	sess := store.Current()
	requireInvariant(t, sess)
	assert.False(t, store.IsAuthenticated())

	_, ok, err := db.Get(storage.KeySessionToken)
	require.NoError(t, err)
	assert.False(t, ok, "logout must never leave a stale token behind")
	_, ok, err = db.Get(storage.KeySessionUser)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_Register_NoSessionOnSuccess(t *testing.T) {
	authMock := new(AuthAPIMock)
	db := storage.NewMemoryStore()

	authMock.On("Register", mock.Anything, mock.Anything).
		Return(&api.RegisterResponse{OK: true}, nil).Once()

	store, err := session.New(newNoopLogger(), authMock, db)
	require.NoError(t, err)

	resp, err := store.Register(context.Background(), api.RegisterRequest{Email: "user@example.com"})
	require.NoError(t, err)
	assert.True(t, resp.OK)

	// Регистрация не создает сессию: вход — отдельный шаг
	assert.False(t, store.IsAuthenticated())
}

func TestStore_Register_Failure(t *testing.T) {
	authMock := new(AuthAPIMock)
	db := storage.NewMemoryStore()

	authMock.On("Register", mock.Anything, mock.Anything).
		Return(nil, &api.AuthError{Message: "email: has already been taken"}).Once()

	store, err := session.New(newNoopLogger(), authMock, db)
	require.NoError(t, err)

	_, err = store.Register(context.Background(), api.RegisterRequest{Email: "user@example.com"})
	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "email: has already been taken", store.Err())
}

func TestStore_FetchProfile_ReplacesUserWholesale(t *testing.T) {
	authMock := new(AuthAPIMock)
	db := storage.NewMemoryStore()

	authMock.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(&api.LoginResponse{
			Token: "tok-1",
			User:  models.User{ID: "u1", FullName: "Old Name", CompanyName: "Acme"},
		}, nil).Once()
	authMock.On("Profile", mock.Anything).
		Return(&models.User{ID: "u1", FullName: "New Name"}, nil).Once()

	store, err := session.New(newNoopLogger(), authMock, db)
	require.NoError(t, err)
	require.NoError(t, store.Login(context.Background(), "user@example.com", "password123"))

	require.NoError(t, store.FetchProfile(context.Background()))

	sess := store.Current()
	requireInvariant(t, sess)
	assert.Equal(t, "New Name", sess.User.FullName)
	// Замена целиком: поля не сливаются
	assert.Empty(t, sess.User.CompanyName)
}

func TestStore_FetchProfile_UnauthorizedClearsSession(t *testing.T) {
	authMock := new(AuthAPIMock)
	db := storage.NewMemoryStore()

	authMock.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(&api.LoginResponse{Token: "tok-1", User: models.User{ID: "u1"}}, nil).Once()
	authMock.On("Profile", mock.Anything).
		Return(nil, &api.StatusError{Code: http.StatusUnauthorized}).Once()

	store, err := session.New(newNoopLogger(), authMock, db)
	require.NoError(t, err)
	require.NoError(t, store.Login(context.Background(), "user@example.com", "password123"))

	err = store.FetchProfile(context.Background())
	require.Error(t, err)

	sess := store.Current()
	requireInvariant(t, sess)
	assert.False(t, store.IsAuthenticated())
}

func TestStore_RefreshUser_SwallowsFailure(t *testing.T) {
	authMock := new(AuthAPIMock)
	db := storage.NewMemoryStore()

	authMock.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(&api.LoginResponse{Token: "tok-1", User: models.User{ID: "u1"}}, nil).Once()
	authMock.On("Profile", mock.Anything).
		Return(nil, &api.NetworkError{Op: "api.Profile", Err: errors.New("timeout")}).Once()

	store, err := session.New(newNoopLogger(), authMock, db)
	require.NoError(t, err)
	require.NoError(t, store.Login(context.Background(), "user@example.com", "password123"))

	// Не паникует и не рушит сессию
	store.RefreshUser(context.Background())

	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, "u1", store.Current().User.ID)
}

func TestStore_RestoreFromStorage(t *testing.T) {
	db := storage.NewMemoryStore()
	require.NoError(t, db.Set(storage.KeySessionToken, "tok-1"))
	require.NoError(t, db.Set(storage.KeySessionUser, `{"id":"u1","email":"user@example.com"}`))

	store, err := session.New(newNoopLogger(), new(AuthAPIMock), db)
	require.NoError(t, err)

	sess := store.Current()
	requireInvariant(t, sess)
	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, "u1", sess.User.ID)
}

func TestStore_RestoreHalfPairCleared(t *testing.T) {
	tests := []struct {
		name string
		seed func(db storage.Store)
	}{
		{
			name: "token without user",
			seed: func(db storage.Store) {
				_ = db.Set(storage.KeySessionToken, "tok-1")
			},
		},
		{
			name: "user without token",
			seed: func(db storage.Store) {
				_ = db.Set(storage.KeySessionUser, `{"id":"u1"}`)
			},
		},
		{
			name: "corrupted user json",
			seed: func(db storage.Store) {
				_ = db.Set(storage.KeySessionToken, "tok-1")
				_ = db.Set(storage.KeySessionUser, "not a json")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := storage.NewMemoryStore()
			tt.seed(db)

			store, err := session.New(newNoopLogger(), new(AuthAPIMock), db)
			require.NoError(t, err)

			requireInvariant(t, store.Current())
			assert.False(t, store.IsAuthenticated())

			_, ok, err := db.Get(storage.KeySessionToken)
			require.NoError(t, err)
			assert.False(t, ok)
			_, ok, err = db.Get(storage.KeySessionUser)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStore_SubscribeNotified(t *testing.T) {
	authMock := new(AuthAPIMock)
	db := storage.NewMemoryStore()

	authMock.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(&api.LoginResponse{Token: "tok-1", User: models.User{ID: "u1"}}, nil).Once()
	authMock.On("Logout", mock.Anything).Return(nil).Once()

	store, err := session.New(newNoopLogger(), authMock, db)
	require.NoError(t, err)

	var snapshots []models.Session
	store.Subscribe(func(sess models.Session) {
		snapshots = append(snapshots, sess)
	})

	require.NoError(t, store.Login(context.Background(), "user@example.com", "password123"))
	store.Logout(context.Background())

	require.Len(t, snapshots, 2)
	assert.True(t, snapshots[0].Authenticated())
	assert.False(t, snapshots[1].Authenticated())
}

func TestStore_ClearError(t *testing.T) {
	authMock := new(AuthAPIMock)
	db := storage.NewMemoryStore()

	authMock.On("Login", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &api.AuthError{Message: "invalid email or password"}).Once()

	store, err := session.New(newNoopLogger(), authMock, db)
	require.NoError(t, err)

	_ = store.Login(context.Background(), "user@example.com", "wrong")
	require.NotEmpty(t, store.Err())

	store.ClearError()
	assert.Empty(t, store.Err())
	assert.False(t, store.IsAuthenticated())
}
