// Package session содержит единственного владельца состояния "кто вошёл":
// токен сессии, профиль пользователя и снимок подписки. Все операции
// входа, выхода и обновления профиля идут через Store; остальные
// компоненты читают снимок и подписываются на его изменения.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/magabrotheeeer/subscription-portal/internal/api"
	"github.com/magabrotheeeer/subscription-portal/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-portal/internal/models"
	"github.com/magabrotheeeer/subscription-portal/internal/storage"
)

// AuthAPI описывает контракт сервиса аутентификации, используемый хранилищем сессии.
type AuthAPI interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) (*models.User, error)
}

// Store — хранилище сессии. Создается явно и передается зависимостям,
// глобального экземпляра нет. Методы можно звать из конкурентных
// горутин команд: поля защищены мьютексом, но порядок конкурентных
// мутаций не упорядочивается — побеждает последняя запись.
type Store struct {
	log  *slog.Logger
	auth AuthAPI
	db   storage.Store

	mu      sync.RWMutex
	sess    models.Session
	lastErr string
	subs    []func(models.Session)
}

// New восстанавливает сессию из локального хранилища.
// Полузаписанная пара (токен без профиля или наоборот) очищается,
// чтобы инвариант "оба или ни одного" держался с первого снимка.
func New(log *slog.Logger, auth AuthAPI, db storage.Store) (*Store, error) {
	const op = "session.New"

	s := &Store{log: log, auth: auth, db: db}

	token, hasToken, err := db.Get(storage.KeySessionToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rawUser, hasUser, err := db.Get(storage.KeySessionUser)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if hasToken && hasUser {
		var user models.User
		if err := json.Unmarshal([]byte(rawUser), &user); err == nil {
			s.sess = models.Session{Token: token, User: &user}
			return s, nil
		}
		log.Warn("stored user is not valid json, clearing session")
	}
	if hasToken || hasUser {
		s.clearPersisted()
	}
	return s, nil
}

// Subscribe регистрирует обработчик изменений сессии.
// Обработчик вызывается после каждой мутации со свежим снимком.
func (s *Store) Subscribe(fn func(models.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Current возвращает снимок сессии.
func (s *Store) Current() models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess
}

// Token реализует api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.Token
}

// IsAuthenticated сообщает, установлена ли сессия.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sess.Authenticated()
}

// Err возвращает последнюю ошибку входа или регистрации для показа в форме.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// ClearError сбрасывает показанную ошибку, не трогая сессию.
func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastErr = ""
	snap := s.sess
	s.mu.Unlock()
	s.notify(snap)
}

// Register отправляет регистрацию. Сессию успешная регистрация
// не создает: бэкенд требует отдельного явного входа.
// Отказ сервера записывается в видимую ошибку и возвращается вызывающему.
func (s *Store) Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error) {
	const op = "session.Register"

	resp, err := s.auth.Register(ctx, req)
	if err != nil {
		s.setError(err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	s.lastErr = ""
	snap := s.sess
	s.mu.Unlock()
	s.notify(snap)
	return resp, nil
}

// Login обменивает учётные данные на сессию.
// Успех атомарно записывает токен и профиль в память и хранилище
// и сбрасывает прежнюю ошибку; неуспех не трогает состояние сессии.
func (s *Store) Login(ctx context.Context, email, password string) error {
	const op = "session.Login"

	resp, err := s.auth.Login(ctx, email, password)
	if err != nil {
		s.setError(err)
		return fmt.Errorf("%s: %w", op, err)
	}

	user := resp.User
	s.mu.Lock()
	s.sess = models.Session{Token: resp.Token, User: &user}
	s.lastErr = ""
	s.persistLocked()
	snap := s.sess
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Logout завершает сессию. Удалённый вызов делается по возможности:
// его неуспех логируется и не распространяется. Локальная сессия
// очищается безусловно — протухший токен не должен пережить выход.
func (s *Store) Logout(ctx context.Context) {
	const op = "session.Logout"

	if err := s.auth.Logout(ctx); err != nil {
		s.log.Error("remote logout failed", slog.String("op", op), sl.Err(err))
	}

	s.mu.Lock()
	s.sess = models.Session{}
	s.lastErr = ""
	s.clearPersisted()
	snap := s.sess
	s.mu.Unlock()

	s.notify(snap)
}

// FetchProfile перечитывает профиль и заменяет его целиком
// в памяти и хранилище. Ошибки распространяются вызывающему;
// отказ авторизации (401) дополнительно разрушает локальную сессию.
func (s *Store) FetchProfile(ctx context.Context) error {
	const op = "session.FetchProfile"

	user, err := s.auth.Profile(ctx)
	if err != nil {
		if unauthorized(err) {
			s.log.Warn("profile fetch unauthorized, clearing session", slog.String("op", op))
			s.mu.Lock()
			s.sess = models.Session{}
			s.clearPersisted()
			snap := s.sess
			s.mu.Unlock()
			s.notify(snap)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	if !s.sess.Authenticated() {
		// Выход успел случиться, пока ответ был в пути — не воскрешаем профиль
		s.mu.Unlock()
		return nil
	}
	s.sess.User = user
	s.persistLocked()
	snap := s.sess
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// RefreshUser — фоновая версия FetchProfile: неуспех только логируется.
func (s *Store) RefreshUser(ctx context.Context) {
	const op = "session.RefreshUser"

	if err := s.FetchProfile(ctx); err != nil {
		s.log.Warn("background user refresh failed", slog.String("op", op), sl.Err(err))
	}
}

// UpdateProfile изменяет поля профиля; обновлённый профиль
// заменяет прежний целиком в памяти и хранилище.
func (s *Store) UpdateProfile(ctx context.Context, req api.UpdateProfileRequest) error {
	const op = "session.UpdateProfile"

	user, err := s.auth.UpdateProfile(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	if s.sess.Authenticated() {
		s.sess.User = user
		s.persistLocked()
	}
	snap := s.sess
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// setError записывает человекочитаемую ошибку входа или регистрации.
func (s *Store) setError(err error) {
	msg := err.Error()
	var authErr *api.AuthError
	var netErr *api.NetworkError
	switch {
	case errors.As(err, &authErr):
		msg = authErr.Message
	case errors.As(err, &netErr):
		msg = "network error, please try again"
	}

	s.mu.Lock()
	s.lastErr = msg
	snap := s.sess
	s.mu.Unlock()
	s.notify(snap)
}

// persistLocked записывает токен и профиль в хранилище. Вызывается под мьютексом.
// Хранилище гарантирует атомарность только по одному ключу; полузаписанная
// пара чинится при следующем старте в New.
func (s *Store) persistLocked() {
	if err := s.db.Set(storage.KeySessionToken, s.sess.Token); err != nil {
		s.log.Error("failed to persist session token", sl.Err(err))
	}
	raw, err := json.Marshal(s.sess.User)
	if err != nil {
		s.log.Error("failed to marshal user", sl.Err(err))
		return
	}
	if err := s.db.Set(storage.KeySessionUser, string(raw)); err != nil {
		s.log.Error("failed to persist user", sl.Err(err))
	}
}

// clearPersisted удаляет оба ключа сессии из хранилища.
func (s *Store) clearPersisted() {
	if err := s.db.Remove(storage.KeySessionToken); err != nil {
		s.log.Error("failed to remove session token", sl.Err(err))
	}
	if err := s.db.Remove(storage.KeySessionUser); err != nil {
		s.log.Error("failed to remove user", sl.Err(err))
	}
}

// notify вызывает подписчиков вне мьютекса.
func (s *Store) notify(snap models.Session) {
	s.mu.RLock()
	subs := make([]func(models.Session), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(snap)
	}
}

// unauthorized распознает отказ авторизации в ошибке клиента API.
func unauthorized(err error) bool {
	var statusErr *api.StatusError
	return errors.As(err, &statusErr) && statusErr.Code == http.StatusUnauthorized
}
