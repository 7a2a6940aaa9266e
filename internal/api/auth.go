package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/magabrotheeeer/subscription-portal/internal/models"
)

// RegisterRequest — поля формы регистрации.
// Клиент ничего здесь не проверяет: валидация значений — на сервере,
// предварительные проверки формы живут в слое представления.
type RegisterRequest struct {
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	FullName             string `json:"full_name"`
	CompanyName          string `json:"company_name,omitempty"`
}

// RegisterResponse — сырой ответ сервиса аутентификации на регистрацию.
// Успешная регистрация сессию не создает: вход — отдельный явный шаг.
type RegisterResponse struct {
	OK bool `json:"ok"`
}

// LoginResponse — токен и профиль, выданные при успешном входе.
type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type profileResponse struct {
	User models.User `json:"user"`
}

// UpdateProfileRequest — изменяемые поля профиля.
type UpdateProfileRequest struct {
	FullName    string `json:"full_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// Register отправляет данные регистрации.
// Отказ сервера возвращается как *AuthError с сообщением,
// собранным из полевых или общей ошибки ответа.
func (c *Client) Register(ctx context.Context, reqParams RegisterRequest) (*RegisterResponse, error) {
	const op = "api.Register"

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/register", reqParams)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	var out RegisterResponse
	if err := c.do(op, req, &out); err != nil {
		return nil, asAuthError(err, "registration failed")
	}
	return &out, nil
}

// Login обменивает учётные данные на токен и профиль.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	const op = "api.Login"

	body := map[string]string{"email": email, "password": password}
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	var out LoginResponse
	if err := c.do(op, req, &out); err != nil {
		return nil, asAuthError(err, "invalid credentials")
	}
	return &out, nil
}

// Logout завершает сессию на сервере.
func (c *Client) Logout(ctx context.Context) error {
	const op = "api.Logout"

	req, err := c.newRequest(ctx, http.MethodPost, "/auth/logout", nil)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	return c.do(op, req, nil)
}

// Profile запрашивает актуальный профиль текущего пользователя.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	const op = "api.Profile"

	req, err := c.newRequest(ctx, http.MethodGet, "/auth/profile", nil)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	var out profileResponse
	if err := c.do(op, req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// UpdateProfile изменяет поля профиля и возвращает обновлённый профиль целиком.
func (c *Client) UpdateProfile(ctx context.Context, reqParams UpdateProfileRequest) (*models.User, error) {
	const op = "api.UpdateProfile"

	req, err := c.newRequest(ctx, http.MethodPatch, "/auth/profile", reqParams)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	var out profileResponse
	if err := c.do(op, req, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// asAuthError переводит отказ сервера в AuthError, сохраняя сетевые ошибки как есть.
func asAuthError(err error, fallback string) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return &AuthError{Message: statusErr.Payload.Message(fallback)}
	}
	return err
}
