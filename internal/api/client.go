package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// TokenSource отдаёт текущий токен сессии для заголовка Authorization.
// Пустая строка означает анонимный запрос.
type TokenSource interface {
	Token() string
}

// Client — базовый HTTP-клиент бэкенда.
// Поверх него построены методы auth, plans и billing.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     TokenSource
}

// NewClient создаёт клиент бэкенда.
// Лимитер придерживает исходящие запросы (Wait, не отбрасывание),
// чтобы фоновые синхронизации не забивали канал пользовательскими вызовами.
func NewClient(baseURL string, timeout time.Duration, rps float64, burst int, tokens TokenSource) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		tokens:     tokens,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.baseURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// do выполняет запрос и декодирует успешный ответ в out.
// Неуспех сети возвращается как *NetworkError, неожиданный статус —
// как *StatusError с разобранным телом ошибки.
func (c *Client) do(op string, req *http.Request, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var payload ErrorPayload
		_ = json.NewDecoder(resp.Body).Decode(&payload) // тело ошибки может быть пустым
		return &StatusError{Code: resp.StatusCode, Payload: payload}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	return nil
}
