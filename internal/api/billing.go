package api

import (
	"context"
	"errors"
	"net/http"
)

type checkoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

type portalResponse struct {
	PortalURL string `json:"portal_url"`
}

// Checkout создает у биллингового сервиса checkout-сессию для плана
// и возвращает внешний URL оплаты. Клиент URL не проверяет и не меняет.
func (c *Client) Checkout(ctx context.Context, planSlug string) (string, error) {
	const op = "api.Checkout"

	body := map[string]string{"plan_slug": planSlug}
	req, err := c.newRequest(ctx, http.MethodPost, "/subscriptions/checkout", body)
	if err != nil {
		return "", &NetworkError{Op: op, Err: err}
	}

	var out checkoutResponse
	if err := c.do(op, req, &out); err != nil {
		return "", asCheckoutError(err, "failed to start checkout")
	}
	return out.CheckoutURL, nil
}

// Portal возвращает внешний URL личного кабинета биллингового провайдера.
func (c *Client) Portal(ctx context.Context) (string, error) {
	const op = "api.Portal"

	req, err := c.newRequest(ctx, http.MethodPost, "/subscriptions/portal", nil)
	if err != nil {
		return "", &NetworkError{Op: op, Err: err}
	}

	var out portalResponse
	if err := c.do(op, req, &out); err != nil {
		return "", asCheckoutError(err, "failed to open billing portal")
	}
	return out.PortalURL, nil
}

// Sync просит биллинговый сервис сверить своё состояние подписки
// с платёжным провайдером. Вызывается фоном, результат не возвращается.
func (c *Client) Sync(ctx context.Context) error {
	const op = "api.Sync"

	req, err := c.newRequest(ctx, http.MethodPost, "/subscriptions/sync", nil)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	return c.do(op, req, nil)
}

// asCheckoutError переводит отказ биллинга в CheckoutError, сохраняя сетевые ошибки как есть.
func asCheckoutError(err error, fallback string) error {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return &CheckoutError{Message: statusErr.Payload.Message(fallback)}
	}
	return err
}
