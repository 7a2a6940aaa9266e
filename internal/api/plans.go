package api

import (
	"context"
	"net/http"

	"github.com/magabrotheeeer/subscription-portal/internal/models"
)

type plansResponse struct {
	Plans []models.Plan `json:"plans"`
}

// Plans возвращает каталог тарифных планов в порядке, заданном бэкендом.
func (c *Client) Plans(ctx context.Context) ([]models.Plan, error) {
	const op = "api.Plans"

	req, err := c.newRequest(ctx, http.MethodGet, "/plans", nil)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	var out plansResponse
	if err := c.do(op, req, &out); err != nil {
		return nil, err
	}
	return out.Plans, nil
}
