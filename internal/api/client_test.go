package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-portal/internal/api"
)

type staticTokens struct {
	token string
}

func (s *staticTokens) Token() string { return s.token }

func newTestClient(t *testing.T, handler http.HandlerFunc, token string) *api.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL, 0, 100, 100, &staticTokens{token: token})
}

func TestClient_Login_Success(t *testing.T) {
	var gotPath, gotRequestID string
	handler := func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRequestID = r.Header.Get("X-Request-Id")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user@example.com", body["email"])
		assert.Equal(t, "password123", body["password"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok-1","user":{"id":"u1","email":"user@example.com","first_name":"Ivan","admin":false}}`))
	}

	client := newTestClient(t, handler, "")
	resp, err := client.Login(context.Background(), "user@example.com", "password123")
	require.NoError(t, err)

	assert.Equal(t, "/auth/login", gotPath)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "tok-1", resp.Token)
	assert.Equal(t, "u1", resp.User.ID)
}

func TestClient_Login_InvalidCredentials(t *testing.T) {
	handler := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid email or password"}`))
	}

	client := newTestClient(t, handler, "")
	_, err := client.Login(context.Background(), "user@example.com", "wrong")

	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "invalid email or password", authErr.Message)
}

func TestClient_Register_FieldErrors(t *testing.T) {
	handler := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":{"email":["has already been taken"],"password":["is too short"]}}`))
	}

	client := newTestClient(t, handler, "")
	_, err := client.Register(context.Background(), api.RegisterRequest{Email: "user@example.com"})

	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	// Полевые ошибки склеиваются в устойчивом порядке
	assert.Equal(t, "email: has already been taken; password: is too short", authErr.Message)
}

func TestClient_Register_EmptyErrorBody(t *testing.T) {
	handler := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}

	client := newTestClient(t, handler, "")
	_, err := client.Register(context.Background(), api.RegisterRequest{Email: "user@example.com"})

	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "registration failed", authErr.Message)
}

func TestClient_Profile_SendsBearerToken(t *testing.T) {
	var gotAuth string
	handler := func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"user":{"id":"u1","email":"user@example.com"}}`))
	}

	client := newTestClient(t, handler, "tok-1")
	user, err := client.Profile(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "u1", user.ID)
}

func TestClient_Plans_OrderPreserved(t *testing.T) {
	handler := func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"plans":[
			{"id":"p1","slug":"free","name":"Free","price":0,"billing_period":"monthly"},
			{"id":"p2","slug":"growth","name":"Growth","price":2900,"billing_period":"monthly","is_featured":true},
			{"id":"p3","slug":"enterprise","name":"Enterprise","billing_period":"yearly"}
		]}`))
	}

	client := newTestClient(t, handler, "")
	plans, err := client.Plans(context.Background())
	require.NoError(t, err)

	require.Len(t, plans, 3)
	assert.Equal(t, "free", plans[0].Slug)
	assert.Equal(t, "growth", plans[1].Slug)
	assert.Equal(t, "enterprise", plans[2].Slug)
	assert.True(t, plans[0].Free())
	assert.False(t, plans[1].ContactOnly())
	assert.True(t, plans[2].ContactOnly())
}

func TestClient_Checkout_Success(t *testing.T) {
	handler := func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "growth", body["plan_slug"])
		_, _ = w.Write([]byte(`{"checkout_url":"https://billing.example.com/c/sess_123"}`))
	}

	client := newTestClient(t, handler, "tok-1")
	url, err := client.Checkout(context.Background(), "growth")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.example.com/c/sess_123", url)
}

func TestClient_Checkout_Rejected(t *testing.T) {
	handler := func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"unknown plan"}`))
	}

	client := newTestClient(t, handler, "tok-1")
	_, err := client.Checkout(context.Background(), "bogus")

	var checkoutErr *api.CheckoutError
	require.ErrorAs(t, err, &checkoutErr)
	assert.Equal(t, "unknown plan", checkoutErr.Message)
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // сервер недоступен

	client := api.NewClient(srv.URL, 0, 100, 100, nil)
	err := client.Sync(context.Background())

	var netErr *api.NetworkError
	require.ErrorAs(t, err, &netErr)
}
