package server

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"commerce-service/internal/model"
	"commerce-service/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRootAndHealth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Server is running", rec.Body.String())

	rec = app.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]string](t, rec)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "commerce-service", health["service"])

	rec = app.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "commerce_http_requests_total")
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/api/v1/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Resource not found", rec.Body.String())
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	app.customer("test1@gmail.com")

	rec := app.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Abu Abdillah",
		"email":    "Test1@gmail.com",
		"phone":    "0099033223432",
		"password": "password",
		"role":     "user",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email must be unique")
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name     string
		body     map[string]string
		expected string
	}{
		{
			name:     "short name",
			body:     map[string]string{"name": "john", "email": "j@example.com", "phone": "0099033223432", "password": "password", "role": "user"},
			expected: "Error: Name must be at least 5 characters",
		},
		{
			name:     "short password",
			body:     map[string]string{"name": "Johnny", "email": "j@example.com", "phone": "0099033223432", "password": "12345", "role": "user"},
			expected: "Error: Password must be at least 6 characters",
		},
		{
			name:     "bad email",
			body:     map[string]string{"name": "Johnny", "email": "nope", "phone": "0099033223432", "password": "password", "role": "user"},
			expected: "Error: Missing or invalid email nope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPost, "/api/v1/auth/register", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.expected, rec.Body.String())
		})
	}

	rec := app.do(http.MethodPost, "/api/v1/auth/register", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Error: invalid request body", rec.Body.String())
}

func TestRegisterIgnoresRoleOutsideTestMode(t *testing.T) {
	app := newTestAppWithEnv(t, "development")

	rec := app.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Sneaky Admin",
		"email":    "sneaky@example.com",
		"phone":    "0099033223432",
		"password": "password",
		"role":     "admin",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user", decode[map[string]interface{}](t, rec)["role"])
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	admin := app.admin()
	user := app.customer("buyer@example.com")
	itemID := app.createItem(admin.Token, "9 inches hollow")
	require.Equal(t, http.StatusCreated, app.addToCart(user.Token, itemID, 2).Code)

	t.Run("by email", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "BUYER@example.com", "password": "password",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[map[string]interface{}](t, rec)
		assert.Equal(t, user.ID, resp["id"])
		assert.NotEmpty(t, resp["token"])
		assert.EqualValues(t, 1, resp["cart"])
		assert.NotContains(t, resp, "password")
	})

	t.Run("by phone", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"phone": "09990000000", "password": "password",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, admin.ID, decode[map[string]interface{}](t, rec)["id"])
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "buyer@example.com", "password": "not-the-password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown account", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"email": "ghost@example.com", "password": "password",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLoginTokenLastsOneHour(t *testing.T) {
	app := newTestApp(t)
	user := app.customer("buyer@example.com")

	claims, err := app.jwt.ValidateToken(user.Token)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	assert.Equal(t, user.ID, claims.UserID)
}

func TestAuthGate(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(http.MethodGet, "/api/v1/carts", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Forbidden Exception. Token must be provided", rec.Body.String())

	rec = app.do(http.MethodGet, "/api/v1/carts", "garbage.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeletedUserTokenIsRejected(t *testing.T) {
	app := newTestApp(t)
	admin := app.admin()
	user := app.customer("gone@example.com")

	rec := app.do(http.MethodDelete, "/api/v1/users/"+user.ID, admin.Token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = app.do(http.MethodGet, "/api/v1/users/me", user.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePassword(t *testing.T) {
	app := newTestApp(t)
	user := app.customer("buyer@example.com")
	other := app.customer("other@example.com")

	rec := app.do(http.MethodPut, "/api/v1/auth/"+other.ID, user.Token, map[string]string{
		"currentPassword": "password", "newPassword": "new-password",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(http.MethodPut, "/api/v1/auth/"+user.ID, user.Token, map[string]string{
		"currentPassword": "wrong-password", "newPassword": "new-password",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Current password does not correspond", rec.Body.String())

	rec = app.do(http.MethodPut, "/api/v1/auth/"+user.ID, user.Token, map[string]string{
		"currentPassword": "password", "newPassword": "new-password",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[map[string]interface{}](t, rec)["token"])

	rec = app.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "buyer@example.com", "password": "new-password",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPasswordReset(t *testing.T) {
	app := newTestApp(t)
	user := app.customer("buyer@example.com")

	rec := app.do(http.MethodPost, "/api/v1/auth/password-reset", "", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// a second request replaces the first token
	rec = app.do(http.MethodPost, "/api/v1/auth/password-reset", "", map[string]string{"email": "buyer@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	staleLink, err := url.Parse(decode[map[string]string](t, rec)["link"])
	require.NoError(t, err)

	rec = app.do(http.MethodPost, "/api/v1/auth/password-reset", "", map[string]string{"email": "buyer@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[map[string]string](t, rec)
	assert.Equal(t, "Abu Ibrahim", resp["name"])

	link, err := url.Parse(resp["link"])
	require.NoError(t, err)
	assert.Equal(t, "client.test", link.Host)
	assert.Equal(t, "/passwordReset", link.Path)
	assert.Equal(t, user.ID, link.Query().Get("id"))

	var count int64
	app.db.Model(&model.PasswordResetToken{}).Where("user_id = ?", user.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	rec = app.do(http.MethodPut, "/api/v1/auth/password-reset", "", map[string]string{
		"userId": user.ID, "token": staleLink.Query().Get("token"), "password": "brand-new",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.do(http.MethodPut, "/api/v1/auth/password-reset", "", map[string]string{
		"userId": user.ID, "token": link.Query().Get("token"), "password": "brand-new",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "buyer@example.com", "password": "brand-new",
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// tokens are single use
	rec = app.do(http.MethodPut, "/api/v1/auth/password-reset", "", map[string]string{
		"userId": user.ID, "token": link.Query().Get("token"), "password": "another-one",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPasswordResetForDeletedAccount(t *testing.T) {
	app := newTestApp(t)
	admin := app.admin()
	user := app.customer("buyer@example.com")

	rec := app.do(http.MethodPost, "/api/v1/auth/password-reset", "", map[string]string{"email": "buyer@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	link, err := url.Parse(decode[map[string]string](t, rec)["link"])
	require.NoError(t, err)

	require.Equal(t, http.StatusNoContent, app.do(http.MethodDelete, "/api/v1/users/"+user.ID, admin.Token, nil).Code)

	rec = app.do(http.MethodPut, "/api/v1/auth/password-reset", "", map[string]string{
		"userId": user.ID, "token": link.Query().Get("token"), "password": "brand-new",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Invalid or expired password reset token", rec.Body.String())

	rec = app.do(http.MethodPut, "/api/v1/auth/password-reset", "", map[string]string{
		"userId": "not-a-uuid", "token": "whatever", "password": "brand-new",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequestsAreLoggedThroughInjectedLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	app := newTestAppWithLogger(t, "test", zap.New(core))

	rec := app.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterMessage("HTTP request completed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/health", fields["path"])
	assert.Equal(t, rec.Header().Get(logger.RequestIDKey), fields["request_id"])
}
