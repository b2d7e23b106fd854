package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"commerce-service/internal/model"
	"commerce-service/pkg/config"
	"commerce-service/pkg/jwtutil"
	"commerce-service/pkg/logger"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fixture struct {
	e     *echo.Echo
	jwt   *jwtutil.JWTUtil
	user  model.User
	admin model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))

	f := &fixture{
		e:     echo.New(),
		jwt:   jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 1}),
		user:  model.User{Name: "Plain User", Phone: "08030000000", Email: "user@example.com", Password: "x"},
		admin: model.User{Name: "Admin User", Phone: "08030000001", Email: "admin@example.com", Password: "x", Role: model.RoleAdmin},
	}
	require.NoError(t, db.Create(&f.user).Error)
	require.NoError(t, db.Create(&f.admin).Error)

	ok := func(c echo.Context) error {
		return c.String(http.StatusOK, CurrentUser(c).Name)
	}
	g := f.e.Group("", RequestIDMiddleware(zap.NewNop()), Authenticate(f.jwt, db))
	g.GET("/user", ok, RequireUser)
	g.POST("/admin", ok, RequireAdmin)
	g.GET("/any", func(c echo.Context) error {
		if CurrentUser(c) == nil {
			return c.String(http.StatusOK, "nobody")
		}
		return ok(c)
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, auth string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) token(t *testing.T, u model.User) string {
	t.Helper()
	token, err := f.jwt.GenerateToken(u.ID, u.Email)
	require.NoError(t, err)
	return token
}

func TestAuthenticateMissingToken(t *testing.T) {
	f := newFixture(t)

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer "} {
		rec := f.do(t, http.MethodGet, "/user", header)
		assert.Equal(t, http.StatusForbidden, rec.Code, header)
		assert.Equal(t, MsgTokenRequired, rec.Body.String())
	}
}

func TestAuthenticateInvalidToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/user", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateSchemeIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	token := f.token(t, f.user)

	for _, scheme := range []string{"Bearer", "bearer", "BEARER"} {
		rec := f.do(t, http.MethodGet, "/user", scheme+" "+token)
		assert.Equal(t, http.StatusOK, rec.Code, scheme)
		assert.Equal(t, "Plain User", rec.Body.String())
	}
}

func TestAuthenticateDeletedUserAttachesNil(t *testing.T) {
	f := newFixture(t)
	ghost := model.User{ID: "00000000-0000-0000-0000-000000000000", Email: "ghost@example.com"}
	token := f.token(t, ghost)

	rec := f.do(t, http.MethodGet, "/any", "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nobody", rec.Body.String())

	rec = f.do(t, http.MethodGet, "/user", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/admin", "Bearer "+f.token(t, f.user))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, MsgAdminOnly, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/admin", "Bearer "+f.token(t, f.admin))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Admin User", rec.Body.String())
}

func TestRequestIDMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	e := echo.New()
	e.Use(RequestIDMiddleware(zap.New(core)))
	e.GET("/", func(c echo.Context) error {
		logger.FromContext(c).Info("handled")
		return c.NoContent(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(logger.RequestIDKey)
	assert.NotEmpty(t, generated)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(logger.RequestIDKey, "upstream-id")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "upstream-id", rec.Header().Get(logger.RequestIDKey))

	// handler logs go through the injected logger, tagged with the request id
	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, generated, entries[0].ContextMap()["request_id"])
	assert.Equal(t, "upstream-id", entries[1].ContextMap()["request_id"])
}
