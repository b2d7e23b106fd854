package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"commerce-service/internal/model"
	"commerce-service/internal/tokenstore"
	"commerce-service/pkg/config"
	"commerce-service/pkg/database"
	"commerce-service/pkg/jwtutil"
	"commerce-service/pkg/logger"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testApp struct {
	t   *testing.T
	e   *echo.Echo
	db  *gorm.DB
	jwt *jwtutil.JWTUtil
}

func newTestApp(t *testing.T) *testApp {
	return newTestAppWithEnv(t, "test")
}

func newTestAppWithEnv(t *testing.T, env string) *testApp {
	return newTestAppWithLogger(t, env, zap.NewNop())
}

func newTestAppWithLogger(t *testing.T, env string, log *zap.Logger) *testApp {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{
		ServiceName: "commerce-service",
		Server:      config.ServerConfig{Port: "0", Env: env},
		JWT:         config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1},
		Reset:       config.ResetConfig{TokenTTL: 15 * time.Minute, ClientURL: "http://client.test"},
	}
	jwtUtil := jwtutil.NewJWTUtil(&cfg.JWT)
	logger.SetLogger(zap.NewNop())

	e := New(Deps{
		Config: cfg,
		DB:     db,
		JWT:    jwtUtil,
		Tokens: tokenstore.NewGormStore(db, cfg.Reset.TokenTTL),
		Logger: log,
	})
	return &testApp{t: t, e: e, db: db, jwt: jwtUtil}
}

// do sends body as JSON unless it is already a string
func (a *testApp) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type account struct {
	ID    string
	Email string
	Token string
}

// register signs up an account; the role is honoured because the app runs in test mode
func (a *testApp) register(name, email, phone string, role model.Role) account {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"phone":    phone,
		"password": "password",
		"role":     string(role),
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decode[map[string]interface{}](a.t, rec)
	return account{ID: resp["id"].(string), Email: email, Token: resp["token"].(string)}
}

func (a *testApp) admin() account {
	return a.register("Admin Abdillah", "admin@example.com", "09990000000", model.RoleAdmin)
}

func (a *testApp) customer(email string) account {
	return a.register("Abu Ibrahim", email, "08030000000", model.RoleUser)
}

// createItem adds an item as admin and returns its id
func (a *testApp) createItem(adminToken, name string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/v1/items", adminToken, map[string]interface{}{
		"name":          name,
		"category":      "block",
		"imageUrl":      "https://cdn.example.com/" + name + ".png",
		"price":         450,
		"deliveryValue": 2,
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	for _, item := range decode[[]model.Item](a.t, rec) {
		if item.Name == name {
			return item.ID
		}
	}
	a.t.Fatalf("item %q missing from create response", name)
	return ""
}

func (a *testApp) addToCart(token, itemID string, quantity int) *httptest.ResponseRecorder {
	a.t.Helper()
	return a.do(http.MethodPost, "/api/v1/carts", token, map[string]interface{}{
		"itemId":   itemID,
		"quantity": quantity,
	})
}
