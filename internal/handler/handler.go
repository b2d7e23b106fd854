package handler

import (
	"errors"
	"net/http"

	"commerce-service/internal/tokenstore"
	"commerce-service/internal/validation"
	"commerce-service/pkg/config"
	"commerce-service/pkg/jwtutil"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler serves every /api/v1 endpoint
type Handler struct {
	db     *gorm.DB
	jwt    *jwtutil.JWTUtil
	tokens tokenstore.Store
	cfg    *config.Config
}

// New creates a handler set sharing one database pool
func New(db *gorm.DB, jwtUtil *jwtutil.JWTUtil, tokens tokenstore.Store, cfg *config.Config) *Handler {
	return &Handler{db: db, jwt: jwtUtil, tokens: tokens, cfg: cfg}
}

// validationFailed answers a rejected payload with 400 "Error: <message>".
// Errors that are not validation failures bubble to the server error handler.
func validationFailed(c echo.Context, log *zap.Logger, err error) error {
	if !validation.IsValidationError(err) {
		return err
	}
	log.Info("Validation failed", zap.String("reason", err.Error()))
	return c.String(http.StatusBadRequest, "Error: "+err.Error())
}

// invalidBody answers a body echo could not decode
func invalidBody(c echo.Context, log *zap.Logger, err error) error {
	log.Warn("Invalid request body", zap.Error(err))
	return c.String(http.StatusBadRequest, "Error: invalid request body")
}

// pathID returns the :id param and whether it is a well formed UUID
func pathID(c echo.Context) (string, bool) {
	id := c.Param("id")
	return id, validID(id)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isDuplicate reports a unique index violation, translated by the gorm dialector
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
