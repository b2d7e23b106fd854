package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"commerce-service/internal/model"
	"commerce-service/pkg/jwtutil"
	"commerce-service/pkg/logger"
	"commerce-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const currentUserKey = "current_user"

const (
	MsgTokenRequired = "Forbidden Exception. Token must be provided"
	MsgAdminOnly     = "Forbidden Exception. Only Admin can access this route"
	MsgUnauthorized  = "Unauthorized to access this route"
)

// Authenticate validates the bearer token and attaches the referenced user to the context.
// The attached user is nil when the account no longer exists.
func Authenticate(jwtUtil *jwtutil.JWTUtil, db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			tokenString := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if tokenString == "" {
				log.Warn("Missing bearer token")
				prometheus.RecordAuthError("missing_token")
				return c.String(http.StatusForbidden, MsgTokenRequired)
			}

			claims, err := jwtUtil.ValidateToken(tokenString)
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token").SetInternal(err)
			}

			done := prometheus.TrackDBOperation("user_lookup")
			var user model.User
			err = db.WithContext(c.Request().Context()).First(&user, "id = ?", claims.UserID).Error
			done(time.Now())

			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				log.Warn("Token references a missing user", zap.String("user_id", claims.UserID))
				c.Set(currentUserKey, (*model.User)(nil))
			case err != nil:
				return err
			default:
				c.Set(currentUserKey, &user)
				log.Debug("Request authenticated",
					zap.String("user_id", user.ID),
					zap.String("role", string(user.Role)))
			}

			return next(c)
		}
	}
}

// bearerToken extracts the token from "Bearer <token>", matching the scheme case-insensitively
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// CurrentUser returns the authenticated user or nil
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(currentUserKey).(*model.User)
	return user
}

// RequireUser rejects requests whose token references no existing user
func RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CurrentUser(c) == nil {
			prometheus.RecordAuthError("unknown_user")
			return c.String(http.StatusUnauthorized, MsgUnauthorized)
		}
		return next(c)
	}
}

// RequireAdmin rejects non-admin users before the handler reads the body
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil {
			prometheus.RecordAuthError("unknown_user")
			return c.String(http.StatusUnauthorized, MsgUnauthorized)
		}
		if !user.IsAdmin() {
			logger.FromContext(c).Warn("Admin route denied", zap.String("user_id", user.ID))
			prometheus.RecordAuthError("forbidden")
			return c.String(http.StatusForbidden, MsgAdminOnly)
		}
		return next(c)
	}
}
