package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"commerce-service/internal/middleware"
	"commerce-service/internal/model"
	"commerce-service/internal/tokenstore"
	"commerce-service/internal/validation"
	"commerce-service/pkg/logger"
	"commerce-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthResponse is the account summary returned with a fresh token
type AuthResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	CreatedAt time.Time  `json:"createdAt"`
	Role      model.Role `json:"role"`
	Token     string     `json:"token"`
	Cart      *int64     `json:"cart,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	UserID   string `json:"userId"`
	Token    string `json:"token"`
	Password string `json:"password"`
}

const msgInvalidResetToken = "Invalid or expired password reset token"

func (h *Handler) authResponse(ctx context.Context, user *model.User, withCart bool) (*AuthResponse, error) {
	token, err := h.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	resp := &AuthResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Phone:     user.Phone,
		CreatedAt: user.CreatedAt,
		Role:      user.Role,
		Token:     token,
	}
	if withCart {
		count, err := h.cartLineCount(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		resp.Cart = &count
	}
	return resp, nil
}

// cartLineCount returns how many lines the user's cart holds, 0 without a cart
func (h *Handler) cartLineCount(ctx context.Context, userID string) (int64, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var count int64
	err := h.db.WithContext(ctx).Model(&model.CartLine{}).
		Joins("JOIN carts ON carts.id = cart_lines.cart_id").
		Where("carts.user_id = ?", userID).
		Count(&count).Error
	return count, err
}

// Register creates an account and returns it with a token
func (h *Handler) Register(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()

	var req validation.UserInput
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return invalidBody(c, log, err)
	}

	newUser, err := validation.Registration(req, h.cfg.Server.IsTest())
	if err != nil {
		return validationFailed(c, log, err)
	}

	var count int64
	if err := h.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", newUser.Email).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		return duplicateEmail(c, log, newUser.Email)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newUser.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user := model.User{
		Name:     newUser.Name,
		Phone:    newUser.Phone,
		Email:    newUser.Email,
		Password: string(hashedPassword),
		Role:     newUser.Role,
	}

	done := prometheus.TrackDBOperation("insert")
	err = h.db.WithContext(ctx).Create(&user).Error
	done(time.Now())
	if isDuplicate(err) {
		return duplicateEmail(c, log, newUser.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	resp, err := h.authResponse(ctx, &user, false)
	if err != nil {
		return err
	}

	prometheus.RegisterCounter.Inc()
	log.Info("User registered", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, resp)
}

func duplicateEmail(c echo.Context, log *zap.Logger, email string) error {
	log.Warn("User already exists", zap.String("email", email))
	prometheus.RecordAuthError("email_already_exists")
	return c.JSON(http.StatusForbidden, echo.Map{"error": "Email must be unique. User already registered"})
}

// Login authenticates by email or phone plus password
func (h *Handler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		prometheus.RecordAuthError("invalid_request")
		return invalidBody(c, log, err)
	}

	query := h.db.WithContext(ctx)
	if strings.TrimSpace(req.Phone) != "" && strings.TrimSpace(req.Email) == "" {
		query = query.Where("phone = ?", strings.TrimSpace(req.Phone))
	} else {
		email, err := validation.Email(req.Email)
		if err != nil {
			return validationFailed(c, log, err)
		}
		query = query.Where("email = ?", email)
	}

	password, err := validation.Password(req.Password)
	if err != nil {
		return validationFailed(c, log, err)
	}

	done := prometheus.TrackDBOperation("query")
	var user model.User
	err = query.First(&user).Error
	done(time.Now())
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		log.Warn("Login failed", zap.String("email", req.Email), zap.String("phone", req.Phone))
		prometheus.RecordAuthError("login_failure")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Invalid username or password"})
	}

	resp, err := h.authResponse(ctx, &user, true)
	if err != nil {
		return err
	}

	prometheus.LoginCounter.Inc()
	log.Info("User logged in", zap.String("user_id", user.ID))
	return c.JSON(http.StatusOK, resp)
}

// ChangePassword replaces the caller's password after checking the current one
func (h *Handler) ChangePassword(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	if c.Param("id") != user.ID {
		log.Warn("Password change for another account denied",
			zap.String("user_id", user.ID),
			zap.String("target_id", c.Param("id")))
		prometheus.RecordAuthError("forbidden")
		return c.String(http.StatusForbidden, "Forbidden Exception. Cannot change another user's password")
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c, log, err)
	}
	newPassword, err := validation.Password(req.NewPassword)
	if err != nil {
		return validationFailed(c, log, err)
	}
	currentPassword, err := validation.Password(req.CurrentPassword)
	if err != nil {
		return validationFailed(c, log, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(currentPassword)) != nil {
		prometheus.RecordAuthError("password_mismatch")
		return c.String(http.StatusBadRequest, "Current password does not correspond")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	done := prometheus.TrackDBOperation("update")
	err = h.db.WithContext(ctx).Model(user).Update("password", string(hash)).Error
	done(time.Now())
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	resp, err := h.authResponse(ctx, user, true)
	if err != nil {
		return err
	}

	prometheus.RecordOperation("auth", "password_change")
	log.Info("Password changed", zap.String("user_id", user.ID))
	return c.JSON(http.StatusOK, resp)
}

// RequestPasswordReset issues a one-time reset token and returns the reset link
func (h *Handler) RequestPasswordReset(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()

	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c, log, err)
	}
	email, err := validation.Email(req.Email)
	if err != nil {
		return validationFailed(c, log, err)
	}

	var user model.User
	if err := h.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if isNotFound(err) {
			return c.String(http.StatusNotFound, fmt.Sprintf("User %s not found!", email))
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	resetToken, err := newResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(resetToken), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash reset token: %w", err)
	}
	if err := h.tokens.Replace(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link := fmt.Sprintf("%s/passwordReset?token=%s&id=%s",
		strings.TrimRight(h.cfg.Reset.ClientURL, "/"), resetToken, user.ID)

	prometheus.RecordOperation("auth", "reset_request")
	log.Info("Password reset requested", zap.String("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{
		"name": user.Name,
		"link": link,
	})
}

// ResetPassword sets a new password when the reset token matches
func (h *Handler) ResetPassword(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()

	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c, log, err)
	}
	password, err := validation.Password(req.Password)
	if err != nil {
		return validationFailed(c, log, err)
	}

	if !validID(req.UserID) {
		prometheus.RecordAuthError("invalid_reset_token")
		return c.String(http.StatusForbidden, msgInvalidResetToken)
	}

	hash, err := h.tokens.Get(ctx, req.UserID)
	if errors.Is(err, tokenstore.ErrTokenNotFound) {
		prometheus.RecordAuthError("invalid_reset_token")
		return c.String(http.StatusForbidden, msgInvalidResetToken)
	}
	if err != nil {
		return fmt.Errorf("failed to read reset token: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Token)) != nil {
		prometheus.RecordAuthError("invalid_reset_token")
		return c.String(http.StatusForbidden, msgInvalidResetToken)
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	result := h.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", req.UserID).
		Update("password", string(newHash))
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// the account was deleted after the token was issued
		if err := h.tokens.Delete(ctx, req.UserID); err != nil {
			log.Error("Failed to delete orphaned reset token", zap.String("user_id", req.UserID), zap.Error(err))
		}
		prometheus.RecordAuthError("invalid_reset_token")
		return c.String(http.StatusForbidden, msgInvalidResetToken)
	}

	if err := h.tokens.Delete(ctx, req.UserID); err != nil {
		log.Error("Failed to delete used reset token", zap.String("user_id", req.UserID), zap.Error(err))
	}

	prometheus.RecordOperation("auth", "password_reset")
	log.Info("Password reset", zap.String("user_id", req.UserID))
	return c.NoContent(http.StatusOK)
}

func newResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
