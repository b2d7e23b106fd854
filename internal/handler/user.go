package handler

import (
	"fmt"
	"net/http"
	"time"

	"commerce-service/internal/middleware"
	"commerce-service/internal/model"
	"commerce-service/internal/validation"
	"commerce-service/pkg/logger"
	"commerce-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func userNotFound(c echo.Context, id string) error {
	return c.String(http.StatusNotFound, fmt.Sprintf("User with id: %s not found", id))
}

func (h *Handler) allUsers(c echo.Context) ([]model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var users []model.User
	if err := h.db.WithContext(c.Request().Context()).Order("created_at").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ListUsers returns every account
func (h *Handler) ListUsers(c echo.Context) error {
	users, err := h.allUsers(c)
	if err != nil {
		return err
	}
	logger.FromContext(c).Info("Users retrieved", zap.Int("count", len(users)))
	return c.JSON(http.StatusOK, users)
}

// Me returns the caller's own profile
func (h *Handler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// GetUser returns one account
func (h *Handler) GetUser(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return userNotFound(c, id)
	}

	var user model.User
	if err := h.db.WithContext(c.Request().Context()).First(&user, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return userNotFound(c, id)
		}
		return fmt.Errorf("failed to get user: %w", err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateUser lets an admin change name, phone and role, then lists every account
func (h *Handler) UpdateUser(c echo.Context) error {
	log := logger.FromContext(c)

	var req validation.UserInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c, log, err)
	}
	update, err := validation.AdminUpdate(req)
	if err != nil {
		return validationFailed(c, log, err)
	}

	id, ok := pathID(c)
	if !ok {
		return userNotFound(c, id)
	}

	done := prometheus.TrackDBOperation("update")
	result := h.db.WithContext(c.Request().Context()).Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":  update.Name,
		"phone": update.Phone,
		"role":  update.Role,
	})
	done(time.Now())
	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return userNotFound(c, id)
	}

	prometheus.RecordOperation("user", "update")
	log.Info("User updated by admin",
		zap.String("user_id", id),
		zap.String("role", string(update.Role)),
		zap.String("admin_id", middleware.CurrentUser(c).ID))

	users, err := h.allUsers(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// UpdateProfile changes name and phone of the caller, or of anyone when the caller is an admin
func (h *Handler) UpdateProfile(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)

	id, ok := pathID(c)
	if id != user.ID && !user.IsAdmin() {
		prometheus.RecordAuthError("forbidden")
		return c.String(http.StatusForbidden, "Forbidden Exception. Cannot update another user")
	}
	if !ok {
		return userNotFound(c, id)
	}

	var req validation.UserInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c, log, err)
	}
	update, err := validation.Profile(req)
	if err != nil {
		return validationFailed(c, log, err)
	}

	result := h.db.WithContext(c.Request().Context()).Model(&model.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":  update.Name,
		"phone": update.Phone,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return userNotFound(c, id)
	}

	prometheus.RecordOperation("user", "profile_update")
	log.Info("Profile updated", zap.String("user_id", id))
	return c.JSON(http.StatusOK, echo.Map{
		"name":  update.Name,
		"phone": update.Phone,
	})
}

// DeleteUser removes an account
func (h *Handler) DeleteUser(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return userNotFound(c, id)
	}

	done := prometheus.TrackDBOperation("delete")
	result := h.db.WithContext(c.Request().Context()).Where("id = ?", id).Delete(&model.User{})
	done(time.Now())
	if result.Error != nil {
		return fmt.Errorf("failed to delete user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return userNotFound(c, id)
	}

	prometheus.RecordOperation("user", "delete")
	logger.FromContext(c).Info("User deleted", zap.String("user_id", id))
	return c.NoContent(http.StatusNoContent)
}
