package handler

import (
	"fmt"
	"net/http"

	"commerce-service/internal/middleware"
	"commerce-service/internal/model"
	"commerce-service/internal/validation"
	"commerce-service/pkg/logger"
	"commerce-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func reviewNotFound(c echo.Context, id string) error {
	return c.String(http.StatusNotFound, fmt.Sprintf("Review with id: %s not found!", id))
}

// CreateReview stores a review by the caller
func (h *Handler) CreateReview(c echo.Context) error {
	log := logger.FromContext(c)

	var req validation.ReviewInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c, log, err)
	}
	comment, err := validation.Comment(req.Comment)
	if err != nil {
		return validationFailed(c, log, err)
	}
	rating, err := validation.Rating(req.Rating)
	if err != nil {
		return validationFailed(c, log, err)
	}

	review := model.Review{
		UserID:  middleware.CurrentUser(c).ID,
		Comment: comment,
		Rating:  rating,
	}
	if err := h.db.WithContext(c.Request().Context()).Create(&review).Error; err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	prometheus.RecordOperation("review", "create")
	log.Info("Review created", zap.String("review_id", review.ID), zap.Int("rating", rating))
	return c.JSON(http.StatusCreated, review)
}

// ListReviews returns every review
func (h *Handler) ListReviews(c echo.Context) error {
	var reviews []model.Review
	if err := h.db.WithContext(c.Request().Context()).Order("created_at").Find(&reviews).Error; err != nil {
		return fmt.Errorf("failed to list reviews: %w", err)
	}
	return c.JSON(http.StatusOK, reviews)
}

// GetReview returns one review
func (h *Handler) GetReview(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return reviewNotFound(c, id)
	}

	var review model.Review
	if err := h.db.WithContext(c.Request().Context()).First(&review, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return reviewNotFound(c, id)
		}
		return fmt.Errorf("failed to get review: %w", err)
	}
	return c.JSON(http.StatusOK, review)
}

// DeleteReview removes a review owned by the caller
func (h *Handler) DeleteReview(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	id, ok := pathID(c)
	if !ok {
		return reviewNotFound(c, id)
	}

	var review model.Review
	if err := h.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return reviewNotFound(c, id)
		}
		return fmt.Errorf("failed to get review: %w", err)
	}

	if review.UserID != user.ID {
		log.Warn("Review delete by non-owner denied",
			zap.String("review_id", id),
			zap.String("user_id", user.ID))
		prometheus.RecordAuthError("forbidden")
		return c.String(http.StatusForbidden, "Forbidden Exception. Cannot delete another user review")
	}

	if err := h.db.WithContext(ctx).Delete(&review).Error; err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	prometheus.RecordOperation("review", "delete")
	log.Info("Review deleted", zap.String("review_id", id))
	return c.NoContent(http.StatusNoContent)
}
