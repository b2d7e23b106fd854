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

func paymentNotFound(c echo.Context, id string) error {
	return c.String(http.StatusNotFound, fmt.Sprintf("Payment with id: %s not found", id))
}

func (h *Handler) listPayments(c echo.Context, userID string) ([]model.Payment, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	query := h.db.WithContext(c.Request().Context()).Order("created_at")
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}
	var payments []model.Payment
	if err := query.Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// CreatePayment records a pending payment for the caller
func (h *Handler) CreatePayment(c echo.Context) error {
	log := logger.FromContext(c)
	user := middleware.CurrentUser(c)

	var req validation.PaymentInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c, log, err)
	}
	amount, err := validation.Amount(req.Amount)
	if err != nil {
		return validationFailed(c, log, err)
	}

	payment := model.Payment{
		Amount: amount,
		Status: model.PaymentStatusPending,
		UserID: user.ID,
	}

	done := prometheus.TrackDBOperation("insert")
	err = h.db.WithContext(c.Request().Context()).Create(&payment).Error
	done(time.Now())
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	prometheus.RecordOperation("payment", "create")
	log.Info("Payment created", zap.String("payment_id", payment.ID), zap.String("amount", amount.String()))
	return c.JSON(http.StatusCreated, payment)
}

// MyPayments returns the caller's payments
func (h *Handler) MyPayments(c echo.Context) error {
	payments, err := h.listPayments(c, middleware.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

// AllPayments returns every payment
func (h *Handler) AllPayments(c echo.Context) error {
	payments, err := h.listPayments(c, "")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payments)
}

// UpdatePaymentStatus sets the status of payment :id and returns it
func (h *Handler) UpdatePaymentStatus(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()

	var req validation.StatusInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c, log, err)
	}
	status, err := validation.PaymentStatus(req.Status)
	if err != nil {
		return validationFailed(c, log, err)
	}

	id, ok := pathID(c)
	if !ok {
		return paymentNotFound(c, id)
	}

	var payment model.Payment
	if err := h.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return paymentNotFound(c, id)
		}
		return fmt.Errorf("failed to get payment: %w", err)
	}

	done := prometheus.TrackDBOperation("update")
	err = h.db.WithContext(ctx).Model(&payment).Update("status", status).Error
	done(time.Now())
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	payment.Status = status

	prometheus.RecordOperation("payment", "update_status")
	log.Info("Payment status updated", zap.String("payment_id", id), zap.String("status", string(status)))
	return c.JSON(http.StatusOK, payment)
}

// DeletePayment removes a payment record
func (h *Handler) DeletePayment(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return paymentNotFound(c, id)
	}

	result := h.db.WithContext(c.Request().Context()).Where("id = ?", id).Delete(&model.Payment{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return paymentNotFound(c, id)
	}

	prometheus.RecordOperation("payment", "delete")
	logger.FromContext(c).Info("Payment deleted", zap.String("payment_id", id))
	return c.NoContent(http.StatusNoContent)
}
