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
	"gorm.io/gorm"
)

// listOrders loads orders with their lines and item details, optionally for one user
func (h *Handler) listOrders(c echo.Context, userID string) ([]model.Order, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	query := h.db.WithContext(c.Request().Context()).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_lines.id")
		}).
		Preload("Items.Item").
		Order("created_at")
	if userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var orders []model.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// CreateOrder snapshots the caller's cart into a confirmed order and empties the cart
func (h *Handler) CreateOrder(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var req validation.OrderInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c, log, err)
	}
	order, err := validation.NewOrder(req)
	if err != nil {
		return validationFailed(c, log, err)
	}

	cart, found, err := h.userCart(ctx, user.ID, false)
	if err != nil {
		return err
	}
	if !found {
		return c.String(http.StatusBadRequest, "Error: No cart associated with this user")
	}

	order.UserID = user.ID
	order.Items = model.LinesFromCart(cart.Items)

	done := prometheus.TrackDBOperation("insert")
	err = h.db.WithContext(ctx).Create(&order).Error
	done(time.Now())
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	// the order stands even if emptying the cart fails
	if err := h.emptyCart(ctx, cart.ID); err != nil {
		log.Error("Failed to empty cart after order", zap.String("order_id", order.ID), zap.Error(err))
	}

	prometheus.RecordOperation("order", "create")
	log.Info("Order placed",
		zap.String("order_id", order.ID),
		zap.Int("lines", len(order.Items)),
		zap.String("total", order.Total.String()))
	return c.JSON(http.StatusCreated, order)
}

// MyOrders returns the caller's orders
func (h *Handler) MyOrders(c echo.Context) error {
	orders, err := h.listOrders(c, middleware.CurrentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}

// AllOrders returns every order
func (h *Handler) AllOrders(c echo.Context) error {
	orders, err := h.listOrders(c, "")
	if err != nil {
		return err
	}
	logger.FromContext(c).Info("Orders retrieved", zap.Int("count", len(orders)))
	return c.JSON(http.StatusOK, orders)
}

// UpdateOrderStatus sets the status of order :id, then returns every order
func (h *Handler) UpdateOrderStatus(c echo.Context) error {
	log := logger.FromContext(c)

	var req validation.StatusInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c, log, err)
	}
	status, err := validation.OrderStatus(req.Status)
	if err != nil {
		return validationFailed(c, log, err)
	}

	id, ok := pathID(c)
	notFound := fmt.Sprintf("Order with id: %s not found", id)
	if !ok {
		return c.String(http.StatusNotFound, notFound)
	}

	done := prometheus.TrackDBOperation("update")
	result := h.db.WithContext(c.Request().Context()).Model(&model.Order{}).Where("id = ?", id).Update("status", status)
	done(time.Now())
	if result.Error != nil {
		return fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return c.String(http.StatusNotFound, notFound)
	}

	prometheus.RecordOperation("order", "update_status")
	log.Info("Order status updated", zap.String("order_id", id), zap.String("status", string(status)))

	orders, err := h.listOrders(c, "")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orders)
}
