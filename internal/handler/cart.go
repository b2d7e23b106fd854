package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"commerce-service/internal/middleware"
	"commerce-service/internal/model"
	"commerce-service/pkg/logger"
	"commerce-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const msgNoCart = "Not Found. No Cart associated with this user"

type addToCartRequest struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// cartQuery preloads lines in insertion order, with their items when withItems is set
func (h *Handler) cartQuery(ctx context.Context, withItems bool) *gorm.DB {
	query := h.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("cart_lines.id")
	})
	if withItems {
		query = query.Preload("Items.Item")
	}
	return query
}

// userCart loads the caller's cart. found is false when the user has none.
func (h *Handler) userCart(ctx context.Context, userID string, withItems bool) (cart model.Cart, found bool, err error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	err = h.cartQuery(ctx, withItems).Where("user_id = ?", userID).First(&cart).Error
	if isNotFound(err) {
		return cart, false, nil
	}
	if err != nil {
		return cart, false, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, true, nil
}

// itemExists reports whether id names a catalog item
func (h *Handler) itemExists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := h.db.WithContext(ctx).Model(&model.Item{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up item: %w", err)
	}
	return count > 0, nil
}

// incrementLine adds delta to the quantity of the line for itemID. Missing lines are left alone.
func (h *Handler) incrementLine(ctx context.Context, cartID, itemID string, delta int) error {
	defer prometheus.TrackDBOperation("update")(time.Now())
	return h.db.WithContext(ctx).Model(&model.CartLine{}).
		Where("cart_id = ? AND item_id = ?", cartID, itemID).
		Update("quantity", gorm.Expr("quantity + ?", delta)).Error
}

func (h *Handler) touchCart(ctx context.Context, cartID string) error {
	return h.db.WithContext(ctx).Model(&model.Cart{}).Where("id = ?", cartID).Update("updated_at", time.Now()).Error
}

// respondCartView reloads the caller's cart and answers with its denormalised lines
func (h *Handler) respondCartView(c echo.Context, userID string) error {
	cart, found, err := h.userCart(c.Request().Context(), userID, true)
	if err != nil {
		return err
	}
	if !found {
		return c.String(http.StatusNotFound, msgNoCart)
	}
	return c.JSON(http.StatusOK, cart.View())
}

// AddToCart creates the caller's cart or merges the item into it
func (h *Handler) AddToCart(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var req addToCartRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c, log, err)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	itemID := req.ItemID
	ok := validID(itemID)
	if ok {
		exists, err := h.itemExists(ctx, itemID)
		if err != nil {
			return err
		}
		ok = exists
	}
	if !ok {
		return itemNotFound(c, req.ItemID)
	}

	cart, found, err := h.userCart(ctx, user.ID, false)
	if err != nil {
		return err
	}

	if !found {
		cart = model.NewCart(user.ID, itemID, req.Quantity)
		done := prometheus.TrackDBOperation("insert")
		err := h.db.WithContext(ctx).Create(&cart).Error
		done(time.Now())
		if err != nil {
			return fmt.Errorf("failed to create cart: %w", err)
		}
		prometheus.RecordOperation("cart", "create")
		log.Info("Cart created", zap.String("cart_id", cart.ID), zap.String("item_id", itemID))
		return h.respondCart(c, http.StatusCreated, cart.ID)
	}

	if cart.Contains(itemID) {
		err = h.incrementLine(ctx, cart.ID, itemID, req.Quantity)
	} else {
		line := model.CartLine{CartID: cart.ID, ItemID: itemID, Quantity: req.Quantity}
		err = h.db.WithContext(ctx).Create(&line).Error
	}
	if err != nil {
		return fmt.Errorf("failed to add cart line: %w", err)
	}
	if err := h.touchCart(ctx, cart.ID); err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}

	prometheus.RecordOperation("cart", "add")
	log.Info("Item added to cart",
		zap.String("cart_id", cart.ID),
		zap.String("item_id", itemID),
		zap.Int("quantity", req.Quantity))
	return h.respondCart(c, http.StatusOK, cart.ID)
}

// respondCart answers with the stored cart document
func (h *Handler) respondCart(c echo.Context, code int, cartID string) error {
	var cart model.Cart
	if err := h.cartQuery(c.Request().Context(), false).First(&cart, "id = ?", cartID).Error; err != nil {
		return fmt.Errorf("failed to reload cart: %w", err)
	}
	return c.JSON(code, cart)
}

// GetCart returns the caller's cart as denormalised lines
func (h *Handler) GetCart(c echo.Context) error {
	return h.respondCartView(c, middleware.CurrentUser(c).ID)
}

// GetCartByID returns a cart document. Carts of other users are reported as missing unless the caller is an admin.
func (h *Handler) GetCartByID(c echo.Context) error {
	user := middleware.CurrentUser(c)
	id, ok := pathID(c)
	if !ok {
		return c.String(http.StatusNotFound, msgNoCart)
	}

	query := h.cartQuery(c.Request().Context(), false).Where("id = ?", id)
	if !user.IsAdmin() {
		query = query.Where("user_id = ?", user.ID)
	}

	var cart model.Cart
	if err := query.First(&cart).Error; err != nil {
		if isNotFound(err) {
			return c.String(http.StatusNotFound, msgNoCart)
		}
		return fmt.Errorf("failed to get cart: %w", err)
	}
	return c.JSON(http.StatusOK, cart)
}

// UpdateCartQuantity adds ?value=n to the quantity of item :id in the caller's cart
func (h *Handler) UpdateCartQuantity(c echo.Context) error {
	log := logger.FromContext(c)
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	raw := c.QueryParam("value")
	delta, err := strconv.Atoi(raw)
	if err != nil {
		return c.String(http.StatusBadRequest, "Error: Incorrect or missing value "+raw)
	}

	itemID, ok := pathID(c)
	if ok {
		if ok, err = h.itemExists(ctx, itemID); err != nil {
			return err
		}
	}
	if !ok {
		return itemNotFound(c, itemID)
	}

	cart, found, err := h.userCart(ctx, user.ID, false)
	if err != nil {
		return err
	}
	if !found {
		return c.String(http.StatusBadRequest, "User cart is empty")
	}

	if cart.Contains(itemID) {
		if err := h.incrementLine(ctx, cart.ID, itemID, delta); err != nil {
			return fmt.Errorf("failed to update cart line: %w", err)
		}
		if err := h.touchCart(ctx, cart.ID); err != nil {
			return fmt.Errorf("failed to touch cart: %w", err)
		}
		prometheus.RecordOperation("cart", "update_quantity")
		log.Info("Cart quantity updated",
			zap.String("cart_id", cart.ID),
			zap.String("item_id", itemID),
			zap.Int("delta", delta))
	}

	return h.respondCartView(c, user.ID)
}

// RemoveFromCart drops item :id from the caller's cart
func (h *Handler) RemoveFromCart(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	cart, found, err := h.userCart(ctx, user.ID, false)
	if err != nil {
		return err
	}
	if !found {
		return c.String(http.StatusNotFound, "Not found. User cart is empty")
	}

	if itemID, ok := pathID(c); ok && cart.Contains(itemID) {
		done := prometheus.TrackDBOperation("delete")
		err := h.db.WithContext(ctx).Where("cart_id = ? AND item_id = ?", cart.ID, itemID).Delete(&model.CartLine{}).Error
		done(time.Now())
		if err != nil {
			return fmt.Errorf("failed to remove cart line: %w", err)
		}
		if err := h.touchCart(ctx, cart.ID); err != nil {
			return fmt.Errorf("failed to touch cart: %w", err)
		}
		prometheus.RecordOperation("cart", "remove")
		logger.FromContext(c).Info("Item removed from cart",
			zap.String("cart_id", cart.ID),
			zap.String("item_id", itemID))
	}

	return h.respondCartView(c, user.ID)
}

// EmptyCart deletes every line of the caller's cart
func (h *Handler) EmptyCart(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	cart, found, err := h.userCart(ctx, user.ID, false)
	if err != nil {
		return err
	}
	if !found {
		return c.String(http.StatusNotFound, "Not found. No cart associated with user")
	}

	if err := h.emptyCart(ctx, cart.ID); err != nil {
		return err
	}

	prometheus.RecordOperation("cart", "empty")
	logger.FromContext(c).Info("Cart emptied", zap.String("cart_id", cart.ID))
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) emptyCart(ctx context.Context, cartID string) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	if err := h.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&model.CartLine{}).Error; err != nil {
		return fmt.Errorf("failed to empty cart: %w", err)
	}
	return h.touchCart(ctx, cartID)
}
