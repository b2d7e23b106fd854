package handler

import (
	"fmt"
	"net/http"
	"time"

	"commerce-service/internal/model"
	"commerce-service/internal/validation"
	"commerce-service/pkg/logger"
	"commerce-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const msgDuplicateItem = "Item name already existed. Items must have unique name"

func itemNotFound(c echo.Context, id string) error {
	return c.String(http.StatusNotFound, fmt.Sprintf("Item with id: %s not found!", id))
}

func (h *Handler) allItems(c echo.Context) ([]model.Item, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())
	var items []model.Item
	if err := h.db.WithContext(c.Request().Context()).Order("created_at").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// respondItems answers with the whole catalog, used after every item mutation
func (h *Handler) respondItems(c echo.Context, code int) error {
	items, err := h.allItems(c)
	if err != nil {
		return err
	}
	return c.JSON(code, items)
}

// itemNameTaken reports whether another item already uses name
func (h *Handler) itemNameTaken(c echo.Context, name, exceptID string) (bool, error) {
	query := h.db.WithContext(c.Request().Context()).Model(&model.Item{}).Where("name = ?", name)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check item name: %w", err)
	}
	return count > 0, nil
}

// ListItems returns the catalog
func (h *Handler) ListItems(c echo.Context) error {
	items, err := h.allItems(c)
	if err != nil {
		return err
	}
	logger.FromContext(c).Info("Items retrieved", zap.Int("count", len(items)))
	return c.JSON(http.StatusOK, items)
}

// GetItem returns one item
func (h *Handler) GetItem(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return itemNotFound(c, id)
	}

	var item model.Item
	if err := h.db.WithContext(c.Request().Context()).First(&item, "id = ?", id).Error; err != nil {
		if isNotFound(err) {
			return itemNotFound(c, id)
		}
		return fmt.Errorf("failed to get item: %w", err)
	}
	return c.JSON(http.StatusOK, item)
}

// CreateItem adds an item and returns the full catalog
func (h *Handler) CreateItem(c echo.Context) error {
	log := logger.FromContext(c)

	var req validation.ItemInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c, log, err)
	}
	item, err := validation.NewItem(req)
	if err != nil {
		return validationFailed(c, log, err)
	}

	taken, err := h.itemNameTaken(c, item.Name, "")
	if err != nil {
		return err
	}
	if taken {
		log.Warn("Item name already exists", zap.String("name", item.Name))
		return c.String(http.StatusForbidden, msgDuplicateItem)
	}

	done := prometheus.TrackDBOperation("insert")
	err = h.db.WithContext(c.Request().Context()).Create(&item).Error
	done(time.Now())
	if isDuplicate(err) {
		log.Warn("Item name already exists", zap.String("name", item.Name))
		return c.String(http.StatusForbidden, msgDuplicateItem)
	}
	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	prometheus.RecordOperation("item", "create")
	log.Info("Item created",
		zap.String("item_id", item.ID),
		zap.String("name", item.Name),
		zap.String("price", item.Price.String()))
	return h.respondItems(c, http.StatusCreated)
}

// UpdateItem edits name, category, price and image, then returns the catalog
func (h *Handler) UpdateItem(c echo.Context) error {
	log := logger.FromContext(c)

	var req validation.ItemInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c, log, err)
	}
	update, err := validation.UpdateItem(req)
	if err != nil {
		return validationFailed(c, log, err)
	}

	id, ok := pathID(c)
	if !ok {
		return itemNotFound(c, id)
	}

	taken, err := h.itemNameTaken(c, update.Name, id)
	if err != nil {
		return err
	}
	if taken {
		return c.String(http.StatusForbidden, msgDuplicateItem)
	}

	done := prometheus.TrackDBOperation("update")
	result := h.db.WithContext(c.Request().Context()).Model(&model.Item{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":      update.Name,
		"category":  update.Category,
		"price":     update.Price,
		"image_url": update.ImageURL,
	})
	done(time.Now())
	if isDuplicate(result.Error) {
		return c.String(http.StatusForbidden, msgDuplicateItem)
	}
	if result.Error != nil {
		return fmt.Errorf("failed to update item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return itemNotFound(c, id)
	}

	prometheus.RecordOperation("item", "update")
	log.Info("Item updated", zap.String("item_id", id), zap.String("name", update.Name))
	return h.respondItems(c, http.StatusOK)
}

// ToggleStock flips the stocked flag, then returns the catalog
func (h *Handler) ToggleStock(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return itemNotFound(c, id)
	}

	result := h.db.WithContext(c.Request().Context()).Model(&model.Item{}).Where("id = ?", id).
		Update("stocked", gorm.Expr("NOT stocked"))
	if result.Error != nil {
		return fmt.Errorf("failed to toggle stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return itemNotFound(c, id)
	}

	prometheus.RecordOperation("item", "toggle_stock")
	logger.FromContext(c).Info("Item stock toggled", zap.String("item_id", id))
	return h.respondItems(c, http.StatusOK)
}

// DeleteItem removes an item. Cart and order lines referencing it are left in place.
func (h *Handler) DeleteItem(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return itemNotFound(c, id)
	}

	done := prometheus.TrackDBOperation("delete")
	result := h.db.WithContext(c.Request().Context()).Where("id = ?", id).Delete(&model.Item{})
	done(time.Now())
	if result.Error != nil {
		return fmt.Errorf("failed to delete item: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return itemNotFound(c, id)
	}

	prometheus.RecordOperation("item", "delete")
	logger.FromContext(c).Info("Item deleted", zap.String("item_id", id))
	return c.NoContent(http.StatusNoContent)
}
