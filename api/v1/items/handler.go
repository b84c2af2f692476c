package items

import (
	"errors"

	"go_crm/internal/event"
	"go_crm/internal/httpx"
	"go_crm/internal/model"
	"go_crm/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListRequest represents list items request
type ListRequest struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	ProjectID string `form:"projectId" binding:"required"`
	Search    string `form:"search"`
}

// CreateRequest represents create item request
type CreateRequest struct {
	ProjectID   string  `json:"projectId" binding:"required"`
	Code        string  `json:"code"`
	Description string  `json:"description" binding:"required"`
	UnitPrice   float64 `json:"unitPrice" binding:"required"`
	Currency    string  `json:"currency"`
	Unit        string  `json:"unit"`
}

// UpdateRequest represents update item request
type UpdateRequest struct {
	ID          int      `json:"id" binding:"required"`
	Code        *string  `json:"code"`
	Description *string  `json:"description"`
	UnitPrice   *float64 `json:"unitPrice"`
	Currency    *string  `json:"currency"`
	Unit        *string  `json:"unit"`
}

// DeleteRequest represents delete items request
type DeleteRequest struct {
	IDs []int `json:"ids" binding:"required,min=1"`
}

// Handler handles items API
type Handler struct {
	db  *gorm.DB
	hub *ws.Hub
}

// NewHandler creates a new items handler
func NewHandler(db *gorm.DB, hub *ws.Hub) *Handler {
	return &Handler{db: db, hub: hub}
}

// List handles GET /api/v1/items
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = 15
	}

	query := h.db.Model(&model.Item{}).Where("project_id = ?", req.ProjectID)
	if req.Search != "" {
		query = query.Where("code LIKE ? OR description LIKE ?", "%"+req.Search+"%", "%"+req.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to count items", err))
		return
	}

	var items []model.Item
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("code ASC, id ASC").Find(&items).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch items", err))
		return
	}

	httpx.OKItems(c, items, total, req.Page, req.PageSize)
}

// Create handles POST /api/v1/items/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	item := model.Item{
		ProjectID:   req.ProjectID,
		Code:        req.Code,
		Description: req.Description,
		UnitPrice:   req.UnitPrice,
		Currency:    req.Currency,
		Unit:        req.Unit,
	}
	if item.Currency == "" {
		item.Currency = "ZAR"
	}
	if item.Unit == "" {
		item.Unit = "ea"
	}

	if err := h.db.Create(&item).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create item", err))
		return
	}

	if err := ws.PublishDatabaseEvent(h.hub, h.db, item.ProjectID, item.TableName(), event.TypeInsert, item); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
		return
	}

	httpx.OK(c, item)
}

// Update handles POST /api/v1/items/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var item model.Item
	if err := h.db.First(&item, req.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("item not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch item", err))
		return
	}

	updates := map[string]interface{}{}
	if req.Code != nil {
		updates["code"] = *req.Code
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.UnitPrice != nil {
		updates["unit_price"] = *req.UnitPrice
	}
	if req.Currency != nil {
		updates["currency"] = *req.Currency
	}
	if req.Unit != nil {
		updates["unit"] = *req.Unit
	}
	if len(updates) > 0 {
		if err := h.db.Model(&item).Updates(updates).Error; err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to update item", err))
			return
		}
	}

	if err := ws.PublishDatabaseEvent(h.hub, h.db, item.ProjectID, item.TableName(), event.TypeUpdate, item); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
		return
	}

	httpx.OK(c, item)
}

// Delete handles POST /api/v1/items/delete
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var items []model.Item
	if err := h.db.Find(&items, req.IDs).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch items", err))
		return
	}
	if len(items) == 0 {
		httpx.FailErr(c, httpx.ErrNotFound("no matching items"))
		return
	}

	if err := h.db.Delete(&model.Item{}, req.IDs).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete items", err))
		return
	}

	for _, item := range items {
		if err := ws.PublishDatabaseEvent(h.hub, h.db, item.ProjectID, item.TableName(), event.TypeDelete, gin.H{"id": item.ID}); err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
			return
		}
	}

	httpx.OKMsg(c, "deleted", gin.H{"ids": req.IDs})
}
