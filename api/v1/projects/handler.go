package projects

import (
	"errors"

	"go_crm/internal/event"
	"go_crm/internal/httpx"
	"go_crm/internal/model"
	"go_crm/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListRequest represents list projects request
type ListRequest struct {
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
	Name     string `form:"name"`
}

// CreateRequest represents create project request
type CreateRequest struct {
	Name     string `json:"name" binding:"required"`
	Currency string `json:"currency"`
}

// UpdateRequest represents update project request
type UpdateRequest struct {
	ID       int     `json:"id" binding:"required"`
	Name     *string `json:"name"`
	Currency *string `json:"currency"`
}

// DeleteRequest represents delete projects request
type DeleteRequest struct {
	IDs []int `json:"ids" binding:"required,min=1"`
}

// Handler handles projects API
type Handler struct {
	db  *gorm.DB
	hub *ws.Hub
}

// NewHandler creates a new projects handler
func NewHandler(db *gorm.DB, hub *ws.Hub) *Handler {
	return &Handler{db: db, hub: hub}
}

// List handles GET /api/v1/projects
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

	query := h.db.Model(&model.Project{})
	if req.Name != "" {
		query = query.Where("name LIKE ?", "%"+req.Name+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to count projects", err))
		return
	}

	var projects []model.Project
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("id DESC").Find(&projects).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch projects", err))
		return
	}

	httpx.OKItems(c, projects, total, req.Page, req.PageSize)
}

// Create handles POST /api/v1/projects/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	project := model.Project{
		PublicID: uuid.NewString(),
		Name:     req.Name,
		Currency: req.Currency,
	}
	if project.Currency == "" {
		project.Currency = "ZAR"
	}

	if err := h.db.Create(&project).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create project", err))
		return
	}

	httpx.OK(c, project)
}

// Update handles POST /api/v1/projects/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var project model.Project
	if err := h.db.First(&project, req.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("project not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch project", err))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Currency != nil {
		updates["currency"] = *req.Currency
	}
	if len(updates) > 0 {
		if err := h.db.Model(&project).Updates(updates).Error; err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to update project", err))
			return
		}
	}

	if err := ws.PublishDatabaseEvent(h.hub, h.db, project.PublicID, project.TableName(), event.TypeUpdate, project); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
		return
	}

	httpx.OK(c, project)
}

// Delete handles POST /api/v1/projects/delete
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	if err := h.db.Delete(&model.Project{}, req.IDs).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete projects", err))
		return
	}

	httpx.OKMsg(c, "deleted", gin.H{"ids": req.IDs})
}
