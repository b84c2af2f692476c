package contacts

import (
	"errors"

	"go_crm/internal/event"
	"go_crm/internal/httpx"
	"go_crm/internal/model"
	"go_crm/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListRequest represents list contacts request
type ListRequest struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	ProjectID string `form:"projectId" binding:"required"`
	CompanyID int    `form:"companyId"`
	Name      string `form:"name"`
}

// CreateRequest represents create contact request
type CreateRequest struct {
	ProjectID string `json:"projectId" binding:"required"`
	CompanyID int    `json:"companyId" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Title     string `json:"title"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// UpdateRequest represents update contact request
type UpdateRequest struct {
	ID    int     `json:"id" binding:"required"`
	Name  *string `json:"name"`
	Title *string `json:"title"`
	Email *string `json:"email"`
	Phone *string `json:"phone"`
}

// DeleteRequest represents delete contacts request
type DeleteRequest struct {
	IDs []int `json:"ids" binding:"required,min=1"`
}

// Handler handles contacts API
type Handler struct {
	db  *gorm.DB
	hub *ws.Hub
}

// NewHandler creates a new contacts handler
func NewHandler(db *gorm.DB, hub *ws.Hub) *Handler {
	return &Handler{db: db, hub: hub}
}

// List handles GET /api/v1/contacts
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

	query := h.db.Model(&model.Contact{}).Where("project_id = ?", req.ProjectID)
	if req.CompanyID > 0 {
		query = query.Where("company_id = ?", req.CompanyID)
	}
	if req.Name != "" {
		query = query.Where("name LIKE ?", "%"+req.Name+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to count contacts", err))
		return
	}

	var contacts []model.Contact
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("name ASC").Find(&contacts).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch contacts", err))
		return
	}

	httpx.OKItems(c, contacts, total, req.Page, req.PageSize)
}

// Create handles POST /api/v1/contacts/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var count int64
	if err := h.db.Model(&model.Company{}).
		Where("id = ? AND project_id = ?", req.CompanyID, req.ProjectID).
		Count(&count).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to check company", err))
		return
	}
	if count == 0 {
		httpx.FailErr(c, httpx.ErrNotFound("company not found in project"))
		return
	}

	contact := model.Contact{
		ProjectID: req.ProjectID,
		CompanyID: req.CompanyID,
		Name:      req.Name,
		Title:     req.Title,
		Email:     req.Email,
		Phone:     req.Phone,
	}
	if err := h.db.Create(&contact).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create contact", err))
		return
	}

	if err := ws.PublishDatabaseEvent(h.hub, h.db, contact.ProjectID, contact.TableName(), event.TypeInsert, contact); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
		return
	}

	httpx.OK(c, contact)
}

// Update handles POST /api/v1/contacts/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var contact model.Contact
	if err := h.db.First(&contact, req.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("contact not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch contact", err))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if len(updates) > 0 {
		if err := h.db.Model(&contact).Updates(updates).Error; err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to update contact", err))
			return
		}
	}

	if err := ws.PublishDatabaseEvent(h.hub, h.db, contact.ProjectID, contact.TableName(), event.TypeUpdate, contact); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
		return
	}

	httpx.OK(c, contact)
}

// Delete handles POST /api/v1/contacts/delete
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var contacts []model.Contact
	if err := h.db.Find(&contacts, req.IDs).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch contacts", err))
		return
	}
	if len(contacts) == 0 {
		httpx.FailErr(c, httpx.ErrNotFound("no matching contacts"))
		return
	}

	if err := h.db.Delete(&model.Contact{}, req.IDs).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete contacts", err))
		return
	}

	for _, contact := range contacts {
		if err := ws.PublishDatabaseEvent(h.hub, h.db, contact.ProjectID, contact.TableName(), event.TypeDelete, gin.H{"id": contact.ID}); err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
			return
		}
	}

	httpx.OKMsg(c, "deleted", gin.H{"ids": req.IDs})
}
