package companies

import (
	"errors"

	"go_crm/internal/event"
	"go_crm/internal/httpx"
	"go_crm/internal/model"
	"go_crm/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListRequest represents list companies request
type ListRequest struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	ProjectID string `form:"projectId" binding:"required"`
	Name      string `form:"name"`
}

// CreateRequest represents create company request
type CreateRequest struct {
	ProjectID  string `json:"projectId" binding:"required"`
	Name       string `json:"name" binding:"required"`
	VATNumber  string `json:"vatNumber"`
	RegNumber  string `json:"regNumber"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	Notes      string `json:"notes"`
}

// UpdateRequest represents update company request
type UpdateRequest struct {
	ID         int     `json:"id" binding:"required"`
	Name       *string `json:"name"`
	VATNumber  *string `json:"vatNumber"`
	RegNumber  *string `json:"regNumber"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	PostalCode *string `json:"postalCode"`
	Notes      *string `json:"notes"`
}

// DeleteRequest represents delete companies request
type DeleteRequest struct {
	IDs []int `json:"ids" binding:"required,min=1"`
}

// Handler handles companies API
type Handler struct {
	db  *gorm.DB
	hub *ws.Hub
}

// NewHandler creates a new companies handler
func NewHandler(db *gorm.DB, hub *ws.Hub) *Handler {
	return &Handler{db: db, hub: hub}
}

// List handles GET /api/v1/companies
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

	query := h.db.Model(&model.Company{}).Where("project_id = ?", req.ProjectID)
	if req.Name != "" {
		query = query.Where("name LIKE ?", "%"+req.Name+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to count companies", err))
		return
	}

	var companies []model.Company
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("name ASC").Find(&companies).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch companies", err))
		return
	}

	httpx.OKItems(c, companies, total, req.Page, req.PageSize)
}

// Create handles POST /api/v1/companies/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	company := model.Company{
		ProjectID:  req.ProjectID,
		Name:       req.Name,
		VATNumber:  req.VATNumber,
		RegNumber:  req.RegNumber,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		PostalCode: req.PostalCode,
		Notes:      req.Notes,
	}
	if err := h.db.Create(&company).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create company", err))
		return
	}

	if err := ws.PublishDatabaseEvent(h.hub, h.db, company.ProjectID, company.TableName(), event.TypeInsert, company); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
		return
	}

	httpx.OK(c, company)
}

// Update handles POST /api/v1/companies/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var company model.Company
	if err := h.db.First(&company, req.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("company not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch company", err))
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.VATNumber != nil {
		updates["vat_number"] = *req.VATNumber
	}
	if req.RegNumber != nil {
		updates["reg_number"] = *req.RegNumber
	}
	if req.Email != nil {
		updates["email"] = *req.Email
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.PostalCode != nil {
		updates["postal_code"] = *req.PostalCode
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) > 0 {
		if err := h.db.Model(&company).Updates(updates).Error; err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to update company", err))
			return
		}
	}

	if err := ws.PublishDatabaseEvent(h.hub, h.db, company.ProjectID, company.TableName(), event.TypeUpdate, company); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
		return
	}

	httpx.OK(c, company)
}

// Delete handles POST /api/v1/companies/delete
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var companies []model.Company
	if err := h.db.Find(&companies, req.IDs).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch companies", err))
		return
	}
	if len(companies) == 0 {
		httpx.FailErr(c, httpx.ErrNotFound("no matching companies"))
		return
	}

	if err := h.db.Delete(&model.Company{}, req.IDs).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete companies", err))
		return
	}

	for _, company := range companies {
		if err := ws.PublishDatabaseEvent(h.hub, h.db, company.ProjectID, company.TableName(), event.TypeDelete, gin.H{"id": company.ID}); err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
			return
		}
	}

	httpx.OKMsg(c, "deleted", gin.H{"ids": req.IDs})
}
