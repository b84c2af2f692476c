package invoices

import (
	"errors"
	"time"

	"go_crm/internal/docnum"
	"go_crm/internal/event"
	"go_crm/internal/httpx"
	"go_crm/internal/model"
	"go_crm/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListRequest represents list invoices request
type ListRequest struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	ProjectID string `form:"projectId" binding:"required"`
	CompanyID int    `form:"companyId"`
	Status    string `form:"status"`
}

// LineRequest represents a line item in create requests
type LineRequest struct {
	ItemID      int     `json:"itemId"`
	Description string  `json:"description" binding:"required"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// CreateRequest represents create invoice request
type CreateRequest struct {
	ProjectID string        `json:"projectId" binding:"required"`
	CompanyID int           `json:"companyId" binding:"required"`
	Date      string        `json:"date" binding:"required"`
	DueDate   string        `json:"dueDate"`
	Currency  string        `json:"currency"`
	Notes     string        `json:"notes"`
	Lines     []LineRequest `json:"lines" binding:"required,min=1"`
}

// UpdateRequest represents update invoice request
type UpdateRequest struct {
	ID      int     `json:"id" binding:"required"`
	Date    *string `json:"date"`
	DueDate *string `json:"dueDate"`
	Status  *string `json:"status"`
	Notes   *string `json:"notes"`
}

// DeleteRequest represents delete invoices request
type DeleteRequest struct {
	IDs []int `json:"ids" binding:"required,min=1"`
}

// Handler handles invoices API
type Handler struct {
	db  *gorm.DB
	hub *ws.Hub
}

// NewHandler creates a new invoices handler
func NewHandler(db *gorm.DB, hub *ws.Hub) *Handler {
	return &Handler{db: db, hub: hub}
}

// List handles GET /api/v1/invoices
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

	query := h.db.Model(&model.Invoice{}).Where("project_id = ?", req.ProjectID)
	if req.CompanyID > 0 {
		query = query.Where("company_id = ?", req.CompanyID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to count invoices", err))
		return
	}

	var invoices []model.Invoice
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Lines").Offset(offset).Limit(req.PageSize).Order("id DESC").Find(&invoices).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch invoices", err))
		return
	}

	httpx.OKItems(c, invoices, total, req.Page, req.PageSize)
}

// Create handles POST /api/v1/invoices/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	invoice := model.Invoice{
		ProjectID: req.ProjectID,
		CompanyID: req.CompanyID,
		Date:      req.Date,
		DueDate:   req.DueDate,
		Currency:  req.Currency,
		Status:    model.InvoiceStatusDraft,
		Notes:     req.Notes,
	}
	if invoice.Currency == "" {
		invoice.Currency = "ZAR"
	}
	for _, line := range req.Lines {
		qty := line.Quantity
		if qty <= 0 {
			qty = 1
		}
		invoice.Lines = append(invoice.Lines, model.InvoiceItem{
			ItemID:      line.ItemID,
			Description: line.Description,
			Quantity:    qty,
			UnitPrice:   line.UnitPrice,
		})
		invoice.Total += qty * line.UnitPrice
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		number, err := docnum.Next(tx, invoice.TableName(), req.ProjectID, docnum.PrefixInvoice, time.Now().Year())
		if err != nil {
			return err
		}
		invoice.Number = number
		return tx.Create(&invoice).Error
	})
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create invoice", err))
		return
	}

	if err := ws.PublishDatabaseEvent(h.hub, h.db, invoice.ProjectID, invoice.TableName(), event.TypeInsert, invoice); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
		return
	}

	httpx.OK(c, invoice)
}

// Update handles POST /api/v1/invoices/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var invoice model.Invoice
	if err := h.db.Preload("Lines").First(&invoice, req.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("invoice not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch invoice", err))
		return
	}

	updates := map[string]interface{}{}
	if req.Date != nil {
		updates["date"] = *req.Date
	}
	if req.DueDate != nil {
		updates["due_date"] = *req.DueDate
	}
	if req.Status != nil {
		switch *req.Status {
		case model.InvoiceStatusDraft, model.InvoiceStatusSent:
			updates["status"] = *req.Status
		default:
			// partial/paid follow from payments; overdue from the scanner
			httpx.FailErr(c, httpx.ErrParamInvalid("invoice status cannot be set directly"))
			return
		}
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) > 0 {
		if err := h.db.Model(&invoice).Updates(updates).Error; err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to update invoice", err))
			return
		}
	}

	if err := ws.PublishDatabaseEvent(h.hub, h.db, invoice.ProjectID, invoice.TableName(), event.TypeUpdate, invoice); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
		return
	}

	httpx.OK(c, invoice)
}

// Delete handles POST /api/v1/invoices/delete
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var invoices []model.Invoice
	if err := h.db.Find(&invoices, req.IDs).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch invoices", err))
		return
	}
	if len(invoices) == 0 {
		httpx.FailErr(c, httpx.ErrNotFound("no matching invoices"))
		return
	}
	for _, invoice := range invoices {
		if invoice.AmountPaid > 0 {
			httpx.FailErr(c, httpx.ErrStateConflict("invoice has payments allocated"))
			return
		}
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id IN ?", req.IDs).Delete(&model.InvoiceItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Invoice{}, req.IDs).Error
	})
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete invoices", err))
		return
	}

	for _, invoice := range invoices {
		if err := ws.PublishDatabaseEvent(h.hub, h.db, invoice.ProjectID, invoice.TableName(), event.TypeDelete, gin.H{"id": invoice.ID}); err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
			return
		}
	}

	httpx.OKMsg(c, "deleted", gin.H{"ids": req.IDs})
}
