package payments

import (
	"errors"
	"fmt"

	"go_crm/internal/event"
	"go_crm/internal/httpx"
	"go_crm/internal/model"
	"go_crm/internal/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListRequest represents list payments request
type ListRequest struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	ProjectID string `form:"projectId" binding:"required"`
	CompanyID int    `form:"companyId"`
	InvoiceID int    `form:"invoiceId"`
}

// CreateRequest represents create payment request
type CreateRequest struct {
	ProjectID string  `json:"projectId" binding:"required"`
	CompanyID int     `json:"companyId" binding:"required"`
	InvoiceID *int    `json:"invoiceId"`
	Reference string  `json:"reference" binding:"required"`
	Date      string  `json:"date" binding:"required"`
	Currency  string  `json:"currency"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Method    string  `json:"method"`
	Notes     string  `json:"notes"`
}

// DeleteRequest represents delete payment request
type DeleteRequest struct {
	ID int `json:"id" binding:"required"`
}

// Handler handles payments API
type Handler struct {
	db  *gorm.DB
	hub *ws.Hub
}

// NewHandler creates a new payments handler
func NewHandler(db *gorm.DB, hub *ws.Hub) *Handler {
	return &Handler{db: db, hub: hub}
}

// List handles GET /api/v1/payments
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

	query := h.db.Model(&model.Payment{}).Where("project_id = ?", req.ProjectID)
	if req.CompanyID > 0 {
		query = query.Where("company_id = ?", req.CompanyID)
	}
	if req.InvoiceID > 0 {
		query = query.Where("invoice_id = ?", req.InvoiceID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to count payments", err))
		return
	}

	var payments []model.Payment
	offset := (req.Page - 1) * req.PageSize
	if err := query.Offset(offset).Limit(req.PageSize).Order("id DESC").Find(&payments).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch payments", err))
		return
	}

	httpx.OKItems(c, payments, total, req.Page, req.PageSize)
}

// Create handles POST /api/v1/payments/create. A payment allocated to an
// invoice moves the invoice's amount paid and status in the same
// transaction.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	payment := model.Payment{
		ProjectID: req.ProjectID,
		CompanyID: req.CompanyID,
		InvoiceID: req.InvoiceID,
		Reference: req.Reference,
		Date:      req.Date,
		Currency:  req.Currency,
		Amount:    req.Amount,
		Method:    req.Method,
		Notes:     req.Notes,
	}
	if payment.Currency == "" {
		payment.Currency = "ZAR"
	}

	var invoice *model.Invoice
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if req.InvoiceID != nil {
			var inv model.Invoice
			if err := tx.First(&inv, *req.InvoiceID).Error; err != nil {
				return fmt.Errorf("invoice lookup: %w", err)
			}
			if inv.CompanyID != req.CompanyID {
				return fmt.Errorf("invoice %s belongs to another company", inv.Number)
			}
			if inv.Currency != payment.Currency {
				return fmt.Errorf("payment currency %s does not match invoice currency %s", payment.Currency, inv.Currency)
			}

			inv.AmountPaid += req.Amount
			if inv.AmountPaid >= inv.Total {
				inv.Status = model.InvoiceStatusPaid
			} else {
				inv.Status = model.InvoiceStatusPartial
			}
			if err := tx.Model(&inv).Updates(map[string]interface{}{
				"amount_paid": inv.AmountPaid,
				"status":      inv.Status,
			}).Error; err != nil {
				return err
			}
			invoice = &inv
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("invoice not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create payment", err))
		return
	}

	if err := ws.PublishDatabaseEvent(h.hub, h.db, payment.ProjectID, payment.TableName(), event.TypeInsert, payment); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
		return
	}
	if invoice != nil {
		if err := ws.PublishDatabaseEvent(h.hub, h.db, invoice.ProjectID, invoice.TableName(), event.TypeUpdate, invoice); err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
			return
		}
	}

	httpx.OK(c, payment)
}

// Delete handles POST /api/v1/payments/delete. Deleting an allocated payment
// reverses its effect on the invoice.
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var payment model.Payment
	if err := h.db.First(&payment, req.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("payment not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch payment", err))
		return
	}

	var invoice *model.Invoice
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if payment.InvoiceID != nil {
			var inv model.Invoice
			if err := tx.First(&inv, *payment.InvoiceID).Error; err != nil {
				return err
			}
			inv.AmountPaid -= payment.Amount
			if inv.AmountPaid < 0 {
				inv.AmountPaid = 0
			}
			if inv.AmountPaid == 0 {
				inv.Status = model.InvoiceStatusSent
			} else if inv.AmountPaid < inv.Total {
				inv.Status = model.InvoiceStatusPartial
			}
			if err := tx.Model(&inv).Updates(map[string]interface{}{
				"amount_paid": inv.AmountPaid,
				"status":      inv.Status,
			}).Error; err != nil {
				return err
			}
			invoice = &inv
		}
		return tx.Delete(&payment).Error
	})
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete payment", err))
		return
	}

	if err := ws.PublishDatabaseEvent(h.hub, h.db, payment.ProjectID, payment.TableName(), event.TypeDelete, gin.H{"id": payment.ID}); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
		return
	}
	if invoice != nil {
		if err := ws.PublishDatabaseEvent(h.hub, h.db, invoice.ProjectID, invoice.TableName(), event.TypeUpdate, invoice); err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
			return
		}
	}

	httpx.OKMsg(c, "deleted", gin.H{"id": req.ID})
}
