package quotations

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

// ListRequest represents list quotations request
type ListRequest struct {
	Page      int    `form:"page"`
	PageSize  int    `form:"pageSize"`
	ProjectID string `form:"projectId" binding:"required"`
	CompanyID int    `form:"companyId"`
	Status    string `form:"status"`
}

// LineRequest represents a line item in create/update requests
type LineRequest struct {
	ItemID      int     `json:"itemId"`
	Description string  `json:"description" binding:"required"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
}

// CreateRequest represents create quotation request
type CreateRequest struct {
	ProjectID string        `json:"projectId" binding:"required"`
	CompanyID int           `json:"companyId" binding:"required"`
	Date      string        `json:"date" binding:"required"`
	ValidTo   string        `json:"validTo"`
	Currency  string        `json:"currency"`
	Notes     string        `json:"notes"`
	Lines     []LineRequest `json:"lines" binding:"required,min=1"`
}

// UpdateRequest represents update quotation request
type UpdateRequest struct {
	ID      int     `json:"id" binding:"required"`
	Date    *string `json:"date"`
	ValidTo *string `json:"validTo"`
	Status  *string `json:"status"`
	Notes   *string `json:"notes"`
}

// DeleteRequest represents delete quotations request
type DeleteRequest struct {
	IDs []int `json:"ids" binding:"required,min=1"`
}

// ConvertRequest represents convert quotation to invoice request
type ConvertRequest struct {
	ID      int    `json:"id" binding:"required"`
	Date    string `json:"date"`
	DueDate string `json:"dueDate"`
}

// Handler handles quotations API
type Handler struct {
	db  *gorm.DB
	hub *ws.Hub
}

// NewHandler creates a new quotations handler
func NewHandler(db *gorm.DB, hub *ws.Hub) *Handler {
	return &Handler{db: db, hub: hub}
}

// List handles GET /api/v1/quotations
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

	query := h.db.Model(&model.Quotation{}).Where("project_id = ?", req.ProjectID)
	if req.CompanyID > 0 {
		query = query.Where("company_id = ?", req.CompanyID)
	}
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to count quotations", err))
		return
	}

	var quotations []model.Quotation
	offset := (req.Page - 1) * req.PageSize
	if err := query.Preload("Lines").Offset(offset).Limit(req.PageSize).Order("id DESC").Find(&quotations).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch quotations", err))
		return
	}

	httpx.OKItems(c, quotations, total, req.Page, req.PageSize)
}

// Create handles POST /api/v1/quotations/create
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	quotation := model.Quotation{
		ProjectID: req.ProjectID,
		CompanyID: req.CompanyID,
		Date:      req.Date,
		ValidTo:   req.ValidTo,
		Currency:  req.Currency,
		Status:    model.QuotationStatusDraft,
		Notes:     req.Notes,
	}
	if quotation.Currency == "" {
		quotation.Currency = "ZAR"
	}
	for _, line := range req.Lines {
		qty := line.Quantity
		if qty <= 0 {
			qty = 1
		}
		quotation.Lines = append(quotation.Lines, model.QuotationItem{
			ItemID:      line.ItemID,
			Description: line.Description,
			Quantity:    qty,
			UnitPrice:   line.UnitPrice,
		})
		quotation.Total += qty * line.UnitPrice
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		number, err := docnum.Next(tx, quotation.TableName(), req.ProjectID, docnum.PrefixQuotation, time.Now().Year())
		if err != nil {
			return err
		}
		quotation.Number = number
		return tx.Create(&quotation).Error
	})
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to create quotation", err))
		return
	}

	if err := ws.PublishDatabaseEvent(h.hub, h.db, quotation.ProjectID, quotation.TableName(), event.TypeInsert, quotation); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
		return
	}

	httpx.OK(c, quotation)
}

// Update handles POST /api/v1/quotations/update
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var quotation model.Quotation
	if err := h.db.Preload("Lines").First(&quotation, req.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("quotation not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch quotation", err))
		return
	}

	if quotation.Status == model.QuotationStatusConverted {
		httpx.FailErr(c, httpx.ErrStateConflict("quotation already converted"))
		return
	}

	updates := map[string]interface{}{}
	if req.Date != nil {
		updates["date"] = *req.Date
	}
	if req.ValidTo != nil {
		updates["valid_to"] = *req.ValidTo
	}
	if req.Status != nil {
		switch *req.Status {
		case model.QuotationStatusDraft, model.QuotationStatusSent,
			model.QuotationStatusAccepted, model.QuotationStatusDeclined:
			updates["status"] = *req.Status
		default:
			httpx.FailErr(c, httpx.ErrParamInvalid("invalid quotation status"))
			return
		}
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) > 0 {
		if err := h.db.Model(&quotation).Updates(updates).Error; err != nil {
			httpx.FailErr(c, httpx.ErrDatabaseError("failed to update quotation", err))
			return
		}
	}

	if err := ws.PublishDatabaseEvent(h.hub, h.db, quotation.ProjectID, quotation.TableName(), event.TypeUpdate, quotation); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
		return
	}

	httpx.OK(c, quotation)
}

// Delete handles POST /api/v1/quotations/delete
func (h *Handler) Delete(c *gin.Context) {
	var req DeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var quotations []model.Quotation
	if err := h.db.Find(&quotations, req.IDs).Error; err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch quotations", err))
		return
	}
	if len(quotations) == 0 {
		httpx.FailErr(c, httpx.ErrNotFound("no matching quotations"))
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quotation_id IN ?", req.IDs).Delete(&model.QuotationItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Quotation{}, req.IDs).Error
	})
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to delete quotations", err))
		return
	}

	for _, quotation := range quotations {
		if err := ws.PublishDatabaseEvent(h.hub, h.db, quotation.ProjectID, quotation.TableName(), event.TypeDelete, gin.H{"id": quotation.ID}); err != nil {
			httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
			return
		}
	}

	httpx.OKMsg(c, "deleted", gin.H{"ids": req.IDs})
}

// Convert handles POST /api/v1/quotations/convert. It creates an invoice from
// an accepted quotation, copying the lines, and marks the quotation
// converted. Both changes are published to the project room.
func (h *Handler) Convert(c *gin.Context) {
	var req ConvertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamMissing(err.Error()))
		return
	}

	var quotation model.Quotation
	if err := h.db.Preload("Lines").First(&quotation, req.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			httpx.FailErr(c, httpx.ErrNotFound("quotation not found"))
			return
		}
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to fetch quotation", err))
		return
	}

	if quotation.Status == model.QuotationStatusConverted {
		httpx.FailErr(c, httpx.ErrStateConflict("quotation already converted"))
		return
	}
	if quotation.Status != model.QuotationStatusAccepted {
		httpx.FailErr(c, httpx.ErrStateConflict("only accepted quotations can be converted"))
		return
	}

	date := req.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	dueDate := req.DueDate
	if dueDate == "" {
		dueDate = time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	}

	quotationID := quotation.ID
	invoice := model.Invoice{
		ProjectID:   quotation.ProjectID,
		CompanyID:   quotation.CompanyID,
		QuotationID: &quotationID,
		Date:        date,
		DueDate:     dueDate,
		Currency:    quotation.Currency,
		Total:       quotation.Total,
		Status:      model.InvoiceStatusDraft,
		Notes:       quotation.Notes,
	}
	for _, line := range quotation.Lines {
		invoice.Lines = append(invoice.Lines, model.InvoiceItem{
			ItemID:      line.ItemID,
			Description: line.Description,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		number, err := docnum.Next(tx, invoice.TableName(), quotation.ProjectID, docnum.PrefixInvoice, time.Now().Year())
		if err != nil {
			return err
		}
		invoice.Number = number
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}
		return tx.Model(&quotation).Update("status", model.QuotationStatusConverted).Error
	})
	if err != nil {
		httpx.FailErr(c, httpx.ErrDatabaseError("failed to convert quotation", err))
		return
	}

	if err := ws.PublishDatabaseEvent(h.hub, h.db, quotation.ProjectID, quotation.TableName(), event.TypeUpdate, quotation); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
		return
	}
	if err := ws.PublishDatabaseEvent(h.hub, h.db, invoice.ProjectID, invoice.TableName(), event.TypeInsert, invoice); err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to publish change", err))
		return
	}

	httpx.OK(c, invoice)
}
