package statements

import (
	"fmt"
	"net/http"

	"go_crm/internal/httpx"
	"go_crm/internal/statement"

	"github.com/gin-gonic/gin"
)

// GenerateRequest represents statement query parameters
type GenerateRequest struct {
	CompanyID int    `form:"companyId" binding:"required"`
	From      string `form:"from"`
	To        string `form:"to"`
	Currency  string `form:"currency"`
}

// Handler handles statements API
type Handler struct {
	engine *statement.Engine
}

// NewHandler creates a new statements handler
func NewHandler(engine *statement.Engine) *Handler {
	return &Handler{engine: engine}
}

// Generate handles GET /api/v1/statements
func (h *Handler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	st, err := h.engine.Generate(c.Request.Context(), req.CompanyID, req.From, req.To, req.Currency)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to generate statement", err))
		return
	}

	httpx.OK(c, st)
}

// Export handles GET /api/v1/statements/export, streaming the statement as a
// CSV attachment.
func (h *Handler) Export(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpx.FailErr(c, httpx.ErrParamInvalid(err.Error()))
		return
	}

	st, err := h.engine.Generate(c.Request.Context(), req.CompanyID, req.From, req.To, req.Currency)
	if err != nil {
		httpx.FailErr(c, httpx.ErrInternalError("failed to generate statement", err))
		return
	}

	filename := fmt.Sprintf("statement-%d-%s-%s.csv", st.CompanyID, st.From, st.To)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "text/csv")
	c.Status(http.StatusOK)

	if err := statement.WriteCSV(c.Writer, st); err != nil {
		// Headers are already out; nothing sensible to send but a log line
		_ = c.Error(err)
	}
}
