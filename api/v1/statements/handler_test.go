package statements

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go_crm/internal/model"
	"go_crm/internal/statement"

	"github.com/gin-gonic/gin"
)

type fakeSource struct {
	invoices []model.Invoice
	payments []model.Payment
}

func (f *fakeSource) InvoicesByCompany(context.Context, int) ([]model.Invoice, error) {
	return f.invoices, nil
}

func (f *fakeSource) PaymentsByCompany(context.Context, int) ([]model.Payment, error) {
	return f.payments, nil
}

func setupRouter(src *fakeSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(statement.NewEngine(src, src, nil))
	r := gin.New()
	r.GET("/statements", h.Generate)
	r.GET("/statements/export", h.Export)
	return r
}

func testSource() *fakeSource {
	return &fakeSource{
		invoices: []model.Invoice{
			{Number: "INV-2024-0001", Date: "2024-01-05", Total: 1000, Currency: "ZAR"},
		},
		payments: []model.Payment{
			{Reference: "PAY-001", Date: "2024-01-10", Amount: 400, Currency: "ZAR"},
		},
	}
}

func TestGenerate(t *testing.T) {
	r := setupRouter(testSource())

	req := httptest.NewRequest(http.MethodGet, "/statements?companyId=1&from=2024-01-01&to=2024-01-31&currency=ZAR", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Code int                 `json:"code"`
		Data statement.Statement `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Code != 0 {
		t.Errorf("code = %d, want 0", resp.Code)
	}
	if len(resp.Data.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(resp.Data.Rows))
	}
	if resp.Data.Summary.ClosingBalance != 600 {
		t.Errorf("ClosingBalance = %v, want 600", resp.Data.Summary.ClosingBalance)
	}
}

func TestGenerate_MissingCompanyID(t *testing.T) {
	r := setupRouter(testSource())

	req := httptest.NewRequest(http.MethodGet, "/statements", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestExport(t *testing.T) {
	r := setupRouter(testSource())

	req := httptest.NewRequest(http.MethodGet, "/statements/export?companyId=1&from=2024-01-01&to=2024-01-31&currency=ZAR", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "statement-1-2024-01-01-2024-01-31.csv") {
		t.Errorf("Content-Disposition = %q, want statement filename", got)
	}
	if body := w.Body.String(); !strings.Contains(body, "INV-2024-0001") {
		t.Errorf("CSV body missing invoice row:\n%s", body)
	}
}
