package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
	"github.com/SscSPs/course_billing_engine/internal/core/services"
	"github.com/SscSPs/course_billing_engine/internal/handlers"
	"github.com/SscSPs/course_billing_engine/internal/platform/config"
	"github.com/SscSPs/course_billing_engine/internal/platform/metrics"
	"github.com/SscSPs/course_billing_engine/internal/repositories/database/memory"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
)

const testJWTSecret = "handler-test-secret"

type HandlerSuite struct {
	suite.Suite
	router *gin.Engine
	store  *memory.Store
	token  string
}

func (s *HandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	s.store = memory.NewStore()

	codes := map[string]string{
		config.SettingReceivableAccount:      "1100",
		config.SettingDeferredRevenueAccount: "2100",
		config.SettingDiscountAccount:        "4900",
		config.SettingRevenueAccount:         "4100",
		config.SettingTrainingRevenueAccount: "4200",
		config.SettingCashAccount:            "1010",
		config.SettingBankAccount:            "1020",
		config.SettingGatewayAccount:         "1030",
		config.SettingExpenseAccount:         "5900",
	}
	types := map[string]domain.AccountType{
		"1100": domain.Asset, "1010": domain.Asset, "1020": domain.Asset, "1030": domain.Asset,
		"2100": domain.Liability, "4100": domain.Revenue, "4200": domain.Revenue,
		"4900": domain.ContraRevenue, "5900": domain.Expense,
	}
	for code, t := range types {
		_, err := s.store.SaveAccount(ctx, domain.Account{
			Code: code, Name: "Account " + code, AccountType: t,
			NormalBalance: domain.DefaultNormalBalance(t), IsActive: true,
		})
		s.Require().NoError(err)
	}

	cfg := &config.Config{
		JWTSecret:       testJWTSecret,
		MaxInstallments: 12,
		AccountCodes:    codes,
	}
	registry := prometheus.NewRegistry()
	container := services.NewServiceContainer(cfg, memory.NewRepositoryProvider(s.store), metrics.NewRecorder(registry))

	s.router = gin.New()
	handlers.RegisterRoutes(s.router, cfg, container, registry)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "clerk-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	s.Require().NoError(err)
	s.token = signed
}

func (s *HandlerSuite) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var decoded map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	return w, decoded
}

func (s *HandlerSuite) invoice(total string) domain.Invoice {
	now := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	inv, err := s.store.SaveInvoice(context.Background(), domain.Invoice{
		EnrollmentID: domain.Int64Ptr(11),
		TotalAmount:  money.MustParse(total),
		AuditFields:  domain.NewAuditFields("clerk-1", now),
	})
	s.Require().NoError(err)
	return *inv
}

func (s *HandlerSuite) TestHealthAndAuth() {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/journals/1", nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerSuite) TestPostEnrollmentAndReverse() {
	w, body := s.do(http.MethodPost, "/api/v1/postings/enrollment-discount", map[string]any{
		"enrollmentID": 11, "amount": "1000", "discount": "100", "referenceID": 11,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal("1000.000", body["totalDebit"])
	s.Len(body["lines"], 3)
	journalID := int64(body["journalID"].(float64))

	w, body = s.do(http.MethodPost, "/api/v1/journals/"+itoa(journalID)+"/reverse", map[string]any{"reason": "entered twice"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal(string(domain.RefReversal), body["referenceType"])

	w, body = s.do(http.MethodPost, "/api/v1/journals/"+itoa(journalID)+"/reverse", nil)
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("conflict", body["kind"])

	w, body = s.do(http.MethodGet, "/api/v1/accounts/1100/balance", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("0.000", body["balance"])
}

func (s *HandlerSuite) TestUnbalancedManualEntryIsRejected() {
	w, body := s.do(http.MethodPost, "/api/v1/journals", map[string]any{
		"referenceType": "manual",
		"debits":        []map[string]any{{"accountCode": "1010", "amount": "100"}},
		"credits":       []map[string]any{{"accountCode": "4100", "amount": "90"}},
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("validation", body["kind"])
}

func (s *HandlerSuite) TestMissingAccountIsConfigurationError() {
	w, body := s.do(http.MethodPost, "/api/v1/postings/transfer", map[string]any{
		"sourceCode": "1010", "destinationCode": "9999", "amount": "5",
	})
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal("configuration", body["kind"])
}

func (s *HandlerSuite) TestInvoiceComputedFieldsReturn422() {
	inv := s.invoice("500")

	w, body := s.do(http.MethodPatch, "/api/v1/invoices/"+itoa(inv.InvoiceID), map[string]any{"dueAmount": "0"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("integrity", body["kind"])

	w, body = s.do(http.MethodPatch, "/api/v1/invoices/"+itoa(inv.InvoiceID), map[string]any{"notes": "monthly"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("monthly", body["notes"])
	s.Equal("500.000", body["dueAmount"])
	s.Equal("open", body["status"])

	w, _ = s.do(http.MethodGet, "/api/v1/invoices/987654", nil)
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(http.MethodGet, "/api/v1/invoices/abc", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestScheduleAndAllocate() {
	inv := s.invoice("900")
	w, _ := s.do(http.MethodPost, "/api/v1/invoices/"+itoa(inv.InvoiceID)+"/installments", map[string]any{
		"installments": 3, "interval": "monthly", "startDate": "2025-02-01T00:00:00Z",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	paidAt := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	p, err := s.store.SavePayment(context.Background(), domain.Payment{
		InvoiceID: &inv.InvoiceID, Amount: money.MustParse("450"), Method: domain.MethodCash,
		Status: domain.PaymentPaid, PaidAt: &paidAt,
	})
	s.Require().NoError(err)

	w, body := s.do(http.MethodPost, "/api/v1/invoices/"+itoa(inv.InvoiceID)+"/allocations", map[string]any{"paymentID": p.PaymentID})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("450.000", body["totalAllocated"])
	s.Equal("0.000", body["unallocated"])

	w, body = s.do(http.MethodGet, "/api/v1/invoices/"+itoa(inv.InvoiceID)+"/installment-summary", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(float64(1), body["paidInstallments"])
	s.Equal("450.000", body["remainingAmount"])

	w, body = s.do(http.MethodPost, "/api/v1/payments/"+itoa(p.PaymentID)+"/journal", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	first := body["journalID"]
	_, body = s.do(http.MethodPost, "/api/v1/payments/"+itoa(p.PaymentID)+"/journal", nil)
	s.Equal(first, body["journalID"])
}

func (s *HandlerSuite) TestPreviewAndCalculate() {
	w, body := s.do(http.MethodPost, "/api/v1/installment-previews", map[string]any{
		"total": "100", "installments": 3, "interval": "weekly", "startDate": "2025-02-01T00:00:00Z",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Len(body["installments"], 3)

	w, body = s.do(http.MethodPost, "/api/v1/invoice-calculations", map[string]any{
		"subtotal": "100", "manualDiscount": "30", "taxRate": "10", "paidTotal": "77",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Equal("77.000", body["total"])
	s.Equal("paid", body["status"])
}

func (s *HandlerSuite) TestPricingNotFound() {
	w, body := s.do(http.MethodPost, "/api/v1/price-resolutions", map[string]any{"courseID": 5})
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("not_found", body["kind"])

	w, body = s.do(http.MethodPost, "/api/v1/courses/5/pricing-choice", map[string]any{"mode": "full"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(false, body["valid"])
}

func (s *HandlerSuite) TestValidateAccounts() {
	w, body := s.do(http.MethodPost, "/api/v1/accounts/validation", map[string]any{"codes": []string{"1010", "7777"}})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(false, body["allExist"])
	s.Equal([]any{"7777"}, body["missing"])
}

func itoa(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}
