package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	portssvc "github.com/SscSPs/course_billing_engine/internal/core/ports/services"
	"github.com/SscSPs/course_billing_engine/internal/dto"
	"github.com/SscSPs/course_billing_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ledgerHandler exposes journal posting, reversal and account reads.
type ledgerHandler struct {
	ledgerService portssvc.LedgerSvcFacade
}

func registerLedgerRoutes(rg *gin.RouterGroup, ledgerService portssvc.LedgerSvcFacade) {
	h := &ledgerHandler{ledgerService: ledgerService}

	journals := rg.Group("/journals")
	{
		journals.POST("", h.postJournalEntry)
		journals.GET("/:journalID", h.getJournal)
		journals.POST("/:journalID/reverse", h.reverseJournal)
	}

	postings := rg.Group("/postings")
	{
		postings.POST("/enrollment", postEvent(h, "post enrollment", ledgerService.PostEnrollmentCreated))
		postings.POST("/enrollment-discount", postEvent(h, "post discounted enrollment", ledgerService.PostEnrollmentWithDiscount))
		postings.POST("/payment", postEvent(h, "post payment", ledgerService.PostPayment))
		postings.POST("/completion", postEvent(h, "post course completion", ledgerService.PostCourseCompletion))
		postings.POST("/refund", postEvent(h, "post refund", ledgerService.PostRefund))
		postings.POST("/transfer", postEvent(h, "post transfer", ledgerService.PostTransfer))
	}

	rg.POST("/payments/:paymentID/journal", h.postPaymentJournal)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.POST("/validation", h.validateAccounts)
		accounts.GET("/:code/balance", h.getBalance)
	}
}

// postEvent builds a handler for one of the typed posting operations.
func postEvent[R any](h *ledgerHandler, action string, post func(context.Context, R, string) (*domain.Journal, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		var req R
		if !bindJSON(c, &req) {
			return
		}
		journal, err := post(c.Request.Context(), req, userID)
		if err != nil {
			respondError(c, err, action)
			return
		}
		h.respondJournal(c, journal, http.StatusCreated)
	}
}

func (h *ledgerHandler) respondJournal(c *gin.Context, journal *domain.Journal, status int) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Journal returned",
		slog.Int64("journal_id", journal.JournalID), slog.String("reference_type", string(journal.ReferenceType)))
	c.JSON(status, dto.ToJournalResponse(journal))
}

func (h *ledgerHandler) postJournalEntry(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.PostJournalRequest
	if !bindJSON(c, &req) {
		return
	}
	journal, err := h.ledgerService.PostJournalEntry(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "post journal")
		return
	}
	h.respondJournal(c, journal, http.StatusCreated)
}

// postPaymentJournal is safe to retry; repeated calls return the same journal.
func (h *ledgerHandler) postPaymentJournal(c *gin.Context) {
	paymentID, ok := pathID(c, "paymentID")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	journal, err := h.ledgerService.PostPaymentJournal(c.Request.Context(), paymentID, userID)
	if err != nil {
		respondError(c, err, "post payment journal")
		return
	}
	h.respondJournal(c, journal, http.StatusOK)
}

func (h *ledgerHandler) getJournal(c *gin.Context) {
	journalID, ok := pathID(c, "journalID")
	if !ok {
		return
	}
	journal, err := h.ledgerService.GetJournal(c.Request.Context(), journalID)
	if err != nil {
		respondError(c, err, "retrieve journal")
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalResponse(journal))
}

func (h *ledgerHandler) reverseJournal(c *gin.Context) {
	journalID, ok := pathID(c, "journalID")
	if !ok {
		return
	}
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.ReverseJournalRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	reversal, err := h.ledgerService.ReverseJournal(c.Request.Context(), journalID, req.Reason, userID)
	if err != nil {
		respondError(c, err, "reverse journal")
		return
	}
	h.respondJournal(c, reversal, http.StatusCreated)
}

func (h *ledgerHandler) getBalance(c *gin.Context) {
	balance, err := h.ledgerService.GetAccountBalance(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err, "retrieve account balance")
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (h *ledgerHandler) validateAccounts(c *gin.Context) {
	var req dto.ValidateAccountsRequest
	if !bindJSON(c, &req) {
		return
	}
	missing, err := h.ledgerService.ValidateAccountsExist(c.Request.Context(), req.Codes)
	if err != nil {
		respondError(c, err, "validate accounts")
		return
	}
	if missing == nil {
		missing = []string{}
	}
	c.JSON(http.StatusOK, dto.ValidateAccountsResponse{AllExist: len(missing) == 0, Missing: missing})
}

func (h *ledgerHandler) createAccount(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateAccountRequest
	if !bindJSON(c, &req) {
		return
	}
	account, err := h.ledgerService.CreateAccount(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "create account")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Account created", slog.String("code", account.Code))
	c.JSON(http.StatusCreated, account)
}
