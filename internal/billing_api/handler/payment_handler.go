package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/residential-billing-ledger/internal/billing_api/service"
)

// PaymentHandler serves payment listings and receipt downloads
type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *slog.Logger
}

func NewPaymentHandler(logger *slog.Logger, paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

func (h *PaymentHandler) List(c *gin.Context) {
	payments, err := h.paymentService.ListPayments(c.Request.Context())
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	resp := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, mapPaymentToResponse(p))
	}
	RespondOK(c, resp)
}

func (h *PaymentHandler) Recent(c *gin.Context) {
	var q RecentPaymentsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		RespondBadRequest(c, "Invalid active_only value")
		return
	}

	summaries, err := h.paymentService.RecentPaymentSummary(c.Request.Context(), q.ActiveOnly)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	resp := make([]RecentPaymentResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, mapRecentPaymentToResponse(s))
	}
	RespondOK(c, resp)
}

// Receipt redirects to a short-lived signed link to the receipt PDF.
func (h *PaymentHandler) Receipt(c *gin.Context) {
	entryID, ok := parseIDParam(c, "entry_id", "ledger entry")
	if !ok {
		return
	}

	url, err := h.paymentService.ReceiptURL(c.Request.Context(), entryID)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}
