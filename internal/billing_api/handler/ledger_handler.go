package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/residential-billing-ledger/internal/billing_api/service"
	"github.com/residential-billing-ledger/internal/domain/ledger"
	"github.com/residential-billing-ledger/internal/domain/shared"
)

// LedgerHandler handles a resident's ledger entries and activity feed
type LedgerHandler struct {
	ledgerService   service.LedgerService
	activityService service.ActivityService
	logger          *slog.Logger
}

func NewLedgerHandler(logger *slog.Logger, ledgerService service.LedgerService, activityService service.ActivityService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService:   ledgerService,
		activityService: activityService,
		logger:          logger,
	}
}

func (h *LedgerHandler) Post(c *gin.Context) {
	residentID, ok := parseIDParam(c, "id", "resident")
	if !ok {
		return
	}

	var req PostLedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid ledger entry request", "resident_id", residentID, "error", err)
		RespondBadRequest(c, bindingErrorMessage(err))
		return
	}

	entryDate, err := shared.ParseDate("entry_date", req.EntryDate)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	entry, err := h.ledgerService.PostLedgerEntry(c.Request.Context(), residentID, entryDate, req.EntryType, req.Amount, req.Description, req.Source)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapEntryToResponse(entry))
}

// List returns the ledger in (entry_date, id) order with the resulting balance.
func (h *LedgerHandler) List(c *gin.Context) {
	residentID, ok := parseIDParam(c, "id", "resident")
	if !ok {
		return
	}

	entries, err := h.ledgerService.ListLedgerForResident(c.Request.Context(), residentID)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	resp := LedgerResponse{
		Entries: make([]LedgerEntryResponse, 0, len(entries)),
		Balance: ledger.Balance(entries).StringFixed(2),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, mapEntryToResponse(e))
	}
	RespondOK(c, resp)
}

func (h *LedgerHandler) Activity(c *gin.Context) {
	residentID, ok := parseIDParam(c, "id", "resident")
	if !ok {
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, bindingErrorMessage(err))
		return
	}

	records, total, err := h.activityService.ListActivity(c.Request.Context(), residentID, params.Page, params.PerPage)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondWithPaginatedData(c, http.StatusOK, mapActivity(records), params.Page, params.PerPage, int(total))
}
