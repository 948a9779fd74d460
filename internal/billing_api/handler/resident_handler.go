package handler

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/residential-billing-ledger/internal/billing_api/service"
	"github.com/residential-billing-ledger/internal/domain/shared"
)

// ResidentHandler handles HTTP requests for resident operations
type ResidentHandler struct {
	residentService service.ResidentService
	logger          *slog.Logger
}

func NewResidentHandler(logger *slog.Logger, residentService service.ResidentService) *ResidentHandler {
	return &ResidentHandler{
		residentService: residentService,
		logger:          logger,
	}
}

func (h *ResidentHandler) Create(c *gin.Context) {
	var req CreateResidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid resident request", "error", err)
		RespondBadRequest(c, bindingErrorMessage(err))
		return
	}

	startDate, err := shared.ParseDate("start_date", req.StartDate)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	res, err := h.residentService.CreateResident(c.Request.Context(), req.FullName, req.Phone, req.RateAmount, req.RateFrequency, startDate, req.Notes)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapResidentToResponse(res))
}

func (h *ResidentHandler) List(c *gin.Context) {
	summaries, err := h.residentService.ListResidents(c.Request.Context())
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	resp := make([]ResidentResponse, 0, len(summaries))
	for _, s := range summaries {
		resp = append(resp, mapSummaryToResponse(s))
	}
	RespondOK(c, resp)
}

func (h *ResidentHandler) GetByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "resident")
	if !ok {
		return
	}

	summary, err := h.residentService.GetResident(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondOK(c, mapSummaryToResponse(summary))
}

func (h *ResidentHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "resident")
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, bindingErrorMessage(err))
		return
	}

	if err := h.residentService.UpdateResidentStatus(c.Request.Context(), id, req.Status); err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}

func (h *ResidentHandler) UpdateRate(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "resident")
	if !ok {
		return
	}

	var req UpdateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, bindingErrorMessage(err))
		return
	}

	if err := h.residentService.UpdateResidentRate(c.Request.Context(), id, req.RateAmount, req.RateFrequency); err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}

func (h *ResidentHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "resident")
	if !ok {
		return
	}

	if err := h.residentService.DeleteResident(c.Request.Context(), id); err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondNoContent(c)
}

// RefreshRent posts any auto rent charges that fell due since the last one.
func (h *ResidentHandler) RefreshRent(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "resident")
	if !ok {
		return
	}

	n, err := h.residentService.RefreshRent(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	RespondOK(c, RefreshRentResponse{ResidentID: id, ChargesPosted: n})
}

// parseIDParam writes a 400 and returns false when the path parameter is not a positive integer.
func parseIDParam(c *gin.Context, name, what string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(c, "Invalid "+what+" ID: "+raw)
		return 0, false
	}
	return id, true
}
