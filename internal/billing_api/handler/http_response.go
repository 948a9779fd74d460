package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/residential-billing-ledger/internal/billing_api/middleware"
	"github.com/residential-billing-ledger/internal/domain/shared"
)

// Response is the envelope every JSON endpoint answers with
type Response struct {
	Data          interface{} `json:"data,omitempty"`
	Error         *ErrorInfo  `json:"error,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Meta          *MetaInfo   `json:"meta,omitempty"`
}

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MetaInfo carries pagination for list endpoints that page
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
}

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"
	CodeInternal   = "INTERNAL_ERROR"
)

const internalErrorMessage = "An internal server error occurred"

// errorKinds is checked in order; the first sentinel the error matches decides the answer.
var errorKinds = []struct {
	sentinel error
	status   int
	code     string
}{
	{shared.ErrValidation, http.StatusBadRequest, CodeValidation},
	{shared.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{shared.ErrConflict, http.StatusConflict, CodeConflict},
}

func newPageMeta(page, perPage, totalItems int) *MetaInfo {
	meta := &MetaInfo{Page: page, PerPage: perPage, TotalItems: totalItems}
	if perPage > 0 {
		meta.TotalPages = (totalItems + perPage - 1) / perPage
	}
	return meta
}

func writeEnvelope(c *gin.Context, statusCode int, resp *Response) {
	resp.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, resp)
}

func RespondWithData(c *gin.Context, statusCode int, data interface{}) {
	writeEnvelope(c, statusCode, &Response{Data: data})
}

func RespondWithError(c *gin.Context, statusCode int, code, message string) {
	writeEnvelope(c, statusCode, &Response{Error: &ErrorInfo{Code: code, Message: message}})
}

func RespondWithPaginatedData(c *gin.Context, statusCode int, data interface{}, page, perPage, totalItems int) {
	writeEnvelope(c, statusCode, &Response{Data: data, Meta: newPageMeta(page, perPage, totalItems)})
}

func RespondOK(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusOK, data)
}

func RespondCreated(c *gin.Context, data interface{}) {
	RespondWithData(c, http.StatusCreated, data)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RespondBadRequest reports malformed input that never reached the domain
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, CodeValidation, message)
}

// RespondDomainError answers with the status of the error's kind and its own message.
// Errors of no known kind are logged in full and answered with a fixed 500 message.
func RespondDomainError(c *gin.Context, logger *slog.Logger, err error) {
	_ = c.Error(err)

	for _, kind := range errorKinds {
		if errors.Is(err, kind.sentinel) {
			RespondWithError(c, kind.status, kind.code, err.Error())
			return
		}
	}

	logger.Error("Request failed",
		"method", c.Request.Method,
		"route", c.FullPath(),
		"correlation_id", middleware.GetCorrelationID(c),
		"error", err,
	)
	RespondWithError(c, http.StatusInternalServerError, CodeInternal, internalErrorMessage)
}
