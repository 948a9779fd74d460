package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/residential-billing-ledger/internal/billing_api/service"
	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ExpenseHandler handles expense creation with attachments and file downloads
type ExpenseHandler struct {
	expenseService  service.ExpenseService
	maxRequestBytes int64
	logger          *slog.Logger
}

func NewExpenseHandler(logger *slog.Logger, expenseService service.ExpenseService, maxRequestBytes int64) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService:  expenseService,
		maxRequestBytes: maxRequestBytes,
		logger:          logger,
	}
}

// Create reads a multipart form with vendor, expense_date, amount, optional category and
// notes, and any number of "files" parts. The whole request is capped at maxRequestBytes.
func (h *ExpenseHandler) Create(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxRequestBytes)

	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondBadRequest(c, fmt.Sprintf("Request exceeds %d bytes", h.maxRequestBytes))
			return
		}
		RespondBadRequest(c, "Invalid multipart form: "+err.Error())
		return
	}
	defer func() { _ = form.RemoveAll() }()

	amount, err := decimal.NewFromString(strings.TrimSpace(formValue(form, "amount")))
	if err != nil {
		RespondDomainError(c, h.logger, shared.NewValidationError("amount", "must be a decimal number"))
		return
	}

	expenseDate, err := shared.ParseDate("expense_date", strings.TrimSpace(formValue(form, "expense_date")))
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	uploads, err := readUploads(form.File["files"])
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	exp, err := h.expenseService.CreateExpense(
		c.Request.Context(),
		formValue(form, "vendor"),
		expenseDate,
		amount,
		optionalFormValue(form, "category"),
		optionalFormValue(form, "notes"),
		uploads,
	)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapExpenseToResponse(exp))
}

func (h *ExpenseHandler) List(c *gin.Context) {
	expenses, err := h.expenseService.ListExpenses(c.Request.Context())
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}

	resp := make([]ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		resp = append(resp, mapExpenseToResponse(e))
	}
	RespondOK(c, resp)
}

// File redirects to a short-lived signed link to the attachment.
func (h *ExpenseHandler) File(c *gin.Context) {
	fileID, ok := parseIDParam(c, "file_id", "expense file")
	if !ok {
		return
	}

	url, err := h.expenseService.ExpenseFileURL(c.Request.Context(), fileID)
	if err != nil {
		RespondDomainError(c, h.logger, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func readUploads(headers []*multipart.FileHeader) ([]service.ExpenseUpload, error) {
	uploads := make([]service.ExpenseUpload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open upload %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read upload %s: %w", fh.Filename, err)
		}
		uploads = append(uploads, service.ExpenseUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func optionalFormValue(form *multipart.Form, key string) *string {
	v, ok := form.Value[key]
	if !ok || len(v) == 0 {
		return nil
	}
	return &v[0]
}
