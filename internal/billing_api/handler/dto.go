package handler

import (
	"time"

	"github.com/residential-billing-ledger/internal/domain/activity"
	"github.com/residential-billing-ledger/internal/domain/expense"
	"github.com/residential-billing-ledger/internal/domain/ledger"
	"github.com/residential-billing-ledger/internal/domain/resident"
	"github.com/shopspring/decimal"
)

// CreateResidentRequest represents a request to create a new resident
type CreateResidentRequest struct {
	FullName      string          `json:"full_name" binding:"required"`
	Phone         *string         `json:"phone"`
	RateAmount    decimal.Decimal `json:"rate_amount" binding:"positive_amount"`
	RateFrequency string          `json:"rate_frequency" binding:"required,rate_frequency"`
	StartDate     string          `json:"start_date" binding:"required,datetime=2006-01-02"`
	Notes         *string         `json:"notes"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,resident_status"`
}

type UpdateRateRequest struct {
	RateAmount    decimal.Decimal `json:"rate_amount" binding:"positive_amount"`
	RateFrequency string          `json:"rate_frequency" binding:"required,rate_frequency"`
}

// PostLedgerEntryRequest represents a charge, payment or adjustment against a resident
type PostLedgerEntryRequest struct {
	EntryDate   string          `json:"entry_date" binding:"required,datetime=2006-01-02"`
	EntryType   string          `json:"entry_type" binding:"required,entry_type"`
	Amount      decimal.Decimal `json:"amount" binding:"positive_amount"`
	Description *string         `json:"description"`
	Source      *string         `json:"source"`
}

type RecentPaymentsQuery struct {
	ActiveOnly bool `form:"active_only"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}

// ResidentResponse represents a resident in API responses. Amounts are fixed two-place strings.
type ResidentResponse struct {
	ID            int64   `json:"id"`
	FullName      string  `json:"full_name"`
	Phone         *string `json:"phone,omitempty"`
	PhoneDisplay  string  `json:"phone_display,omitempty"`
	RateAmount    string  `json:"rate_amount"`
	RateFrequency string  `json:"rate_frequency"`
	StartDate     string  `json:"start_date"`
	Status        string  `json:"status"`
	Notes         *string `json:"notes,omitempty"`
	Balance       *string `json:"balance,omitempty"`
}

type LedgerEntryResponse struct {
	ID           int64   `json:"id"`
	ResidentID   int64   `json:"resident_id"`
	EntryDate    string  `json:"entry_date"`
	EntryType    string  `json:"entry_type"`
	Amount       string  `json:"amount"`
	SignedAmount string  `json:"signed_amount"`
	Description  *string `json:"description,omitempty"`
	Source       *string `json:"source,omitempty"`
}

// LedgerResponse is a resident's ledger with its running total
type LedgerResponse struct {
	Entries []LedgerEntryResponse `json:"entries"`
	Balance string                `json:"balance"`
}

type PaymentResponse struct {
	EntryID      int64   `json:"entry_id"`
	ResidentID   int64   `json:"resident_id"`
	ResidentName string  `json:"resident_name"`
	EntryDate    string  `json:"entry_date"`
	Amount       string  `json:"amount"`
	Description  *string `json:"description,omitempty"`
	HasReceipt   bool    `json:"has_receipt"`
}

type RecentPaymentResponse struct {
	ResidentID        int64   `json:"resident_id"`
	FullName          string  `json:"full_name"`
	Status            string  `json:"status"`
	Balance           string  `json:"balance"`
	LastPaymentID     *int64  `json:"last_payment_id,omitempty"`
	LastPaymentDate   *string `json:"last_payment_date,omitempty"`
	LastPaymentAmount *string `json:"last_payment_amount,omitempty"`
}

type ExpenseFileResponse struct {
	ID               int64  `json:"id"`
	OriginalFilename string `json:"original_filename"`
	ContentType      string `json:"content_type"`
	FileSizeBytes    int64  `json:"file_size_bytes"`
	UploadedAt       string `json:"uploaded_at"`
}

type ExpenseResponse struct {
	ID          int64                 `json:"id"`
	Vendor      string                `json:"vendor"`
	ExpenseDate string                `json:"expense_date"`
	Amount      string                `json:"amount"`
	Category    *string               `json:"category,omitempty"`
	Notes       *string               `json:"notes,omitempty"`
	CreatedAt   string                `json:"created_at"`
	Files       []ExpenseFileResponse `json:"files"`
}

type RefreshRentResponse struct {
	ResidentID    int64 `json:"resident_id"`
	ChargesPosted int   `json:"charges_posted"`
}

func mapResidentToResponse(r *resident.Resident) ResidentResponse {
	return ResidentResponse{
		ID:            r.ID,
		FullName:      r.FullName,
		Phone:         r.Phone,
		PhoneDisplay:  r.DisplayPhone(),
		RateAmount:    r.RateAmount.StringFixed(2),
		RateFrequency: string(r.RateFrequency),
		StartDate:     r.StartDate.Format(time.DateOnly),
		Status:        string(r.Status),
		Notes:         r.Notes,
	}
}

func mapSummaryToResponse(s *resident.Summary) ResidentResponse {
	resp := mapResidentToResponse(&s.Resident)
	balance := s.Balance.StringFixed(2)
	resp.Balance = &balance
	return resp
}

func mapEntryToResponse(e *ledger.Entry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:           e.ID,
		ResidentID:   e.ResidentID,
		EntryDate:    e.EntryDate.Format(time.DateOnly),
		EntryType:    string(e.Type),
		Amount:       e.Amount.StringFixed(2),
		SignedAmount: e.SignedAmount().StringFixed(2),
		Description:  e.Description,
		Source:       e.Source,
	}
}

func mapPaymentToResponse(p *ledger.PaymentRecord) PaymentResponse {
	return PaymentResponse{
		EntryID:      p.EntryID,
		ResidentID:   p.ResidentID,
		ResidentName: p.ResidentName,
		EntryDate:    p.EntryDate.Format(time.DateOnly),
		Amount:       p.Amount.StringFixed(2),
		Description:  p.Description,
		HasReceipt:   p.HasReceipt(),
	}
}

func mapRecentPaymentToResponse(p *ledger.PaymentSummary) RecentPaymentResponse {
	resp := RecentPaymentResponse{
		ResidentID:    p.ResidentID,
		FullName:      p.FullName,
		Status:        p.Status,
		Balance:       p.Balance.StringFixed(2),
		LastPaymentID: p.LastPaymentID,
	}
	if p.LastPaymentDate != nil {
		d := p.LastPaymentDate.Format(time.DateOnly)
		resp.LastPaymentDate = &d
	}
	if p.LastPaymentAmount != nil {
		a := p.LastPaymentAmount.StringFixed(2)
		resp.LastPaymentAmount = &a
	}
	return resp
}

func mapExpenseToResponse(e *expense.Expense) ExpenseResponse {
	files := make([]ExpenseFileResponse, 0, len(e.Files))
	for _, f := range e.Files {
		files = append(files, ExpenseFileResponse{
			ID:               f.ID,
			OriginalFilename: f.OriginalFilename,
			ContentType:      f.ContentType,
			FileSizeBytes:    f.FileSizeBytes,
			UploadedAt:       f.UploadedAt.Format(time.RFC3339),
		})
	}
	return ExpenseResponse{
		ID:          e.ID,
		Vendor:      e.Vendor,
		ExpenseDate: e.ExpenseDate.Format(time.DateOnly),
		Amount:      e.Amount.StringFixed(2),
		Category:    e.Category,
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		Files:       files,
	}
}

// activity records are already shaped for the API
func mapActivity(records []*activity.Record) []*activity.Record {
	if records == nil {
		return []*activity.Record{}
	}
	return records
}
