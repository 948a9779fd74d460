package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/residential-billing-ledger/internal/billing_api/service"
	"github.com/residential-billing-ledger/internal/domain/activity"
	"github.com/residential-billing-ledger/internal/domain/expense"
	"github.com/residential-billing-ledger/internal/domain/ledger"
	"github.com/residential-billing-ledger/internal/domain/resident"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockResidentService struct {
	mock.Mock
}

func (m *MockResidentService) CreateResident(ctx context.Context, fullName string, phone *string, rateAmount decimal.Decimal, rateFrequency string, startDate time.Time, notes *string) (*resident.Resident, error) {
	args := m.Called(ctx, fullName, phone, rateAmount, rateFrequency, startDate, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resident.Resident), args.Error(1)
}

func (m *MockResidentService) GetResident(ctx context.Context, id int64) (*resident.Summary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*resident.Summary), args.Error(1)
}

func (m *MockResidentService) ListResidents(ctx context.Context) ([]*resident.Summary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*resident.Summary), args.Error(1)
}

func (m *MockResidentService) UpdateResidentStatus(ctx context.Context, id int64, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *MockResidentService) UpdateResidentRate(ctx context.Context, id int64, rateAmount decimal.Decimal, rateFrequency string) error {
	return m.Called(ctx, id, rateAmount, rateFrequency).Error(0)
}

func (m *MockResidentService) DeleteResident(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockResidentService) RefreshRent(ctx context.Context, id int64) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) PostLedgerEntry(ctx context.Context, residentID int64, entryDate time.Time, entryType string, amount decimal.Decimal, description, source *string) (*ledger.Entry, error) {
	args := m.Called(ctx, residentID, entryDate, entryType, amount, description, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockLedgerService) ListLedgerForResident(ctx context.Context, residentID int64) ([]*ledger.Entry, error) {
	args := m.Called(ctx, residentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.Entry), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) ListPayments(ctx context.Context) ([]*ledger.PaymentRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.PaymentRecord), args.Error(1)
}

func (m *MockPaymentService) RecentPaymentSummary(ctx context.Context, activeOnly bool) ([]*ledger.PaymentSummary, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ledger.PaymentSummary), args.Error(1)
}

func (m *MockPaymentService) ReceiptURL(ctx context.Context, ledgerEntryID int64) (string, error) {
	args := m.Called(ctx, ledgerEntryID)
	return args.String(0), args.Error(1)
}

type MockExpenseService struct {
	mock.Mock
}

func (m *MockExpenseService) CreateExpense(ctx context.Context, vendor string, expenseDate time.Time, amount decimal.Decimal, category, notes *string, files []service.ExpenseUpload) (*expense.Expense, error) {
	args := m.Called(ctx, vendor, expenseDate, amount, category, notes, files)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*expense.Expense), args.Error(1)
}

func (m *MockExpenseService) ListExpenses(ctx context.Context) ([]*expense.Expense, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*expense.Expense), args.Error(1)
}

func (m *MockExpenseService) ExpenseFileURL(ctx context.Context, fileID int64) (string, error) {
	args := m.Called(ctx, fileID)
	return args.String(0), args.Error(1)
}

type MockActivityService struct {
	mock.Mock
}

func (m *MockActivityService) ListActivity(ctx context.Context, residentID int64, page, perPage int) ([]*activity.Record, int64, error) {
	args := m.Called(ctx, residentID, page, perPage)
	var records []*activity.Record
	if args.Get(0) != nil {
		records = args.Get(0).([]*activity.Record)
	}
	return records, args.Get(1).(int64), args.Error(2)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())
	return gin.New()
}

func decimalEq(s string) interface{} {
	want := decimal.RequireFromString(s)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func strPtr(s string) *string { return &s }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// decodeResponse unpacks the envelope and, when out is non-nil, its data field.
func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) Response {
	t.Helper()
	var envelope struct {
		Data          json.RawMessage `json:"data"`
		Error         *ErrorInfo      `json:"error"`
		CorrelationID string          `json:"correlation_id"`
		Meta          *MetaInfo       `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope), "Failed to unmarshal response: %s", rr.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(envelope.Data, out), "Failed to unmarshal data field")
	}
	return Response{Error: envelope.Error, CorrelationID: envelope.CorrelationID, Meta: envelope.Meta}
}
