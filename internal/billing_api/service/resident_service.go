package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/residential-billing-ledger/internal/domain/ledger"
	"github.com/residential-billing-ledger/internal/domain/resident"
	"github.com/shopspring/decimal"
)

// ResidentServiceImpl implements the ResidentService interface
type ResidentServiceImpl struct {
	residentRepo resident.Repository
	ledgerRepo   ledger.Repository
	accruer      RentAccruer
	now          func() time.Time
	logger       *slog.Logger
}

// NewResidentService creates a new resident service
func NewResidentService(logger *slog.Logger, residentRepo resident.Repository, ledgerRepo ledger.Repository, accruer RentAccruer) ResidentService {
	return &ResidentServiceImpl{
		residentRepo: residentRepo,
		ledgerRepo:   ledgerRepo,
		accruer:      accruer,
		now:          time.Now,
		logger:       logger,
	}
}

func (s *ResidentServiceImpl) CreateResident(ctx context.Context, fullName string, phone *string, rateAmount decimal.Decimal, rateFrequency string, startDate time.Time, notes *string) (*resident.Resident, error) {
	res, err := resident.NewResident(fullName, phone, rateAmount, rateFrequency, startDate, notes)
	if err != nil {
		return nil, err
	}

	if err := s.residentRepo.Create(ctx, res); err != nil {
		return nil, err
	}

	s.logger.Info("Resident created", "resident_id", res.ID, "rate_frequency", string(res.RateFrequency))
	return res, nil
}

// GetResident accrues due rent first so the returned balance is current.
func (s *ResidentServiceImpl) GetResident(ctx context.Context, id int64) (*resident.Summary, error) {
	if _, err := s.accruer.EnsureUpToDate(ctx, id, s.now()); err != nil {
		return nil, err
	}

	res, err := s.residentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledgerRepo.Balance(ctx, id)
	if err != nil {
		return nil, err
	}

	return &resident.Summary{Resident: *res, Balance: balance}, nil
}

// ListResidents refreshes rent for all active residents. A failed refresh is logged and the
// list is still returned with whatever balances are stored.
func (s *ResidentServiceImpl) ListResidents(ctx context.Context) ([]*resident.Summary, error) {
	if _, err := s.accruer.RefreshActive(ctx, s.now()); err != nil {
		s.logger.Warn("Rent refresh before listing residents failed", "error", err)
	}
	return s.residentRepo.ListWithBalances(ctx)
}

func (s *ResidentServiceImpl) UpdateResidentStatus(ctx context.Context, id int64, status string) error {
	parsed, err := resident.ParseStatus(status)
	if err != nil {
		return err
	}

	if err := s.residentRepo.UpdateStatus(ctx, id, parsed); err != nil {
		return err
	}

	s.logger.Info("Resident status updated", "resident_id", id, "status", string(parsed))
	return nil
}

func (s *ResidentServiceImpl) UpdateResidentRate(ctx context.Context, id int64, rateAmount decimal.Decimal, rateFrequency string) error {
	freq, err := resident.ValidateRate(rateAmount, rateFrequency)
	if err != nil {
		return err
	}
	return s.residentRepo.UpdateRate(ctx, id, rateAmount, freq)
}

func (s *ResidentServiceImpl) DeleteResident(ctx context.Context, id int64) error {
	if err := s.residentRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Resident deleted", "resident_id", id)
	return nil
}

func (s *ResidentServiceImpl) RefreshRent(ctx context.Context, id int64) (int, error) {
	return s.accruer.EnsureUpToDate(ctx, id, s.now())
}
