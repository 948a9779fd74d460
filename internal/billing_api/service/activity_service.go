package service

import (
	"context"

	"github.com/residential-billing-ledger/internal/domain/activity"
	"github.com/residential-billing-ledger/internal/domain/resident"
)

// ActivityServiceImpl implements the ActivityService interface
type ActivityServiceImpl struct {
	activityRepo activity.Repository
	residentRepo resident.Repository
}

// NewActivityService creates a new activity service
func NewActivityService(activityRepo activity.Repository, residentRepo resident.Repository) ActivityService {
	return &ActivityServiceImpl{
		activityRepo: activityRepo,
		residentRepo: residentRepo,
	}
}

// ListActivity checks the resident exists, since the projection cannot tell an unknown
// resident from one without activity.
func (s *ActivityServiceImpl) ListActivity(ctx context.Context, residentID int64, page, perPage int) ([]*activity.Record, int64, error) {
	if _, err := s.residentRepo.GetByID(ctx, residentID); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	records, err := s.activityRepo.ListByResident(ctx, residentID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.activityRepo.CountByResident(ctx, residentID)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}
