package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/residential-billing-ledger/internal/domain/activity"
)

const (
	// ActivityCollectionName is the name of the ledger activity collection in MongoDB
	ActivityCollectionName = "ledger_activity"
)

// ActivityRepository implements the activity.Repository interface for MongoDB
type ActivityRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewActivityRepository creates a new MongoDB activity repository
func NewActivityRepository(logger *slog.Logger, db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

var _ activity.Repository = (*ActivityRepository)(nil)

// EnsureIndexes creates the unique entry index and the per-resident listing index.
func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(ActivityCollectionName)

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "entry_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("ux_entry_id"),
		},
		{
			Keys:    bson.D{{Key: "resident_id", Value: 1}, {Key: "entry_date", Value: -1}, {Key: "entry_id", Value: -1}},
			Options: options.Index().SetName("ix_resident_entry_date"),
		},
	})
	if err != nil {
		r.logger.Error("Failed to create activity indexes", "error", err)
		return fmt.Errorf("failed to create activity indexes: %w", err)
	}

	return nil
}

// Upsert replaces the record for the same ledger entry, so a replayed event leaves one document.
func (r *ActivityRepository) Upsert(ctx context.Context, record *activity.Record) error {
	collection := r.db.Collection(ActivityCollectionName)

	filter := bson.M{"entry_id": record.EntryID}
	opts := options.Replace().SetUpsert(true)

	if _, err := collection.ReplaceOne(ctx, filter, record, opts); err != nil {
		r.logger.Error("Failed to upsert ledger activity",
			"entry_id", record.EntryID,
			"resident_id", record.ResidentID,
			"error", err)
		return fmt.Errorf("failed to upsert ledger activity: %w", err)
	}

	return nil
}

// ListByResident retrieves paginated activity for a resident, newest entry date first.
func (r *ActivityRepository) ListByResident(ctx context.Context, residentID int64, limit, offset int) ([]*activity.Record, error) {
	collection := r.db.Collection(ActivityCollectionName)

	filter := bson.M{"resident_id": residentID}
	opts := options.Find().
		SetSort(bson.D{{Key: "entry_date", Value: -1}, {Key: "entry_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get ledger activity",
			"resident_id", residentID,
			"error", err)
		return nil, fmt.Errorf("failed to get ledger activity: %w", err)
	}
	defer cursor.Close(ctx)

	records := []*activity.Record{}
	if err := cursor.All(ctx, &records); err != nil {
		r.logger.Error("Failed to decode ledger activity",
			"resident_id", residentID,
			"error", err)
		return nil, fmt.Errorf("failed to decode ledger activity: %w", err)
	}

	return records, nil
}

// CountByResident counts the activity records for a resident
func (r *ActivityRepository) CountByResident(ctx context.Context, residentID int64) (int64, error) {
	collection := r.db.Collection(ActivityCollectionName)

	count, err := collection.CountDocuments(ctx, bson.M{"resident_id": residentID})
	if err != nil {
		r.logger.Error("Failed to count ledger activity",
			"resident_id", residentID,
			"error", err)
		return 0, fmt.Errorf("failed to count ledger activity: %w", err)
	}

	return count, nil
}
