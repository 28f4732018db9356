package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/finwise/notification-engine/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// LendBorrowRepository handles database operations for lend/borrow records.
type LendBorrowRepository struct {
	collection *mongo.Collection
}

// NewLendBorrowRepository creates a new instance of LendBorrowRepository.
func NewLendBorrowRepository(db *mongo.Database) *LendBorrowRepository {
	return &LendBorrowRepository{
		collection: db.Collection("lend_borrow"),
	}
}

// ListByStatus fetches a user's records whose status is in the given set.
func (r *LendBorrowRepository) ListByStatus(ctx context.Context, userID primitive.ObjectID, statuses []string) ([]models.LendBorrow, error) {
	filter := bson.M{"user_id": userID, "status": bson.M{"$in": statuses}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lend/borrow records: %w", translateError(err))
	}
	defer cursor.Close(ctx)

	var records []models.LendBorrow
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode lend/borrow records: %v", err)
	}
	return records, nil
}

// ListExcludingStatus fetches a user's records whose status is NOT in the
// given set (settled and cancelled items for the cleanup pass).
func (r *LendBorrowRepository) ListExcludingStatus(ctx context.Context, userID primitive.ObjectID, statuses []string) ([]models.LendBorrow, error) {
	filter := bson.M{"user_id": userID, "status": bson.M{"$nin": statuses}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch inactive lend/borrow records: %w", translateError(err))
	}
	defer cursor.Close(ctx)

	var records []models.LendBorrow
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode inactive lend/borrow records: %v", err)
	}
	return records, nil
}

// FindOverdueCandidates returns ids of active records whose due date has
// passed.
func (r *LendBorrowRepository) FindOverdueCandidates(ctx context.Context, userID primitive.ObjectID, today time.Time) ([]primitive.ObjectID, error) {
	filter := bson.M{
		"user_id":  userID,
		"status":   models.LendBorrowActive,
		"due_date": bson.M{"$lt": today},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch overdue candidates: %w", translateError(err))
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var record struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("failed to decode overdue candidate: %v", err)
		}
		ids = append(ids, record.ID)
	}
	return ids, nil
}

// MarkOverdue transitions the given records to overdue in one batch. Records
// already overdue are simply not matched, so re-running is a no-op.
func (r *LendBorrowRepository) MarkOverdue(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	filter := bson.M{"_id": bson.M{"$in": ids}, "status": models.LendBorrowActive}
	update := bson.M{"$set": bson.M{"status": models.LendBorrowOverdue, "updated_at": time.Now()}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		logrus.WithError(err).Error("Failed to mark lend/borrow records overdue")
		return 0, fmt.Errorf("failed to mark records overdue: %w", translateError(err))
	}
	return result.ModifiedCount, nil
}

// UsersWithOutstanding returns the ids of users who own at least one active
// or overdue record, for the periodic scan job.
func (r *LendBorrowRepository) UsersWithOutstanding(ctx context.Context) ([]primitive.ObjectID, error) {
	filter := bson.M{"status": bson.M{"$in": []string{models.LendBorrowActive, models.LendBorrowOverdue}}}

	values, err := r.collection.Distinct(ctx, "user_id", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with outstanding records: %w", translateError(err))
	}

	var ids []primitive.ObjectID
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
