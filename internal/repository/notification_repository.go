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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository handles database operations for notification records.
// Records are only ever soft-deleted.
type NotificationRepository struct {
	collection *mongo.Collection
}

// NewNotificationRepository creates a new instance of NotificationRepository.
func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{
		collection: db.Collection("notifications"),
	}
}

// Insert persists a new notification record.
func (r *NotificationRepository) Insert(ctx context.Context, notif *models.Notification) error {
	notif.CreatedAt = time.Now()
	notif.UpdatedAt = notif.CreatedAt

	result, err := r.collection.InsertOne(ctx, notif)
	if err != nil {
		logrus.WithError(err).Error("Failed to insert notification")
		return fmt.Errorf("failed to create notification: %w", translateError(err))
	}
	if insertedID, ok := result.InsertedID.(primitive.ObjectID); ok {
		notif.ID = insertedID
	}
	return nil
}

// ListActive returns all non-deleted notifications for a user, newest first.
func (r *NotificationRepository) ListActive(ctx context.Context, userID primitive.ObjectID) ([]models.Notification, error) {
	filter := bson.M{"user_id": userID, "deleted": false}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", translateError(err))
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %v", err)
	}
	return notifications, nil
}

// ExistsByDedupKey reports whether a non-deleted notification already covers
// the given condition.
func (r *NotificationRepository) ExistsByDedupKey(ctx context.Context, userID primitive.ObjectID, dedupKey string) (bool, error) {
	filter := bson.M{"user_id": userID, "deleted": false, "dedup_key": dedupKey}

	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to check for existing notification: %w", translateError(err))
	}
	return count > 0, nil
}

// SoftDeleteBySource soft-deletes all non-deleted notifications referencing
// the given source records. Returns the number of records touched.
func (r *NotificationRepository) SoftDeleteBySource(ctx context.Context, userID primitive.ObjectID, sourceType string, sourceIDs []string) (int64, error) {
	if len(sourceIDs) == 0 {
		return 0, nil
	}

	filter := bson.M{
		"user_id":     userID,
		"deleted":     false,
		"source_type": sourceType,
		"source_id":   bson.M{"$in": sourceIDs},
	}
	update := bson.M{"$set": bson.M{"deleted": true, "updated_at": time.Now()}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		logrus.WithError(err).WithField("source_type", sourceType).Error("Failed to soft-delete stale notifications")
		return 0, fmt.Errorf("failed to soft-delete notifications: %w", translateError(err))
	}
	return result.ModifiedCount, nil
}

// MarkAsRead sets a notification's read flag.
func (r *NotificationRepository) MarkAsRead(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"read": true, "updated_at": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

// SoftDelete marks a single notification as deleted.
func (r *NotificationRepository) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"deleted": true, "updated_at": time.Now()}}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}
