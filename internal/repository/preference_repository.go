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

// preferenceKey is the single key under which the notification settings
// document is stored per user.
const preferenceKey = "notification_settings"

// PreferenceRepository handles database operations for preference documents,
// keyed by (user_id, preference_key).
type PreferenceRepository struct {
	collection *mongo.Collection
}

// NewPreferenceRepository creates a new instance of PreferenceRepository.
func NewPreferenceRepository(db *mongo.Database) *PreferenceRepository {
	return &PreferenceRepository{
		collection: db.Collection("notification_preferences"),
	}
}

// EnsureIndexes creates the unique (user_id, preference_key) index the upsert
// conflict semantics rely on.
func (r *PreferenceRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "preference_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create preference index: %v", err)
	}
	return nil
}

// Get fetches the raw stored preference document for a user.
func (r *PreferenceRepository) Get(ctx context.Context, userID primitive.ObjectID) (bson.Raw, error) {
	filter := bson.M{"user_id": userID, "preference_key": preferenceKey}

	var doc struct {
		PreferenceValue bson.Raw `bson:"preference_value"`
	}
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to fetch preferences: %w", translateError(err))
	}
	return doc.PreferenceValue, nil
}

// Upsert writes the preference document, inserting it if absent.
func (r *PreferenceRepository) Upsert(ctx context.Context, userID primitive.ObjectID, prefs models.NotificationPreferences) error {
	filter := bson.M{"user_id": userID, "preference_key": preferenceKey}
	update := bson.M{
		"$set": bson.M{
			"preference_value": prefs,
			"updated_at":       time.Now(),
		},
		"$setOnInsert": bson.M{"created_at": time.Now()},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to upsert preferences")
		return fmt.Errorf("failed to upsert preferences: %w", translateError(err))
	}
	return nil
}

// Update rewrites an existing preference document by key. Reports ErrNotFound
// when no document matched.
func (r *PreferenceRepository) Update(ctx context.Context, userID primitive.ObjectID, prefs models.NotificationPreferences) error {
	filter := bson.M{"user_id": userID, "preference_key": preferenceKey}
	update := bson.M{
		"$set": bson.M{
			"preference_value": prefs,
			"updated_at":       time.Now(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to update preferences")
		return fmt.Errorf("failed to update preferences: %w", translateError(err))
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("failed to update preferences: %w", ErrNotFound)
	}
	return nil
}

// Insert creates a fresh preference document.
func (r *PreferenceRepository) Insert(ctx context.Context, userID primitive.ObjectID, prefs models.NotificationPreferences) error {
	doc := bson.M{
		"user_id":          userID,
		"preference_key":   preferenceKey,
		"preference_value": prefs,
		"created_at":       time.Now(),
		"updated_at":       time.Now(),
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to insert preferences")
		return fmt.Errorf("failed to insert preferences: %w", translateError(err))
	}
	return nil
}
