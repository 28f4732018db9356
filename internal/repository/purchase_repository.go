package repository

import (
	"context"
	"fmt"

	"github.com/finwise/notification-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PurchaseRepository handles database operations for planned purchases.
type PurchaseRepository struct {
	collection *mongo.Collection
}

// NewPurchaseRepository creates a new instance of PurchaseRepository.
func NewPurchaseRepository(db *mongo.Database) *PurchaseRepository {
	return &PurchaseRepository{
		collection: db.Collection("purchases"),
	}
}

// ListPlanned fetches a user's planned purchases that carry a planned date.
func (r *PurchaseRepository) ListPlanned(ctx context.Context, userID primitive.ObjectID) ([]models.Purchase, error) {
	filter := bson.M{
		"user_id":      userID,
		"status":       models.PurchasePlanned,
		"planned_date": bson.M{"$ne": nil},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch planned purchases: %w", translateError(err))
	}
	defer cursor.Close(ctx)

	var purchases []models.Purchase
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, fmt.Errorf("failed to decode planned purchases: %v", err)
	}
	return purchases, nil
}

// ListNotPlanned fetches a user's purchases that are no longer planned
// (purchased or cancelled items for the cleanup pass).
func (r *PurchaseRepository) ListNotPlanned(ctx context.Context, userID primitive.ObjectID) ([]models.Purchase, error) {
	filter := bson.M{"user_id": userID, "status": bson.M{"$ne": models.PurchasePlanned}}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch completed purchases: %w", translateError(err))
	}
	defer cursor.Close(ctx)

	var purchases []models.Purchase
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, fmt.Errorf("failed to decode completed purchases: %v", err)
	}
	return purchases, nil
}

// UsersWithPlanned returns the ids of users with at least one planned
// purchase, for the periodic scan job.
func (r *PurchaseRepository) UsersWithPlanned(ctx context.Context) ([]primitive.ObjectID, error) {
	filter := bson.M{"status": models.PurchasePlanned}

	values, err := r.collection.Distinct(ctx, "user_id", filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with planned purchases: %w", translateError(err))
	}

	var ids []primitive.ObjectID
	for _, v := range values {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
