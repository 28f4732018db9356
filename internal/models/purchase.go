package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Planned purchase statuses.
const (
	PurchasePlanned   = "planned"
	PurchaseCompleted = "purchased"
	PurchaseCancelled = "cancelled"
)

type Purchase struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title       string             `bson:"title" json:"title"`
	Price       float64            `bson:"price" json:"price"`
	Currency    string             `bson:"currency" json:"currency"`
	PlannedDate *time.Time         `bson:"planned_date,omitempty" json:"planned_date,omitempty"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
