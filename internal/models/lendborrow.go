package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lend/borrow record statuses. A record moves active -> overdue when its due
// date passes, and active|overdue -> settled|cancelled through user action.
// Nothing leaves settled or cancelled.
const (
	LendBorrowActive    = "active"
	LendBorrowOverdue   = "overdue"
	LendBorrowSettled   = "settled"
	LendBorrowCancelled = "cancelled"
)

// Lend/borrow directions.
const (
	DirectionLend   = "lend"
	DirectionBorrow = "borrow"
)

type LendBorrow struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	PersonName string             `bson:"person_name" json:"person_name"`
	Type       string             `bson:"type" json:"type"` // lend or borrow
	Amount     float64            `bson:"amount" json:"amount"`
	Currency   string             `bson:"currency" json:"currency"`
	DueDate    time.Time          `bson:"due_date" json:"due_date"`
	Status     string             `bson:"status" json:"status"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}
