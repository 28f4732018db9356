package services

import (
	"context"
	"time"

	"github.com/finwise/notification-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store interfaces consumed by the engine. The Mongo repositories satisfy
// them; tests substitute in-memory fakes.

type PreferenceStore interface {
	Get(ctx context.Context, userID primitive.ObjectID) (bson.Raw, error)
	Upsert(ctx context.Context, userID primitive.ObjectID, prefs models.NotificationPreferences) error
	Update(ctx context.Context, userID primitive.ObjectID, prefs models.NotificationPreferences) error
	Insert(ctx context.Context, userID primitive.ObjectID, prefs models.NotificationPreferences) error
}

type NotificationStore interface {
	Insert(ctx context.Context, notif *models.Notification) error
	ExistsByDedupKey(ctx context.Context, userID primitive.ObjectID, dedupKey string) (bool, error)
	SoftDeleteBySource(ctx context.Context, userID primitive.ObjectID, sourceType string, sourceIDs []string) (int64, error)
}

type LendBorrowStore interface {
	ListByStatus(ctx context.Context, userID primitive.ObjectID, statuses []string) ([]models.LendBorrow, error)
	ListExcludingStatus(ctx context.Context, userID primitive.ObjectID, statuses []string) ([]models.LendBorrow, error)
	FindOverdueCandidates(ctx context.Context, userID primitive.ObjectID, today time.Time) ([]primitive.ObjectID, error)
	MarkOverdue(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

type PurchaseStore interface {
	ListPlanned(ctx context.Context, userID primitive.ObjectID) ([]models.Purchase, error)
	ListNotPlanned(ctx context.Context, userID primitive.ObjectID) ([]models.Purchase, error)
}
