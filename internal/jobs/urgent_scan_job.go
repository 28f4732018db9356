package jobs

import (
	"context"

	"github.com/finwise/notification-engine/internal/repository"
	"github.com/finwise/notification-engine/internal/services"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UrgentScanJob walks every user with outstanding lend/borrow records or
// planned purchases and runs the urgent-item scan for each. The scanner's own
// per-user limiter keeps repeated runs cheap.
type UrgentScanJob struct {
	Scanner   *services.UrgentScanner
	Loans     *repository.LendBorrowRepository
	Purchases *repository.PurchaseRepository
}

// NewUrgentScanJob creates a new instance of UrgentScanJob.
func NewUrgentScanJob(scanner *services.UrgentScanner, loans *repository.LendBorrowRepository, purchases *repository.PurchaseRepository) *UrgentScanJob {
	return &UrgentScanJob{
		Scanner:   scanner,
		Loans:     loans,
		Purchases: purchases,
	}
}

// Run scans all users with items that could become urgent.
func (j *UrgentScanJob) Run(ctx context.Context) error {
	seen := make(map[primitive.ObjectID]bool)

	loanUsers, err := j.Loans.UsersWithOutstanding(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list users with outstanding lend/borrow records")
	}
	for _, id := range loanUsers {
		seen[id] = true
	}

	purchaseUsers, err := j.Purchases.UsersWithPlanned(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list users with planned purchases")
	}
	for _, id := range purchaseUsers {
		seen[id] = true
	}

	for id := range seen {
		j.Scanner.Scan(ctx, id)
	}

	logrus.WithField("users", len(seen)).Info("Urgent scan sweep completed")
	return nil
}
