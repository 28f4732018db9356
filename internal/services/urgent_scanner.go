package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/finwise/notification-engine/internal/models"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/time/rate"
)

// scanInterval is the floor between two scans for the same user.
const scanInterval = time.Hour

// Urgency markers prefixed to notification titles per status.
const (
	prefixOverdue  = "🚨 URGENT: "
	prefixDueSoon  = "⚠️ DUE SOON: "
	prefixUpcoming = "📅 UPCOMING: "
)

// UrgentScanner periodically derives urgent items from lend/borrow records
// and planned purchases and emits deduplicated notifications for them.
// Rate-limiter state lives on the scanner instance, not in package globals,
// so independent instances (one per test, one per process) never interfere.
type UrgentScanner struct {
	loans         LendBorrowStore
	purchases     PurchaseStore
	notifications NotificationStore
	dispatcher    *Dispatcher

	mu       sync.Mutex
	limiters map[primitive.ObjectID]*rate.Limiter

	now func() time.Time
}

// NewUrgentScanner creates a new instance of UrgentScanner.
func NewUrgentScanner(loans LendBorrowStore, purchases PurchaseStore, notifications NotificationStore, dispatcher *Dispatcher) *UrgentScanner {
	return &UrgentScanner{
		loans:         loans,
		purchases:     purchases,
		notifications: notifications,
		dispatcher:    dispatcher,
		limiters:      make(map[primitive.ObjectID]*rate.Limiter),
		now:           time.Now,
	}
}

// Scan runs the urgent-item check for a user unless one already ran within
// the last hour. Intended to be called on every relevant foreground event.
func (s *UrgentScanner) Scan(ctx context.Context, userID primitive.ObjectID) {
	if !s.limiter(userID).Allow() {
		return
	}
	s.run(ctx, userID)
}

// ForceScan bypasses the rate limiter, for manual and testing triggers.
func (s *UrgentScanner) ForceScan(ctx context.Context, userID primitive.ObjectID) {
	s.run(ctx, userID)
}

func (s *UrgentScanner) limiter(userID primitive.ObjectID) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.limiters[userID]
	if !ok {
		l = rate.NewLimiter(rate.Every(scanInterval), 1)
		s.limiters[userID] = l
	}
	return l
}

func (s *UrgentScanner) run(ctx context.Context, userID primitive.ObjectID) {
	s.refreshOverdueStatus(ctx, userID)
	s.cleanupStaleNotifications(ctx, userID)

	items := s.urgentItems(ctx, userID)
	for _, item := range items {
		s.emit(ctx, userID, item)
	}
}

// refreshOverdueStatus transitions active records whose due date has passed
// to overdue. Idempotent: a second run finds nothing left to change.
func (s *UrgentScanner) refreshOverdueStatus(ctx context.Context, userID primitive.ObjectID) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	ids, err := s.loans.FindOverdueCandidates(ctx, userID, today)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to fetch overdue candidates")
		return
	}
	if len(ids) == 0 {
		return
	}

	updated, err := s.loans.MarkOverdue(ctx, ids)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to mark records overdue")
		return
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID.Hex(),
		"count":   updated,
	}).Info("Marked lend/borrow records overdue")
}

// cleanupStaleNotifications soft-deletes urgent notifications whose source
// record is settled, cancelled or purchased. Best-effort: failures are logged
// and the scan continues.
func (s *UrgentScanner) cleanupStaleNotifications(ctx context.Context, userID primitive.ObjectID) {
	inactive, err := s.loans.ListExcludingStatus(ctx, userID, []string{models.LendBorrowActive, models.LendBorrowOverdue})
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to fetch inactive lend/borrow records")
	} else if len(inactive) > 0 {
		ids := make([]string, 0, len(inactive))
		for _, record := range inactive {
			ids = append(ids, record.ID.Hex())
		}
		if _, err := s.notifications.SoftDeleteBySource(ctx, userID, models.SourceLendBorrow, ids); err != nil {
			logrus.WithError(err).Error("Failed to clear stale lend/borrow notifications")
		}
	}

	completed, err := s.purchases.ListNotPlanned(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to fetch completed purchases")
	} else if len(completed) > 0 {
		ids := make([]string, 0, len(completed))
		for _, purchase := range completed {
			ids = append(ids, purchase.ID.Hex())
		}
		if _, err := s.notifications.SoftDeleteBySource(ctx, userID, models.SourcePurchase, ids); err != nil {
			logrus.WithError(err).Error("Failed to clear stale purchase notifications")
		}
	}
}

// urgentItems derives the urgent-item list from outstanding lend/borrow
// records and planned purchases, classified by the day window and sorted by
// (status, days until due) so a truncated selection is reproducible.
func (s *UrgentScanner) urgentItems(ctx context.Context, userID primitive.ObjectID) []models.UrgentItem {
	var items []models.UrgentItem
	now := s.now()

	records, err := s.loans.ListByStatus(ctx, userID, []string{models.LendBorrowActive, models.LendBorrowOverdue})
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to fetch lend/borrow records for urgency scan")
	}
	for _, record := range records {
		daysUntil := models.DaysUntil(record.DueDate, now)
		status, ok := models.ClassifyUrgency(daysUntil)
		if !ok {
			continue
		}

		amount := formatAmount(record.Amount, record.Currency)
		var title, message string
		if record.Type == models.DirectionLend {
			title = fmt.Sprintf("%s owes you %s", record.PersonName, amount)
			message = fmt.Sprintf("You lent %s to %s", amount, record.PersonName)
		} else {
			title = fmt.Sprintf("You owe %s %s", record.PersonName, amount)
			message = fmt.Sprintf("You borrowed %s from %s", amount, record.PersonName)
		}

		items = append(items, models.UrgentItem{
			ID:         record.ID.Hex(),
			SourceType: models.SourceLendBorrow,
			Title:      title,
			Message:    message,
			DueDate:    record.DueDate,
			DaysUntil:  daysUntil,
			Amount:     record.Amount,
			Currency:   record.Currency,
			Status:     status,
			Priority:   models.PriorityForStatus(status),
		})
	}

	purchases, err := s.purchases.ListPlanned(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to fetch planned purchases for urgency scan")
	}
	for _, purchase := range purchases {
		if purchase.PlannedDate == nil {
			continue
		}
		daysUntil := models.DaysUntil(*purchase.PlannedDate, now)
		status, ok := models.ClassifyUrgency(daysUntil)
		if !ok {
			continue
		}

		items = append(items, models.UrgentItem{
			ID:         purchase.ID.Hex(),
			SourceType: models.SourcePurchase,
			Title:      fmt.Sprintf("Planned purchase: %s", purchase.Title),
			Message:    fmt.Sprintf("Planned to buy %s for %s", purchase.Title, formatAmount(purchase.Price, purchase.Currency)),
			DueDate:    *purchase.PlannedDate,
			DaysUntil:  daysUntil,
			Amount:     purchase.Price,
			Currency:   purchase.Currency,
			Status:     status,
			Priority:   models.PriorityForStatus(status),
		})
	}

	statusRank := map[string]int{
		models.CategoryOverdue:  0,
		models.CategoryDueSoon:  1,
		models.CategoryUpcoming: 2,
	}
	sort.SliceStable(items, func(i, j int) bool {
		if statusRank[items[i].Status] != statusRank[items[j].Status] {
			return statusRank[items[i].Status] < statusRank[items[j].Status]
		}
		return items[i].DaysUntil < items[j].DaysUntil
	})

	return items
}

// emit hands an urgent item to the dispatcher unless a non-deleted
// notification for the same condition already exists.
func (s *UrgentScanner) emit(ctx context.Context, userID primitive.ObjectID, item models.UrgentItem) {
	var severity, prefix string
	switch item.Status {
	case models.CategoryOverdue:
		severity = models.SeverityError
		prefix = prefixOverdue
	case models.CategoryDueSoon:
		severity = models.SeverityWarning
		prefix = prefixDueSoon
	default:
		severity = models.SeverityInfo
		prefix = prefixUpcoming
	}

	dedupKey := item.DedupKey()
	exists, err := s.notifications.ExistsByDedupKey(ctx, userID, dedupKey)
	if err != nil {
		logrus.WithError(err).WithField("dedup_key", dedupKey).Error("Failed to check for existing notification")
		return
	}
	if exists {
		return
	}

	s.dispatcher.Queue(ctx, Request{
		UserID:     userID,
		Title:      prefix + item.Title,
		Type:       severity,
		Body:       fmt.Sprintf("%s - %s", item.Message, timeDescription(item.DaysUntil)),
		Category:   item.Status,
		DedupKey:   dedupKey,
		SourceType: item.SourceType,
		SourceID:   item.ID,
	})
}

func timeDescription(daysUntil int) string {
	switch {
	case daysUntil < 0:
		overdueDays := -daysUntil
		if overdueDays == 1 {
			return "1 day overdue"
		}
		return fmt.Sprintf("%d days overdue", overdueDays)
	case daysUntil == 0:
		return "Due today"
	case daysUntil == 1:
		return "Due tomorrow"
	default:
		return fmt.Sprintf("Due in %d days", daysUntil)
	}
}

func formatAmount(amount float64, currency string) string {
	if currency == "" {
		return fmt.Sprintf("%.2f", amount)
	}
	return fmt.Sprintf("%.2f %s", amount, currency)
}
