package services

import (
	"context"
	"sync"
	"time"

	"github.com/finwise/notification-engine/internal/models"
	"github.com/finwise/notification-engine/pkg/toast"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// defaultMaxQueue bounds the in-memory queue; the oldest entry is dropped on
// overflow.
const defaultMaxQueue = 256

// Request is a notification handed to the dispatcher. Category is optional:
// uncategorized requests skip the preference check entirely (system-initiated,
// non-opt-out messages).
type Request struct {
	UserID     primitive.ObjectID
	Title      string
	Type       string // severity: info, warning, error
	Body       string
	Category   string
	DedupKey   string
	SourceType string
	SourceID   string
}

type queuedRequest struct {
	Request
	ID       string
	QueuedAt time.Time
}

// Dispatcher accepts notification requests, consults the user's preferences
// and either delivers them immediately (real-time mode) or leaves them queued
// for an external digest batcher. Delivery is at-most-once: a failed persist
// drops the item, because a duplicate financial alert is worse than a missed
// one.
type Dispatcher struct {
	prefs         *PreferenceService
	notifications NotificationStore
	toasts        toast.Sink

	mu       sync.Mutex
	queue    []queuedRequest
	maxQueue int

	now func() time.Time
}

// NewDispatcher creates a new instance of Dispatcher.
func NewDispatcher(prefs *PreferenceService, notifications NotificationStore, toasts toast.Sink) *Dispatcher {
	return &Dispatcher{
		prefs:         prefs,
		notifications: notifications,
		toasts:        toasts,
		maxQueue:      defaultMaxQueue,
		now:           time.Now,
	}
}

// Queue appends a request and immediately triggers processing. Fire-and-forget
// from the caller's perspective: all failures are logged, never returned.
func (d *Dispatcher) Queue(ctx context.Context, req Request) {
	item := queuedRequest{
		Request:  req,
		ID:       uuid.NewString(),
		QueuedAt: d.now(),
	}

	d.mu.Lock()
	if len(d.queue) >= d.maxQueue {
		dropped := d.queue[0]
		d.queue = d.queue[1:]
		logrus.WithField("title", dropped.Title).Warn("Notification queue full, dropping oldest item")
	}
	d.queue = append(d.queue, item)
	d.mu.Unlock()

	d.process(ctx)
}

// QueueFinancial queues a notification with a financial category label,
// defaulting to overdue when the caller does not pick one.
func (d *Dispatcher) QueueFinancial(ctx context.Context, userID primitive.ObjectID, title, severity, body, category string) {
	if category == "" {
		category = models.CategoryOverdue
	}
	d.Queue(ctx, Request{UserID: userID, Title: title, Type: severity, Body: body, Category: category})
}

// QueueSystem queues a system notification, defaulting to the new_feature
// category.
func (d *Dispatcher) QueueSystem(ctx context.Context, userID primitive.ObjectID, title, severity, body string) {
	d.Queue(ctx, Request{UserID: userID, Title: title, Type: severity, Body: body, Category: "new_feature"})
}

// QueueActivity queues an activity notification, defaulting to the
// account_change category.
func (d *Dispatcher) QueueActivity(ctx context.Context, userID primitive.ObjectID, title, severity, body string) {
	d.Queue(ctx, Request{UserID: userID, Title: title, Type: severity, Body: body, Category: "account_change"})
}

// Pending reports the number of queued, undelivered requests.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Drain hands the queued items to an external digest batcher and clears the
// queue. The batching algorithm itself lives outside this engine.
func (d *Dispatcher) Drain(ctx context.Context) []Request {
	d.mu.Lock()
	pending := d.queue
	d.queue = nil
	d.mu.Unlock()

	requests := make([]Request, 0, len(pending))
	for _, item := range pending {
		requests = append(requests, item.Request)
	}
	return requests
}

// process picks the delivery mode from the first queued item's user. Real-time
// drains the whole queue; digest modes leave it for the external batcher.
func (d *Dispatcher) process(ctx context.Context) {
	d.mu.Lock()
	if len(d.queue) == 0 {
		d.mu.Unlock()
		return
	}
	first := d.queue[0]
	d.mu.Unlock()

	prefs := d.prefs.GetPreferences(ctx, first.UserID)
	mode := prefs.DeliveryMode()
	if mode != models.DeliveryRealTime {
		logrus.WithFields(logrus.Fields{
			"user_id": first.UserID.Hex(),
			"mode":    mode,
		}).Debug("Deferring queued notifications for batched delivery")
		return
	}

	d.mu.Lock()
	batch := d.queue
	d.queue = nil
	d.mu.Unlock()

	for _, item := range batch {
		d.deliver(ctx, item)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, item queuedRequest) {
	prefs := d.prefs.GetPreferences(ctx, item.UserID)

	if item.Category != "" {
		if prefCategory, prefKey, ok := MapCategory(item.Category); ok {
			if !d.prefs.ShouldSend(prefs, prefCategory, prefKey) {
				logrus.WithFields(logrus.Fields{
					"user_id":  item.UserID.Hex(),
					"category": item.Category,
				}).Debug("Notification blocked by user preferences")
				return
			}
		}
	}

	notif := &models.Notification{
		UserID:     item.UserID,
		Title:      item.Title,
		Body:       item.Body,
		Type:       item.Type,
		Category:   item.Category,
		DedupKey:   item.DedupKey,
		SourceType: item.SourceType,
		SourceID:   item.SourceID,
	}
	if err := d.notifications.Insert(ctx, notif); err != nil {
		// At-most-once: drop, never retry.
		logrus.WithError(err).WithField("title", item.Title).Error("Failed to persist notification, dropping")
		return
	}

	if !IsQuietHours(prefs, d.now()) {
		d.toasts.Publish(toast.Event{
			Title:    item.Title,
			Body:     item.Body,
			Severity: item.Type,
		})
	}
}
