package services

import (
	"context"
	"sync"
	"time"

	"github.com/finwise/notification-engine/internal/models"
	"github.com/finwise/notification-engine/internal/repository"
	"github.com/finwise/notification-engine/internal/session"
	"github.com/finwise/notification-engine/pkg/toast"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory stand-ins for the Mongo repositories and the identity/UI
// collaborators.

type fakePreferenceStore struct {
	docs map[primitive.ObjectID]bson.Raw

	getErr     error
	upsertErrs []error // consumed one per Upsert call
	updateErr  error
	insertErr  error

	upsertCalls int
	updateCalls int
	insertCalls int
}

func newFakePreferenceStore() *fakePreferenceStore {
	return &fakePreferenceStore{docs: make(map[primitive.ObjectID]bson.Raw)}
}

func (s *fakePreferenceStore) put(userID primitive.ObjectID, prefs models.NotificationPreferences) {
	raw, _ := bson.Marshal(prefs)
	s.docs[userID] = raw
}

func (s *fakePreferenceStore) Get(ctx context.Context, userID primitive.ObjectID) (bson.Raw, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	raw, ok := s.docs[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return raw, nil
}

func (s *fakePreferenceStore) Upsert(ctx context.Context, userID primitive.ObjectID, prefs models.NotificationPreferences) error {
	s.upsertCalls++
	if len(s.upsertErrs) > 0 {
		err := s.upsertErrs[0]
		s.upsertErrs = s.upsertErrs[1:]
		if err != nil {
			return err
		}
	}
	s.put(userID, prefs)
	return nil
}

func (s *fakePreferenceStore) Update(ctx context.Context, userID primitive.ObjectID, prefs models.NotificationPreferences) error {
	s.updateCalls++
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.docs[userID]; !ok {
		return repository.ErrNotFound
	}
	s.put(userID, prefs)
	return nil
}

func (s *fakePreferenceStore) Insert(ctx context.Context, userID primitive.ObjectID, prefs models.NotificationPreferences) error {
	s.insertCalls++
	if s.insertErr != nil {
		return s.insertErr
	}
	s.put(userID, prefs)
	return nil
}

type fakeSessionProvider struct {
	session    *session.Session
	getErr     error
	refreshErr error

	refreshCalls int
}

func (p *fakeSessionProvider) GetSession(ctx context.Context) (*session.Session, error) {
	return p.session, p.getErr
}

func (p *fakeSessionProvider) RefreshSession(ctx context.Context) error {
	p.refreshCalls++
	return p.refreshErr
}

type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications []models.Notification
	insertErr     error
}

func (s *fakeNotificationStore) Insert(ctx context.Context, notif *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	notif.ID = primitive.NewObjectID()
	notif.CreatedAt = time.Now()
	notif.UpdatedAt = notif.CreatedAt
	s.notifications = append(s.notifications, *notif)
	return nil
}

func (s *fakeNotificationStore) ExistsByDedupKey(ctx context.Context, userID primitive.ObjectID, dedupKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Deleted && n.DedupKey == dedupKey {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeNotificationStore) SoftDeleteBySource(ctx context.Context, userID primitive.ObjectID, sourceType string, sourceIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]bool, len(sourceIDs))
	for _, id := range sourceIDs {
		ids[id] = true
	}

	var touched int64
	for i := range s.notifications {
		n := &s.notifications[i]
		if n.UserID == userID && !n.Deleted && n.SourceType == sourceType && ids[n.SourceID] {
			n.Deleted = true
			touched++
		}
	}
	return touched, nil
}

func (s *fakeNotificationStore) active(userID primitive.ObjectID) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Deleted {
			out = append(out, n)
		}
	}
	return out
}

type fakeLendBorrowStore struct {
	records []models.LendBorrow
}

func (s *fakeLendBorrowStore) ListByStatus(ctx context.Context, userID primitive.ObjectID, statuses []string) ([]models.LendBorrow, error) {
	var out []models.LendBorrow
	for _, r := range s.records {
		if r.UserID == userID && contains(statuses, r.Status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeLendBorrowStore) ListExcludingStatus(ctx context.Context, userID primitive.ObjectID, statuses []string) ([]models.LendBorrow, error) {
	var out []models.LendBorrow
	for _, r := range s.records {
		if r.UserID == userID && !contains(statuses, r.Status) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeLendBorrowStore) FindOverdueCandidates(ctx context.Context, userID primitive.ObjectID, today time.Time) ([]primitive.ObjectID, error) {
	var ids []primitive.ObjectID
	for _, r := range s.records {
		if r.UserID == userID && r.Status == models.LendBorrowActive && r.DueDate.Before(today) {
			ids = append(ids, r.ID)
		}
	}
	return ids, nil
}

func (s *fakeLendBorrowStore) MarkOverdue(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	var updated int64
	for i := range s.records {
		r := &s.records[i]
		for _, id := range ids {
			if r.ID == id && r.Status == models.LendBorrowActive {
				r.Status = models.LendBorrowOverdue
				updated++
			}
		}
	}
	return updated, nil
}

type fakePurchaseStore struct {
	purchases []models.Purchase
}

func (s *fakePurchaseStore) ListPlanned(ctx context.Context, userID primitive.ObjectID) ([]models.Purchase, error) {
	var out []models.Purchase
	for _, p := range s.purchases {
		if p.UserID == userID && p.Status == models.PurchasePlanned && p.PlannedDate != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakePurchaseStore) ListNotPlanned(ctx context.Context, userID primitive.ObjectID) ([]models.Purchase, error) {
	var out []models.Purchase
	for _, p := range s.purchases {
		if p.UserID == userID && p.Status != models.PurchasePlanned {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeToastSink struct {
	mu     sync.Mutex
	events []toast.Event
}

func (s *fakeToastSink) Publish(event toast.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *fakeToastSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
