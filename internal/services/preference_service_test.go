package services

import (
	"context"
	"errors"
	"testing"

	"github.com/finwise/notification-engine/internal/models"
	"github.com/finwise/notification-engine/internal/repository"
	"github.com/finwise/notification-engine/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newPrefServiceWithSession(store *fakePreferenceStore, userID primitive.ObjectID) (*PreferenceService, *fakeSessionProvider) {
	sessions := &fakeSessionProvider{session: &session.Session{UserID: userID}}
	return NewPreferenceService(store, sessions), sessions
}

func TestGetPreferencesCreatesDefaultsOnFirstRead(t *testing.T) {
	store := newFakePreferenceStore()
	userID := primitive.NewObjectID()
	svc, _ := newPrefServiceWithSession(store, userID)

	prefs := svc.GetPreferences(context.Background(), userID)

	assert.Equal(t, models.DefaultPreferences(), prefs)
	assert.Equal(t, 1, store.upsertCalls, "missing document is created on first read")
	_, stored := store.docs[userID]
	assert.True(t, stored)
}

func TestGetPreferencesFailsOpenOnReadError(t *testing.T) {
	store := newFakePreferenceStore()
	store.getErr = errors.New("connection reset")
	userID := primitive.NewObjectID()
	svc, _ := newPrefServiceWithSession(store, userID)

	prefs := svc.GetPreferences(context.Background(), userID)

	assert.Equal(t, models.DefaultPreferences(), prefs)
	assert.Zero(t, store.upsertCalls, "read failures must not trigger writes")
}

func TestGetPreferencesMergesStoredDocument(t *testing.T) {
	store := newFakePreferenceStore()
	userID := primitive.NewObjectID()
	svc, _ := newPrefServiceWithSession(store, userID)

	raw, err := bson.Marshal(bson.M{
		"financial": bson.M{"overdue_payments": false},
	})
	require.NoError(t, err)
	store.docs[userID] = raw

	prefs := svc.GetPreferences(context.Background(), userID)

	assert.False(t, prefs.Financial.OverduePayments)
	assert.True(t, prefs.Financial.DueSoonReminders, "unset fields keep defaults")
	assert.True(t, prefs.Communication.InAppNotifications)
}

func TestSavePreferencesRequiresMatchingSession(t *testing.T) {
	store := newFakePreferenceStore()
	userID := primitive.NewObjectID()

	svc := NewPreferenceService(store, &fakeSessionProvider{session: nil})
	assert.False(t, svc.SavePreferences(context.Background(), userID, models.DefaultPreferences()))

	other := &fakeSessionProvider{session: &session.Session{UserID: primitive.NewObjectID()}}
	svc = NewPreferenceService(store, other)
	assert.False(t, svc.SavePreferences(context.Background(), userID, models.DefaultPreferences()))

	assert.Zero(t, store.upsertCalls, "no write without a matching session")
}

func TestSavePreferencesRetriesAfterPermissionFailure(t *testing.T) {
	store := newFakePreferenceStore()
	store.upsertErrs = []error{repository.ErrPermissionDenied}
	userID := primitive.NewObjectID()
	svc, sessions := newPrefServiceWithSession(store, userID)

	ok := svc.SavePreferences(context.Background(), userID, models.DefaultPreferences())

	assert.True(t, ok)
	assert.Equal(t, 1, sessions.refreshCalls, "exactly one session refresh")
	assert.Equal(t, 2, store.upsertCalls, "exactly one retry")
}

func TestSavePreferencesPermissionRetryFails(t *testing.T) {
	store := newFakePreferenceStore()
	store.upsertErrs = []error{repository.ErrPermissionDenied, repository.ErrPermissionDenied}
	userID := primitive.NewObjectID()
	svc, _ := newPrefServiceWithSession(store, userID)

	assert.False(t, svc.SavePreferences(context.Background(), userID, models.DefaultPreferences()))
}

func TestSavePreferencesConflictFallsBackToUpdate(t *testing.T) {
	store := newFakePreferenceStore()
	userID := primitive.NewObjectID()
	store.put(userID, models.DefaultPreferences())
	store.upsertErrs = []error{repository.ErrConflict}
	svc, _ := newPrefServiceWithSession(store, userID)

	prefs := models.DefaultPreferences()
	prefs.Financial.LowBalanceAlerts = false

	ok := svc.SavePreferences(context.Background(), userID, prefs)

	assert.True(t, ok)
	assert.Equal(t, 1, store.updateCalls)
	assert.Zero(t, store.insertCalls, "no duplicate insert after a successful update")

	merged := models.MergePreferences(store.docs[userID])
	assert.False(t, merged.Financial.LowBalanceAlerts, "exactly one row, carrying the new value")
}

func TestSavePreferencesConflictFallsBackToInsert(t *testing.T) {
	store := newFakePreferenceStore()
	userID := primitive.NewObjectID()
	store.upsertErrs = []error{repository.ErrConflict}
	svc, _ := newPrefServiceWithSession(store, userID)

	ok := svc.SavePreferences(context.Background(), userID, models.DefaultPreferences())

	assert.True(t, ok)
	assert.Equal(t, 1, store.updateCalls)
	assert.Equal(t, 1, store.insertCalls, "update reported no row, insert fallback ran")
}

func TestSavePreferencesAllFallbacksFail(t *testing.T) {
	store := newFakePreferenceStore()
	userID := primitive.NewObjectID()
	store.upsertErrs = []error{repository.ErrConflict}
	store.updateErr = errors.New("write timeout")
	svc, _ := newPrefServiceWithSession(store, userID)

	assert.False(t, svc.SavePreferences(context.Background(), userID, models.DefaultPreferences()))
}

func TestUpdatePreferenceMergesSingleField(t *testing.T) {
	store := newFakePreferenceStore()
	userID := primitive.NewObjectID()
	store.put(userID, models.DefaultPreferences())
	svc, _ := newPrefServiceWithSession(store, userID)

	ok := svc.UpdatePreference(context.Background(), userID, "communication", "quiet_hours_start", "21:00")
	require.True(t, ok)

	merged := models.MergePreferences(store.docs[userID])
	assert.Equal(t, "21:00", merged.Communication.QuietHoursStart)
	assert.True(t, merged.Financial.OverduePayments, "other fields untouched")
}

func TestUpdatePreferenceRejectsUnknownField(t *testing.T) {
	store := newFakePreferenceStore()
	userID := primitive.NewObjectID()
	store.put(userID, models.DefaultPreferences())
	svc, _ := newPrefServiceWithSession(store, userID)

	assert.False(t, svc.UpdatePreference(context.Background(), userID, "financial", "no_such_flag", true))
	assert.False(t, svc.UpdatePreference(context.Background(), userID, "nope", "overdue_payments", true))
}

func TestShouldSendUnknownCategoryOrKey(t *testing.T) {
	svc := NewPreferenceService(newFakePreferenceStore(), &fakeSessionProvider{})
	prefs := models.DefaultPreferences()

	assert.True(t, svc.ShouldSend(prefs, "financial", "overdue_payments"))
	assert.False(t, svc.ShouldSend(prefs, "financial", "unknown_key"))
	assert.False(t, svc.ShouldSend(prefs, "unknown_category", "overdue_payments"))
}

func TestMapCategory(t *testing.T) {
	category, key, ok := MapCategory("overdue")
	require.True(t, ok)
	assert.Equal(t, "financial", category)
	assert.Equal(t, "overdue_payments", key)

	_, _, ok = MapCategory("not-a-category")
	assert.False(t, ok)
}
