package services

import (
	"context"
	"errors"

	"github.com/finwise/notification-engine/internal/models"
	"github.com/finwise/notification-engine/internal/repository"
	"github.com/finwise/notification-engine/internal/session"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// categoryMapping resolves a notification category label to the preference
// flag that controls it.
var categoryMapping = map[string]struct{ Category, Key string }{
	// Financial notifications
	"overdue":           {"financial", "overdue_payments"},
	"due_soon":          {"financial", "due_soon_reminders"},
	"upcoming":          {"financial", "upcoming_deadlines"},
	"low_balance":       {"financial", "low_balance_alerts"},
	"budget_exceeded":   {"financial", "budget_exceeded"},
	"large_transaction": {"financial", "large_transactions"},

	// System notifications
	"new_feature":    {"system", "new_features"},
	"system_update":  {"system", "system_updates"},
	"tips":           {"system", "tips_guidance"},
	"security_alert": {"system", "security_alerts"},

	// Activity notifications
	"transaction_confirmation": {"activity", "transaction_confirmations"},
	"account_change":           {"activity", "account_changes"},
	"category_update":          {"activity", "category_updates"},
	"backup_reminder":          {"activity", "backup_reminders"},
}

// MapCategory resolves a notification category to its preference flag.
func MapCategory(category string) (prefCategory, prefKey string, ok bool) {
	m, ok := categoryMapping[category]
	return m.Category, m.Key, ok
}

// PreferenceService reconciles stored preference documents with the built-in
// defaults and persists edits. No method panics or propagates storage errors:
// reads fail open to defaults and writes resolve to a boolean.
type PreferenceService struct {
	store    PreferenceStore
	sessions session.Provider
}

// NewPreferenceService creates a new instance of PreferenceService.
func NewPreferenceService(store PreferenceStore, sessions session.Provider) *PreferenceService {
	return &PreferenceService{
		store:    store,
		sessions: sessions,
	}
}

// GetPreferences returns the user's preferences merged over the defaults.
// A missing document is created on first read; any read failure logs and
// falls open to the defaults without blocking the caller.
func (s *PreferenceService) GetPreferences(ctx context.Context, userID primitive.ObjectID) models.NotificationPreferences {
	raw, err := s.store.Get(ctx, userID)
	if err != nil {
		defaults := models.DefaultPreferences()
		switch {
		case errors.Is(err, repository.ErrNotFound):
			// First read for this user, persist the defaults.
			if err := s.store.Upsert(ctx, userID, defaults); err != nil {
				logrus.WithError(err).WithField("user_id", userID.Hex()).Warn("Failed to persist default preferences")
			}
		case errors.Is(err, repository.ErrMissingCollection):
			logrus.WithField("user_id", userID.Hex()).Warn("Preference collection missing, using defaults")
		default:
			logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to read preferences, using defaults")
		}
		return defaults
	}

	return models.MergePreferences(raw)
}

// SavePreferences persists the full preference document. It requires an
// authenticated session matching userID and reports success as a boolean.
// A permission failure is retried once after a session refresh; a conflict
// falls back to update-by-key and then to insert.
func (s *PreferenceService) SavePreferences(ctx context.Context, userID primitive.ObjectID, prefs models.NotificationPreferences) bool {
	sess, err := s.sessions.GetSession(ctx)
	if err != nil {
		logrus.WithError(err).Warn("Failed to resolve session, refusing preference save")
		return false
	}
	if sess == nil {
		logrus.WithField("user_id", userID.Hex()).Warn("No active session, refusing preference save")
		return false
	}
	if sess.UserID != userID {
		logrus.WithFields(logrus.Fields{
			"user_id":    userID.Hex(),
			"session_id": sess.UserID.Hex(),
		}).Warn("Session user mismatch, refusing preference save")
		return false
	}

	err = s.store.Upsert(ctx, userID, prefs)
	if err == nil {
		return true
	}

	switch {
	case errors.Is(err, repository.ErrPermissionDenied):
		if err := s.sessions.RefreshSession(ctx); err != nil {
			logrus.WithError(err).Error("Session refresh failed, preference save abandoned")
			return false
		}
		if err := s.store.Upsert(ctx, userID, prefs); err != nil {
			logrus.WithError(err).Error("Preference upsert retry failed after session refresh")
			return false
		}
		return true

	case errors.Is(err, repository.ErrConflict):
		updateErr := s.store.Update(ctx, userID, prefs)
		if updateErr == nil {
			return true
		}
		if errors.Is(updateErr, repository.ErrNotFound) {
			if insertErr := s.store.Insert(ctx, userID, prefs); insertErr != nil {
				logrus.WithError(insertErr).Error("Preference insert fallback failed")
				return false
			}
			return true
		}
		logrus.WithError(updateErr).Error("Preference update fallback failed")
		return false

	default:
		logrus.WithError(err).WithField("user_id", userID.Hex()).Error("Failed to save preferences")
		return false
	}
}

// UpdatePreference merges a single field into the named category and saves
// the whole document. Concurrent edits to other fields are last-write-wins at
// the document level.
func (s *PreferenceService) UpdatePreference(ctx context.Context, userID primitive.ObjectID, category, key string, value interface{}) bool {
	prefs := s.GetPreferences(ctx, userID)
	if err := prefs.SetField(category, key, value); err != nil {
		logrus.WithError(err).Warn("Rejected preference update")
		return false
	}
	return s.SavePreferences(ctx, userID, prefs)
}

// ShouldSend reports whether the flag at preferences[category][key] allows
// delivery. Unrecognized categories or keys mean "do not send".
func (s *PreferenceService) ShouldSend(prefs models.NotificationPreferences, category, key string) bool {
	return prefs.Enabled(category, key)
}
