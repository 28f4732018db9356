package models

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// NotificationPreferences is the singleton per-user preference document.
// Every field has a hard-coded default; a stored document is merged over the
// defaults before use so a partial or legacy document never yields a missing field.
type NotificationPreferences struct {
	Financial     FinancialPreferences     `bson:"financial" json:"financial"`
	System        SystemPreferences        `bson:"system" json:"system"`
	Activity      ActivityPreferences      `bson:"activity" json:"activity"`
	Communication CommunicationPreferences `bson:"communication" json:"communication"`
	Frequency     FrequencyPreferences     `bson:"frequency" json:"frequency"`
}

type FinancialPreferences struct {
	OverduePayments   bool `bson:"overdue_payments" json:"overdue_payments"`
	DueSoonReminders  bool `bson:"due_soon_reminders" json:"due_soon_reminders"`
	UpcomingDeadlines bool `bson:"upcoming_deadlines" json:"upcoming_deadlines"`
	LowBalanceAlerts  bool `bson:"low_balance_alerts" json:"low_balance_alerts"`
	BudgetExceeded    bool `bson:"budget_exceeded" json:"budget_exceeded"`
	LargeTransactions bool `bson:"large_transactions" json:"large_transactions"`
}

type SystemPreferences struct {
	NewFeatures    bool `bson:"new_features" json:"new_features"`
	SystemUpdates  bool `bson:"system_updates" json:"system_updates"`
	TipsGuidance   bool `bson:"tips_guidance" json:"tips_guidance"`
	SecurityAlerts bool `bson:"security_alerts" json:"security_alerts"`
}

type ActivityPreferences struct {
	TransactionConfirmations bool `bson:"transaction_confirmations" json:"transaction_confirmations"`
	AccountChanges           bool `bson:"account_changes" json:"account_changes"`
	CategoryUpdates          bool `bson:"category_updates" json:"category_updates"`
	BackupReminders          bool `bson:"backup_reminders" json:"backup_reminders"`
}

type CommunicationPreferences struct {
	InAppNotifications bool   `bson:"in_app_notifications" json:"in_app_notifications"`
	EmailNotifications bool   `bson:"email_notifications" json:"email_notifications"`
	PushNotifications  bool   `bson:"push_notifications" json:"push_notifications"`
	QuietHoursEnabled  bool   `bson:"quiet_hours_enabled" json:"quiet_hours_enabled"`
	QuietHoursStart    string `bson:"quiet_hours_start" json:"quiet_hours_start"`
	QuietHoursEnd      string `bson:"quiet_hours_end" json:"quiet_hours_end"`
}

// FrequencyPreferences flags are non-exclusive; the highest-priority enabled
// mode wins (real_time > daily_digest > weekly_summary).
type FrequencyPreferences struct {
	RealTime      bool `bson:"real_time" json:"real_time"`
	DailyDigest   bool `bson:"daily_digest" json:"daily_digest"`
	WeeklySummary bool `bson:"weekly_summary" json:"weekly_summary"`
}

// Delivery modes derived from FrequencyPreferences.
const (
	DeliveryRealTime      = "real_time"
	DeliveryDailyDigest   = "daily_digest"
	DeliveryWeeklySummary = "weekly_summary"
)

// DefaultPreferences returns the built-in preference document.
func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{
		Financial: FinancialPreferences{
			OverduePayments:   true,
			DueSoonReminders:  true,
			UpcomingDeadlines: true,
			LowBalanceAlerts:  true,
			BudgetExceeded:    true,
			LargeTransactions: true,
		},
		System: SystemPreferences{
			NewFeatures:    true,
			SystemUpdates:  true,
			TipsGuidance:   true,
			SecurityAlerts: true,
		},
		Activity: ActivityPreferences{
			TransactionConfirmations: true,
			AccountChanges:           true,
			CategoryUpdates:          true,
			BackupReminders:          true,
		},
		Communication: CommunicationPreferences{
			InAppNotifications: true,
			EmailNotifications: false,
			PushNotifications:  false,
			QuietHoursEnabled:  false,
			QuietHoursStart:    "22:00",
			QuietHoursEnd:      "08:00",
		},
		Frequency: FrequencyPreferences{
			RealTime:      true,
			DailyDigest:   false,
			WeeklySummary: false,
		},
	}
}

// MergePreferences decodes a stored preference document over the defaults.
// Fields absent from the stored document keep their default values, so the
// result is always fully populated.
func MergePreferences(raw bson.Raw) NotificationPreferences {
	prefs := DefaultPreferences()
	if len(raw) > 0 {
		_ = bson.Unmarshal(raw, &prefs)
	}
	return prefs
}

// DeliveryMode resolves the frequency flags to the effective delivery mode.
// With no flag enabled the document behaves as real-time.
func (p NotificationPreferences) DeliveryMode() string {
	switch {
	case p.Frequency.RealTime:
		return DeliveryRealTime
	case p.Frequency.DailyDigest:
		return DeliveryDailyDigest
	case p.Frequency.WeeklySummary:
		return DeliveryWeeklySummary
	default:
		return DeliveryRealTime
	}
}

// Enabled reports whether the flag at preferences[category][key] is true.
// Unrecognized categories and keys report false rather than an error.
func (p NotificationPreferences) Enabled(category, key string) bool {
	switch category {
	case "financial":
		switch key {
		case "overdue_payments":
			return p.Financial.OverduePayments
		case "due_soon_reminders":
			return p.Financial.DueSoonReminders
		case "upcoming_deadlines":
			return p.Financial.UpcomingDeadlines
		case "low_balance_alerts":
			return p.Financial.LowBalanceAlerts
		case "budget_exceeded":
			return p.Financial.BudgetExceeded
		case "large_transactions":
			return p.Financial.LargeTransactions
		}
	case "system":
		switch key {
		case "new_features":
			return p.System.NewFeatures
		case "system_updates":
			return p.System.SystemUpdates
		case "tips_guidance":
			return p.System.TipsGuidance
		case "security_alerts":
			return p.System.SecurityAlerts
		}
	case "activity":
		switch key {
		case "transaction_confirmations":
			return p.Activity.TransactionConfirmations
		case "account_changes":
			return p.Activity.AccountChanges
		case "category_updates":
			return p.Activity.CategoryUpdates
		case "backup_reminders":
			return p.Activity.BackupReminders
		}
	case "communication":
		switch key {
		case "in_app_notifications":
			return p.Communication.InAppNotifications
		case "email_notifications":
			return p.Communication.EmailNotifications
		case "push_notifications":
			return p.Communication.PushNotifications
		case "quiet_hours_enabled":
			return p.Communication.QuietHoursEnabled
		}
	case "frequency":
		switch key {
		case "real_time":
			return p.Frequency.RealTime
		case "daily_digest":
			return p.Frequency.DailyDigest
		case "weekly_summary":
			return p.Frequency.WeeklySummary
		}
	}
	return false
}

// SetField assigns a single field inside the named category. The field must
// exist in the document and the value must match its type.
func (p *NotificationPreferences) SetField(category, key string, value interface{}) error {
	setBool := func(dst *bool) error {
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("preference %s.%s expects a boolean", category, key)
		}
		*dst = b
		return nil
	}
	setString := func(dst *string) error {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("preference %s.%s expects a string", category, key)
		}
		*dst = s
		return nil
	}

	switch category {
	case "financial":
		switch key {
		case "overdue_payments":
			return setBool(&p.Financial.OverduePayments)
		case "due_soon_reminders":
			return setBool(&p.Financial.DueSoonReminders)
		case "upcoming_deadlines":
			return setBool(&p.Financial.UpcomingDeadlines)
		case "low_balance_alerts":
			return setBool(&p.Financial.LowBalanceAlerts)
		case "budget_exceeded":
			return setBool(&p.Financial.BudgetExceeded)
		case "large_transactions":
			return setBool(&p.Financial.LargeTransactions)
		}
	case "system":
		switch key {
		case "new_features":
			return setBool(&p.System.NewFeatures)
		case "system_updates":
			return setBool(&p.System.SystemUpdates)
		case "tips_guidance":
			return setBool(&p.System.TipsGuidance)
		case "security_alerts":
			return setBool(&p.System.SecurityAlerts)
		}
	case "activity":
		switch key {
		case "transaction_confirmations":
			return setBool(&p.Activity.TransactionConfirmations)
		case "account_changes":
			return setBool(&p.Activity.AccountChanges)
		case "category_updates":
			return setBool(&p.Activity.CategoryUpdates)
		case "backup_reminders":
			return setBool(&p.Activity.BackupReminders)
		}
	case "communication":
		switch key {
		case "in_app_notifications":
			return setBool(&p.Communication.InAppNotifications)
		case "email_notifications":
			return setBool(&p.Communication.EmailNotifications)
		case "push_notifications":
			return setBool(&p.Communication.PushNotifications)
		case "quiet_hours_enabled":
			return setBool(&p.Communication.QuietHoursEnabled)
		case "quiet_hours_start":
			return setString(&p.Communication.QuietHoursStart)
		case "quiet_hours_end":
			return setString(&p.Communication.QuietHoursEnd)
		}
	case "frequency":
		switch key {
		case "real_time":
			return setBool(&p.Frequency.RealTime)
		case "daily_digest":
			return setBool(&p.Frequency.DailyDigest)
		case "weekly_summary":
			return setBool(&p.Frequency.WeeklySummary)
		}
	default:
		return fmt.Errorf("unknown preference category %q", category)
	}
	return fmt.Errorf("unknown preference key %q in category %q", key, category)
}
