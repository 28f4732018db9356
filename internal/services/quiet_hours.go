package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/finwise/notification-engine/internal/models"
)

// IsQuietHours reports whether delivery is currently suppressed by the user's
// quiet-hours window. Pure and deterministic; a malformed time string simply
// disables suppression.
func IsQuietHours(prefs models.NotificationPreferences, now time.Time) bool {
	if !prefs.Communication.QuietHoursEnabled {
		return false
	}

	start, ok := parseMinutes(prefs.Communication.QuietHoursStart)
	if !ok {
		return false
	}
	end, ok := parseMinutes(prefs.Communication.QuietHoursEnd)
	if !ok {
		return false
	}

	current := now.Hour()*60 + now.Minute()

	if start <= end {
		// Same-day window, boundaries inclusive. start == end is a
		// one-minute window.
		return current >= start && current <= end
	}
	// Window crosses midnight.
	return current >= start || current <= end
}

// parseMinutes converts an "HH:MM" 24-hour string to minutes since midnight.
func parseMinutes(value string) (int, bool) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, false
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, false
	}
	return hours*60 + minutes, true
}
