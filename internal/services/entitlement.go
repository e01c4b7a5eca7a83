package services

import (
	"context"
	"fmt"
	"time"

	"mirror-backend/internal/policy"
)

// EntitlementLedger answers "is this action allowed for free right now?" and
// records usage once an action has actually happened. Daily look counters are
// persisted per device and keyed by calendar day; the per-session coach
// question counter lives on the session and is only compared here.
type EntitlementLedger struct {
	usage  UsageStore
	policy *policy.RemoteConfig
}

// NewEntitlementLedger creates a new entitlement ledger
func NewEntitlementLedger(usage UsageStore, cfg *policy.RemoteConfig) *EntitlementLedger {
	return &EntitlementLedger{usage: usage, policy: cfg}
}

// DayKey formats a calendar-day counter key
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// NormalizeDay validates a client-supplied device-local day key, falling back
// to the server's calendar day. Quota is per device-local day, so a client
// ahead of or behind server time keeps a consistent counter.
func NormalizeDay(day string) string {
	if _, err := time.Parse("2006-01-02", day); err != nil {
		return DayKey(time.Now())
	}
	return day
}

// CanGenerateLookToday reports whether the device may generate another look
// today. A configured limit of zero always denies. Pure read, no side effect.
func (l *EntitlementLedger) CanGenerateLookToday(ctx context.Context, deviceID, day string, premium bool) (bool, error) {
	max := l.policy.MaxLooksPerDay(premium)
	if max <= 0 {
		return false, nil
	}
	used, err := l.usage.LooksUsed(ctx, deviceID, day)
	if err != nil {
		return false, fmt.Errorf("failed to read look usage: %w", err)
	}
	return used < max, nil
}

// MarkLookUsed counts one look against today's quota. Callers invoke this
// only after the styled image was successfully produced, so a failed
// generation never consumes quota.
func (l *EntitlementLedger) MarkLookUsed(ctx context.Context, deviceID, day string) error {
	if err := l.usage.IncrementLooks(ctx, deviceID, day); err != nil {
		return fmt.Errorf("failed to mark look used: %w", err)
	}
	return nil
}

// CanAskCoachQuestion reports whether another free coach question is allowed.
// Premium bypasses the session quota entirely.
func (l *EntitlementLedger) CanAskCoachQuestion(premium bool, used int) bool {
	if premium {
		return true
	}
	return used < l.policy.Billing.FreeCoachQuestionsPerSession
}
