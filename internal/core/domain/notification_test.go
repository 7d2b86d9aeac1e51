package domain

import (
	"testing"
	"time"
)

func TestNotification_IsDue(t *testing.T) {
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	n := &Notification{Status: NotificationScheduled}
	if !n.IsDue(now) {
		t.Fatal("scheduled notification without scheduled_at is immediately due")
	}

	later := now.Add(time.Hour)
	n.ScheduledAt = &later
	if n.IsDue(now) {
		t.Fatal("notification scheduled in the future must not be due")
	}
	if !n.IsDue(later) {
		t.Fatal("notification is due once scheduled_at arrives")
	}

	// Non-scheduled notifications are never due, regardless of time.
	for _, st := range []NotificationStatus{NotificationSent, NotificationFailed, NotificationCanceled} {
		n := &Notification{Status: st}
		if n.IsDue(now) {
			t.Errorf("%s notification must never be due", st)
		}
	}
}

func TestNotification_CanRetry(t *testing.T) {
	n := &Notification{Status: NotificationFailed, RetryCount: 0}
	if !n.CanRetry(DefaultMaxRetries) {
		t.Fatal("fresh failure should be retryable")
	}

	n.RetryCount = 3
	if n.CanRetry(3) {
		t.Fatal("retry budget exhausted at retry_count == max_retries")
	}

	n = &Notification{Status: NotificationScheduled}
	if n.CanRetry(DefaultMaxRetries) {
		t.Fatal("only failed notifications are retryable")
	}
}

func TestNotification_IsTerminal(t *testing.T) {
	cases := []struct {
		status   NotificationStatus
		retries  int
		terminal bool
	}{
		{NotificationScheduled, 0, false},
		{NotificationSent, 0, true},
		{NotificationCanceled, 0, true},
		{NotificationFailed, 1, false},
		{NotificationFailed, 3, true},
	}
	for _, c := range cases {
		n := &Notification{Status: c.status, RetryCount: c.retries}
		if got := n.IsTerminal(3); got != c.terminal {
			t.Errorf("status=%s retries=%d: expected terminal=%v, got %v", c.status, c.retries, c.terminal, got)
		}
	}
}
