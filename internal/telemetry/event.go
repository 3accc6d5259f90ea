// Package telemetry defines the auth event stream: logins, signups, and
// password changes emitted as structured records for the collector.
package telemetry

import "time"

// Event types emitted by the auth surface.
const (
	EventLoginSucceeded  = "login_succeeded"
	EventLoginFailed     = "login_failed"
	EventUserSignedUp    = "user_signed_up"
	EventPasswordChanged = "password_changed"
	EventUserDeleted     = "user_deleted"
)

// Event is a single auth event. UserID is zero when the subject is unknown
// (for example a failed login for a nonexistent account).
type Event struct {
	Type      string
	UserID    int64
	ClientIP  string
	Detail    string
	CreatedAt time.Time
}
