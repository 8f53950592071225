package domain

import "time"

// ImpersonationSession is the snapshot captured when an administrator starts
// impersonating another principal. Downstream role checks use this snapshot,
// not a live identity-provider lookup, for the duration of the session.
type ImpersonationSession struct {
	TargetID    string
	TargetEmail string
	TargetName  string
	TargetRole  Role
	StartedBy   string // external id of the real administrator
	StartedAt   time.Time
}
