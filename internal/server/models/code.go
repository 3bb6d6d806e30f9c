package models

import "time"

// SessionCode is a short-lived 6-digit credential binding an anonymous VR
// client to a (user, scene) pair. The code value is the primary key.
type SessionCode struct {
	Code    string
	Used    bool
	Created time.Time
	UserID  int64
	Scene   int
}
