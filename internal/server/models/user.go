// Package models holds the persistence-facing entities shared by
// repositories and services.
package models

import "time"

// User is a registered account. Password holds a bcrypt hash, never the
// plaintext. License is the expiry of the user's access license.
type User struct {
	ID        int64
	Email     string
	Password  string
	LastLogin time.Time
	Name      string
	Level     int
	License   time.Time
}
