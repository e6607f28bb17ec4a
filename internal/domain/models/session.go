package models

import "time"

// Session is the single process-wide identity record: who is acting,
// with what standing, and the opaque credential the backend issued.
// Only the session store mutates it.
type Session struct {
	User      User      `json:"user"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}
