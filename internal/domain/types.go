package domain

import "time"

type SessionID string
type MessageID string

// DefaultSessionID is used when a request does not name a session.
const DefaultSessionID SessionID = "default"

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type Timestamp = time.Time
