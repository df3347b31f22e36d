package domain

import "time"

// SessionRecord is the identity store's row backing a session reference.
type SessionRecord struct {
	SessionID string    `json:"id" dynamodbav:"session_id"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Enable    bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Session is a password-verified session as seen by the client: the opaque
// reference plus the identity it belongs to. It says nothing about OTP state.
type Session struct {
	// ID is the backing row's session id, carried inside Reference.
	ID        string
	Reference string
	Identity  Identity
}
