package domain

import "time"

// User is the identity store's account record. Only the identity adapter reads
// PasswordHash and TOTPSecret.
type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Email        string    `json:"email" dynamodbav:"email"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	TOTPSecret   string    `json:"-" dynamodbav:"totp_secret,omitempty"`
	Enable       bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Identity is the read-only view of a user that this subsystem works with.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
