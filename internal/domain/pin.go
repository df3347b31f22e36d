package domain

import "time"

const (
	PinMinLength = 4
	PinMaxLength = 6
)

// PinRecord is the per-user step-up secret. Pin holds whatever the configured
// hasher produced, which is the raw PIN only in parity mode.
type PinRecord struct {
	ID        string    `json:"id" dynamodbav:"id"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Pin       string    `json:"-" dynamodbav:"pin"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// Action names a sensitive local action gated by step-up.
type Action string

const (
	ActionCreateWallet  Action = "create_wallet"
	ActionWipeLocalData Action = "wipe_local_data"
	ActionRotatePIN     Action = "rotate_pin"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCreateWallet, ActionWipeLocalData, ActionRotatePIN:
		return true
	}
	return false
}

// StepUpToken authorizes exactly one pending sensitive action. It lives only in
// process memory.
type StepUpToken struct {
	ID        string    `json:"token"`
	UserID    string    `json:"-"`
	Action    Action    `json:"action"`
	ExpiresAt time.Time `json:"expires_at"`
}

type CreatePinRequest struct {
	Pin     string `json:"pin"`
	Confirm string `json:"confirm"`
	Action  Action `json:"action" validate:"required,step_up_action"`
}

type VerifyPinRequest struct {
	Pin    string `json:"pin"`
	Action Action `json:"action" validate:"required,step_up_action"`
}

type BiometricRequest struct {
	Action Action `json:"action" validate:"required,step_up_action"`
}

type BiometricPreferenceRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

type RotatePinRequest struct {
	Token   string `json:"token" validate:"required"`
	Pin     string `json:"pin"`
	Confirm string `json:"confirm"`
}
