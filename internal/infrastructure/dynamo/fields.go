package dynamo

// DynamoDB attribute names used in expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldUserID     = "user_id"
	fieldEmail      = "email"
	fieldEnable     = "enable"
	fieldSessionID  = "session_id"
	fieldID         = "id"
	fieldCreatedAt  = "created_at"
	fieldUpdatedAt  = "updated_at"
	fieldExpiresAt  = "expires_at"
	fieldVerified   = "verified"
	fieldPin        = "pin"
	fieldTOTPSecret = "totp_secret"
	fieldWalletID   = "wallet_id"

	indexEmail        = "email-index"
	indexUserID       = "user_id-index"
	indexLedgerByUser = "user_id-id-index"
)
