package domain

import "time"

type Wallet struct {
	WalletID  string    `json:"id" dynamodbav:"wallet_id"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Name      string    `json:"name" dynamodbav:"name"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

type CreateWalletRequest struct {
	Token string `json:"token" validate:"required"`
	Name  string `json:"name" validate:"required,max=64"`
}
