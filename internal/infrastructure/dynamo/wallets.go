package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/nextwallet-vault/internal/domain"
)

// WalletRepo is the minimal write path the step-up-gated wallet creation needs.
type WalletRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewWalletRepo(client *dynamodb.Client, tableName string) *WalletRepo {
	return &WalletRepo{client: client, tableName: tableName}
}

func (r *WalletRepo) Put(ctx context.Context, w *domain.Wallet) error {
	item, err := attributevalue.MarshalMap(w)
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(wallet_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("wallet %s exists: %w", w.WalletID, domain.ErrConflict)
	}
	return err
}
