package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nextwallet-vault/internal/domain"
)

// PinRepo stores one PIN record per user. PK: user_id.
type PinRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPinRepo(client *dynamodb.Client, tableName string) *PinRepo {
	return &PinRepo{client: client, tableName: tableName}
}

func (r *PinRepo) Get(ctx context.Context, userID string) (*domain.PinRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldUserID, userID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("pin not found: %w", domain.ErrNotFound)
	}
	var p domain.PinRecord
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert overwrites the stored PIN, keeping the original id and created_at.
func (r *PinRepo) Upsert(ctx context.Context, rec *domain.PinRecord) error {
	now, err := attributevalue.Marshal(rec.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey(fieldUserID, rec.UserID),
		UpdateExpression: aws.String("SET #p = :p, #u = :now, #c = if_not_exists(#c, :now), #i = if_not_exists(#i, :id)"),
		ExpressionAttributeNames: map[string]string{
			"#p": fieldPin,
			"#u": fieldUpdatedAt,
			"#c": fieldCreatedAt,
			"#i": fieldID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":p":   &types.AttributeValueMemberS{Value: rec.Pin},
			":now": now,
			":id":  &types.AttributeValueMemberS{Value: rec.ID},
		},
	})
	return err
}
