package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nextwallet-vault/internal/domain"
)

// LedgerRepo stores the OTP ledger. PK: id (ULID). The user_id-id-index GSI
// orders a user's entries by id, which sorts by issue time.
// Entries are never deleted here and no TTL is enabled on the table.
type LedgerRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewLedgerRepo(client *dynamodb.Client, tableName string) *LedgerRepo {
	return &LedgerRepo{client: client, tableName: tableName}
}

func (r *LedgerRepo) Insert(ctx context.Context, e *domain.OTPEntry) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal otp entry: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("otp entry %s exists: %w", e.ID, domain.ErrConflict)
	}
	return err
}

// LatestPending returns the most recently issued entry for userID that is
// unverified and unexpired at now. expires_at is stored as epoch seconds;
// for whole-second expiries (domain.LedgerTime) comparing against the floor of
// now matches OTPEntry.Pending exactly.
func (r *LedgerRepo) LatestPending(ctx context.Context, userID string, now time.Time) (*domain.OTPEntry, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexLedgerByUser),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("#v = :f AND #e > :now"),
		ExpressionAttributeNames: map[string]string{
			"#v": fieldVerified,
			"#e": fieldExpiresAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
			":f":   &types.AttributeValueMemberBOOL{Value: false},
			":now": &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
		ScanIndexForward: aws.Bool(false),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		if len(page.Items) > 0 {
			return unmarshalEntry(page.Items[0])
		}
	}
	return nil, fmt.Errorf("no pending otp: %w", domain.ErrNotFound)
}

// Latest returns the most recently issued entry for userID in any state.
func (r *LedgerRepo) Latest(ctx context.Context, userID string) (*domain.OTPEntry, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexLedgerByUser),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("no otp entry: %w", domain.ErrNotFound)
	}
	return unmarshalEntry(out.Items[0])
}

// MarkVerified flips verified to true. It fails with ErrConflict when the entry
// is missing or was already verified, so a flip happens at most once.
func (r *LedgerRepo) MarkVerified(ctx context.Context, entryID string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldID, entryID),
		UpdateExpression:    aws.String("SET #v = :t"),
		ConditionExpression: aws.String("attribute_exists(id) AND #v = :f"),
		ExpressionAttributeNames: map[string]string{
			"#v": fieldVerified,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if isConditionFailed(err) {
		return fmt.Errorf("otp entry %s not pending: %w", entryID, domain.ErrConflict)
	}
	return err
}

func unmarshalEntry(item map[string]types.AttributeValue) (*domain.OTPEntry, error) {
	var e domain.OTPEntry
	if err := attributevalue.UnmarshalMap(item, &e); err != nil {
		return nil, fmt.Errorf("unmarshal otp entry: %w", err)
	}
	return &e, nil
}
