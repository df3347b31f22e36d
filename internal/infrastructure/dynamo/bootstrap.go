package dynamo

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/nextwallet-vault/internal/config"
)

// Bootstrap creates the identity, ledger, PIN and wallet tables if they don't
// already exist. Safe to call on every startup.
// ledgerTables is false when the OTP ledger and PIN tables live in another store.
func Bootstrap(ctx context.Context, client *dynamodb.Client, tables config.DynamoTables, ledgerTables bool) {
	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Users),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr(fieldUserID), attr(fieldEmail),
		},
		KeySchema:              hashKey(fieldUserID),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{gsi(indexEmail, fieldEmail, "")},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Sessions),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr(fieldSessionID), attr(fieldUserID),
		},
		KeySchema:              hashKey(fieldSessionID),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{gsi(indexUserID, fieldUserID, "")},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.Wallets),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr(fieldWalletID), attr(fieldUserID),
		},
		KeySchema:              hashKey(fieldWalletID),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{gsi(indexUserID, fieldUserID, "")},
	})

	if !ledgerTables {
		return
	}

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(tables.OTPLedger),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			attr(fieldID), attr(fieldUserID),
		},
		KeySchema:              hashKey(fieldID),
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{gsi(indexLedgerByUser, fieldUserID, fieldID)},
	})

	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:            aws.String(tables.Pins),
		BillingMode:          types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{attr(fieldUserID)},
		KeySchema:            hashKey(fieldUserID),
	})
}

func attr(name string) types.AttributeDefinition {
	return types.AttributeDefinition{AttributeName: aws.String(name), AttributeType: types.ScalarAttributeTypeS}
}

func hashKey(name string) []types.KeySchemaElement {
	return []types.KeySchemaElement{{AttributeName: aws.String(name), KeyType: types.KeyTypeHash}}
}

// gsi builds a GSI descriptor. If sortKey is empty, only a hash key is added.
func gsi(indexName, hashKeyName, sortKey string) types.GlobalSecondaryIndex {
	ks := hashKey(hashKeyName)
	if sortKey != "" {
		ks = append(ks, types.KeySchemaElement{
			AttributeName: aws.String(sortKey), KeyType: types.KeyTypeRange,
		})
	}
	return types.GlobalSecondaryIndex{
		IndexName:  aws.String(indexName),
		KeySchema:  ks,
		Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
	}
}

func createTable(ctx context.Context, client *dynamodb.Client, input *dynamodb.CreateTableInput) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			slog.Warn("could not create table", "table", *input.TableName, "err", err)
		}
		return
	}
	slog.Info("created table", "table", *input.TableName)
}
