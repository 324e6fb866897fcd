package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Issuance records one stamped copy handed out for an order
type Issuance struct {
	OrderID   string    `dynamodbav:"order_id" json:"order_id"`
	Email     string    `dynamodbav:"email" json:"email"`
	Bucket    string    `dynamodbav:"bucket" json:"bucket"`
	ObjectKey string    `dynamodbav:"object_key" json:"object_key"`
	MasterKey string    `dynamodbav:"master_key" json:"master_key"`
	Pages     int       `dynamodbav:"pages" json:"pages"`
	SealedAt  time.Time `dynamodbav:"sealed_at" json:"sealed_at"`
}

// PutItemAPI is the subset of the DynamoDB client used by DynamoLedger.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoLedger writes issuances to a DynamoDB table keyed by order_id.
// A re-issued order overwrites the previous record.
type DynamoLedger struct {
	client PutItemAPI
	table  string
}

func NewDynamoLedger(client PutItemAPI, table string) *DynamoLedger {
	return &DynamoLedger{client: client, table: table}
}

func (l *DynamoLedger) Record(ctx context.Context, issuance Issuance) error {
	item, err := attributevalue.MarshalMap(issuance)
	if err != nil {
		return fmt.Errorf("failed to marshal issuance: %w", err)
	}

	_, err = l.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(l.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to record issuance for order %s: %w", issuance.OrderID, err)
	}
	return nil
}
