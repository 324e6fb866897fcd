package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDynamo struct {
	input *dynamodb.PutItemInput
	err   error
}

func (f *fakeDynamo) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.input = params
	return &dynamodb.PutItemOutput{}, f.err
}

func TestDynamoLedgerRecord(t *testing.T) {
	fake := &fakeDynamo{}
	l := NewDynamoLedger(fake, "issuances")

	issued := Issuance{
		OrderID:   "42",
		Email:     "jane@example.com",
		Bucket:    "books",
		ObjectKey: "stamped/order-42.pdf",
		MasterKey: "master.pdf",
		Pages:     3,
		SealedAt:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, l.Record(context.Background(), issued))

	require.NotNil(t, fake.input)
	assert.Equal(t, "issuances", *fake.input.TableName)

	var got Issuance
	require.NoError(t, attributevalue.UnmarshalMap(fake.input.Item, &got))
	assert.Equal(t, issued, got)
	assert.Contains(t, fake.input.Item, "order_id")
}

func TestDynamoLedgerRecordError(t *testing.T) {
	l := NewDynamoLedger(&fakeDynamo{err: errors.New("throttled")}, "issuances")

	err := l.Record(context.Background(), Issuance{OrderID: "42"})
	assert.ErrorContains(t, err, "order 42")
}
