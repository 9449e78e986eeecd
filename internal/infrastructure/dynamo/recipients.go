package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/propdev-core/internal/domain"
)

// RecipientRepo provides typed DynamoDB operations for the recipients table.
type RecipientRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRecipientRepo(client *dynamodb.Client, tableName string) *RecipientRepo {
	return &RecipientRepo{client: client, tableName: tableName}
}

func (r *RecipientRepo) Put(ctx context.Context, rec *domain.Recipient) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal recipient: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *RecipientRepo) Get(ctx context.Context, recipientID string) (*domain.Recipient, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("recipient_id", recipientID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("recipient %s: %w", recipientID, domain.ErrNotFound)
	}
	var rec domain.Recipient
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
