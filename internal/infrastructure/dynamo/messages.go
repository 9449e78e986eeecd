package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/propdev-core/internal/domain"
)

// MessageRepo provides typed DynamoDB operations for the notification
// messages table. Messages are append-only audit records; Put overwrites the
// whole item because the service owns the message lifecycle.
type MessageRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMessageRepo(client *dynamodb.Client, tableName string) *MessageRepo {
	return &MessageRepo{client: client, tableName: tableName}
}

func (r *MessageRepo) Put(ctx context.Context, m *domain.NotificationMessage) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *MessageRepo) Get(ctx context.Context, messageID string) (*domain.NotificationMessage, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("message_id", messageID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("message %s: %w", messageID, domain.ErrNotFound)
	}
	var m domain.NotificationMessage
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListByTenantRange queries the tenant_id-created_at GSI for messages created
// inside [from, to]. Feeds the analytics read model.
func (r *MessageRepo) ListByTenantRange(ctx context.Context, tenantID string, from, to time.Time) ([]domain.NotificationMessage, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("tenant_id-created_at-index"),
		KeyConditionExpression: aws.String("tenant_id = :tid AND created_at BETWEEN :from AND :to"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tid":  &types.AttributeValueMemberS{Value: tenantID},
			":from": &types.AttributeValueMemberS{Value: from.UTC().Format(time.RFC3339)},
			":to":   &types.AttributeValueMemberS{Value: to.UTC().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return nil, err
	}
	var messages []domain.NotificationMessage
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}
