package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/propdev-core/internal/domain"
)

// MemberRepo provides typed DynamoDB operations for the tenant_members table.
// The table key is (tenant_id, user_id); the user_id GSI answers "which tenant
// does this user belong to" during context resolution.
type MemberRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewMemberRepo(client *dynamodb.Client, tableName string) *MemberRepo {
	return &MemberRepo{client: client, tableName: tableName}
}

func (r *MemberRepo) Put(ctx context.Context, m *domain.TenantMember) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal member: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *MemberRepo) Get(ctx context.Context, tenantID, userID string) (*domain.TenantMember, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("tenant_id", tenantID, "user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("member %s/%s: %w", tenantID, userID, domain.ErrNotFound)
	}
	var m domain.TenantMember
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByUser returns the first tenant membership for a user via the user_id GSI.
func (r *MemberRepo) GetByUser(ctx context.Context, userID string) (*domain.TenantMember, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("membership for user %s: %w", userID, domain.ErrNotFound)
	}
	var m domain.TenantMember
	if err := attributevalue.UnmarshalMap(out.Items[0], &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByEmail looks a member up by email within one tenant via the email GSI.
func (r *MemberRepo) GetByEmail(ctx context.Context, tenantID, email string) (*domain.TenantMember, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("email-index"),
		KeyConditionExpression: aws.String("email = :em"),
		FilterExpression:       aws.String("tenant_id = :tid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":em":  &types.AttributeValueMemberS{Value: email},
			":tid": &types.AttributeValueMemberS{Value: tenantID},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("member %s in tenant %s: %w", email, tenantID, domain.ErrNotFound)
	}
	var m domain.TenantMember
	if err := attributevalue.UnmarshalMap(out.Items[0], &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepo) ListByTenant(ctx context.Context, tenantID string) ([]domain.TenantMember, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("tenant_id = :tid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tid": &types.AttributeValueMemberS{Value: tenantID},
		},
	})
	if err != nil {
		return nil, err
	}
	var members []domain.TenantMember
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &members); err != nil {
		return nil, err
	}
	return members, nil
}
