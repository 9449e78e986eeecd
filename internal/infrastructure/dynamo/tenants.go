package dynamo

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/propdev-core/internal/domain"
)

// TenantRepo provides typed DynamoDB operations for the tenants table.
type TenantRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewTenantRepo(client *dynamodb.Client, tableName string) *TenantRepo {
	return &TenantRepo{client: client, tableName: tableName}
}

func (r *TenantRepo) Put(ctx context.Context, t *domain.Tenant) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal tenant: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *TenantRepo) Get(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("tenant_id", tenantID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("tenant %s: %w", tenantID, domain.ErrNotFound)
	}
	var t domain.Tenant
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*domain.Tenant, error) {
	return r.queryGSI(ctx, "subdomain-index", "subdomain", subdomain)
}

func (r *TenantRepo) GetByAPIKey(ctx context.Context, apiKey string) (*domain.Tenant, error) {
	return r.queryGSI(ctx, "api_key-index", "api_key", apiKey)
}

func (r *TenantRepo) Update(ctx context.Context, tenantID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("tenant_id", tenantID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}

// ScanPage returns a page of tenants. cursor is a base64-encoded tenant_id
// used as ExclusiveStartKey. Returns items, a next cursor (empty when no more
// pages), and any error.
func (r *TenantRepo) ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.Tenant, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if cursor != "" {
		tenantID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = map[string]types.AttributeValue{
			"tenant_id": &types.AttributeValueMemberS{Value: tenantID},
		}
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", err
	}
	var tenants []domain.Tenant
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &tenants); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["tenant_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return tenants, nextCursor, nil
}

func encodeCursor(tenantID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(tenantID))
}

func decodeCursor(cursor string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *TenantRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.Tenant, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("tenant by %s: %w", attr, domain.ErrNotFound)
	}
	var t domain.Tenant
	if err := attributevalue.UnmarshalMap(out.Items[0], &t); err != nil {
		return nil, err
	}
	return &t, nil
}
