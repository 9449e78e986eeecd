package dynamo

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrKey(t *testing.T) {
	key := strKey("tenant_id", "t1")
	require.Len(t, key, 1)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "t1"}, key["tenant_id"])
}

func TestCompositeKey(t *testing.T) {
	key := compositeKey("tenant_id", "t1", "user_id", "u1")
	require.Len(t, key, 2)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "t1"}, key["tenant_id"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "u1"}, key["user_id"])
}

func TestBuildUpdateExpr(t *testing.T) {
	expr, names, values, err := buildUpdateExpr(map[string]interface{}{
		"status": "active",
		"name":   "Acme",
	})
	require.NoError(t, err)
	// Fields are emitted in sorted order.
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1", expr)
	assert.Equal(t, map[string]string{"#f0": "name", "#f1": "status"}, names)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "Acme"}, values[":v0"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "active"}, values[":v1"])
}

func TestBuildUpdateExpr_Empty(t *testing.T) {
	_, _, _, err := buildUpdateExpr(map[string]interface{}{})
	assert.Error(t, err)
}
