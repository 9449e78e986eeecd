package apikey

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FormatAndLength(t *testing.T) {
	key, err := New()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "pk_"))
	assert.Len(t, key, 3+64)
}

func TestNew_Unique(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	b, err := New()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
