package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONB(t *testing.T) {
	v, err := JSONB(nil).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("{}"), v)

	var j JSONB
	require.NoError(t, j.Scan([]byte(`{"og:title":"Hello"}`)))
	assert.Equal(t, "Hello", j["og:title"])

	require.NoError(t, j.Scan(nil))
	assert.Nil(t, j)

	assert.Error(t, j.Scan(42))
}
