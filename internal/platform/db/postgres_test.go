package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadDSN(t *testing.T) {
	pool, err := New(context.Background(), "://not-a-dsn")
	require.Error(t, err)
	require.Nil(t, pool)
	require.Contains(t, err.Error(), "parse config")
}
