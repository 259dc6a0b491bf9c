package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limengmingx/stixtoneolib/internal/types"
)

func TestGraphClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  GraphClientConfig
		wantErr bool
	}{
		{
			name: "valid config",
			config: GraphClientConfig{
				URI:                     "bolt://localhost:7687",
				Username:                "neo4j",
				Password:                "password",
				ConnectionTimeout:       30 * time.Second,
				MaxTransactionRetryTime: 30 * time.Second,
			},
			wantErr: false,
		},
		{
			name: "empty URI",
			config: GraphClientConfig{
				URI:                     "",
				Username:                "neo4j",
				Password:                "password",
				ConnectionTimeout:       30 * time.Second,
				MaxTransactionRetryTime: 30 * time.Second,
			},
			wantErr: true,
		},
		{
			name: "empty username",
			config: GraphClientConfig{
				URI:                     "bolt://localhost:7687",
				Username:                "",
				Password:                "password",
				ConnectionTimeout:       30 * time.Second,
				MaxTransactionRetryTime: 30 * time.Second,
			},
			wantErr: true,
		},
		{
			name: "empty password",
			config: GraphClientConfig{
				URI:                     "bolt://localhost:7687",
				Username:                "neo4j",
				Password:                "",
				ConnectionTimeout:       30 * time.Second,
				MaxTransactionRetryTime: 30 * time.Second,
			},
			wantErr: true,
		},
		{
			name: "zero connection timeout",
			config: GraphClientConfig{
				URI:                     "bolt://localhost:7687",
				Username:                "neo4j",
				Password:                "password",
				ConnectionTimeout:       0,
				MaxTransactionRetryTime: 30 * time.Second,
			},
			wantErr: true,
		},
		{
			name: "zero transaction retry time",
			config: GraphClientConfig{
				URI:                     "bolt://localhost:7687",
				Username:                "neo4j",
				Password:                "password",
				ConnectionTimeout:       30 * time.Second,
				MaxTransactionRetryTime: 0,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				var stixErr *types.StixError
				require.True(t, errors.As(err, &stixErr))
				assert.Equal(t, ErrCodeGraphInvalidConfig, stixErr.Code)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "bolt://localhost:7687", config.URI)
	assert.Equal(t, "neo4j", config.Username)
	assert.Equal(t, 50, config.MaxConnectionPoolSize)
	assert.Equal(t, 30*time.Second, config.ConnectionTimeout)
	assert.NoError(t, config.Validate())
}

func TestNewNeo4jClient_InvalidConfig(t *testing.T) {
	_, err := NewNeo4jClient(GraphClientConfig{})
	assert.Error(t, err)
}

func TestNeo4jClient_OperationsWithoutConnect(t *testing.T) {
	client, err := NewNeo4jClient(DefaultConfig())
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("query", func(t *testing.T) {
		_, err := client.Query(ctx, "RETURN 1", nil)
		assertGraphErrCode(t, err, ErrCodeGraphConnectionClosed)
	})

	t.Run("create node", func(t *testing.T) {
		_, err := client.CreateNode(ctx, []string{"indicator"}, nil)
		assertGraphErrCode(t, err, ErrCodeGraphConnectionClosed)
	})

	t.Run("create relationship", func(t *testing.T) {
		err := client.CreateRelationship(ctx, "a", "b", "REFERS_TO", nil)
		assertGraphErrCode(t, err, ErrCodeGraphConnectionClosed)
	})

	t.Run("find node", func(t *testing.T) {
		_, err := client.FindNodeByID(ctx, "indicator--x")
		assertGraphErrCode(t, err, ErrCodeGraphConnectionClosed)
	})

	t.Run("delete node", func(t *testing.T) {
		err := client.DeleteNode(ctx, "a")
		assertGraphErrCode(t, err, ErrCodeGraphConnectionClosed)
	})

	t.Run("health", func(t *testing.T) {
		health := client.Health(ctx)
		assert.True(t, health.IsUnhealthy())
	})

	t.Run("close is a no-op", func(t *testing.T) {
		assert.NoError(t, client.Close(ctx))
	})
}

func assertGraphErrCode(t *testing.T, err error, code types.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	var stixErr *types.StixError
	require.True(t, errors.As(err, &stixErr))
	assert.Equal(t, code, stixErr.Code)
}
