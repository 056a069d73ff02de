package cache

import (
	"context"
	"net"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquago/aquago-api/pkg/config"
)

func TestNewRedisWithoutHost(t *testing.T) {
	client, err := NewRedis(context.Background(), config.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewRedisConnects(t *testing.T) {
	srv := miniredis.RunT(t)
	host, portStr, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	client, err := NewRedis(context.Background(), config.RedisConfig{Host: host, Port: port})
	require.NoError(t, err)
	require.NotNil(t, client)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := srv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewRedisUnreachable(t *testing.T) {
	client, err := NewRedis(context.Background(), config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestNewRedisStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client, err := NewRedis(ctx, config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
	assert.Nil(t, client)
}
