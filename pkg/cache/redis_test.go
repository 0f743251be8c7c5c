package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lms-content-api/pkg/config"
)

func TestOptionsFromFields(t *testing.T) {
	opts, err := Options(config.RedisConfig{Host: "cache", Port: 6380, Password: "secret", DB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
}

func TestOptionsURLWins(t *testing.T) {
	opts, err := Options(config.RedisConfig{URL: "redis://:pw@redis.internal:6379/3", Host: "ignored", Port: 1})
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6379", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 3, opts.DB)
}

func TestOptionsInvalidURL(t *testing.T) {
	_, err := Options(config.RedisConfig{URL: "http://not-redis"})
	assert.Error(t, err)
}
