package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMLTimeoutDefaults(t *testing.T) {
	var nilCfg *Config
	assert.Equal(t, 30*time.Second, nilCfg.MLTimeout())

	cfg := &Config{}
	assert.Equal(t, 30*time.Second, cfg.MLTimeout())

	cfg.ML.TimeoutSeconds = 90
	assert.Equal(t, 90*time.Second, cfg.MLTimeout())
}

func TestRedisOptionsDefaults(t *testing.T) {
	_, err := redisOptions(RedisConfig{})
	assert.Error(t, err)

	opts, err := redisOptions(RedisConfig{Host: " 10.0.0.9 "})
	assert.NoError(t, err)
	assert.Equal(t, "10.0.0.9:6379", opts.Addr)
	assert.Equal(t, defaultRedisPoolSize, opts.PoolSize)

	opts, err = redisOptions(RedisConfig{Host: "redis", Port: 6380, DB: 2, PoolSize: 32})
	assert.NoError(t, err)
	assert.Equal(t, "redis:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 32, opts.PoolSize)
}

func TestStuckTaskTimeout(t *testing.T) {
	var nilCfg *Config
	assert.Zero(t, nilCfg.StuckTaskTimeout())

	cfg := &Config{}
	assert.Zero(t, cfg.StuckTaskTimeout())

	cfg.Tasks.StuckAfterMinutes = 45
	assert.Equal(t, 45*time.Minute, cfg.StuckTaskTimeout())
}
