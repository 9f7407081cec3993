package service

import (
	"context"
	"testing"

	"mlops_webapp/config"

	"github.com/stretchr/testify/assert"
)

func TestWorkerRegistryGuardsWithoutRedis(t *testing.T) {
	saved := config.RedisClient
	config.RedisClient = nil
	t.Cleanup(func() { config.RedisClient = saved })

	ctx := context.Background()

	_, err := ListWorkers(ctx)
	assert.ErrorIs(t, err, ErrRedisNotInitialized)

	_, err = GetWorkerByKey(ctx, "worker-1")
	assert.ErrorIs(t, err, ErrRedisNotInitialized)

	err = RegisterWorker(ctx, MLWorker{Key: "worker-1", IP: "10.0.0.5"})
	assert.ErrorIs(t, err, ErrRedisNotInitialized)

	err = RemoveWorker(ctx, "worker-1")
	assert.ErrorIs(t, err, ErrRedisNotInitialized)
}
