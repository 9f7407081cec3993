package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mlops_webapp/config"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const mlWorkersHashKey = "ml-workers"

var ErrRedisNotInitialized = errors.New("redis client is not initialized")
var ErrWorkerKeyRequired = errors.New("worker key is required")
var ErrWorkerNotFound = errors.New("worker not found")

// MLWorker 外部 ML 执行节点的登记信息，运维用
type MLWorker struct {
	Key    string `json:"key"`
	IP     string `json:"ip"`
	Port   int    `json:"port"`
	HasGPU bool   `json:"has_gpu"`
}

type mlWorkerValue struct {
	IP     string `json:"ip"`
	Port   int    `json:"port"`
	HasGPU bool   `json:"has_gpu"`
}

func ListWorkers(ctx context.Context) ([]MLWorker, error) {
	if config.RedisClient == nil {
		return nil, ErrRedisNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rawMap, err := config.RedisClient.HGetAll(ctx, mlWorkersHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall %s failed: %w", mlWorkersHashKey, err)
	}

	keys := make([]string, 0, len(rawMap))
	for key := range rawMap {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]MLWorker, 0, len(keys))
	for _, key := range keys {
		raw := strings.TrimSpace(rawMap[key])
		if raw == "" {
			continue
		}

		var value mlWorkerValue
		if err := json.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("parse worker failed (key=%s): %w", key, err)
		}

		result = append(result, MLWorker{
			Key:    key,
			IP:     value.IP,
			Port:   value.Port,
			HasGPU: value.HasGPU,
		})
	}

	return result, nil
}

func GetWorkerByKey(ctx context.Context, key string) (MLWorker, error) {
	if config.RedisClient == nil {
		return MLWorker{}, ErrRedisNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return MLWorker{}, ErrWorkerKeyRequired
	}

	raw, err := config.RedisClient.HGet(ctx, mlWorkersHashKey, trimmedKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return MLWorker{}, ErrWorkerNotFound
		}
		return MLWorker{}, fmt.Errorf("hget %s failed (key=%s): %w", mlWorkersHashKey, trimmedKey, err)
	}

	payload := strings.TrimSpace(raw)
	if payload == "" {
		return MLWorker{}, ErrWorkerNotFound
	}

	var value mlWorkerValue
	if err := json.Unmarshal([]byte(payload), &value); err != nil {
		return MLWorker{}, fmt.Errorf("parse worker failed (key=%s): %w", trimmedKey, err)
	}

	return MLWorker{
		Key:    trimmedKey,
		IP:     value.IP,
		Port:   value.Port,
		HasGPU: value.HasGPU,
	}, nil
}

func RegisterWorker(ctx context.Context, worker MLWorker) error {
	if config.RedisClient == nil {
		return ErrRedisNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key := strings.TrimSpace(worker.Key)
	if key == "" {
		return ErrWorkerKeyRequired
	}
	if strings.TrimSpace(worker.IP) == "" {
		return fmt.Errorf("%w: worker ip is required", ErrValidation)
	}

	raw, err := json.Marshal(mlWorkerValue{
		IP:     worker.IP,
		Port:   worker.Port,
		HasGPU: worker.HasGPU,
	})
	if err != nil {
		return fmt.Errorf("encode worker failed (key=%s): %w", key, err)
	}

	if err := config.RedisClient.HSet(ctx, mlWorkersHashKey, key, string(raw)).Err(); err != nil {
		return fmt.Errorf("hset %s failed (key=%s): %w", mlWorkersHashKey, key, err)
	}
	return nil
}

func RemoveWorker(ctx context.Context, key string) error {
	if config.RedisClient == nil {
		return ErrRedisNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	trimmedKey := strings.TrimSpace(key)
	if trimmedKey == "" {
		return ErrWorkerKeyRequired
	}

	removed, err := config.RedisClient.HDel(ctx, mlWorkersHashKey, trimmedKey).Result()
	if err != nil {
		return fmt.Errorf("hdel %s failed (key=%s): %w", mlWorkersHashKey, trimmedKey, err)
	}
	if removed == 0 {
		return ErrWorkerNotFound
	}
	return nil
}
