package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient 全局句柄；目前只承载 ML worker 注册表（见 service 层）。
var RedisClient *redis.Client

const (
	defaultRedisPort     = 6379
	defaultRedisPoolSize = 10
	redisDialTimeout     = 5 * time.Second
)

// redisOptions 把配置折算成连接参数，缺省项在这里补齐。
func redisOptions(cfg RedisConfig) (*redis.Options, error) {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		return nil, errors.New("redis host is empty")
	}

	port := cfg.Port
	if port == 0 {
		port = defaultRedisPort
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = defaultRedisPoolSize
	}

	return &redis.Options{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     poolSize,
		DialTimeout:  redisDialTimeout,
		ReadTimeout:  redisDialTimeout,
		WriteTimeout: redisDialTimeout,
	}, nil
}

func InitRedis() error {
	if AppConfig == nil {
		return errors.New("app config is not initialized")
	}

	opts, err := redisOptions(AppConfig.Redis)
	if err != nil {
		return err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis ping failed (addr=%s db=%d): %w", opts.Addr, opts.DB, err)
	}

	RedisClient = client
	return nil
}

func CloseRedis() error {
	if RedisClient == nil {
		return nil
	}
	err := RedisClient.Close()
	RedisClient = nil
	return err
}
