package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Redis  RedisConfig  `yaml:"redis"`
	Log    LogConfig    `yaml:"log"`
	Auth   AuthConfig   `yaml:"auth"`
	ML     MLConfig     `yaml:"ml"`
	Deploy DeployConfig `yaml:"deploy"`
	Tasks  TaskConfig   `yaml:"tasks"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type DBConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// RedisConfig worker 注册表所在的 redis；PoolSize 0 走默认值
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type LogConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig 认证边界配置：本服务只校验令牌，不签发
type AuthConfig struct {
	JWTSecret   string `yaml:"jwt_secret"`
	WorkerToken string `yaml:"worker_token"`
}

// MLConfig 外部 ML 执行服务（标注/增强/训练/测试 都在那边跑）
type MLConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type DeployConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	PrivateKeyPath string `yaml:"private_key_path"`
	RemoteRoot     string `yaml:"remote_root"`
}

type TaskConfig struct {
	// StuckAfterMinutes IN_PROGRESS 超过该时长强制置为 FAILED；0 表示关闭
	StuckAfterMinutes int `yaml:"stuck_after_minutes"`
}

var AppConfig *Config

func InitConfig() error {
	data, err := os.ReadFile("config/config.yaml")
	if err != nil {
		return fmt.Errorf("read config file failed: %v", err)
	}

	AppConfig = &Config{}
	err = yaml.Unmarshal(data, AppConfig)
	if err != nil {
		return fmt.Errorf("unmarshal config failed: %v", err)
	}

	return nil
}

// MLTimeout 返回外部 ML 服务调用超时，默认 30s。
func (c *Config) MLTimeout() time.Duration {
	if c == nil || c.ML.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.ML.TimeoutSeconds) * time.Second
}

// StuckTaskTimeout 返回卡死任务判定时长；0 表示不启用回收。
func (c *Config) StuckTaskTimeout() time.Duration {
	if c == nil || c.Tasks.StuckAfterMinutes <= 0 {
		return 0
	}
	return time.Duration(c.Tasks.StuckAfterMinutes) * time.Minute
}
