package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Classroom ClassroomConfig `mapstructure:"classroom"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

// LedgerConfig 账本子系统的运行参数
type LedgerConfig struct {
	SummaryCacheSeconds int `mapstructure:"summary_cache_seconds"` // 学习概要的Redis缓存时长
	ReconcileMinutes    int `mapstructure:"reconcile_minutes"`     // 概要与事件历史的对账周期
}

// ClassroomConfig 外部课堂同步（第三方作业平台）配置
type ClassroomConfig struct {
	Enabled      bool     `mapstructure:"enabled"`
	BaseURL      string   `mapstructure:"base_url"`
	TokenURL     string   `mapstructure:"token_url"`
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	RefreshToken string   `mapstructure:"refresh_token"`
	Scopes       []string `mapstructure:"scopes"`
	PollSeconds  int      `mapstructure:"poll_seconds"`
	TariffCoins  int      `mapstructure:"tariff_coins"` // 远端作业的固定金币奖励
	TariffXP     int      `mapstructure:"tariff_xp"`    // 远端作业的固定经验奖励
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("QUEST_EDU")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Classroom同步
	viper.BindEnv("classroom.enabled", "CLASSROOM_ENABLED")
	viper.BindEnv("classroom.base_url", "CLASSROOM_BASE_URL")
	viper.BindEnv("classroom.token_url", "CLASSROOM_TOKEN_URL")
	viper.BindEnv("classroom.client_id", "CLASSROOM_CLIENT_ID")
	viper.BindEnv("classroom.client_secret", "CLASSROOM_CLIENT_SECRET")
	viper.BindEnv("classroom.refresh_token", "CLASSROOM_REFRESH_TOKEN")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	// 账本参数兜底：缓存与对账周期不允许为0
	if cfg.Ledger.SummaryCacheSeconds <= 0 {
		cfg.Ledger.SummaryCacheSeconds = 60
	}
	if cfg.Ledger.ReconcileMinutes <= 0 {
		cfg.Ledger.ReconcileMinutes = 30
	}
	if cfg.Classroom.PollSeconds <= 0 {
		cfg.Classroom.PollSeconds = 300
	}

	return &cfg, nil
}
