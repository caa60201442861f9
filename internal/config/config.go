package config

import (
	"fmt"
	"os"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // 接続文字列（あれば最優先）
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト
	PostgresPort     string // DBポート
	PostgresSSLMode  string

	EntityStoreAPIBase string // エンティティストアのベースURL
	EntityStoreToken   string // Bearerトークン（任意）

	RedisAddr      string // 冪等性ガード用（空なら無効）
	RedisPassword  string
	IdempotencyTTL time.Duration

	GoEnv   string // dev/prod
	LogFile string // ログ出力先
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "oms"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getenv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		EntityStoreAPIBase: os.Getenv("ENTITY_STORE_API_BASE"),
		EntityStoreToken:   os.Getenv("ENTITY_STORE_TOKEN"),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		IdempotencyTTL: 24 * time.Hour,

		GoEnv:   getenv("GO_ENV", "dev"),
		LogFile: getenv("LOG_FILE", "./logs/app.log"),
	}

	//必須チェック
	if cfg.EntityStoreAPIBase == "" {
		return Config{}, fmt.Errorf("ENTITY_STORE_API_BASE is required")
	}

	if v := os.Getenv("IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("IDEMPOTENCY_TTL must be a duration: %w", err)
		}
		cfg.IdempotencyTTL = d
	}

	return cfg, nil
}

// DSN はgorm用の接続文字列を組み立てる
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
