package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type TLSConfig struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type ServerConfig struct {
	Addr        string    `yaml:"addr"`
	TLS         TLSConfig `yaml:"tls"`
	CORSOrigins []string  `yaml:"cors_origins"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// PolicyConfig は貸出ポリシーのうち運用判断で切り替えるもの。
// 期間(15日)と延滞料(10/日)は固定値で circulation 側に持つ。
type PolicyConfig struct {
	EnforceMembershipExpiry bool `yaml:"enforce_membership_expiry"`
	AllowUnpaidSettlement   bool `yaml:"allow_unpaid_settlement"`
}

type JobsConfig struct {
	ReconcileSchedule string `yaml:"reconcile_schedule"` // 空なら無効
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

type RateLimitConfig struct {
	LoginRPS   float64 `yaml:"login_rps"`
	LoginBurst int     `yaml:"login_burst"`
}

type Config struct {
	Version   string          `yaml:"version"`
	Mode      string          `yaml:"mode"`
	Timezone  string          `yaml:"timezone"`
	Server    ServerConfig    `yaml:"server"`
	DB        DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Policy    PolicyConfig    `yaml:"policy"`
	Jobs      JobsConfig      `yaml:"jobs"`
	Log       LogConfig       `yaml:"log"`
	RateLimit RateLimitConfig `yaml:"ratelimit"`
}

// envOverrides は LIBRARY_* 環境変数での上書き対象
type envOverrides struct {
	Mode       string `env:"LIBRARY_MODE"`
	Addr       string `env:"LIBRARY_ADDR"`
	DBHost     string `env:"LIBRARY_DB_HOST"`
	DBPort     int    `env:"LIBRARY_DB_PORT"`
	DBUser     string `env:"LIBRARY_DB_USER"`
	DBPassword string `env:"LIBRARY_DB_PASSWORD"`
	DBName     string `env:"LIBRARY_DB_NAME"`
	JWTSecret  string `env:"LIBRARY_JWT_SECRET"`
	LogLevel   string `env:"LIBRARY_LOG_LEVEL"`
}

func Default() Config {
	return Config{
		Mode:     "dev",
		Timezone: "UTC",
		Server: ServerConfig{
			Addr:        ":8443",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		DB: DatabaseConfig{Host: "127.0.0.1", Port: 3306, DBName: "library"},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Jobs:      JobsConfig{ReconcileSchedule: "@every 15m"},
		Log:       LogConfig{Level: "info", Format: "text"},
		RateLimit: RateLimitConfig{LoginRPS: 1, LoginBurst: 5},
	}
}

// Load は YAML を読み、.env と環境変数で上書きする
func Load(path string) (*Config, error) {
	cfg := Default()

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("設定ファイルの読み込み失敗: %w", err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("設定ファイルのパース失敗: %w", err)
	}

	// .env は無くても良い
	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envdecode.Decode(&env); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return fmt.Errorf("環境変数の読み込み失敗: %w", err)
	}
	setStr(&cfg.Mode, env.Mode)
	setStr(&cfg.Server.Addr, env.Addr)
	setStr(&cfg.DB.Host, env.DBHost)
	setStr(&cfg.DB.Username, env.DBUser)
	setStr(&cfg.DB.Password, env.DBPassword)
	setStr(&cfg.DB.DBName, env.DBName)
	setStr(&cfg.Auth.JWTSecret, env.JWTSecret)
	setStr(&cfg.Log.Level, env.LogLevel)
	if env.DBPort != 0 {
		cfg.DB.Port = env.DBPort
	}
	return nil
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) Validate() error {
	if c.Mode != "dev" && c.Mode != "release" {
		return fmt.Errorf("mode must be dev or release: %q", c.Mode)
	}
	if c.Mode == "release" && c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required in release mode")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location は日付計算に使うタイムゾーン
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
