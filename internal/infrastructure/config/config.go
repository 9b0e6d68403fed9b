package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Vision      ProviderConfig    `mapstructure:"vision"`
	Generation  ProviderConfig    `mapstructure:"generation"`
	Recognition RecognitionConfig `mapstructure:"recognition"`
	Cache       CacheConfig       `mapstructure:"cache"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Queue       QueueConfig       `mapstructure:"queue"`
	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Image       ImageConfig       `mapstructure:"image"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Auth        AuthConfig        `mapstructure:"auth"`
	DedupWindow time.Duration     `mapstructure:"dedup_window"`
	LogLevel    string            `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// ProviderConfig OpenAI 相容端點設定（視覺辨識與食譜生成各一組）
type ProviderConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	TopP        float64       `mapstructure:"top_p"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// RecognitionConfig 多圖食材辨識設定
type RecognitionConfig struct {
	Workers      int           `mapstructure:"workers"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Retries      int           `mapstructure:"retries"`
	MaxImageSide int           `mapstructure:"max_image_side"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RedisConfig Redis 連線設定
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// QueueConfig 上游請求隊列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
	MaxImages    int   `mapstructure:"max_images"`
}

// DatabaseConfig 資料庫設定
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AuthConfig 帳號與 token 設定
type AuthConfig struct {
	JWTSecret    string        `mapstructure:"jwt_secret"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	SeedDemoUser bool          `mapstructure:"seed_demo_user"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時直接使用環境變數
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration",
		"vision_api_key:", maskAPIKey(v.GetString("vision.api_key")),
		"vision_model:", v.GetString("vision.model"),
		"generation_api_key:", maskAPIKey(v.GetString("generation.api_key")),
		"generation_model:", v.GetString("generation.model"),
	)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// bindEnv 綁定常用的環境變數名稱
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("vision.api_key", "SILICONFLOW_API_KEY")
	_ = v.BindEnv("vision.model", "VISION_MODEL")
	_ = v.BindEnv("generation.api_key", "DEEPSEEK_API_KEY")
	_ = v.BindEnv("generation.model", "GENERATION_MODEL")
	_ = v.BindEnv("recognition.workers", "RECOGNITION_WORKERS")
	_ = v.BindEnv("recognition.timeout", "RECOGNITION_TIMEOUT")
	_ = v.BindEnv("cache.enabled", "CACHE_ENABLED")
	_ = v.BindEnv("cache.backend", "CACHE_BACKEND")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("database.driver", "DATABASE_DRIVER")
	_ = v.BindEnv("database.dsn", "DATABASE_URL")
	_ = v.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("dedup_window", "DEDUP_WINDOW")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// MaskedKey 供啟動日誌使用的遮罩 key
func (p ProviderConfig) MaskedKey() string {
	return maskAPIKey(p.APIKey)
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-assistant")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 50<<20)

	// 視覺模型（SiliconFlow）
	v.SetDefault("vision.base_url", "https://api.siliconflow.cn/v1")
	v.SetDefault("vision.model", "Qwen/Qwen2.5-VL-32B-Instruct")
	v.SetDefault("vision.max_tokens", 512)
	v.SetDefault("vision.temperature", 0.3)
	v.SetDefault("vision.top_p", 0.7)
	v.SetDefault("vision.timeout", "30s")
	v.SetDefault("vision.max_retries", 0)

	// 文字生成模型（DeepSeek）
	v.SetDefault("generation.base_url", "https://api.deepseek.com")
	v.SetDefault("generation.model", "deepseek-chat")
	v.SetDefault("generation.max_tokens", 2000)
	v.SetDefault("generation.temperature", 1.0)
	v.SetDefault("generation.top_p", 0)
	v.SetDefault("generation.timeout", "90s")
	v.SetDefault("generation.max_retries", 1)

	v.SetDefault("recognition.workers", 20)
	v.SetDefault("recognition.timeout", "10s")
	v.SetDefault("recognition.retries", 1)
	v.SetDefault("recognition.max_image_side", 800)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "recipe:ai:")

	v.SetDefault("queue.workers", 20)
	v.SetDefault("queue.max_size", 100)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB
	v.SetDefault("image.max_images", 20)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "recipes.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")

	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.seed_demo_user", true)

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
//
// API key 不在此檢查：缺少金鑰時由各項操作在呼叫上游前回報。
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 {
		return fmt.Errorf("server port is required")
	}
	if config.Server.RequestTimeout <= 0 {
		return fmt.Errorf("invalid server request timeout")
	}

	for name, p := range map[string]ProviderConfig{"vision": config.Vision, "generation": config.Generation} {
		if p.BaseURL == "" {
			return fmt.Errorf("%s base url is required", name)
		}
		if p.Model == "" {
			return fmt.Errorf("%s model is required", name)
		}
		if p.MaxTokens <= 0 {
			return fmt.Errorf("invalid %s max tokens", name)
		}
		if p.Timeout <= 0 {
			return fmt.Errorf("invalid %s timeout", name)
		}
	}

	if config.Recognition.Workers <= 0 {
		return fmt.Errorf("invalid recognition workers")
	}
	if config.Recognition.Timeout <= 0 {
		return fmt.Errorf("invalid recognition timeout")
	}
	if config.Recognition.Retries < 0 {
		return fmt.Errorf("invalid recognition retries")
	}
	if config.Recognition.MaxImageSide <= 0 {
		return fmt.Errorf("invalid recognition max image side")
	}

	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "memory":
			if config.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case "redis":
			if config.Redis.Addr == "" {
				return fmt.Errorf("redis addr is required for redis cache backend")
			}
		default:
			return fmt.Errorf("unsupported cache backend: %s", config.Cache.Backend)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit settings")
	}

	if config.Image.MaxSizeBytes <= 0 || config.Image.MaxImages <= 0 {
		return fmt.Errorf("invalid image limits")
	}

	switch config.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}
	if config.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}

	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	if config.Auth.TokenTTL <= 0 {
		return fmt.Errorf("invalid token ttl")
	}

	return nil
}
