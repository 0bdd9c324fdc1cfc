// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Engine   EngineConfig
}

type ServerConfig struct {
	Port           string
	OpsPort        string
	Mode           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// EngineConfig holds the planning constants. These are tunable per
// deployment, not business law baked into the code.
type EngineConfig struct {
	HistoryDays           int
	HorizonDays           int
	BacktestWindowDays    int
	DriftWindowDays       int
	DriftThreshold        float64
	DefaultServiceLevel   float64
	DefaultLeadTimeDays   float64
	ReviewPeriodDays      float64
	UnmappedWarnShare     float64
	UnmappedCriticalShare float64
	StatusUrgentSlackDays float64
	StatusWatchSlackDays  float64
	BatchWorkers          int
	BatchSKULimit         int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_OPS_PORT", "8081")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "restock")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("DB_MAX_OPEN_CONNS", 25)
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 300)
		viper.SetDefault("STORAGE_ENABLED", false)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "restock-exports")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("ENGINE_HISTORY_DAYS", 90)
		viper.SetDefault("ENGINE_HORIZON_DAYS", 30)
		viper.SetDefault("ENGINE_BACKTEST_WINDOW_DAYS", 30)
		viper.SetDefault("ENGINE_DRIFT_WINDOW_DAYS", 14)
		viper.SetDefault("ENGINE_DRIFT_THRESHOLD", 0.12)
		viper.SetDefault("ENGINE_DEFAULT_SERVICE_LEVEL", 0.95)
		viper.SetDefault("ENGINE_DEFAULT_LEAD_TIME_DAYS", 14.0)
		viper.SetDefault("ENGINE_REVIEW_PERIOD_DAYS", 14.0)
		viper.SetDefault("ENGINE_UNMAPPED_WARN_SHARE", 0.10)
		viper.SetDefault("ENGINE_UNMAPPED_CRITICAL_SHARE", 0.30)
		viper.SetDefault("ENGINE_STATUS_URGENT_SLACK_DAYS", 3.0)
		viper.SetDefault("ENGINE_STATUS_WATCH_SLACK_DAYS", 10.0)
		viper.SetDefault("ENGINE_BATCH_WORKERS", 8)
		viper.SetDefault("ENGINE_BATCH_SKU_LIMIT", 500)

		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				OpsPort:        viper.GetString("SERVER_OPS_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:         viper.GetString("DB_HOST"),
				Port:         viper.GetString("DB_PORT"),
				User:         viper.GetString("DB_USER"),
				Password:     viper.GetString("DB_PASSWORD"),
				DBName:       viper.GetString("DB_NAME"),
				SSLMode:      viper.GetString("DB_SSLMODE"),
				MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
			},
			Cache: CacheConfig{
				Enabled:            viper.GetBool("CACHE_ENABLED"),
				RedisURL:           viper.GetString("REDIS_URL"),
				RedisHost:          viper.GetString("REDIS_HOST"),
				RedisPort:          viper.GetString("REDIS_PORT"),
				RedisPassword:      viper.GetString("REDIS_PASSWORD"),
				RedisDB:            viper.GetInt("REDIS_DB"),
				ForecastTTLSeconds: viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Enabled:   viper.GetBool("STORAGE_ENABLED"),
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Region:    viper.GetString("STORAGE_REGION"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
			Engine: EngineConfig{
				HistoryDays:           viper.GetInt("ENGINE_HISTORY_DAYS"),
				HorizonDays:           viper.GetInt("ENGINE_HORIZON_DAYS"),
				BacktestWindowDays:    viper.GetInt("ENGINE_BACKTEST_WINDOW_DAYS"),
				DriftWindowDays:       viper.GetInt("ENGINE_DRIFT_WINDOW_DAYS"),
				DriftThreshold:        viper.GetFloat64("ENGINE_DRIFT_THRESHOLD"),
				DefaultServiceLevel:   viper.GetFloat64("ENGINE_DEFAULT_SERVICE_LEVEL"),
				DefaultLeadTimeDays:   viper.GetFloat64("ENGINE_DEFAULT_LEAD_TIME_DAYS"),
				ReviewPeriodDays:      viper.GetFloat64("ENGINE_REVIEW_PERIOD_DAYS"),
				UnmappedWarnShare:     viper.GetFloat64("ENGINE_UNMAPPED_WARN_SHARE"),
				UnmappedCriticalShare: viper.GetFloat64("ENGINE_UNMAPPED_CRITICAL_SHARE"),
				StatusUrgentSlackDays: viper.GetFloat64("ENGINE_STATUS_URGENT_SLACK_DAYS"),
				StatusWatchSlackDays:  viper.GetFloat64("ENGINE_STATUS_WATCH_SLACK_DAYS"),
				BatchWorkers:          viper.GetInt("ENGINE_BATCH_WORKERS"),
				BatchSKULimit:         viper.GetInt("ENGINE_BATCH_SKU_LIMIT"),
			},
		}
	})

	return instance
}
