package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	viper "github.com/spf13/viper"
)

/*
init 與 read 分開
init : 設置 viper watch 與 onConfigChange
read : 一般讀取, 需要使用讀寫鎖
*/
var configSingleton *ConfigSingleTon
var muonce sync.Once

// 設定檔路徑, 未設定時讀取工作目錄下的 .env
const configFileEnv = "CONFIG_FILE"

type ConfigSingleTon struct {
	Config *Config
	mu     sync.RWMutex
	v      *viper.Viper
}

type Config struct {
	ServiceName      string        `mapstructure:"SERVICE_NAME"`
	ServerPort       string        `mapstructure:"SERVER_PORT"`
	Env              string        `mapstructure:"ENV"`
	DbName           string        `mapstructure:"POSTGRES_DB"`
	DbHost           string        `mapstructure:"POSTGRES_HOST"`
	DbPort           string        `mapstructure:"POSTGRES_PORT"`
	DbUser           string        `mapstructure:"POSTGRES_USER"`
	DbPas            string        `mapstructure:"POSTGRES_PASSWORD"`
	MigrationURL     string        `mapstructure:"MIGRATION_URL"`
	RedisAddr        string        `mapstructure:"REDIS_ADDR"`
	RedisPassword    string        `mapstructure:"REDIS_PASSWORD"`
	PostCacheTTL     time.Duration `mapstructure:"POST_CACHE_TTL"`
	AuthTokenKey     string        `mapstructure:"AUTH_TOKEN_KEY"`
	AccessTokenHours int           `mapstructure:"ACCESS_TOKEN_HOURS"`
	MediaRoot        string        `mapstructure:"MEDIA_ROOT"`
	MediaURL         string        `mapstructure:"MEDIA_URL"`
	KafkaBrokers     string        `mapstructure:"KAFKA_BROKERS"`
	OrderEventTopic  string        `mapstructure:"ORDER_EVENT_TOPIC"`
	RateLimitCap     int           `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRate    int           `mapstructure:"RATE_LIMIT_RATE"`
}

var defaults = map[string]any{
	"SERVICE_NAME":        "marketplace",
	"SERVER_PORT":         "8080",
	"ENV":                 "development",
	"POSTGRES_DB":         "marketplace",
	"POSTGRES_HOST":       "localhost",
	"POSTGRES_PORT":       "5432",
	"POSTGRES_USER":       "postgres",
	"POSTGRES_PASSWORD":   "",
	"MIGRATION_URL":       "",
	"REDIS_ADDR":          "",
	"REDIS_PASSWORD":      "",
	"POST_CACHE_TTL":      "5m",
	"AUTH_TOKEN_KEY":      "",
	"ACCESS_TOKEN_HOURS":  24,
	"MEDIA_ROOT":          "./media",
	"MEDIA_URL":           "/media",
	"KAFKA_BROKERS":       "",
	"ORDER_EVENT_TOPIC":   "order-events",
	"RATE_LIMIT_CAPACITY": 0,
	"RATE_LIMIT_RATE":     0,
}

func GetConfig() *Config {
	initConfig()
	configSingleton.mu.RLock()
	defer configSingleton.mu.RUnlock()
	return configSingleton.Config
}

func initConfig() {
	muonce.Do(func() {
		configSingleton = &ConfigSingleTon{v: viper.New()}
		path := configFilePath()
		cf, err := loadConfig(configSingleton.v, path)
		if err != nil {
			log.Fatalf("error read config: %v", err)
		}
		configSingleton.Config = cf

		// 沒有設定檔時只吃環境變數, 不需要 watch
		if !fileExists(path) {
			return
		}
		configSingleton.v.OnConfigChange(func(e fsnotify.Event) {
			cf, err := loadConfig(configSingleton.v, path)
			if err != nil {
				log.Printf("failed to reload config file %s: %v", e.Name, err)
				return
			}
			configSingleton.mu.Lock()
			configSingleton.Config = cf
			configSingleton.mu.Unlock()
		})
		configSingleton.v.WatchConfig()
	})
}

/*
單純回傳錯誤  由外部決定要不要Fatal
設定檔不存在時使用預設值 + 環境變數
*/
func LoadConfig(path string) (*Config, error) {
	return loadConfig(viper.New(), path)
}

func loadConfig(v *viper.Viper, path string) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if fileExists(path) {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cf, nil
}

// KafkaBrokerList 以逗號分隔, 未設定時回傳 nil
func (c *Config) KafkaBrokerList() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (c *Config) AccessTokenDuration() time.Duration {
	return time.Duration(c.AccessTokenHours) * time.Hour
}

func configFilePath() string {
	if p := os.Getenv(configFileEnv); p != "" {
		return p
	}
	return ".env"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
