package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

type StorageConfig struct {
	Driver    string
	Path      string
	KeyPrefix string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PollingConfig struct {
	NotificationsInterval time.Duration
	ConversationInterval  time.Duration
	FeedInterval          time.Duration
	MaxUnconfirmedCycles  int
}

type RecentConfig struct {
	Limit int
}

type SessionConfig struct {
	ExpirySweep string
}

type DevServerConfig struct {
	Host      string
	Port      int
	JWTSecret string
	TokenTTL  time.Duration
}

type LoggingConfig struct {
	Level string
}

type AppConfig struct {
	Environment string
	API         APIConfig
	Storage     StorageConfig
	Redis       RedisConfig
	Polling     PollingConfig
	Recent      RecentConfig
	Session     SessionConfig
	DevServer   DevServerConfig
	Logging     LoggingConfig
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("campusconnect")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".campusconnect"))
	}

	return load(v)
}

func load(v *viper.Viper) (*AppConfig, error) {
	v.SetEnvPrefix("CAMPUSCONNECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")
	cfg.Storage.Path = expandHome(cfg.Storage.Path)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("api.baseurl", "http://localhost:8081/api")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("api.useragent", "campusconnect-cli")

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.path", "~/.campusconnect/state.json")
	v.SetDefault("storage.keyprefix", "campusconnect:")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("polling.notificationsinterval", "60s")
	v.SetDefault("polling.conversationinterval", "5s")
	v.SetDefault("polling.feedinterval", "30s")
	v.SetDefault("polling.maxunconfirmedcycles", 3)

	v.SetDefault("recent.limit", 4)

	v.SetDefault("session.expirysweep", "0 * * * * *") // every minute

	v.SetDefault("devserver.host", "127.0.0.1")
	v.SetDefault("devserver.port", 8081)
	v.SetDefault("devserver.jwtsecret", "campusconnect-dev-secret")
	v.SetDefault("devserver.tokenttl", "24h")

	v.SetDefault("logging.level", "")
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/"))
}
