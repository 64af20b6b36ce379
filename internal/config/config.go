package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/richcobrien1/TrafficJamz-sub002/pkg/config"
	"github.com/richcobrien1/TrafficJamz-sub002/pkg/pubsub"
)

type Config struct {
	Server    ServerConfig
	API       APIConfig
	WebSocket WebSocketConfig
	Sync      SyncConfig
	Media     MediaConfig
	Store     StoreConfig
	PubSub    pubsub.Config
	Catalog   CatalogConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

// APIConfig configures the read-only HTTP API.
type APIConfig struct {
	Host string
	Port int
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
}

// SyncConfig carries the playback synchronization protocol constants.
type SyncConfig struct {
	PositionSyncInterval time.Duration `mapstructure:"position_sync_interval"`
	DriftThreshold       float64       `mapstructure:"drift_threshold"` // seconds
	PreviousGrace        float64       `mapstructure:"previous_grace"`  // seconds
	JoinTimeout          time.Duration `mapstructure:"join_timeout"`
}

// MediaConfig configures voice transport negotiation.
type MediaConfig struct {
	ICEServers []string `mapstructure:"ice_servers"`
}

// StoreConfig configures the session snapshot store.
type StoreConfig struct {
	Driver   string        `mapstructure:"driver"` // "memory" or "redis"
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// CatalogConfig points at the REST backend that persists playlists and
// resolves third-party track metadata.
type CatalogConfig struct {
	HTTPAddress string        `mapstructure:"http_address"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8085)
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8086)
	v.SetDefault("websocket.ping_interval", "30s")
	v.SetDefault("websocket.pong_wait", "60s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 65536)
	v.SetDefault("sync.position_sync_interval", "5s")
	v.SetDefault("sync.drift_threshold", 2.0)
	v.SetDefault("sync.previous_grace", 3.0)
	v.SetDefault("sync.join_timeout", "7s")
	v.SetDefault("media.ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("store.driver", "memory")
	v.SetDefault("store.address", "localhost:6379")
	v.SetDefault("store.password", "")
	v.SetDefault("store.db", 0)
	v.SetDefault("store.ttl", "24h")
	v.SetDefault("pubsub.redis.address", "localhost:6379")
	v.SetDefault("pubsub.redis.password", "")
	v.SetDefault("pubsub.redis.db", 0)
	v.SetDefault("catalog.http_address", "http://localhost:5000")
	v.SetDefault("catalog.cache_ttl", "5m")
	v.SetDefault("log.level", "info")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("api.port", "API_PORT")
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("store.address", "REDIS_ADDRESS")
	v.BindEnv("store.password", "REDIS_PASSWORD")
	v.BindEnv("pubsub.redis.address", "REDIS_ADDRESS")
	v.BindEnv("pubsub.redis.password", "REDIS_PASSWORD")
	v.BindEnv("catalog.http_address", "CATALOG_HTTP_ADDRESS")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 30*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 60*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Sync.PositionSyncInterval = parseDuration(v, "sync.position_sync_interval", 5*time.Second)
	cfg.Sync.JoinTimeout = parseDuration(v, "sync.join_timeout", 7*time.Second)
	cfg.Store.TTL = parseDuration(v, "store.ttl", 24*time.Hour)
	cfg.Catalog.CacheTTL = parseDuration(v, "catalog.cache_ttl", 5*time.Minute)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
