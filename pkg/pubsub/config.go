package pubsub

import "time"

// Config holds event bus configuration.
type Config struct {
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis connection settings for the event bus.
type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// NewPubSub creates the event bus backend from configuration.
func NewPubSub(cfg Config) (PubSub, error) {
	return NewRedisPubSub(cfg.Redis)
}
