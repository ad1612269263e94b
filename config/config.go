package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	HTTPAddress   string        `mapstructure:"http_address"`
	RPCAddress    string        `mapstructure:"rpc_address"`
	Heartbeat     time.Duration `mapstructure:"heartbeat"`
	RateLimit     float64       `mapstructure:"rate_limit"`
	RateBurst     int           `mapstructure:"rate_burst"`
	StatsInterval time.Duration `mapstructure:"stats_interval"`
}

// GameConfig holds the room rules that are left to the operator.
type GameConfig struct {
	DefaultCapacity int `mapstructure:"default_capacity"`
	MinCapacity     int `mapstructure:"min_capacity"`
	MaxCapacity     int `mapstructure:"max_capacity"`
	MaxNameLength   int `mapstructure:"max_name_length"`
	MaxChatLength   int `mapstructure:"max_chat_length"`
	// RefundChargeOnDisabledTarget gives the shooter back a full load when the chosen
	// box was already disabled. Off by default.
	RefundChargeOnDisabledTarget bool `mapstructure:"refund_charge_on_disabled_target"`
}

type DatabaseConfig struct {
	// Driver selects the match history store: "", "memory", "gorm" or "postgres".
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":3000")
	v.SetDefault("server.rpc_address", "127.0.0.1:3001")
	v.SetDefault("server.heartbeat", 30*time.Second)
	v.SetDefault("server.rate_limit", 20.0)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.stats_interval", 10*time.Second)

	v.SetDefault("game.default_capacity", 6)
	v.SetDefault("game.min_capacity", 2)
	v.SetDefault("game.max_capacity", 6)
	v.SetDefault("game.max_name_length", 20)
	v.SetDefault("game.max_chat_length", 200)
	v.SetDefault("game.refund_charge_on_disabled_target", false)

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "oddroll")

	v.SetDefault("log.level", "info")
}

// LoadConfig reads config.yaml from path. A missing file is fine: defaults and
// ODDROLL_* environment variables still apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("oddroll")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects rule combinations the room engine cannot honour.
func (c *Config) Validate() error {
	g := c.Game
	if g.MinCapacity < 2 {
		return fmt.Errorf("game.min_capacity must be at least 2, got %d", g.MinCapacity)
	}
	if g.MaxCapacity < g.MinCapacity {
		return fmt.Errorf("game.max_capacity (%d) is below game.min_capacity (%d)", g.MaxCapacity, g.MinCapacity)
	}
	if g.DefaultCapacity < g.MinCapacity || g.DefaultCapacity > g.MaxCapacity {
		return fmt.Errorf("game.default_capacity %d outside [%d, %d]", g.DefaultCapacity, g.MinCapacity, g.MaxCapacity)
	}
	if g.MaxNameLength <= 0 {
		return fmt.Errorf("game.max_name_length must be positive")
	}
	switch c.Database.Driver {
	case "", "memory", "gorm", "postgres":
	default:
		return fmt.Errorf("unknown database.driver %q", c.Database.Driver)
	}
	return nil
}
