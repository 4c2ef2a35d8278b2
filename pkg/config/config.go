package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Etcd     EtcdConfig     `mapstructure:"etcd"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	MongoDB  MongoDBConfig  `mapstructure:"mongodb"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Pricing  PricingConfig  `mapstructure:"pricing"`
	Notify   NotifyConfig   `mapstructure:"notify"`
}

type ServerConfig struct {
	Name string `mapstructure:"name"`
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type GatewayConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
	// OrderService selects where order operations run: "local" (in-process)
	// or "remote" (gRPC, address resolved through etcd).
	OrderService string `mapstructure:"order_service"`
	// OrderServiceName is the etcd registration name of the order service.
	OrderServiceName string `mapstructure:"order_service_name"`
	// OrderServiceAddr is used when discovery is unavailable.
	OrderServiceAddr string `mapstructure:"order_service_addr"`
}

type EtcdConfig struct {
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Prefix      string        `mapstructure:"prefix"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql or sqlite
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Path         string `mapstructure:"path"` // sqlite file, ":memory:" allowed
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	Seed         bool   `mapstructure:"seed"`
}

type MongoDBConfig struct {
	URI                    string `mapstructure:"uri"`
	Database               string `mapstructure:"database"`
	Collection             string `mapstructure:"collection"`
	NotificationCollection string `mapstructure:"notification_collection"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"`
	OutputPaths []string `mapstructure:"output_paths"`
}

type AuthConfig struct {
	JWTSecret  string        `mapstructure:"jwt_secret"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	BcryptCost int           `mapstructure:"bcrypt_cost"`
}

type PricingConfig struct {
	TaxRate               float64 `mapstructure:"tax_rate"`
	DeliveryFee           float64 `mapstructure:"delivery_fee"`
	FreeDeliveryThreshold float64 `mapstructure:"free_delivery_threshold"`
	// FreeDeliveryInclusive picks ">=" (true) or ">" (false) for the threshold.
	FreeDeliveryInclusive bool `mapstructure:"free_delivery_inclusive"`
}

type NotifyConfig struct {
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	FromEmail      string `mapstructure:"from_email"`
	FromName       string `mapstructure:"from_name"`
}

// Load reads the YAML file at configPath. A .env file in the working
// directory is applied first, and FG_* environment variables override keys
// (FG_AUTH_JWT_SECRET -> auth.jwt_secret).
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("FG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no file is given, mostly in tests.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	// Unmarshalling plain defaults cannot fail.
	_ = v.Unmarshal(&config)
	return &config
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "order-service")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 50052)

	v.SetDefault("gateway.host", "0.0.0.0")
	v.SetDefault("gateway.port", 8080)
	v.SetDefault("gateway.order_service", "local")
	v.SetDefault("gateway.order_service_name", "order-service")
	v.SetDefault("gateway.order_service_addr", "127.0.0.1:50052")

	v.SetDefault("etcd.dial_timeout", 5)
	v.SetDefault("etcd.prefix", "/freshgrocers/services/")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "freshgrocers.db")
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.seed", true)

	v.SetDefault("mongodb.database", "freshgrocers")
	v.SetDefault("mongodb.collection", "audit_logs")
	v.SetDefault("mongodb.notification_collection", "notifications")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.output_paths", []string{"stdout"})

	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.session_ttl", 12*time.Hour)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("pricing.tax_rate", 0.08)
	v.SetDefault("pricing.delivery_fee", 3.99)
	v.SetDefault("pricing.free_delivery_threshold", 50.0)
	v.SetDefault("pricing.free_delivery_inclusive", true)

	v.SetDefault("notify.from_email", "orders@freshgrocers.com")
	v.SetDefault("notify.from_name", "Fresh Grocers")
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

// Address is the host:port the gRPC server listens on.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
