package config

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"goflare.io/loyalty/clock"
	"goflare.io/loyalty/driver"
	"goflare.io/loyalty/dwh"
	"goflare.io/loyalty/scheduler"
)

const (
	ServerStartPort = ":8080"
)

type Config struct {
	Postgres  PostgresConfig
	Redis     RedisConfig
	NATS      NATSConfig
	DWH       DWHConfig
	Scheduler SchedulerConfig
	Program   ProgramConfig
}

type PostgresConfig struct {
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

type DWHConfig struct {
	URL         string `mapstructure:"url"`
	AccessToken string `mapstructure:"access_token"`
}

type SchedulerConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
	LockLease    time.Duration `mapstructure:"lock_lease"`
}

type ProgramConfig struct {
	PhonePrefix string `mapstructure:"phone_prefix"`
}

func ProvideApplicationConfig() (*Config, error) {

	viper.SetConfigFile("./config.yaml")
	viper.SetConfigType("yaml")

	viper.SetDefault("scheduler.tick_interval", "15s")
	viper.SetDefault("scheduler.lock_lease", "5m")
	viper.SetDefault("program.phone_prefix", "+359")
	viper.SetDefault("nats.url", nats.DefaultURL)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func ProvideProgramConfig(appConfig *Config) ProgramConfig {
	return appConfig.Program
}

func ProvideDWHConfig(appConfig *Config) DWHConfig {
	return appConfig.DWH
}

func ProvidePostgresConn(appConfig *Config) (driver.PostgresPool, error) {

	conn, err := driver.ConnectSQL(appConfig.Postgres.URL)
	if err != nil {
		return nil, err
	}

	return conn.Pool, nil
}

func ProvideRedisClient(appConfig *Config) (*redis.Client, error) {
	return driver.ConnectRedis(appConfig.Redis.Addr, appConfig.Redis.Password, 0)
}

func ProvideNATSConn(appConfig *Config) (*nats.Conn, error) {

	conn, err := nats.Connect(appConfig.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return conn, nil
}

func ProvideDWHClient(appConfig *Config, logger *zap.Logger) dwh.Client {
	return dwh.NewHTTPClient(appConfig.DWH.URL, appConfig.DWH.AccessToken, logger)
}

func ProvideClock() clock.Clock {
	return clock.System()
}

func ProvideJobScheduler(
	appConfig *Config,
	store scheduler.Store,
	locker scheduler.Locker,
	clk clock.Clock,
	logger *zap.Logger,
) *scheduler.Manager {
	return scheduler.NewManager(store, locker, clk, logger,
		scheduler.WithTickInterval(appConfig.Scheduler.TickInterval),
		scheduler.WithLockLease(appConfig.Scheduler.LockLease),
	)
}

func NewLogger() *zap.Logger {

	logger, _ := zap.NewProduction()
	return logger
}
