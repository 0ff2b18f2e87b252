package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`

	// Optional backends. Empty means the in-process fallback: memory cache
	// instead of Redis, pool queue instead of RabbitMQ, sandbox gateway
	// instead of Omise.
	RedisAddr      string `envconfig:"REDIS_ADDR"`
	AMQPURL        string `envconfig:"AMQP_URL"`
	OmisePublicKey string `envconfig:"OMISE_PUBLIC_KEY"`
	OmiseSecretKey string `envconfig:"OMISE_SECRET_KEY"`

	PaymentCurrency string        `envconfig:"PAYMENT_CURRENCY" default:"USD"`
	WorkerPoolSize  int           `envconfig:"WORKER_POOL_SIZE" default:"4"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"5s"`
}

func Load() (Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
