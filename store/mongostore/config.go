package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Config contains MongoDB connection settings loaded from environment
// variables. The defaults are tuned for managed deployments such as Atlas,
// whose cold starts take several seconds.
type Config struct {
	ConnectionURL   string        `env:"MONGODB_URL,required"`
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1"`
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"`
	RetryWrites     bool          `env:"MONGODB_RETRY_WRITES" envDefault:"true"`
	RetryReads      bool          `env:"MONGODB_RETRY_READS" envDefault:"true"`
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s"`
}

var (
	ErrEmptyConnectionURL = errors.New("empty mongodb connection URL")
	ErrMongoNotReady      = errors.New("mongodb did not become ready within the given time period")
	ErrHealthcheckFailed  = errors.New("mongodb healthcheck failed")
)

// Connect creates a MongoDB client, verifies connectivity with a ping against
// the primary, and retries transient failures with the configured interval.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, error) {
	if cfg.ConnectionURL == "" {
		return nil, ErrEmptyConnectionURL
	}

	opts := options.Client().
		ApplyURI(cfg.ConnectionURL).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime).
		SetRetryWrites(cfg.RetryWrites).
		SetRetryReads(cfg.RetryReads)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, errors.Join(ErrMongoNotReady, err)
	}

	attempts := max(cfg.RetryAttempts, 1)
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if lastErr = client.Ping(ctx, readpref.Primary()); lastErr == nil {
			return client, nil
		}
		select {
		case <-ctx.Done():
			_ = client.Disconnect(context.WithoutCancel(ctx))
			return nil, errors.Join(ErrMongoNotReady, lastErr, ctx.Err())
		case <-time.After(interval):
		}
	}

	_ = client.Disconnect(context.WithoutCancel(ctx))
	return nil, errors.Join(ErrMongoNotReady, lastErr)
}

// Healthcheck returns a health check function suitable for readiness probes.
func Healthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
