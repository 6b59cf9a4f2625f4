// Package bootstrap assembles the services from configuration. The API and the
// MQTT ingestor share it so both write through the same stores and alert fan-out.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/alerting"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/cache"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/cloud"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/config"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/database"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/forecast"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/messaging"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/metrics"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/repository/memory"
	"github.com/ANIKETSHETTY47/solar-pr-monitor/internal/service"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
	AlertDynamoDB = "dynamodb"
)

type Runtime struct {
	Services *service.Services
	Registry *prometheus.Registry
	closers  []func() error
	log      zerolog.Logger
}

// New reads the loaded configuration and connects every enabled backend.
// On error everything opened so far is closed again.
func New(ctx context.Context, log zerolog.Logger) (rt *Runtime, err error) {
	rt = &Runtime{Registry: prometheus.NewRegistry(), log: log}
	defer func() {
		if err != nil {
			rt.Close()
			rt = nil
		}
	}()

	rt.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	deps := service.Deps{Metrics: metrics.New(rt.Registry), Log: log}

	if deps.Store, err = rt.openStore(); err != nil {
		return rt, err
	}
	if config.AlertStore() == AlertDynamoDB {
		ddb, err := cloud.NewDynamoDBClient(ctx, config.AWSRegion(), config.DynamoDBAlertsTable())
		if err != nil {
			return rt, err
		}
		deps.Alerts = ddb
		log.Info().Str("table", config.DynamoDBAlertsTable()).Msg("alert log on dynamodb")
	}
	if deps.Notifiers, err = rt.notifiers(ctx); err != nil {
		return rt, err
	}
	if config.CacheEnabled() {
		rdb := redis.NewClient(&redis.Options{Addr: config.RedisAddr()})
		rt.closers = append(rt.closers, rdb.Close)
		if err := rdb.Ping(ctx).Err(); err != nil {
			return rt, fmt.Errorf("redis ping: %w", err)
		}
		deps.Cache = cache.New(rdb, config.CacheTTL())
		log.Info().Str("addr", config.RedisAddr()).Dur("ttl", config.CacheTTL()).Msg("dashboard cache enabled")
	}
	if path := config.ForecastTableFile(); path != "" {
		if deps.Forecast, err = forecast.LoadTable(path); err != nil {
			return rt, err
		}
	}
	if config.UseCloudServices() {
		s3c, err := cloud.NewS3Client(ctx, config.AWSRegion(), config.S3Bucket())
		if err != nil {
			return rt, err
		}
		deps.Archive = s3c
	}

	rt.Services = service.New(deps)
	return rt, nil
}

func (rt *Runtime) openStore() (repository.Store, error) {
	switch backend := config.StoreBackend(); backend {
	case StoreMemory:
		rt.log.Warn().Msg("using in-memory store, data is lost on restart")
		return memory.New(), nil
	case StorePostgres:
		db, err := database.Connect()
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		rt.closers = append(rt.closers, db.Close)
		if config.MigrateOnStart() {
			if err := database.Migrate(db); err != nil {
				return nil, err
			}
		}
		return repository.New(db), nil
	default:
		return nil, fmt.Errorf("unknown STORE %q", backend)
	}
}

func (rt *Runtime) notifiers(ctx context.Context) ([]alerting.Notifier, error) {
	var out []alerting.Notifier
	if config.UseCloudServices() && config.SNSTopicArn() != "" {
		sns, err := cloud.NewSNSClient(ctx, config.AWSRegion(), config.SNSTopicArn())
		if err != nil {
			return nil, err
		}
		out = append(out, sns)
	}
	if brokers := config.KafkaBrokers(); len(brokers) > 0 {
		pub, err := messaging.NewAlertPublisher(brokers, config.KafkaAlertsTopic())
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, pub.Close)
		out = append(out, pub)
	}
	return out, nil
}

// Close releases connections in reverse order of opening.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.log.Warn().Err(err).Msg("close failed")
		}
	}
	rt.closers = nil
}
