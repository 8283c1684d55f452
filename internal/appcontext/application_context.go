package appcontext

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/config"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/cache"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/producer"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/ratelimit"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/repository/redis_decorator"
	"github.com/RoyceAzure/lab/marketplace/internal/infra/storage"
	"github.com/RoyceAzure/lab/marketplace/internal/logger"
	"github.com/RoyceAzure/lab/marketplace/internal/metrics"
	"github.com/RoyceAzure/lab/marketplace/internal/service"
	"github.com/RoyceAzure/rj/api/token"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// OrderProducer 關閉時需要 flush 的事件發送端
type OrderProducer interface {
	service.OrderEventPublisher
	Close() error
}

type ApplicationContext struct {
	Cf          *config.Config
	Logger      *zerolog.Logger
	DbConn      *gorm.DB
	Store       db.IStore
	RedisClient *redis.Client
	PostRepo    db.IPostRepository
	Storage     *storage.LocalStorage
	Producer    OrderProducer
	TokenMaker  token.Maker[uuid.UUID]
	Limiter     ratelimit.Limiter
	Metrics     *metrics.ServerMetrics

	UserService  service.IUserService
	PostService  service.IPostService
	CartService  service.ICartService
	OrderService service.IOrderService
}

func NewApplicationContext(cf *config.Config) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf:     cf,
		Logger: logger.New(cf.Env, cf.ServiceName),
	}
	app.Logger.Info().
		Str("env", cf.Env).
		Str("server_port", cf.ServerPort).
		Str("db_host", cf.DbHost).
		Str("db_name", cf.DbName).
		Str("redis_addr", cf.RedisAddr).
		Strs("kafka_brokers", cf.KafkaBrokerList()).
		Str("media_root", cf.MediaRoot).
		Msg("load config")

	if err := app.Init(); err != nil {
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) Init() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"database connection", app.setUpdbConn},
		{"database migration", app.setUpMigration},
		{"database DAO", app.setUpdbDao},
		{"redis", app.setUpRedis},
		{"post repository", app.setUpPostRepo},
		{"file storage", app.setUpStorage},
		{"order event producer", app.setUpProducer},
		{"token maker", app.setTokenMaker},
		{"services", app.setUpServices},
		{"rate limiter", app.setUpLimiter},
		{"metrics", app.setUpMetrics},
	}
	for _, step := range steps {
		app.Logger.Info().Msgf("Start setup %s", step.name)
		if err := step.fn(); err != nil {
			return fmt.Errorf("setup %s: %w", step.name, err)
		}
		app.Logger.Info().Msgf("Finish setup %s", step.name)
	}
	return nil
}

func (app *ApplicationContext) setUpdbConn() error {
	conn, err := db.GetDbConn(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
	if err != nil {
		return err
	}
	app.DbConn = conn
	return nil
}

// 有設定 MIGRATION_URL 時使用 golang-migrate, 否則 AutoMigrate
func (app *ApplicationContext) setUpMigration() error {
	if app.Cf.MigrationURL == "" {
		return db.NewDbDao(app.DbConn).InitMigrate()
	}
	source := db.GetMigrateSource(app.Cf.DbName, app.Cf.DbHost, app.Cf.DbPort, app.Cf.DbUser, app.Cf.DbPas)
	return runDBMigration(app.Cf.MigrationURL, source)
}

func (app *ApplicationContext) setUpdbDao() error {
	app.Store = db.NewStore(db.NewDbDao(app.DbConn))
	return nil
}

// redis 連不上時只記錄, post 快取與分散式限流會退回不使用 redis
func (app *ApplicationContext) setUpRedis() error {
	if app.Cf.RedisAddr == "" {
		return nil
	}
	client := cache.GetRedisClient(app.Cf.RedisAddr, cache.WithPassword(app.Cf.RedisPassword))
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		app.Logger.Warn().Err(err).Str("addr", app.Cf.RedisAddr).Msg("redis unavailable, running without cache")
		return nil
	}
	app.RedisClient = client
	return nil
}

func (app *ApplicationContext) setUpPostRepo() error {
	app.PostRepo = app.Store
	if app.RedisClient != nil {
		app.PostRepo = redis_decorator.NewCacheAsidePostRepo(
			app.Store,
			cache.NewRedisCache(app.RedisClient, app.Cf.ServiceName),
			app.Cf.PostCacheTTL,
			app.Logger,
		)
	}
	return nil
}

func (app *ApplicationContext) setUpStorage() error {
	fileStorage, err := storage.NewLocalStorage(app.Cf.MediaRoot, app.Cf.MediaURL)
	if err != nil {
		return err
	}
	app.Storage = fileStorage
	return nil
}

func (app *ApplicationContext) setUpProducer() error {
	brokers := app.Cf.KafkaBrokerList()
	if len(brokers) == 0 {
		app.Producer = producer.NoopOrderEventPublisher{}
		return nil
	}
	writer := producer.NewKafkaWriter(producer.Config{
		Brokers: brokers,
		Topic:   app.Cf.OrderEventTopic,
	}, app.Logger)
	app.Producer = producer.NewOrderEventProducer(writer)
	return nil
}

func (app *ApplicationContext) setTokenMaker() error {
	tokenMaker, err := token.NewPasetoMaker[uuid.UUID](app.Cf.AuthTokenKey)
	if err != nil {
		return fmt.Errorf("無法創建 token maker: %w", err)
	}
	app.TokenMaker = tokenMaker
	return nil
}

func (app *ApplicationContext) setUpServices() error {
	app.UserService = service.NewUserService(app.Store, app.TokenMaker, app.Storage, app.Cf.AccessTokenDuration(), app.Logger)
	app.PostService = service.NewPostService(app.PostRepo, app.Storage, app.Logger)
	app.CartService = service.NewCartService(app.Store)
	app.OrderService = service.NewOrderService(app.Store, app.Producer, app.Logger)
	return nil
}

// RATE_LIMIT_CAPACITY <= 0 時不限流
func (app *ApplicationContext) setUpLimiter() error {
	if app.Cf.RateLimitCap <= 0 {
		return nil
	}
	cfg := ratelimit.GetDefaultLimiterConfig()
	cfg.Capacity = app.Cf.RateLimitCap
	if app.Cf.RateLimitRate > 0 {
		cfg.RatePS = app.Cf.RateLimitRate
	}

	if app.RedisClient != nil {
		app.Limiter = ratelimit.NewRsTokenBucket(app.RedisClient, app.Cf.ServiceName+":ratelimit", &cfg, app.Logger)
		return nil
	}
	app.Limiter = ratelimit.NewTokenBucket(&cfg)
	return nil
}

func (app *ApplicationContext) setUpMetrics() error {
	app.Metrics = metrics.NewServerMetrics(app.Cf.ServiceName, prometheus.NewRegistry())
	return nil
}

func runDBMigration(migrationURL string, dbSource string) error {
	migration, err := migrate.New(migrationURL, dbSource)
	if err != nil {
		return fmt.Errorf("cannot create new migrate instance: %w", err)
	}
	defer migration.Close()

	if err = migration.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrate up: %w", err)
	}
	return nil
}

// Shutdown 依序關閉 producer, limiter, redis, db, 有錯誤不中斷流程
func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	app.Logger.Info().Msg("Start application shutdown")

	done := make(chan error, 1)
	go func() {
		var errs []error

		if app.Producer != nil {
			if err := app.Producer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close producer: %w", err))
			}
		}
		if tb, ok := app.Limiter.(*ratelimit.TokenBucket); ok {
			tb.Stop()
		}
		if app.RedisClient != nil {
			if err := app.RedisClient.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close redis: %w", err))
			}
		}
		if app.DbConn != nil {
			if sqlDB, err := app.DbConn.DB(); err == nil {
				if err := sqlDB.Close(); err != nil {
					errs = append(errs, fmt.Errorf("close database: %w", err))
				}
			}
		}
		done <- errors.Join(errs...)
	}()

	select {
	case err := <-done:
		if err != nil {
			app.Logger.Error().Err(err).Msg("application shutdown with errors")
			return err
		}
		app.Logger.Info().Msg("Finish application shutdown")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
