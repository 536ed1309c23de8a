package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/adapter/memory"
	"github.com/ravi-cheetiralaav/app/internal/adapter/postgres"
	"github.com/ravi-cheetiralaav/app/internal/adapter/rabbitmq"
	"github.com/ravi-cheetiralaav/app/internal/app/catalog"
	"github.com/ravi-cheetiralaav/app/internal/app/order"
	"github.com/ravi-cheetiralaav/app/internal/app/tracking"
	"github.com/ravi-cheetiralaav/app/internal/config"
	"github.com/ravi-cheetiralaav/app/internal/interfaces"
	"github.com/ravi-cheetiralaav/app/internal/pickupcode"

	amqpAdapter "github.com/ravi-cheetiralaav/app/internal/adapter/amqp"
	httpAdapter "github.com/ravi-cheetiralaav/app/internal/adapter/http"
	redisAdapter "github.com/ravi-cheetiralaav/app/internal/adapter/redis"
)

const (
	modeAPI          = "api"
	modeSubscriber   = "notification-subscriber"
	modeMigrate      = "migrate"
	storePostgres    = "postgres"
	storeMemory      = "memory"
	serviceName      = "foodcart"
	startupRequestID = "startup"
)

type options struct {
	mode       string
	configPath string
	port       int
	store      string
	prefetch   int
	seed       bool
	adminID    string
}

func main() {
	var opts options
	flags := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	flags.StringVar(&opts.mode, "mode", modeAPI, "Service mode: api, notification-subscriber, migrate")
	flags.StringVar(&opts.configPath, "config", "config.yaml", "Path to the YAML config file")
	flags.IntVar(&opts.port, "port", 0, "HTTP port (overrides config)")
	flags.StringVar(&opts.store, "store", storePostgres, "Order store: postgres or memory")
	flags.IntVar(&opts.prefetch, "prefetch", 10, "RabbitMQ prefetch count for the subscriber")
	flags.BoolVar(&opts.seed, "seed", false, "With --mode migrate, insert an admin user and a sample event")
	flags.StringVar(&opts.adminID, "admin-id", "admin", "User id of the seeded admin")
	flags.Parse(os.Args[1:])

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.port != 0 {
		cfg.HTTP.Port = opts.port
	}

	lgr := logger.New(serviceName+"-"+opts.mode, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch opts.mode {
	case modeAPI:
		return runAPI(ctx, cfg, opts, lgr)
	case modeSubscriber:
		return runNotificationSubscriber(ctx, cfg, opts, lgr)
	case modeMigrate:
		return runMigrate(ctx, cfg, opts, lgr)
	default:
		return fmt.Errorf("invalid mode: %s", opts.mode)
	}
}

func connectPostgres(ctx context.Context, cfg *config.Config, lgr logger.Logger) (postgres.DB, error) {
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	lgr.Info("db_connected", "Connected to PostgreSQL database", startupRequestID, map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})
	return db, nil
}

func runAPI(ctx context.Context, cfg *config.Config, opts options, lgr logger.Logger) error {
	loc, err := cfg.Orders.Location()
	if err != nil {
		return err
	}
	issuer, err := pickupcode.NewIssuer([]byte(cfg.Orders.PickupSecret))
	if err != nil {
		return fmt.Errorf("failed to create pickup code issuer: %w", err)
	}

	var (
		store  interfaces.UnitOfWork
		health httpAdapter.HealthFunc
	)
	switch opts.store {
	case storePostgres:
		db, err := connectPostgres(ctx, cfg, lgr)
		if err != nil {
			return err
		}
		defer db.Close()
		store = postgres.NewStore(db)
		health = db.Ping
	case storeMemory:
		lgr.Info("store_selected", "Using in-memory store; data is lost on exit", startupRequestID, nil)
		store = memory.New()
	default:
		return fmt.Errorf("invalid store: %s", opts.store)
	}

	var events interfaces.EventCache = interfaces.NopEventCache{}
	if cfg.Redis.Enabled {
		client, err := redisAdapter.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer client.Close()
		events = redisAdapter.NewEventCache(client, cfg.Redis.TTL)
		lgr.Info("redis_connected", "Connected to Redis", startupRequestID, map[string]interface{}{
			"addr": cfg.Redis.Addr,
		})
	}

	var publisher interfaces.MessagePublisher = interfaces.NopPublisher{}
	if cfg.RabbitMQ.Enabled {
		mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
		if err != nil {
			return err
		}
		defer mqConn.Close()
		publisher = rabbitmq.NewPublisher(mqConn)
		lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", startupRequestID, map[string]interface{}{
			"host": cfg.RabbitMQ.Host,
		})
	}

	orderService := order.NewService(store, issuer, events, publisher, lgr, order.Options{
		Location:             loc,
		ReleaseStockOnReject: cfg.Orders.ReleaseStockOnReject,
		ReleaseStockOnDelete: cfg.Orders.ReleaseStockOnDelete,
	})
	catalogService := catalog.NewService(store, events, lgr, nil)
	trackingService := tracking.NewService(store, lgr)

	handler := httpAdapter.NewRouter(httpAdapter.Handlers{
		Orders:   httpAdapter.NewOrderHandler(orderService, lgr),
		Admin:    httpAdapter.NewAdminHandler(orderService, lgr),
		Catalog:  httpAdapter.NewCatalogHandler(catalogService, lgr),
		Tracking: httpAdapter.NewTrackingHandler(trackingService, lgr),
		Health:   health,
	}, lgr)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("API started on port %d", cfg.HTTP.Port), startupRequestID, map[string]interface{}{
		"port":                    cfg.HTTP.Port,
		"store":                   opts.store,
		"timezone":                loc.String(),
		"redis":                   cfg.Redis.Enabled,
		"rabbitmq":                cfg.RabbitMQ.Enabled,
		"release_stock_on_reject": cfg.Orders.ReleaseStockOnReject,
		"release_stock_on_delete": cfg.Orders.ReleaseStockOnDelete,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	lgr.Info("shutdown_initiated", "Shutting down API", "shutdown", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		return err
	}
	return nil
}

func runNotificationSubscriber(ctx context.Context, cfg *config.Config, opts options, lgr logger.Logger) error {
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		return err
	}
	defer mqConn.Close()

	consumer := rabbitmq.NewConsumer(mqConn, opts.prefetch, lgr)
	notificationHandler := amqpAdapter.NewNotificationHandler(lgr)

	lgr.Info("service_started", "Notification Subscriber started", startupRequestID, map[string]interface{}{
		"queue":    rabbitmq.NotificationsQueue,
		"prefetch": opts.prefetch,
	})

	err = consumer.ConsumeOrderEvents(ctx, notificationHandler.HandleOrderEvent)
	lgr.Info("shutdown_initiated", "Shutting down Notification Subscriber", "shutdown", nil)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("consumer error: %w", err)
	}
	return nil
}

func runMigrate(ctx context.Context, cfg *config.Config, opts options, lgr logger.Logger) error {
	db, err := connectPostgres(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}
	lgr.Info("schema_migrated", "Database schema is up to date", startupRequestID, nil)

	if !opts.seed {
		return nil
	}
	res, err := postgres.Seed(ctx, db, opts.adminID, time.Now())
	if err != nil {
		return err
	}
	lgr.Info("database_seeded", "Seed data applied", startupRequestID, map[string]interface{}{
		"admin_created": res.AdminCreated,
		"event_created": res.EventCreated,
		"event_id":      res.EventID,
	})
	return nil
}
