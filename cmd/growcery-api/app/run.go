package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/aq2208/growcery-api/configs"
	"github.com/aq2208/growcery-api/internal/adapter/cache"
	"github.com/aq2208/growcery-api/internal/adapter/http"
	"github.com/aq2208/growcery-api/internal/adapter/http/middleware"
	"github.com/aq2208/growcery-api/internal/adapter/kafka"
	"github.com/aq2208/growcery-api/internal/adapter/queue"
	"github.com/aq2208/growcery-api/internal/adapter/repo"
	"github.com/aq2208/growcery-api/internal/adapter/repo/memory"
	"github.com/aq2208/growcery-api/internal/logging"
	"github.com/aq2208/growcery-api/internal/security"
	"github.com/aq2208/growcery-api/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

type stores struct {
	products usecase.ProductRepo
	users    usecase.UserRepo
	carts    usecase.CartRepo
	orders   usecase.OrderRepo
	history  usecase.OrderHistoryRepo
}

// InitWithConfig wires the application. Background consumers run until ctx is done;
// the returned cleanup waits for them and closes every client.
func InitWithConfig(ctx context.Context, cfg configs.Config) (*App, func(), error) {
	log := logging.New("app")
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*App, func(), error) {
		cleanup()
		return nil, nil, err
	}

	// storage
	st, closeStore, err := openStores(ctx, cfg, log)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeStore)

	// redis: checkout idempotency + order status cache
	var (
		idem        usecase.IdempotencyStore
		statusCache usecase.OrderStatusCache
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return fail(fmt.Errorf("redis ping: %w", err))
		}
		closers = append(closers, func() { _ = rdb.Close() })
		idem = cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
		statusCache = cache.NewRedisCache(rdb, cfg.Cache.TTL)
		log.Info("redis connected", "addr", cfg.Redis.Addr)
	}

	// security
	tokens, err := security.NewTokenServiceFromConfig(cfg)
	if err != nil {
		return fail(err)
	}

	// use cases (publisher is attached below once rabbit is up)
	var events usecase.EventPublisher
	var wg sync.WaitGroup

	queries := usecase.NewOrderQueries(st.orders, st.products, st.users, st.history, statusCache)

	// rabbitmq: publish order events, project them into the history store
	if cfg.Rabbit.URL != "" {
		producer, stop, err := setupRabbit(ctx, cfg, queries, &wg)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, stop)
		events = producer
		log.Info("rabbitmq connected", "exchange", cfg.Rabbit.Exchange)
	}

	accounts := usecase.NewAccounts(st.users, st.carts, security.Bcrypt{}, tokens)
	catalog := usecase.NewCatalog(st.products)
	cartUC := usecase.NewCartManager(st.carts, st.products)
	checkout := usecase.NewCreateOrder(st.carts, st.products, st.orders, idem, events)
	lifecycle := usecase.NewUpdateOrderStatus(st.orders, st.products, st.users, statusCache, events)

	// kafka: warehouse fulfilment drives the lifecycle engine
	if len(cfg.Kafka.Brokers) > 0 {
		stop, err := setupKafkaListener(ctx, cfg, lifecycle, &wg)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, stop)
	}

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		created, err := accounts.EnsureAdmin(ctx, usecase.SignupInput{
			FirstName: cfg.Admin.FirstName,
			LastName:  cfg.Admin.LastName,
			Email:     cfg.Admin.Email,
			Password:  cfg.Admin.Password,
		})
		if err != nil {
			return fail(fmt.Errorf("seed admin: %w", err))
		}
		if created {
			log.Info("admin account created", "email", cfg.Admin.Email)
		}
	}

	// init handlers + routers + middleware
	router := http.NewRouter(http.Handlers{
		Auth:     http.NewAuthHandler(accounts),
		Products: http.NewProductHandler(catalog),
		Cart:     http.NewCartHandler(cartUC),
		Orders:   http.NewOrderHandler(checkout, lifecycle, queries),
		Users:    http.NewUserHandler(accounts),
	}, middleware.NewAuthz(tokens), cfg.HTTP.RequestTimeout)

	// consumers must be drained before their clients close
	closers = append(closers, wg.Wait)
	return &App{Router: router}, cleanup, nil
}

func openStores(ctx context.Context, cfg configs.Config, log *slog.Logger) (stores, func(), error) {
	if cfg.UsesMemoryStore() {
		log.Warn("using in-memory store, data is lost on restart")
		m := memory.NewStore()
		return stores{m.Products, m.Users, m.Carts, m.Orders, m.Events}, func() {}, nil
	}

	client, err := repo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.ConnectTimeout)
	if err != nil {
		return stores{}, nil, err
	}
	closeFn := func() { _ = client.Disconnect(context.Background()) }

	db := client.Database(cfg.Mongo.Database)
	if err := repo.EnsureIndexes(ctx, db); err != nil {
		closeFn()
		return stores{}, nil, err
	}
	m := repo.NewStore(client, db, cfg.Mongo.Transactions)
	log.Info("mongo connected", "database", cfg.Mongo.Database, "transactions", cfg.Mongo.Transactions)
	return stores{m.Products, m.Users, m.Carts, m.Orders, m.Events}, closeFn, nil
}

func setupRabbit(ctx context.Context, cfg configs.Config, queries *usecase.OrderQueries, wg *sync.WaitGroup) (*queue.RabbitProducer, func(), error) {
	conn, err := amqp.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	pubCh, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	producer, err := queue.NewRabbitProducer(pubCh, cfg.Rabbit.Exchange)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	// register queue-handler
	subCh, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	exchange := cfg.Rabbit.Exchange
	if exchange == "" {
		exchange = queue.DefaultExchange
	}
	if err := queue.DeclareHistoryQueue(subCh, exchange, cfg.Rabbit.HistoryQueue); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	var opts []queue.RouterOption
	if cfg.Rabbit.Prefetch > 0 {
		opts = append(opts, queue.WithPrefetch(cfg.Rabbit.Prefetch))
	}
	router := queue.NewRouter(subCh, opts...)
	router.Register(cfg.Rabbit.HistoryQueue, queue.NewOrderHistoryHandler(queries).Handler())
	if err := router.Start(ctx); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("start rabbit router: %w", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		router.Wait()
	}()
	return producer, func() { _ = conn.Close() }, nil
}

func setupKafkaListener(ctx context.Context, cfg configs.Config, lifecycle *usecase.UpdateOrderStatus, wg *sync.WaitGroup) (func(), error) {
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		return nil, fmt.Errorf("kafka group: %w", err)
	}

	h := kafka.NewFulfillmentHandler(lifecycle)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.TopicFulfillment}, h.Handle)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			consumer.Logger.Error("kafka consumer stopped", "err", err)
		}
	}()
	return func() { _ = grp.Close() }, nil
}
