package app

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/amplerun/zain-crafter/configs"
	"github.com/amplerun/zain-crafter/internal/adapter/cache"
	"github.com/amplerun/zain-crafter/internal/adapter/channel"
	httpapi "github.com/amplerun/zain-crafter/internal/adapter/http"
	"github.com/amplerun/zain-crafter/internal/adapter/http/middleware"
	"github.com/amplerun/zain-crafter/internal/adapter/kafka"
	"github.com/amplerun/zain-crafter/internal/adapter/queue"
	"github.com/amplerun/zain-crafter/internal/adapter/repo"
	"github.com/amplerun/zain-crafter/internal/logging"
	"github.com/amplerun/zain-crafter/internal/usecase"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logging.Init(cfg.App.Name, cfg.App.LogFile)
	log := logging.New("app")

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := db.PingContext(ctx); err != nil {
		cancel()
		return nil, nil, err
	}
	cancel()

	log.Info("fulfillment-api: starting up")

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// storage
	orderRepo := repo.NewMySQLOrderRepo(db)
	ledger := repo.NewMySQLInventoryLedger(db)
	catalog := repo.NewMySQLCatalogReader(db)
	settings := repo.NewMySQLSettingsRepo(db, usecase.NotificationConfig{
		SellerAlertEnabled:   cfg.Notify.SellerAlertEnabled,
		SellerAddress:        cfg.Notify.SellerAddress,
		CustomerAlertEnabled: cfg.Notify.CustomerAlertEnabled,
		AuditLogEnabled:      cfg.Notify.AuditLogEnabled,
		AuditSheetID:         cfg.Notify.AuditSheetID,
	})
	statusCache := cache.NewRedisCache(rdb, cfg.Redis.CacheTTL)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)

	// notification channels
	hc := &http.Client{Timeout: cfg.Notify.ChannelTimeout}
	wa := channel.NewWhatsAppClient(cfg.Notify.WhatsAppBaseURL, cfg.Notify.WhatsAppAPIKey, hc)
	sheets := channel.NewSheetClient(cfg.Notify.SheetsBaseURL, cfg.Notify.SheetsToken, hc)
	channels := []usecase.NotifyChannel{
		channel.NewSellerAlert(wa),
		channel.NewCustomerAlert(wa),
		channel.NewAuditLog(sheets),
	}
	dispatcher := usecase.NewDispatcher(orderRepo, settings, channels, cfg.Notify.ChannelTimeout, logging.New("dispatch"))

	// dispatch transport: broker when configured, in-process pool otherwise
	var dq usecase.DispatchQueue
	var closeTransport func()
	if cfg.Rabbit.Enabled {
		conn, err := amqp091.Dial(cfg.Rabbit.URL)
		if err != nil {
			return nil, nil, err
		}
		ch, err := conn.Channel()
		if err != nil {
			return nil, nil, err
		}
		producer, err := queue.NewRabbitDispatchQueue(ch)
		if err != nil {
			return nil, nil, err
		}
		jh := queue.NewDispatchJobHandler(orderRepo, dispatcher, logging.New("queue"))
		router := queue.NewRouter(ch, queue.WithPrefetch(50))
		router.Register(queue.DispatchQueueName, queue.JSONHandler[usecase.DispatchJobMsg]{HandleFunc: jh.HandleDispatch})
		if err := router.Start(); err != nil {
			return nil, nil, err
		}
		dq = producer
		closeTransport = func() { _ = conn.Close() }
	} else {
		pool := usecase.NewDispatchPool(orderRepo, dispatcher, cfg.Dispatch.QueueSize, cfg.Dispatch.Workers, logging.New("dispatch"))
		dq = pool
		closeTransport = pool.Close
	}

	// use cases
	authz := middleware.RoleAuthorizer{}
	placeUC := usecase.NewPlaceOrder(catalog, ledger, orderRepo, idem, dq, statusCache, logging.New("orders"))
	updaterUC := usecase.NewStatusUpdater(orderRepo, ledger, authz, dq, statusCache, logging.New("orders"))
	queriesUC := usecase.NewOrderQueries(orderRepo, authz, statusCache)

	// payment results from the gateway, via Kafka
	stopKafka := func() {}
	if cfg.Kafka.Enabled {
		grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
		if err != nil {
			return nil, nil, err
		}
		ph := kafka.NewPaymentEventHandler(updaterUC, logging.New("kafka"))
		consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.TopicPayments}, ph.Handle, logging.New("kafka"))

		kctx, kcancel := context.WithCancel(context.Background())
		go func() {
			if err := consumer.Start(kctx); err != nil && kctx.Err() == nil {
				logging.New("kafka").Error("payment consumer stopped", "err", err)
			}
		}()
		stopKafka = func() {
			kcancel()
			_ = grp.Close()
		}
	}

	// handlers + router + middleware
	h := httpapi.NewOrderHandler(placeUC, updaterUC, queriesUC)
	th := httpapi.NewTokenHandler(cfg)
	auth := middleware.NewAuthz(cfg)
	router := httpapi.NewRouter(h, th, auth)

	cleanup := func() {
		stopKafka()
		closeTransport()
		_ = rdb.Close()
		_ = db.Close()
	}

	return &App{Router: router}, cleanup, nil
}
