package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/freshgrocers/gateway"
	"github.com/example/freshgrocers/pkg/actors"
	"github.com/example/freshgrocers/pkg/config"
	"github.com/example/freshgrocers/pkg/discovery"
	"github.com/example/freshgrocers/pkg/grpc"
	"github.com/example/freshgrocers/pkg/logging"
	"github.com/example/freshgrocers/pkg/notify"
	"github.com/example/freshgrocers/pkg/repository"
	"github.com/example/freshgrocers/pkg/service"
	"go.uber.org/zap"
)

func main() {
	configPath := "config/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting API Gateway",
		zap.Int("port", cfg.Gateway.Port),
		zap.String("host", cfg.Gateway.Host),
		zap.String("order_service", cfg.Gateway.OrderService))

	ctx := context.Background()

	db, err := repository.OpenDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	customers := repository.NewCustomerRepository(db)
	staff := repository.NewStaffRepository(db)
	applications := repository.NewApplicationRepository(db)
	products := repository.NewProductRepository(db)
	agents := repository.NewAgentRepository(db)

	if cfg.Database.Seed {
		if err := service.NewSeeder(staff, agents, products, cfg.Auth.BcryptCost, logger).Seed(ctx); err != nil {
			logger.Fatal("Failed to seed database", zap.Error(err))
		}
	}

	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}
	sessions := repository.NewSessionStore(redisRepo, cfg.Auth.SessionTTL)
	carts := repository.NewCartStore(redisRepo, cfg.Auth.SessionTTL)

	var (
		outbox  actors.Outbox
		history gateway.HistoryReader
	)
	mongo := connectMongo(&cfg.MongoDB, logger)
	if mongo != nil {
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			mongo.Close(closeCtx)
		}()
		outbox = mongo
		history = mongo
	}

	dispatcher, err := actors.StartDispatcher(logger, notify.NewEmailSender(cfg.Notify, logger), outbox)
	if err != nil {
		logger.Fatal("Failed to start notification actor", zap.Error(err))
	}
	defer dispatcher.Stop()

	calc := service.NewCalculator(cfg.Pricing)

	var orders service.OrderAPI
	switch cfg.Gateway.OrderService {
	case "remote":
		sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, logger)
		if err != nil {
			logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
		} else {
			defer sd.Close()
		}
		client, err := grpc.ConnectOrderService(&cfg.Gateway, sd, logger)
		if err != nil {
			logger.Fatal("Failed to connect to order service", zap.Error(err))
		}
		defer client.Close()
		orders = client
	default:
		opts := []service.OrderOption{service.WithNotifier(dispatcher)}
		if mongo != nil {
			opts = append(opts, service.WithAuditLogger(mongo))
		}
		orders = service.NewOrderService(repository.NewOrderRepository(db), agents, calc, logger, opts...)
	}

	staffService := service.NewStaffService(staff, applications, customers, cfg.Auth.BcryptCost, logger)
	staffService.SetNotifier(dispatcher)

	gw := gateway.NewGateway(cfg, logger, gateway.Services{
		Auth:      service.NewAuthService(cfg.Auth, customers, staff, applications, sessions, carts, logger),
		Cart:      service.NewCartService(carts, products, customers, orders, calc, logger),
		Orders:    orders,
		Inventory: service.NewInventoryService(products, logger),
		Staff:     staffService,
		Feedback:  service.NewFeedbackService(repository.NewFeedbackRepository(db), orders, logger),
		Delivery:  service.NewDeliveryService(agents, orders, logger),
		Reports:   service.NewReportService(orders, products, agents, logger),
		History:   history,
	})
	gw.SetupRoutes()

	gwErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil {
			gwErr <- err
		}
	}()

	logger.Info("Gateway started successfully")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-gwErr:
		logger.Fatal("Gateway error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway shutdown failed", zap.Error(err))
	}

	logger.Info("Gateway stopped")
}

// connectMongo returns nil when MongoDB cannot be reached.
func connectMongo(cfg *config.MongoDBConfig, logger *zap.Logger) *repository.MongoRepository {
	mongo, err := repository.NewMongoRepository(cfg)
	if err != nil {
		logger.Warn("MongoDB unavailable, audit log and notification outbox disabled", zap.Error(err))
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := mongo.Ping(ctx); err != nil {
		logger.Warn("MongoDB unavailable, audit log and notification outbox disabled", zap.Error(err))
		mongo.Close(ctx)
		return nil
	}
	logger.Info("MongoDB connected successfully")
	return mongo
}
