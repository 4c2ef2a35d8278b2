package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

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
	configPath := "config/order-config.yaml"
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

	logger.Info("Starting order service",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	db, err := repository.OpenDatabase(&cfg.Database)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	orderRepo := repository.NewOrderRepository(db)
	agents := repository.NewAgentRepository(db)

	ctx := context.Background()
	if cfg.Database.Seed {
		seeder := service.NewSeeder(repository.NewStaffRepository(db), agents, repository.NewProductRepository(db), cfg.Auth.BcryptCost, logger)
		if err := seeder.Seed(ctx); err != nil {
			logger.Fatal("Failed to seed database", zap.Error(err))
		}
	}

	opts := []service.OrderOption{}
	var outbox actors.Outbox
	if mongo := connectMongo(&cfg.MongoDB, logger); mongo != nil {
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			mongo.Close(closeCtx)
		}()
		opts = append(opts, service.WithAuditLogger(mongo))
		outbox = mongo
	}

	dispatcher, err := actors.StartDispatcher(logger, notify.NewEmailSender(cfg.Notify, logger), outbox)
	if err != nil {
		logger.Fatal("Failed to start notification actor", zap.Error(err))
	}
	defer dispatcher.Stop()
	opts = append(opts, service.WithNotifier(dispatcher))

	orders := service.NewOrderService(orderRepo, agents, service.NewCalculator(cfg.Pricing), logger, opts...)
	server := grpc.NewOrderServer(orders, logger)

	sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, logger)
	if err != nil {
		logger.Fatal("Failed to connect to etcd", zap.Error(err))
	}
	defer sd.Close()

	instance := &discovery.ServiceInstance{
		Name: cfg.Server.Name,
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}
	regCtx, cancelReg := context.WithCancel(ctx)
	defer cancelReg()
	if err := sd.Register(regCtx, instance); err != nil {
		logger.Fatal("Failed to register service", zap.Error(err))
	}

	logger.Info("Service registered in etcd",
		zap.String("name", cfg.Server.Name),
		zap.String("address", instance.Address()))

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	if err := sd.Deregister(ctx, instance); err != nil {
		logger.Error("Failed to deregister service", zap.Error(err))
	}
	server.Stop()

	logger.Info("Service stopped")
}

// connectMongo returns nil when MongoDB cannot be reached. Orders are still
// served, only without audit entries and the notification outbox.
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
