//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"goflare.io/loyalty/handlers"
	"goflare.io/loyalty/server"

	"goflare.io/loyalty"
	"goflare.io/loyalty/cardholder"
	"goflare.io/loyalty/config"
	"goflare.io/loyalty/discount"
	"goflare.io/loyalty/driver"
	"goflare.io/loyalty/notification"
	"goflare.io/loyalty/records"
	"goflare.io/loyalty/scheduler"
	"goflare.io/loyalty/shopkeeper"
)

func InitializeLoyaltyService() (*server.Server, error) {

	wire.Build(
		config.ProvideApplicationConfig,
		config.NewLogger,
		config.ProvidePostgresConn,
		config.ProvideRedisClient,
		config.ProvideNATSConn,
		config.ProvideProgramConfig,
		config.ProvideDWHConfig,
		config.ProvideDWHClient,
		config.ProvideClock,
		config.ProvideJobScheduler,
		driver.NewTransactionManager,
		cardholder.NewRepository,
		cardholder.NewService,
		discount.NewRepository,
		discount.NewService,
		shopkeeper.NewRepository,
		shopkeeper.NewService,
		records.NewCursorRepository,
		records.NewService,
		notification.NewRepository,
		notification.NewAllCardHoldersAudience,
		notification.NewNATSSender,
		notification.NewService,
		scheduler.NewStore,
		scheduler.NewRedisLocker,
		loyalty.NewCardProgram,
		handlers.NewRegisterHandler,
		handlers.NewDiscountHandler,
		handlers.NewShopkeeperHandler,
		server.NewServer,
	)

	return &server.Server{}, nil
}
