package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"goflare.io/loyalty"
	"goflare.io/loyalty/handlers"
	"goflare.io/loyalty/scheduler"
)

type Server struct {
	echo       *echo.Echo
	loyalty    loyalty.Loyalty
	scheduler  *scheduler.Manager
	Register   handlers.RegisterHandler
	Discount   handlers.DiscountHandler
	Shopkeeper handlers.ShopkeeperHandler
}

func NewServer(
	Loyalty loyalty.Loyalty,
	Scheduler *scheduler.Manager,
	Register handlers.RegisterHandler,
	Discount handlers.DiscountHandler,
	Shopkeeper handlers.ShopkeeperHandler,
) *Server {
	return &Server{
		echo:       echo.New(),
		loyalty:    Loyalty,
		scheduler:  Scheduler,
		Register:   Register,
		Discount:   Discount,
		Shopkeeper: Shopkeeper,
	}
}

// Start registers the middlewares, routes and recurring jobs, launches the
// job scheduler and starts listening for connections on the provided
// address.
func (s *Server) Start(address string) error {
	s.registerMiddlewares()
	s.registerRoutes()

	if err := s.loyalty.RegisterJobs(context.Background(), s.scheduler); err != nil {
		return err
	}
	s.scheduler.Start()

	return s.echo.Start(address)
}

// Run starts the server by calling the Start method in a goroutine, then
// listens for an OS interrupt or SIGTERM to gracefully stop the scheduler
// and shut down the listener.
func (s *Server) Run(address string) error {

	go func() {
		if err := s.Start(address); err != nil {
			s.echo.Logger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	s.scheduler.Stop()
	s.loyalty.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

func (s *Server) registerMiddlewares() {
	s.echo.Use(middleware.Recover())
}

func (s *Server) registerRoutes() {

	s.echo.POST("/register", s.Register.Register)
	s.echo.GET("/discounts/active", s.Discount.ListActive)

	s.echo.POST("/api/shopkeeper", s.Shopkeeper.AddNew)
}
