package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"airport-booking/config"
	"airport-booking/internal/cache"
	"airport-booking/internal/database"
	"airport-booking/internal/handler"
	"airport-booking/internal/middleware"
	"airport-booking/internal/queue"
	"airport-booking/internal/repository"
	"airport-booking/internal/service"
	"airport-booking/internal/worker"
	"airport-booking/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	defer logger.Sync()
	log := logger.WithComponent("main")

	cfg := config.LoadConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	eventQueue, err := queue.New(cfg.Events, rdb)
	if err != nil {
		log.Fatal("Failed to initialize event queue", zap.Error(err), zap.String("broker", cfg.Events.Broker))
	}
	defer eventQueue.Close()

	// repositories
	flightRepository := repository.NewFlightRepository(pool)
	airplaneRepository := repository.NewAirplaneRepository(pool)
	orderRepository := repository.NewOrderRepository(pool)
	ticketRepository := repository.NewTicketRepository(pool)
	userRepository := repository.NewUserRepository(pool)

	// services
	issuer := service.NewTicketIssuer(flightRepository, ticketRepository)
	seatService := service.NewSeatService(flightRepository, ticketRepository)
	flightService := service.NewFlightService(pool, flightRepository, airplaneRepository, ticketRepository)
	orderService := service.NewOrderService(
		pool,
		orderRepository,
		ticketRepository,
		flightRepository,
		userRepository,
		issuer,
		cache.NewRedisIdempotencyStore(rdb, cfg.Booking.IdempotencyTTL),
		eventQueue,
	)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.AccessLog())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api/v1", middleware.JWTAuth(cfg.Auth.JWTSecret))
	handler.NewFlightHandler(flightService, seatService).RegisterRoutes(api, middleware.RequireAdmin())
	handler.NewOrderHandler(orderService).RegisterRoutes(api, middleware.RateLimit(cfg.RateLimit, rdb))

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return worker.NewOrderEventWorker(eventQueue, nil).Start(gctx)
	})

	g.Go(func() error {
		return worker.NewExpiryWorker(orderService, cfg.Booking).Start(gctx)
	})

	// 收到信號或任一元件失敗時，優雅關閉 HTTP server
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		return
	}
	log.Info("Server stopped")
}
