package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avendar/flightdesk/config"
	"github.com/avendar/flightdesk/internal/bootstrap"
	"github.com/avendar/flightdesk/internal/cache"
	"github.com/avendar/flightdesk/internal/inventory"
	"github.com/avendar/flightdesk/internal/kafka"
	"github.com/avendar/flightdesk/internal/ledger"
	"github.com/avendar/flightdesk/internal/payment"
	"github.com/avendar/flightdesk/internal/repository"
	"github.com/avendar/flightdesk/internal/service/booking"
	"github.com/avendar/flightdesk/internal/service/flights"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	seatStore := inventory.NewPGStore(pool)
	bookingLedger := ledger.NewPGLedger(pool)
	flightRepo := repository.NewFlightRepository(pool)
	gateway := payment.NewKafkaGateway(producer, cfg.Kafka.PaymentsTopic)

	flightService := flights.NewFlightService(flightRepo, redisCache, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)
	bookingService := booking.NewBookingService(
		seatStore,
		bookingLedger,
		redisCache,
		producer,
		gateway,
		cfg.Kafka.BookingTopic,
		time.Duration(cfg.Booking.HoldTTLMinutes)*time.Minute,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithRetryPolicy(cfg.Booking.InventoryRetries, time.Duration(cfg.Booking.RetryBackoffMillis)*time.Millisecond),
	)

	if err := bootstrap.Run(ctx, cfg, flightService, bookingService); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
