package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/avendar/flightdesk/config"
	"github.com/avendar/flightdesk/internal/cache"
	"github.com/avendar/flightdesk/internal/email"
	"github.com/avendar/flightdesk/internal/inventory"
	"github.com/avendar/flightdesk/internal/kafka"
	"github.com/avendar/flightdesk/internal/ledger"
	"github.com/avendar/flightdesk/internal/service/booking"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
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

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.FlightsCacheTTL)*time.Second)

	seatStore := inventory.NewPGStore(pool)
	bookingLedger := ledger.NewPGLedger(pool)
	bookingService := booking.NewBookingService(
		seatStore,
		bookingLedger,
		redisCache,
		producer,
		nil,
		cfg.Kafka.BookingTopic,
		time.Duration(cfg.Booking.HoldTTLMinutes)*time.Minute,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithRetryPolicy(cfg.Booking.InventoryRetries, time.Duration(cfg.Booking.RetryBackoffMillis)*time.Millisecond),
	)

	// Payment results from the external collaborator.
	paymentConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.PaymentResultsTopic)
	defer paymentConsumer.Close()

	go func() {
		if err := paymentConsumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var result kafka.PaymentResult
			if err := json.Unmarshal(msg.Value, &result); err != nil {
				log.Printf("decode payment result: %v", err)
				return nil
			}
			if err := bookingService.OnPaymentResult(ctx, result.Reference, result.Success, result.TransactionID); err != nil {
				log.Printf("apply payment result for %s: %v", result.Reference, err)
			}
			return nil
		}); err != nil {
			log.Printf("payment consumer stopped: %v", err)
		}
	}()

	// Customer notifications.
	notifyConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID+"-notify", cfg.Kafka.NotificationsTopic)
	defer notifyConsumer.Close()

	emailSender := email.NewSender()

	go func() {
		if err := notifyConsumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.BookingEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode event: %v", err)
				return nil
			}
			return emailSender.Send(ctx, event)
		}); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	expireTicker := time.NewTicker(time.Duration(cfg.Worker.ExpirationSweepMinutes) * time.Minute)
	defer expireTicker.Stop()
	reconcileTicker := time.NewTicker(time.Duration(cfg.Worker.ReconcileSweepMinutes) * time.Minute)
	defer reconcileTicker.Stop()

	for {
		select {
		case <-expireTicker.C:
			expired, err := bookingService.ExpirePendingBookings(ctx)
			if err != nil {
				log.Printf("expire bookings: %v", err)
				continue
			}
			if len(expired) > 0 {
				log.Printf("expired %d bookings", len(expired))
			}
		case <-reconcileTicker.C:
			fixed, err := bookingService.ReconcileFlagged(ctx)
			if err != nil {
				log.Printf("reconcile bookings: %v", err)
				continue
			}
			if fixed > 0 {
				log.Printf("reconciled %d bookings", fixed)
			}
		case <-ctx.Done():
			log.Printf("shutting down")
			return
		}
	}
}
