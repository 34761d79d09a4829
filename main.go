package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tokoshop/internal/config"

	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"
)

func main() {
	// --- Configuration ---
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer app.Close()

	// --- Background work ---
	go app.RunExpirySweep(ctx, cfg.ExpirySweepInterval)

	if app.MQ != nil {
		log.Println("Starting RabbitMQ consumer for order events...")
		messageHandler := func(msg amqp.Delivery) error {
			log.Printf("Received %s event (Tag: %d): %s", msg.RoutingKey, msg.DeliveryTag, string(msg.Body))
			return nil
		}
		if err := app.MQ.ConsumeOrderEvents(messageHandler); err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Fiber.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	stop()

	if err := app.Fiber.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

func mustPrice(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
