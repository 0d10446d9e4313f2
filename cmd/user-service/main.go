package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TriByteGenius/CareerCompass/internal/users"
	"github.com/TriByteGenius/CareerCompass/pkg/config"
	"github.com/TriByteGenius/CareerCompass/pkg/logging"
	"github.com/TriByteGenius/CareerCompass/pkg/postgres"
	"github.com/TriByteGenius/CareerCompass/pkg/rabbitmq"

	_ "github.com/TriByteGenius/CareerCompass/docs"
)

// @title           CareerCompass API
// @version         1.0
// @description     Job-board backend services that stay in sync through domain events over RabbitMQ.
// @BasePath        /
// @schemes         http
func main() {
	log := logging.Setup("user-service")
	log.Info("Starting user-service...")

	cfg := config.LoadForService("users")

	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to PostgreSQL")
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, "users"); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	rmqConn, err := rabbitmq.Connect(cfg.RabbitMQURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	defer rmqConn.Close()

	publisher, err := rabbitmq.NewPublisher(rmqConn, cfg.Topology.UserEventsExchange)
	if err != nil {
		log.WithError(err).Fatal("Failed to create publisher")
	}
	defer publisher.Close()

	handler := users.NewUserHandler(db, publisher)
	router := users.NewRouter(handler)

	srv := &http.Server{
		Addr:    ":" + cfg.APIPort,
		Handler: router,
	}

	go func() {
		log.WithField("port", cfg.APIPort).Info("Listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}
	log.Info("Server exited gracefully")
}
