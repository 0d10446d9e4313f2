package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TriByteGenius/CareerCompass/internal/userjob"
	"github.com/TriByteGenius/CareerCompass/pkg/config"
	"github.com/TriByteGenius/CareerCompass/pkg/logging"
	"github.com/TriByteGenius/CareerCompass/pkg/postgres"
	"github.com/TriByteGenius/CareerCompass/pkg/rabbitmq"

	_ "github.com/TriByteGenius/CareerCompass/docs"
)

func main() {
	log := logging.Setup("userjob-service")
	log.Info("Starting userjob-service...")

	cfg := config.LoadForService("userjob")

	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to PostgreSQL")
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, "userjob"); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	rmqConn, err := rabbitmq.Connect(cfg.RabbitMQURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	defer rmqConn.Close()

	// One durable queue per upstream entity kind; the queues are consumed
	// independently, so user and job events carry no ordering between them.
	replicator := userjob.NewReplicator(db)

	userCfg := rabbitmq.ConsumerConfig{
		Exchange:     cfg.Topology.UserEventsExchange,
		QueueName:    cfg.Topology.UserJobUserQueue,
		DLQName:      "dlq." + cfg.Topology.UserJobUserQueue,
		RoutingKeys:  []string{cfg.Topology.UserEventsPattern},
		ConsumerName: "userjob-user-replicator",
	}
	if err := rabbitmq.SetupConsumer(rmqConn, userCfg, replicator.HandleUserEvent); err != nil {
		log.WithError(err).Fatal("Failed to setup user events consumer")
	}

	jobCfg := rabbitmq.ConsumerConfig{
		Exchange:     cfg.Topology.JobEventsExchange,
		QueueName:    cfg.Topology.UserJobJobQueue,
		DLQName:      "dlq." + cfg.Topology.UserJobJobQueue,
		RoutingKeys:  []string{cfg.Topology.JobEventsPattern},
		ConsumerName: "userjob-job-replicator",
	}
	if err := rabbitmq.SetupConsumer(rmqConn, jobCfg, replicator.HandleJobEvent); err != nil {
		log.WithError(err).Fatal("Failed to setup job events consumer")
	}

	handler := userjob.NewFavoriteHandler(db)
	router := userjob.NewRouter(handler)

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
