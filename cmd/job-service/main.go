package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TriByteGenius/CareerCompass/internal/jobs"
	"github.com/TriByteGenius/CareerCompass/pkg/config"
	"github.com/TriByteGenius/CareerCompass/pkg/events"
	"github.com/TriByteGenius/CareerCompass/pkg/logging"
	"github.com/TriByteGenius/CareerCompass/pkg/postgres"
	"github.com/TriByteGenius/CareerCompass/pkg/rabbitmq"

	_ "github.com/TriByteGenius/CareerCompass/docs"
)

func main() {
	log := logging.Setup("job-service")
	log.Info("Starting job-service...")

	cfg := config.LoadForService("jobs")

	db, err := postgres.Connect(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to PostgreSQL")
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, "jobs"); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	rmqConn, err := rabbitmq.Connect(cfg.RabbitMQURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to RabbitMQ")
	}
	defer rmqConn.Close()

	publisher, err := rabbitmq.NewPublisher(rmqConn, cfg.Topology.JobEventsExchange)
	if err != nil {
		log.WithError(err).Fatal("Failed to create publisher")
	}
	defer publisher.Close()

	// Scraper-proposed postings arrive on the same exchange the service
	// publishes to; URL dedup keeps the republished events from looping.
	discovery := jobs.NewDiscovery(db, publisher)
	discoveryCfg := rabbitmq.ConsumerConfig{
		Exchange:     cfg.Topology.JobEventsExchange,
		QueueName:    cfg.Topology.JobDiscoveryQueue,
		DLQName:      "dlq." + cfg.Topology.JobDiscoveryQueue,
		RoutingKeys:  []string{events.KeyJobCreated},
		ConsumerName: "job-discovery",
	}
	if err := rabbitmq.SetupConsumer(rmqConn, discoveryCfg, discovery.HandleMessage); err != nil {
		log.WithError(err).Fatal("Failed to setup discovery consumer")
	}

	handler := jobs.NewJobHandler(db, publisher, cfg.ScraperURL)
	router := jobs.NewRouter(handler)

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
