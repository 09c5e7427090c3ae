package main

import (
	"context"
	"errors"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	apihttp "landcharges/assist/internal/api/http"
	"landcharges/assist/internal/lib/logger/sl"
	"landcharges/assist/internal/registry"
	"landcharges/assist/internal/repository"
	"landcharges/assist/internal/repository/kafka"
)

var stubPort string

// stubCmd serves an in-memory land charges API for local runs
var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Serve an in-memory land charges registration API",
	Long: `Starts a stand-in for the land charges API that accepts
POST /registrations and PUT /registrations/{date}/{number}, allocating
numbers from 1000 per day. DELETE /registrations clears it and
POST /searches looks registrations up by party name. With kafka.enabled
every new registration is published to kafka.topics.registrations.`,
	Args: cobra.NoArgs,
	RunE: runStub,
}

func init() {
	stubCmd.Flags().StringVar(&stubPort, "port", "", "Port to listen on (default stub.port)")
}

func runStub(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	port := stubPort
	if port == "" {
		port = cfg.Stub.Port
	}

	if cfg.Env != envLocal && !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	var publisher apihttp.RegistrationPublisher
	if cfg.Kafka.Enabled {
		logger.Info("publishing new registrations", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topics.Registrations)

		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Registrations)
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Warn("failed to close registrations producer", sl.Err(err))
			}
		}()
		publisher = repository.NewKafkaRegistrationPublisher(producer, logger)
	}

	router := apihttp.NewStubRouter(logger, registry.NewMemoryRegister(time.Now), publisher)

	httpServer := &nethttp.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting land charges stub", "port", port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down stub...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", sl.Err(err))
		return err
	}

	logger.Info("stub stopped gracefully")
	return nil
}
