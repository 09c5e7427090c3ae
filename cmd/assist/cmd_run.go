package main

import (
	"github.com/spf13/cobra"

	"landcharges/assist/internal/fixtures"
	"landcharges/assist/internal/landcharges"
	"landcharges/assist/internal/lib/logger/sl"
	"landcharges/assist/internal/repository"
	"landcharges/assist/internal/repository/kafka"
	"landcharges/assist/internal/scenario"
)

var (
	initialPayloadPath string
	rectifyPayloadPath string
	skipReset          bool
)

// runCmd executes the rectification scenario
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Register a land charge, rectify it and print the new registrations",
	Long: `Runs the type 1 rectification scenario against LAND_CHARGES_URL:
  1. Reset fixture data (clear command, then seed command)
  2. POST /registrations with the initial registration
  3. PUT /registrations/{date}/{number} with the rectification
  4. Print both responses and each rectified date and number`,
	Args: cobra.NoArgs,
	RunE: runScenario,
}

func init() {
	runCmd.Flags().StringVar(&initialPayloadPath, "initial", "", "JSON file replacing the built-in initial registration")
	runCmd.Flags().StringVar(&rectifyPayloadPath, "rectify", "", "JSON file replacing the built-in rectification")
	runCmd.Flags().BoolVar(&skipReset, "skip-reset", false, "Do not run the fixture reset commands")
}

func runScenario(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	client, err := landcharges.NewClient(cfg.Endpoints.LandCharges, cfg.HTTPTimeout())
	if err != nil {
		return err
	}
	logger.Debug("land charges client ready", "base_url", client.BaseURL())

	payloads, err := loadPayloads()
	if err != nil {
		return err
	}

	reports, closeReports := newReportRepository()
	defer closeReports()

	resetter := newResetter(cmd)

	runner := scenario.NewRunner(
		client,
		resetter,
		reports,
		cmd.OutOrStdout(),
		logger,
		scenario.Config{
			Name:      scenario.Type1RectificationName,
			Payloads:  payloads,
			SkipReset: skipReset || cfg.Fixtures.Skip,
		},
	)

	_, err = runner.Run(ctx)
	return err
}

func loadPayloads() (scenario.Payloads, error) {
	payloads, err := scenario.Type1Rectification()
	if err != nil {
		return scenario.Payloads{}, err
	}

	if initialPayloadPath != "" {
		if payloads.Initial, err = scenario.LoadRegistrationFile(initialPayloadPath); err != nil {
			return scenario.Payloads{}, err
		}
	}

	if rectifyPayloadPath != "" {
		if payloads.Rectification, err = scenario.LoadRegistrationFile(rectifyPayloadPath); err != nil {
			return scenario.Payloads{}, err
		}
	}

	return payloads, nil
}

func newResetter(cmd *cobra.Command) *fixtures.Resetter {
	return fixtures.NewResetter(
		fixtures.ShellRunner{},
		fixtures.Config{
			ClearCommand: cfg.Fixtures.ClearCommand,
			SeedCommand:  cfg.Fixtures.SeedCommand,
			Strict:       cfg.Fixtures.Strict,
		},
		cmd.OutOrStdout(),
		logger,
	)
}

func newReportRepository() (repository.ReportRepository, func()) {
	if !cfg.Kafka.Enabled {
		return repository.NopReportRepository{}, func() {}
	}

	logger.Info("initializing Kafka report producers", "brokers", cfg.Kafka.Brokers)

	reportsProducer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Reports)
	logsProducer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.Logs)

	closeAll := func() {
		if err := reportsProducer.Close(); err != nil {
			logger.Warn("failed to close reports producer", sl.Err(err))
		}
		if err := logsProducer.Close(); err != nil {
			logger.Warn("failed to close logs producer", sl.Err(err))
		}
	}

	return repository.NewKafkaReportRepository(reportsProducer, logsProducer, logger), closeAll
}
