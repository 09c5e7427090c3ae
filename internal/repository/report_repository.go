package repository

import (
	"context"
	"fmt"
	"log/slog"

	"landcharges/assist/internal/domain"
	"landcharges/assist/internal/repository/kafka"
)

type ReportRepository interface {
	SendReport(ctx context.Context, report domain.RunReport) error
	SendLog(ctx context.Context, logEntry domain.LogEntry) error
}

// EventPublisher is satisfied by *kafka.Producer.
type EventPublisher interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
	Topic() string
}

type KafkaReportRepository struct {
	reports EventPublisher
	logs    EventPublisher
	log     *slog.Logger
}

func NewKafkaReportRepository(reports, logs EventPublisher, log *slog.Logger) *KafkaReportRepository {
	return &KafkaReportRepository{
		reports: reports,
		logs:    logs,
		log:     log,
	}
}

func (r *KafkaReportRepository) SendReport(ctx context.Context, report domain.RunReport) error {
	if err := r.reports.PublishEvent(ctx, report.RunID, report); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}
	r.log.Info("sent run report", "run_id", report.RunID, "topic", r.reports.Topic(), "status", report.Status)
	return nil
}

func (r *KafkaReportRepository) SendLog(ctx context.Context, logEntry domain.LogEntry) error {
	if err := r.logs.PublishEvent(ctx, logEntry.RunID, logEntry); err != nil {
		return fmt.Errorf("failed to publish log: %w", err)
	}
	r.log.Debug("sent run log", "run_id", logEntry.RunID, "step", logEntry.Step, "topic", r.logs.Topic())
	return nil
}

// NopReportRepository drops everything. Used when Kafka is disabled.
type NopReportRepository struct{}

func (NopReportRepository) SendReport(context.Context, domain.RunReport) error { return nil }

func (NopReportRepository) SendLog(context.Context, domain.LogEntry) error { return nil }

var (
	_ ReportRepository = (*KafkaReportRepository)(nil)
	_ ReportRepository = NopReportRepository{}
	_ EventPublisher   = (*kafka.Producer)(nil)
)
