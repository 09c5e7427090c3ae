package repository

import (
	"context"
	"fmt"
	"log/slog"

	"landcharges/assist/internal/domain"
)

type RegistrationPublisher interface {
	PublishNewRegistration(ctx context.Context, event domain.RegistrationEvent) error
}

// KafkaRegistrationPublisher announces each new registration, keyed by
// date/number.
type KafkaRegistrationPublisher struct {
	events EventPublisher
	log    *slog.Logger
}

func NewKafkaRegistrationPublisher(events EventPublisher, log *slog.Logger) *KafkaRegistrationPublisher {
	return &KafkaRegistrationPublisher{
		events: events,
		log:    log,
	}
}

func (p *KafkaRegistrationPublisher) PublishNewRegistration(ctx context.Context, event domain.RegistrationEvent) error {
	key := event.Registration.Date + "/" + event.Registration.Number.String()
	if err := p.events.PublishEvent(ctx, key, event); err != nil {
		return fmt.Errorf("failed to publish registration %s: %w", key, err)
	}
	p.log.Debug("published new registration", "registration", key, "topic", p.events.Topic())
	return nil
}

type NopRegistrationPublisher struct{}

func (NopRegistrationPublisher) PublishNewRegistration(context.Context, domain.RegistrationEvent) error {
	return nil
}

var (
	_ RegistrationPublisher = (*KafkaRegistrationPublisher)(nil)
	_ RegistrationPublisher = NopRegistrationPublisher{}
)
