package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/bag"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// ReconcilerConfig bounds how long a webhook waits for the checkout to commit.
type ReconcilerConfig struct {
	LookupAttempts int
	LookupInterval time.Duration
}

// webhookService implements WebhookService.
type webhookService struct {
	writer      *orderWriter
	profileRepo repository.ProfileRepository
	events      payment.Events
	notifier    notify.Notifier
	recorder    *metrics.Recorder
	cfg         ReconcilerConfig
	logger      zerolog.Logger
}

// NewWebhookService creates a new webhook service.
func NewWebhookService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	profileRepo repository.ProfileRepository,
	events payment.Events,
	notifier notify.Notifier,
	rule pricing.DeliveryRule,
	recorder *metrics.Recorder,
	cfg ReconcilerConfig,
	logger zerolog.Logger,
) WebhookService {
	if cfg.LookupAttempts < 1 {
		cfg.LookupAttempts = 1
	}
	logger = logger.With().Str("service", "webhook").Logger()
	return &webhookService{
		writer: &orderWriter{
			orders:   orderRepo,
			products: productRepo,
			rule:     rule,
			logger:   logger,
		},
		profileRepo: profileRepo,
		events:      events,
		notifier:    notifier,
		recorder:    recorder,
		cfg:         cfg,
		logger:      logger,
	}
}

// Handle verifies the delivery and dispatches it by event type. Failures that
// the provider should retry wrap model.ErrReconciliation and still return a
// result describing the failure.
func (s *webhookService) Handle(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.events.ParseEvent(payload, signature)
	if err != nil {
		s.logger.Warn().Err(err).Msg("rejected webhook")
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidWebhook, err)
	}

	switch event.Type {
	case payment.EventPaymentSucceeded:
		return s.paymentSucceeded(ctx, event)
	case payment.EventPaymentFailed:
		s.recorder.WebhookEvent(event.Type, metrics.OutcomeFailed)
		return &WebhookResult{
			EventType: event.Type,
			Message:   fmt.Sprintf("PAYMENT FAILED Webhook received: %s", event.Type),
		}, nil
	default:
		s.recorder.WebhookEvent(event.Type, metrics.OutcomeUnhandled)
		return &WebhookResult{
			EventType: event.Type,
			Message:   fmt.Sprintf("Unhandled webhook received: %s", event.Type),
		}, nil
	}
}

func (s *webhookService) paymentSucceeded(ctx context.Context, event *payment.Event) (*WebhookResult, error) {
	intent := event.Intent
	if intent == nil || intent.ID == "" {
		return nil, fmt.Errorf("%w: event %s carries no payment intent", model.ErrInvalidWebhook, event.ID)
	}
	logger := s.logger.With().Str("stripe_pid", intent.ID).Str("event_id", event.ID).Logger()

	billing, err := s.billingDetails(ctx, intent)
	if err != nil {
		logger.Error().Err(err).Msg("failed to retrieve charge")
		return s.failed(event, err)
	}

	contact := intent.Contact(billing)
	profile := s.updateProfile(ctx, intent, contact, logger)

	match := &model.OrderMatch{
		ContactDetails: contact,
		GrandTotal:     pricing.FromMinorUnits(intent.Amount),
		OriginalBag:    intent.Bag(),
		StripePID:      intent.ID,
	}

	order, attempts, err := s.findOrder(ctx, match)
	s.recorder.LookupAttempts(attempts)
	if err != nil {
		logger.Error().Err(err).Int("attempts", attempts).Msg("failed to look up order")
		return s.failed(event, err)
	}

	if order != nil {
		s.recorder.WebhookEvent(event.Type, metrics.OutcomeExisting)
		s.sendConfirmation(ctx, order, logger)
		logger.Info().
			Str("order_number", order.OrderNumber).
			Int("attempts", attempts).
			Msg("verified order already in database")
		return &WebhookResult{
			EventType: event.Type,
			Message:   fmt.Sprintf("Webhook received: %s | SUCCESS: Verified order already in database", event.Type),
		}, nil
	}

	order, err = s.createOrder(ctx, match, profile)
	if err != nil {
		logger.Error().Err(err).Msg("failed to create order from webhook")
		return s.failed(event, err)
	}

	s.recorder.OrderPlaced(metrics.SourceWebhook)
	s.recorder.WebhookEvent(event.Type, metrics.OutcomeCreated)
	s.sendConfirmation(ctx, order, logger)
	logger.Info().Str("order_number", order.OrderNumber).Msg("created order in webhook")

	return &WebhookResult{
		EventType: event.Type,
		Message:   fmt.Sprintf("Webhook received: %s | SUCCESS: Created order in webhook", event.Type),
	}, nil
}

// billingDetails returns the billing details of the intent's latest charge.
func (s *webhookService) billingDetails(ctx context.Context, intent *payment.PaymentIntent) (payment.BillingDetails, error) {
	if intent.LatestCharge != nil {
		return intent.LatestCharge.BillingDetails, nil
	}
	if intent.LatestChargeID == "" {
		return payment.BillingDetails{}, nil
	}

	charge, err := s.events.Charge(ctx, intent.LatestChargeID)
	if err != nil {
		return payment.BillingDetails{}, err
	}
	return charge.BillingDetails, nil
}

// updateProfile returns the paying user's profile and stores the delivery
// details as defaults when requested. Guests yield nil.
func (s *webhookService) updateProfile(ctx context.Context, intent *payment.PaymentIntent, contact model.ContactDetails, logger zerolog.Logger) *model.UserProfile {
	username := intent.Username()
	if username == "" {
		return nil
	}

	profile, err := s.profileRepo.GetByUsername(ctx, username)
	if err != nil {
		logger.Warn().Err(err).Str("username", username).Msg("failed to load profile")
		return nil
	}
	if profile == nil {
		return nil
	}

	if intent.SaveInfo() {
		profile.SaveDefaults(contact)
		if err := s.profileRepo.UpdateDefaults(ctx, profile); err != nil {
			logger.Warn().Err(err).Str("username", username).Msg("failed to save delivery defaults")
		}
	}
	return profile
}

// findOrder polls for the order the checkout may still be committing. It makes
// at most LookupAttempts lookups, LookupInterval apart.
func (s *webhookService) findOrder(ctx context.Context, match *model.OrderMatch) (*model.Order, int, error) {
	for attempt := 1; ; attempt++ {
		order, err := s.writer.orders.FindMatching(ctx, match)
		if err != nil {
			return nil, attempt, err
		}
		if order != nil || attempt >= s.cfg.LookupAttempts {
			return order, attempt, nil
		}

		if err := sleep(ctx, s.cfg.LookupInterval); err != nil {
			return nil, attempt, err
		}
	}
}

func (s *webhookService) createOrder(ctx context.Context, match *model.OrderMatch, profile *model.UserProfile) (*model.Order, error) {
	state, err := bag.Decode([]byte(match.OriginalBag))
	if err != nil {
		return nil, err
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	if state.IsEmpty() {
		return nil, model.ErrEmptyBag
	}

	order := &model.Order{
		OrderNumber:    model.NewOrderNumber(),
		ContactDetails: match.ContactDetails,
		OriginalBag:    match.OriginalBag,
		StripePID:      match.StripePID,
	}
	if profile != nil {
		order.UserProfileID = &profile.ID
	}

	if err := s.writer.create(ctx, order, state); err != nil {
		return nil, err
	}
	return order, nil
}

// sendConfirmation emails the customer. Delivery problems are logged and do
// not fail the webhook.
func (s *webhookService) sendConfirmation(ctx context.Context, order *model.Order, logger zerolog.Logger) {
	if err := s.notifier.SendConfirmation(ctx, order); err != nil {
		logger.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to send confirmation email")
	}
}

func (s *webhookService) failed(event *payment.Event, err error) (*WebhookResult, error) {
	s.recorder.WebhookEvent(event.Type, metrics.OutcomeError)
	return &WebhookResult{
		EventType: event.Type,
		Message:   fmt.Sprintf("Webhook received: %s | ERROR: %v", event.Type, err),
	}, errors.Join(model.ErrReconciliation, err)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
