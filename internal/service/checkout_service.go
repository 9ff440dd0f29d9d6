package service

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/bag"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/session"

	"github.com/rs/zerolog"
)

// MissingPublicKeyWarning is shown when the checkout cannot render card fields.
const MissingPublicKeyWarning = "Stripe public key is missing. Did you forget to set it in your environment?"

// CheckoutConfig holds the provider settings the checkout needs.
type CheckoutConfig struct {
	PublicKey string
	Currency  string
}

// checkoutService implements CheckoutService.
type checkoutService struct {
	writer      *orderWriter
	orderRepo   repository.OrderRepository
	profileRepo repository.ProfileRepository
	sessions    session.Store
	intents     payment.Intents
	recorder    *metrics.Recorder
	cfg         CheckoutConfig
	logger      zerolog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	profileRepo repository.ProfileRepository,
	sessions session.Store,
	intents payment.Intents,
	rule pricing.DeliveryRule,
	recorder *metrics.Recorder,
	cfg CheckoutConfig,
	logger zerolog.Logger,
) CheckoutService {
	logger = logger.With().Str("service", "checkout").Logger()
	return &checkoutService{
		writer: &orderWriter{
			orders:   orderRepo,
			products: productRepo,
			rule:     rule,
			logger:   logger,
		},
		orderRepo:   orderRepo,
		profileRepo: profileRepo,
		sessions:    sessions,
		intents:     intents,
		recorder:    recorder,
		cfg:         cfg,
		logger:      logger,
	}
}

// Prepare requires a non-empty bag and creates a charge intent for its grand total.
func (s *checkoutService) Prepare(ctx context.Context, sessionID, username string) (*CheckoutPage, error) {
	state, err := loadBag(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, err
	}
	if state.IsEmpty() {
		return nil, model.ErrEmptyBag
	}

	contents, err := bag.Summarize(ctx, state, s.writer.products, s.writer.rule)
	if err != nil {
		return nil, err
	}

	intent, err := s.intents.CreateIntent(ctx, pricing.ToMinorUnits(contents.GrandTotal), s.cfg.Currency)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to create payment intent")
		return nil, fmt.Errorf("%w: %v", model.ErrPaymentProvider, err)
	}

	page := &CheckoutPage{
		ClientSecret: intent.ClientSecret,
		PublicKey:    s.cfg.PublicKey,
		Bag:          contents,
	}
	if s.cfg.PublicKey == "" {
		page.Warnings = append(page.Warnings, MissingPublicKeyWarning)
	}

	if username != "" {
		profile, err := s.profileRepo.GetByUsername(ctx, username)
		if err != nil {
			s.logger.Warn().Err(err).Str("username", username).Msg("failed to load profile for checkout form")
		} else if profile != nil {
			page.Form = profile.CheckoutForm("", "")
		}
	}

	s.logger.Debug().
		Str("session_id", sessionID).
		Str("stripe_pid", intent.ID).
		Int64("amount", intent.Amount).
		Msg("checkout prepared")

	return page, nil
}

// CacheData writes the bag snapshot, save-info flag and username onto the intent
// so the webhook can rebuild the order if the browser never submits.
func (s *checkoutService) CacheData(ctx context.Context, sessionID, username string, req model.CacheCheckoutRequest) error {
	intentID, err := payment.IntentIDFromClientSecret(req.ClientSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrPaymentProvider, err)
	}

	state, err := loadBag(ctx, s.sessions, sessionID)
	if err != nil {
		return err
	}
	snapshot, err := state.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode bag: %w", err)
	}

	if err := s.intents.UpdateMetadata(ctx, intentID, payment.CheckoutMetadata(snapshot, req.SaveInfo, username)); err != nil {
		s.logger.Error().Err(err).Str("stripe_pid", intentID).Msg("failed to cache checkout data")
		return fmt.Errorf("%w: %v", model.ErrPaymentProvider, err)
	}
	return nil
}

// Submit validates the form and persists the order. The bag is cleared only
// after the order is committed.
func (s *checkoutService) Submit(ctx context.Context, sessionID, username string, req model.CheckoutRequest) (*model.Order, error) {
	if err := req.CheckoutForm.Validate(); err != nil {
		return nil, err
	}

	intentID, err := payment.IntentIDFromClientSecret(req.ClientSecret)
	if err != nil {
		return nil, &model.ValidationError{Fields: map[string]string{"client_secret": "This field is required."}}
	}

	state, err := loadBag(ctx, s.sessions, sessionID)
	if err != nil {
		return nil, err
	}
	if state.IsEmpty() {
		return nil, model.ErrEmptyBag
	}
	snapshot, err := state.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode bag: %w", err)
	}

	var profile *model.UserProfile
	if username != "" {
		profile, err = s.profileRepo.GetOrCreate(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}
	}

	order := &model.Order{
		OrderNumber:    model.NewOrderNumber(),
		ContactDetails: req.CheckoutForm.Contact(),
		OriginalBag:    snapshot,
		StripePID:      intentID,
	}
	if profile != nil {
		order.UserProfileID = &profile.ID
	}

	if err := s.writer.create(ctx, order, state); err != nil {
		if errors.Is(err, model.ErrOrderIntegrity) {
			s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("checkout referenced a missing product")
		}
		return nil, err
	}
	s.recorder.OrderPlaced(metrics.SourceCheckout)

	if profile != nil && req.SaveInfo {
		profile.SaveDefaults(order.ContactDetails)
		if err := s.profileRepo.UpdateDefaults(ctx, profile); err != nil {
			s.logger.Error().Err(err).Str("username", username).Msg("failed to save delivery defaults")
		}
	}

	if err := s.sessions.ClearBag(ctx, sessionID); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to clear bag")
	}

	s.logger.Info().
		Str("order_number", order.OrderNumber).
		Str("stripe_pid", order.StripePID).
		Str("grand_total", order.GrandTotal.StringFixed(2)).
		Msg("order placed")

	return order, nil
}

// Success retrieves a placed order by number.
func (s *checkoutService) Success(ctx context.Context, orderNumber string) (*model.Order, error) {
	order, err := s.orderRepo.GetByNumber(ctx, orderNumber)
	if err != nil {
		s.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	return order, nil
}
