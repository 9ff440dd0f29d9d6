package service

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// ProfileUpdatedMessage confirms a saved profile.
const ProfileUpdatedMessage = "Profile updated successfully"

// profileService implements ProfileService.
type profileService struct {
	profileRepo repository.ProfileRepository
	orderRepo   repository.OrderRepository
	logger      zerolog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(profileRepo repository.ProfileRepository, orderRepo repository.OrderRepository, logger zerolog.Logger) ProfileService {
	return &profileService{
		profileRepo: profileRepo,
		orderRepo:   orderRepo,
		logger:      logger.With().Str("service", "profile").Logger(),
	}
}

// Get returns the user's profile and order history, creating the profile on first visit.
func (s *profileService) Get(ctx context.Context, username string) (*ProfilePage, error) {
	profile, err := s.profile(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, profile)
}

// Update stores new default delivery details.
func (s *profileService) Update(ctx context.Context, username string, req model.ProfileRequest) (*ProfilePage, error) {
	profile, err := s.profile(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	req.ApplyTo(profile)
	if err := s.profileRepo.UpdateDefaults(ctx, profile); err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("failed to update profile")
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	page, err := s.page(ctx, profile)
	if err != nil {
		return nil, err
	}
	page.Message = ProfileUpdatedMessage
	return page, nil
}

// OrderHistory returns one of the user's past orders.
func (s *profileService) OrderHistory(ctx context.Context, username, orderNumber string) (*PastOrder, error) {
	profile, err := s.profile(ctx, username)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByNumber(ctx, orderNumber)
	if err != nil {
		s.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil || order.UserProfileID == nil || *order.UserProfileID != profile.ID {
		return nil, model.ErrOrderNotFound
	}

	return &PastOrder{
		Order: order,
		Message: fmt.Sprintf(
			"This is a past confirmation for order number %s. A confirmation email was sent on the order date.",
			orderNumber,
		),
	}, nil
}

func (s *profileService) profile(ctx context.Context, username string) (*model.UserProfile, error) {
	if username == "" {
		return nil, model.ErrUnauthorised
	}

	profile, err := s.profileRepo.GetOrCreate(ctx, username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", username).Msg("failed to get profile")
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) page(ctx context.Context, profile *model.UserProfile) (*ProfilePage, error) {
	orders, err := s.orderRepo.ListByProfile(ctx, profile.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("username", profile.Username).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return &ProfilePage{Profile: profile, Orders: orders}, nil
}
