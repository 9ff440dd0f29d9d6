package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const profileColumns = `
	id, username, default_phone_number, default_street_address1, default_street_address2,
	default_town_or_city, default_county, default_postcode, default_country, created_at, updated_at`

// profileRepository implements the ProfileRepository interface using PostgreSQL.
type profileRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProfileRepository creates a new PostgreSQL-backed profile repository.
func NewProfileRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProfileRepository {
	return &profileRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "profile").Logger(),
	}
}

// GetOrCreate returns the profile for username, creating an empty one if needed.
func (r *profileRepository) GetOrCreate(ctx context.Context, username string) (*model.UserProfile, error) {
	query := `
		INSERT INTO user_profiles (username)
		VALUES ($1)
		ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
		RETURNING` + profileColumns

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		r.logger.Error().Err(err).Str("username", username).Msg("failed to get or create profile")
		return nil, fmt.Errorf("failed to get or create profile: %w", err)
	}
	return profile, nil
}

// GetByUsername retrieves a profile by username.
func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	query := `SELECT` + profileColumns + ` FROM user_profiles WHERE username = $1`

	profile, err := scanProfile(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("username", username).Msg("failed to query profile")
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return profile, nil
}

// UpdateDefaults stores the profile's default delivery information.
func (r *profileRepository) UpdateDefaults(ctx context.Context, p *model.UserProfile) error {
	query := `
		UPDATE user_profiles SET
			default_phone_number = $2,
			default_street_address1 = $3,
			default_street_address2 = $4,
			default_town_or_city = $5,
			default_county = $6,
			default_postcode = $7,
			default_country = $8,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		p.ID, p.DefaultPhoneNumber, p.DefaultStreetAddress1, p.DefaultStreetAddress2,
		p.DefaultTownOrCity, p.DefaultCounty, p.DefaultPostcode, p.DefaultCountry,
	).Scan(&p.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("username", p.Username).Msg("failed to update profile defaults")
		return fmt.Errorf("failed to update profile defaults: %w", err)
	}
	return nil
}

func scanProfile(row pgx.Row) (*model.UserProfile, error) {
	var p model.UserProfile
	err := row.Scan(
		&p.ID, &p.Username, &p.DefaultPhoneNumber, &p.DefaultStreetAddress1, &p.DefaultStreetAddress2,
		&p.DefaultTownOrCity, &p.DefaultCounty, &p.DefaultPostcode, &p.DefaultCountry,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
