package service

import (
	"context"
	"testing"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_Get(t *testing.T) {
	ctx := context.Background()
	profiles := new(MockProfileRepository)
	orders := new(MockOrderRepository)
	svc := NewProfileService(profiles, orders, zerolog.Nop())

	_, err := svc.Get(ctx, "")
	assert.ErrorIs(t, err, model.ErrUnauthorised)

	profile := &model.UserProfile{ID: 5, Username: "ada"}
	profiles.On("GetOrCreate", ctx, "ada").Return(profile, nil)
	orders.On("ListByProfile", ctx, int64(5)).Return([]model.Order{{OrderNumber: "abc"}}, nil)

	page, err := svc.Get(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, "ada", page.Profile.Username)
	assert.Len(t, page.Orders, 1)
	assert.Empty(t, page.Message)
}

func TestProfileService_Update(t *testing.T) {
	ctx := context.Background()
	profiles := new(MockProfileRepository)
	orders := new(MockOrderRepository)
	svc := NewProfileService(profiles, orders, zerolog.Nop())

	profile := &model.UserProfile{ID: 5, Username: "ada"}
	profiles.On("GetOrCreate", ctx, "ada").Return(profile, nil)
	profiles.On("UpdateDefaults", ctx, profile).Return(nil)
	orders.On("ListByProfile", ctx, int64(5)).Return([]model.Order{}, nil)

	page, err := svc.Update(ctx, "ada", model.ProfileRequest{DefaultTownOrCity: "London"})
	require.NoError(t, err)
	assert.Equal(t, ProfileUpdatedMessage, page.Message)
	require.NotNil(t, profile.DefaultTownOrCity)
	assert.Equal(t, "London", *profile.DefaultTownOrCity)

	_, err = svc.Update(ctx, "ada", model.ProfileRequest{DefaultPostcode: "123456789012345678901"})
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
	profiles.AssertNumberOfCalls(t, "UpdateDefaults", 1)
}

func TestProfileService_OrderHistory(t *testing.T) {
	ctx := context.Background()
	profiles := new(MockProfileRepository)
	orders := new(MockOrderRepository)
	svc := NewProfileService(profiles, orders, zerolog.Nop())

	own := int64(5)
	other := int64(6)
	profiles.On("GetOrCreate", ctx, "ada").Return(&model.UserProfile{ID: 5, Username: "ada"}, nil)
	orders.On("GetByNumber", ctx, "mine").Return(&model.Order{OrderNumber: "mine", UserProfileID: &own}, nil)
	orders.On("GetByNumber", ctx, "theirs").Return(&model.Order{OrderNumber: "theirs", UserProfileID: &other}, nil)
	orders.On("GetByNumber", ctx, "guest").Return(&model.Order{OrderNumber: "guest"}, nil)
	orders.On("GetByNumber", ctx, "missing").Return(nil, nil)

	past, err := svc.OrderHistory(ctx, "ada", "mine")
	require.NoError(t, err)
	assert.Equal(t, "This is a past confirmation for order number mine. A confirmation email was sent on the order date.", past.Message)

	for _, number := range []string{"theirs", "guest", "missing"} {
		_, err := svc.OrderHistory(ctx, "ada", number)
		assert.ErrorIs(t, err, model.ErrOrderNotFound, number)
	}

	_, err = svc.OrderHistory(ctx, "", "mine")
	assert.ErrorIs(t, err, model.ErrUnauthorised)
}
