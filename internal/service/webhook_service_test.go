package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/payment"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type webhookFixture struct {
	orders   *MockOrderRepository
	products *MockProductRepository
	profiles *MockProfileRepository
	events   *MockEvents
	notifier *MockNotifier
	service  WebhookService
}

func newWebhookFixture(cfg ReconcilerConfig) *webhookFixture {
	f := &webhookFixture{
		orders:   new(MockOrderRepository),
		products: new(MockProductRepository),
		profiles: new(MockProfileRepository),
		events:   new(MockEvents),
		notifier: new(MockNotifier),
	}
	f.service = NewWebhookService(
		f.orders, f.products, f.profiles, f.events, f.notifier, testRule(),
		metrics.NewRecorder(prometheus.NewRegistry()), cfg, zerolog.Nop(),
	)
	return f
}

func succeededEvent(metadata map[string]string) *payment.Event {
	return &payment.Event{
		ID:   "evt_1",
		Type: payment.EventPaymentSucceeded,
		Intent: &payment.PaymentIntent{
			ID:       "pi_123",
			Amount:   2750,
			Metadata: metadata,
			Shipping: payment.Shipping{
				Name:  "Ada Lovelace",
				Phone: "0123",
				Address: payment.Address{
					Line1:   "12 Analytical Row",
					City:    "London",
					Country: "GB",
				},
			},
			LatestCharge: &payment.Charge{
				ID:             "ch_1",
				BillingDetails: payment.BillingDetails{Email: "ada@example.com"},
			},
		},
	}
}

func (f *webhookFixture) deliver(event *payment.Event) {
	f.events.On("ParseEvent", []byte("payload"), "sig").Return(event, nil)
}

func TestWebhookService_InvalidSignature(t *testing.T) {
	f := newWebhookFixture(ReconcilerConfig{LookupAttempts: 5})
	f.events.On("ParseEvent", []byte("payload"), "bad").Return(nil, errors.New("signature mismatch"))

	result, err := f.service.Handle(context.Background(), []byte("payload"), "bad")
	assert.ErrorIs(t, err, model.ErrInvalidWebhook)
	assert.Nil(t, result)
}

func TestWebhookService_OtherEvents(t *testing.T) {
	tests := []struct {
		eventType string
		expected  string
	}{
		{eventType: payment.EventPaymentFailed, expected: "PAYMENT FAILED Webhook received: payment_intent.payment_failed"},
		{eventType: "charge.refunded", expected: "Unhandled webhook received: charge.refunded"},
	}

	for _, tt := range tests {
		t.Run(tt.eventType, func(t *testing.T) {
			f := newWebhookFixture(ReconcilerConfig{LookupAttempts: 5})
			f.deliver(&payment.Event{ID: "evt_2", Type: tt.eventType})

			result, err := f.service.Handle(context.Background(), []byte("payload"), "sig")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Message)
			f.orders.AssertNotCalled(t, "FindMatching")
			f.notifier.AssertNotCalled(t, "SendConfirmation")
		})
	}
}

func TestWebhookService_SucceededWithoutIntent(t *testing.T) {
	f := newWebhookFixture(ReconcilerConfig{LookupAttempts: 5})
	f.deliver(&payment.Event{ID: "evt_3", Type: payment.EventPaymentSucceeded})

	_, err := f.service.Handle(context.Background(), []byte("payload"), "sig")
	assert.ErrorIs(t, err, model.ErrInvalidWebhook)
}

func TestWebhookService_OrderAlreadyInDatabase(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(ReconcilerConfig{LookupAttempts: 5})
	f.deliver(succeededEvent(map[string]string{"bag": `{"7":1}`, "save_info": "false"}))

	existing := &model.Order{ID: 9, OrderNumber: "abc"}
	f.orders.On("FindMatching", ctx, mock.MatchedBy(func(m *model.OrderMatch) bool {
		return m.StripePID == "pi_123" &&
			m.OriginalBag == `{"7":1}` &&
			m.GrandTotal.Equal(decimal.RequireFromString("27.50")) &&
			m.Email == "ada@example.com" &&
			m.Postcode == nil && m.County == nil && m.StreetAddress2 == nil
	})).Return(existing, nil).Once()
	f.notifier.On("SendConfirmation", ctx, existing).Return(nil).Once()

	result, err := f.service.Handle(ctx, []byte("payload"), "sig")
	require.NoError(t, err)
	assert.Equal(t, "Webhook received: payment_intent.succeeded | SUCCESS: Verified order already in database", result.Message)

	f.orders.AssertNotCalled(t, "BeginTx")
	f.orders.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestWebhookService_OrderCommittedDuringRetryWindow(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(ReconcilerConfig{LookupAttempts: 5, LookupInterval: 10 * time.Millisecond})
	f.deliver(succeededEvent(map[string]string{"bag": `{"7":1}`}))

	existing := &model.Order{ID: 9, OrderNumber: "abc"}
	f.orders.On("FindMatching", ctx, mock.Anything).Return(nil, nil).Times(3)
	f.orders.On("FindMatching", ctx, mock.Anything).Return(existing, nil).Once()
	f.notifier.On("SendConfirmation", ctx, existing).Return(nil).Once()

	start := time.Now()
	result, err := f.service.Handle(ctx, []byte("payload"), "sig")
	require.NoError(t, err)

	assert.Contains(t, result.Message, "SUCCESS: Verified order already in database")
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	f.orders.AssertNumberOfCalls(t, "FindMatching", 4)
	f.orders.AssertNotCalled(t, "CreateOrder")
	f.notifier.AssertNumberOfCalls(t, "SendConfirmation", 1)
}

func TestWebhookService_CreatesOrderAfterRetries(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(ReconcilerConfig{LookupAttempts: 5})
	f.deliver(succeededEvent(map[string]string{"bag": `{"7":1}`, "save_info": "true", "username": "ada"}))
	tx := new(MockTx)

	profile := &model.UserProfile{ID: 5, Username: "ada"}
	f.profiles.On("GetByUsername", ctx, "ada").Return(profile, nil)
	f.profiles.On("UpdateDefaults", ctx, profile).Return(nil)
	f.orders.On("FindMatching", ctx, mock.Anything).Return(nil, nil).Times(5)
	f.products.On("GetByID", ctx, int64(7)).Return(tote(), nil)
	f.orders.On("BeginTx", ctx).Return(tx, nil)
	f.orders.On("CreateOrder", ctx, tx, mock.MatchedBy(func(o *model.Order) bool {
		return o.StripePID == "pi_123" && o.OriginalBag == `{"7":1}` && o.UserProfileID != nil && *o.UserProfileID == 5
	})).Run(func(args mock.Arguments) { args.Get(2).(*model.Order).ID = 11 }).Return(nil)
	f.orders.On("CreateLineItems", ctx, tx, mock.Anything).Return(nil)
	f.orders.On("SumLineItems", ctx, tx, int64(11)).Return(decimal.RequireFromString("25.00"), nil)
	f.orders.On("UpdateTotals", ctx, tx, mock.Anything).Return(nil)
	tx.On("Commit", ctx).Return(nil)
	f.notifier.On("SendConfirmation", ctx, mock.MatchedBy(func(o *model.Order) bool {
		return o.GrandTotal.Equal(decimal.RequireFromString("27.50"))
	})).Return(nil).Once()

	result, err := f.service.Handle(ctx, []byte("payload"), "sig")
	require.NoError(t, err)

	assert.Equal(t, "Webhook received: payment_intent.succeeded | SUCCESS: Created order in webhook", result.Message)
	f.orders.AssertNumberOfCalls(t, "FindMatching", 5)
	assert.True(t, tx.committed)
	require.NotNil(t, profile.DefaultTownOrCity)
	assert.Equal(t, "London", *profile.DefaultTownOrCity)
	f.notifier.AssertExpectations(t)
}

func TestWebhookService_RedeliveryIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(ReconcilerConfig{LookupAttempts: 2})
	f.deliver(succeededEvent(map[string]string{"bag": `{"7":1}`}))
	tx := new(MockTx)

	var created *model.Order
	f.orders.On("FindMatching", ctx, mock.Anything).Return(nil, nil).Times(2)
	f.products.On("GetByID", ctx, int64(7)).Return(tote(), nil)
	f.orders.On("BeginTx", ctx).Return(tx, nil).Once()
	f.orders.On("CreateOrder", ctx, tx, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(2).(*model.Order) }).
		Return(nil).Once()
	f.orders.On("CreateLineItems", ctx, tx, mock.Anything).Return(nil)
	f.orders.On("SumLineItems", ctx, tx, mock.Anything).Return(decimal.RequireFromString("25.00"), nil)
	f.orders.On("UpdateTotals", ctx, tx, mock.Anything).Return(nil)
	tx.On("Commit", ctx).Return(nil)
	f.notifier.On("SendConfirmation", ctx, mock.Anything).Return(nil)

	first, err := f.service.Handle(ctx, []byte("payload"), "sig")
	require.NoError(t, err)
	assert.Contains(t, first.Message, "Created order in webhook")

	f.orders.On("FindMatching", ctx, mock.Anything).Return(created, nil)

	second, err := f.service.Handle(ctx, []byte("payload"), "sig")
	require.NoError(t, err)
	assert.Contains(t, second.Message, "Verified order already in database")

	f.orders.AssertNumberOfCalls(t, "CreateOrder", 1)
	f.notifier.AssertNumberOfCalls(t, "SendConfirmation", 2)
}

func TestWebhookService_MissingProductFails(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(ReconcilerConfig{LookupAttempts: 1})
	f.deliver(succeededEvent(map[string]string{"bag": `{"404":1}`}))
	tx := new(MockTx)

	f.orders.On("FindMatching", ctx, mock.Anything).Return(nil, nil).Once()
	f.products.On("GetByID", ctx, int64(404)).Return(nil, nil)
	f.orders.On("BeginTx", ctx).Return(tx, nil)
	f.orders.On("CreateOrder", ctx, tx, mock.Anything).Return(nil)
	tx.On("Rollback", ctx).Return(nil)

	result, err := f.service.Handle(ctx, []byte("payload"), "sig")
	assert.ErrorIs(t, err, model.ErrReconciliation)
	assert.ErrorIs(t, err, model.ErrOrderIntegrity)
	require.NotNil(t, result)
	assert.Contains(t, result.Message, "Webhook received: payment_intent.succeeded | ERROR:")

	assert.True(t, tx.rolledBack)
	f.orders.AssertNotCalled(t, "CreateLineItems")
	f.notifier.AssertNotCalled(t, "SendConfirmation")
}

func TestWebhookService_InvalidSnapshotFails(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(ReconcilerConfig{LookupAttempts: 1})
	f.deliver(succeededEvent(map[string]string{"bag": `not json`}))
	f.orders.On("FindMatching", ctx, mock.Anything).Return(nil, nil).Once()

	_, err := f.service.Handle(ctx, []byte("payload"), "sig")
	assert.ErrorIs(t, err, model.ErrReconciliation)
	f.orders.AssertNotCalled(t, "BeginTx")
}

func TestWebhookService_FetchesChargeBillingDetails(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(ReconcilerConfig{LookupAttempts: 1})
	event := succeededEvent(map[string]string{"bag": `{"7":1}`})
	event.Intent.LatestCharge = nil
	event.Intent.LatestChargeID = "ch_9"
	f.deliver(event)

	existing := &model.Order{OrderNumber: "abc"}
	f.events.On("Charge", ctx, "ch_9").Return(&payment.Charge{
		ID:             "ch_9",
		BillingDetails: payment.BillingDetails{Email: "billing@example.com"},
	}, nil)
	f.orders.On("FindMatching", ctx, mock.MatchedBy(func(m *model.OrderMatch) bool {
		return m.Email == "billing@example.com"
	})).Return(existing, nil)
	f.notifier.On("SendConfirmation", ctx, existing).Return(nil)

	_, err := f.service.Handle(ctx, []byte("payload"), "sig")
	require.NoError(t, err)
	f.events.AssertExpectations(t)
}

func TestWebhookService_ChargeLookupFails(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(ReconcilerConfig{LookupAttempts: 1})
	event := succeededEvent(nil)
	event.Intent.LatestCharge = nil
	event.Intent.LatestChargeID = "ch_9"
	f.deliver(event)
	f.events.On("Charge", ctx, "ch_9").Return(nil, errors.New("stripe unavailable"))

	_, err := f.service.Handle(ctx, []byte("payload"), "sig")
	assert.ErrorIs(t, err, model.ErrReconciliation)
	f.orders.AssertNotCalled(t, "FindMatching")
}

func TestWebhookService_EmailFailureStillSucceeds(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(ReconcilerConfig{LookupAttempts: 1})
	f.deliver(succeededEvent(map[string]string{"bag": `{"7":1}`}))

	existing := &model.Order{OrderNumber: "abc"}
	f.orders.On("FindMatching", ctx, mock.Anything).Return(existing, nil)
	f.notifier.On("SendConfirmation", ctx, existing).Return(errors.New("broker down"))

	result, err := f.service.Handle(ctx, []byte("payload"), "sig")
	require.NoError(t, err)
	assert.Contains(t, result.Message, "SUCCESS")
}

func TestWebhookService_CancelledWhileWaiting(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newWebhookFixture(ReconcilerConfig{LookupAttempts: 5, LookupInterval: time.Hour})
	f.deliver(succeededEvent(map[string]string{"bag": `{"7":1}`}))
	f.orders.On("FindMatching", ctx, mock.Anything).
		Run(func(args mock.Arguments) { cancel() }).
		Return(nil, nil).Once()

	_, err := f.service.Handle(ctx, []byte("payload"), "sig")
	assert.ErrorIs(t, err, model.ErrReconciliation)
	assert.ErrorIs(t, err, context.Canceled)
	f.orders.AssertNotCalled(t, "BeginTx")
}

func TestWebhookService_LookupErrorFails(t *testing.T) {
	ctx := context.Background()
	f := newWebhookFixture(ReconcilerConfig{LookupAttempts: 5})
	f.deliver(succeededEvent(map[string]string{"bag": `{"7":1}`}))
	f.orders.On("FindMatching", ctx, mock.Anything).Return(nil, errors.New("connection reset")).Once()

	_, err := f.service.Handle(ctx, []byte("payload"), "sig")
	assert.ErrorIs(t, err, model.ErrReconciliation)
	f.orders.AssertNumberOfCalls(t, "FindMatching", 1)
}
