package handler

import (
	"context"
	"net/http"

	"storefront/internal/bag"
	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/mock"
)

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, query model.ProductQuery) ([]model.Product, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) Get(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) Categories(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

// MockBagService is a mock implementation of BagService.
type MockBagService struct {
	mock.Mock
}

func (m *MockBagService) Contents(ctx context.Context, sessionID string) (*bag.Contents, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bag.Contents), args.Error(1)
}

func (m *MockBagService) Add(ctx context.Context, sessionID string, productID int64, req model.BagItemRequest) (string, error) {
	args := m.Called(ctx, sessionID, productID, req)
	return args.String(0), args.Error(1)
}

func (m *MockBagService) Adjust(ctx context.Context, sessionID string, productID int64, req model.BagItemRequest) (string, error) {
	args := m.Called(ctx, sessionID, productID, req)
	return args.String(0), args.Error(1)
}

func (m *MockBagService) Remove(ctx context.Context, sessionID string, productID int64, size string) (string, error) {
	args := m.Called(ctx, sessionID, productID, size)
	return args.String(0), args.Error(1)
}

// MockCheckoutService is a mock implementation of CheckoutService.
type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Prepare(ctx context.Context, sessionID, username string) (*service.CheckoutPage, error) {
	args := m.Called(ctx, sessionID, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CheckoutPage), args.Error(1)
}

func (m *MockCheckoutService) CacheData(ctx context.Context, sessionID, username string, req model.CacheCheckoutRequest) error {
	args := m.Called(ctx, sessionID, username, req)
	return args.Error(0)
}

func (m *MockCheckoutService) Submit(ctx context.Context, sessionID, username string, req model.CheckoutRequest) (*model.Order, error) {
	args := m.Called(ctx, sessionID, username, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockCheckoutService) Success(ctx context.Context, orderNumber string) (*model.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

// MockWebhookService is a mock implementation of WebhookService.
type MockWebhookService struct {
	mock.Mock
}

func (m *MockWebhookService) Handle(ctx context.Context, payload []byte, signature string) (*service.WebhookResult, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WebhookResult), args.Error(1)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) UpdateLineItem(ctx context.Context, orderNumber string, itemID int64, quantity int) (*model.Order, error) {
	args := m.Called(ctx, orderNumber, itemID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) DeleteLineItem(ctx context.Context, orderNumber string, itemID int64) (*model.Order, error) {
	args := m.Called(ctx, orderNumber, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

// MockProfileService is a mock implementation of ProfileService.
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Get(ctx context.Context, username string) (*service.ProfilePage, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProfilePage), args.Error(1)
}

func (m *MockProfileService) Update(ctx context.Context, username string, req model.ProfileRequest) (*service.ProfilePage, error) {
	args := m.Called(ctx, username, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProfilePage), args.Error(1)
}

func (m *MockProfileService) OrderHistory(ctx context.Context, username, orderNumber string) (*service.PastOrder, error) {
	args := m.Called(ctx, username, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PastOrder), args.Error(1)
}

const testSession = "5b0c3c1e-8d0a-4f59-9a3e-2b6c0f1d7e42"

// withURLParams sets chi route parameters on a request.
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// withSession attaches the test session id and, when non-empty, a username.
func withSession(r *http.Request, username string) *http.Request {
	ctx := session.WithID(r.Context(), testSession)
	if username != "" {
		ctx = session.WithUsername(ctx, username)
	}
	return r.WithContext(ctx)
}
