package service

import (
	"context"
	"sync"

	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/pricing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, query model.ProductQuery) ([]model.Product, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id int64) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) Categories(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockProductRepository) UpsertCategory(ctx context.Context, category *model.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockProductRepository) UpsertProduct(ctx context.Context, product *model.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) SyncSequences(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	// Return a MockTx interface value, not a pointer
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateLineItems(ctx context.Context, tx pgx.Tx, items []model.OrderLineItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *MockOrderRepository) LockByNumber(ctx context.Context, tx pgx.Tx, orderNumber string) (*model.Order, error) {
	args := m.Called(ctx, tx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetLineItem(ctx context.Context, tx pgx.Tx, orderID, itemID int64) (*model.OrderLineItem, error) {
	args := m.Called(ctx, tx, orderID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderLineItem), args.Error(1)
}

func (m *MockOrderRepository) UpdateLineItem(ctx context.Context, tx pgx.Tx, item *model.OrderLineItem) error {
	return m.Called(ctx, tx, item).Error(0)
}

func (m *MockOrderRepository) DeleteLineItem(ctx context.Context, tx pgx.Tx, orderID, itemID int64) (bool, error) {
	args := m.Called(ctx, tx, orderID, itemID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) SumLineItems(ctx context.Context, tx pgx.Tx, orderID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, tx, orderID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockOrderRepository) UpdateTotals(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	return m.Called(ctx, tx, order).Error(0)
}

func (m *MockOrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) FindMatching(ctx context.Context, match *model.OrderMatch) (*model.Order, error) {
	args := m.Called(ctx, match)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByProfile(ctx context.Context, profileID int64) ([]model.Order, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

// MockProfileRepository is a mock implementation of ProfileRepository.
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetOrCreate(ctx context.Context, username string) (*model.UserProfile, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockProfileRepository) GetByUsername(ctx context.Context, username string) (*model.UserProfile, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UserProfile), args.Error(1)
}

func (m *MockProfileRepository) UpdateDefaults(ctx context.Context, profile *model.UserProfile) error {
	return m.Called(ctx, profile).Error(0)
}

// MockIntents is a mock implementation of payment.Intents.
type MockIntents struct {
	mock.Mock
}

func (m *MockIntents) CreateIntent(ctx context.Context, amount int64, currency string) (*payment.Intent, error) {
	args := m.Called(ctx, amount, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockIntents) UpdateMetadata(ctx context.Context, intentID string, metadata map[string]string) error {
	return m.Called(ctx, intentID, metadata).Error(0)
}

// MockEvents is a mock implementation of payment.Events.
type MockEvents struct {
	mock.Mock
}

func (m *MockEvents) ParseEvent(payload []byte, signature string) (*payment.Event, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Event), args.Error(1)
}

func (m *MockEvents) Charge(ctx context.Context, chargeID string) (*payment.Charge, error) {
	args := m.Called(ctx, chargeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Charge), args.Error(1)
}

// MockNotifier is a mock implementation of notify.Notifier.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendConfirmation(ctx context.Context, order *model.Order) error {
	return m.Called(ctx, order).Error(0)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

// memorySessions is an in-memory session.Store.
type memorySessions struct {
	mu   sync.Mutex
	bags map[string][]byte
	err  error
}

func newMemorySessions() *memorySessions {
	return &memorySessions{bags: map[string][]byte{}}
}

func (s *memorySessions) LoadBag(ctx context.Context, sessionID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.bags[sessionID], nil
}

func (s *memorySessions) SaveBag(ctx context.Context, sessionID string, bag []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.bags[sessionID] = bag
	return nil
}

func (s *memorySessions) ClearBag(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bags, sessionID)
	return nil
}

func (s *memorySessions) bag(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.bags[sessionID])
}

func testRule() pricing.DeliveryRule {
	rule, err := pricing.NewDeliveryRule("50", "10")
	if err != nil {
		panic(err)
	}
	return rule
}

func tote() *model.Product {
	return &model.Product{ID: 7, Name: "Canvas Tote", Price: decimal.RequireFromString("25.00")}
}

func shirt() *model.Product {
	return &model.Product{ID: 3, Name: "Linen Shirt", Price: decimal.RequireFromString("12.50"), HasSizes: true}
}
