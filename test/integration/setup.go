package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/pricing"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a migrated PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	if err := database.Migrate(connStr, zerolog.Nop()); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedCatalog inserts a small catalogue and returns the products keyed by name.
func SeedCatalog(t *testing.T, pool *pgxpool.Pool) map[string]model.Product {
	t.Helper()

	ctx := context.Background()
	repo := repository.NewProductRepository(pool, zerolog.Nop())

	friendly := func(s string) *string { return &s }
	bags := &model.Category{Name: "bags", FriendlyName: friendly("Bags")}
	clothing := &model.Category{Name: "clothing", FriendlyName: friendly("Clothing")}
	for _, c := range []*model.Category{bags, clothing} {
		if err := repo.UpsertCategory(ctx, c); err != nil {
			t.Fatalf("failed to seed category %s: %v", c.Name, err)
		}
	}

	products := []*model.Product{
		{CategoryID: &bags.ID, Name: "Canvas Tote", Description: "Heavy cotton tote", Price: decimal.RequireFromString("25.00")},
		{CategoryID: &clothing.ID, Name: "Linen Shirt", Description: "Washed linen", HasSizes: true, Price: decimal.RequireFromString("12.50")},
		{CategoryID: &bags.ID, Name: "Weekender", Description: "Waxed canvas holdall", Price: decimal.RequireFromString("60.00")},
	}

	byName := map[string]model.Product{}
	for _, p := range products {
		if err := repo.UpsertProduct(ctx, p); err != nil {
			t.Fatalf("failed to seed product %s: %v", p.Name, err)
		}
		byName[p.Name] = *p
	}
	return byName
}

// CleanupDB cleans all order and profile data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_line_items", "orders", "user_profiles"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// CountOrders returns the number of persisted orders.
func CountOrders(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()

	var n int
	if err := pool.QueryRow(context.Background(), "SELECT count(*) FROM orders").Scan(&n); err != nil {
		t.Fatalf("failed to count orders: %v", err)
	}
	return n
}

const testWebhookSecret = "whsec_integration"

// FakeStripe is an in-process stand-in for the payment provider API.
type FakeStripe struct {
	Server *httptest.Server
	Client *payment.Stripe

	mu       sync.Mutex
	amounts  map[string]int64
	metadata map[string]map[string]string
	next     int
}

// NewFakeStripe starts a fake provider and a client pointed at it.
func NewFakeStripe(t *testing.T) *FakeStripe {
	t.Helper()

	f := &FakeStripe{
		amounts:  map[string]int64{},
		metadata: map[string]map[string]string{},
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL:               stripe.String(f.Server.URL),
		HTTPClient:        f.Server.Client(),
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	})
	f.Client = payment.NewStripe("sk_test_integration", testWebhookSecret, backend, zerolog.Nop())
	return f
}

func (f *FakeStripe) serve(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/payment_intents":
		f.next++
		id := fmt.Sprintf("pi_%d", f.next)
		var amount int64
		fmt.Sscan(r.PostForm.Get("amount"), &amount)
		f.amounts[id] = amount
		f.metadata[id] = map[string]string{}
		json.NewEncoder(w).Encode(map[string]any{
			"id":            id,
			"object":        "payment_intent",
			"client_secret": id + "_secret_test",
			"amount":        amount,
			"currency":      r.PostForm.Get("currency"),
		})

	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/v1/payment_intents/"):
		id := strings.TrimPrefix(r.URL.Path, "/v1/payment_intents/")
		md, ok := f.metadata[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such payment_intent"}}`))
			return
		}
		for key, values := range r.PostForm {
			if strings.HasPrefix(key, "metadata[") {
				md[strings.TrimSuffix(strings.TrimPrefix(key, "metadata["), "]")] = values[0]
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"id": id, "object": "payment_intent", "metadata": md})

	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"unknown route"}}`))
	}
}

// Intent returns the amount and metadata recorded for a payment intent.
func (f *FakeStripe) Intent(id string) (int64, map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	md := map[string]string{}
	for k, v := range f.metadata[id] {
		md[k] = v
	}
	return f.amounts[id], md
}

// SucceededEvent builds a signed payment_intent.succeeded delivery for the
// recorded intent, shipping to contact.
func (f *FakeStripe) SucceededEvent(t *testing.T, intentID string, contact model.CheckoutForm) (string, []byte) {
	t.Helper()

	amount, md := f.Intent(intentID)
	body, err := json.Marshal(map[string]any{
		"id":          "evt_" + intentID,
		"object":      "event",
		"type":        payment.EventPaymentSucceeded,
		"api_version": stripe.APIVersion,
		"data": map[string]any{
			"object": map[string]any{
				"id":       intentID,
				"object":   "payment_intent",
				"amount":   amount,
				"metadata": md,
				"shipping": map[string]any{
					"name":  contact.FullName,
					"phone": contact.PhoneNumber,
					"address": map[string]any{
						"line1":       contact.StreetAddress1,
						"line2":       contact.StreetAddress2,
						"city":        contact.TownOrCity,
						"state":       contact.County,
						"postal_code": contact.Postcode,
						"country":     contact.Country,
					},
				},
				"latest_charge": map[string]any{
					"id":              "ch_" + intentID,
					"object":          "charge",
					"amount":          amount,
					"billing_details": map[string]any{"email": contact.Email, "name": contact.FullName},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("failed to encode event: %v", err)
	}

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   body,
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})
	return signed.Header, signed.Payload
}

// RecordingNotifier counts confirmation emails.
type RecordingNotifier struct {
	mu     sync.Mutex
	orders []string
}

// SendConfirmation records the order number.
func (n *RecordingNotifier) SendConfirmation(ctx context.Context, order *model.Order) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, order.OrderNumber)
	return nil
}

// Sent returns the order numbers confirmed so far.
func (n *RecordingNotifier) Sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.orders...)
}

// TestApp is the full HTTP stack wired to a real database and in-process fakes.
type TestApp struct {
	Server   *httptest.Server
	Stripe   *FakeStripe
	Notifier *RecordingNotifier
	Registry *prometheus.Registry
}

const (
	testAdminKey   = "integration-admin-key"
	testUserHeader = "X-Authenticated-User"
)

// NewTestApp starts the storefront router backed by pool.
func NewTestApp(t *testing.T, pool *pgxpool.Pool) *TestApp {
	t.Helper()

	logger := zerolog.Nop()

	redisServer := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: redisServer.Addr()})
	t.Cleanup(func() { redisClient.Close() })
	sessions := session.NewRedisStore(redisClient, time.Hour)

	rule, err := pricing.NewDeliveryRule("50", "10")
	if err != nil {
		t.Fatalf("failed to build delivery rule: %v", err)
	}

	fake := NewFakeStripe(t)
	notifier := &RecordingNotifier{}
	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	profileRepo := repository.NewProfileRepository(pool, logger)

	checkoutService := service.NewCheckoutService(
		orderRepo, productRepo, profileRepo, sessions, fake.Client, rule, recorder,
		service.CheckoutConfig{PublicKey: "pk_test_integration", Currency: "gbp"},
		logger,
	)
	webhookService := service.NewWebhookService(
		orderRepo, productRepo, profileRepo, fake.Client, notifier, rule, recorder,
		service.ReconcilerConfig{LookupAttempts: 2, LookupInterval: 10 * time.Millisecond},
		logger,
	)

	mux := router.New(router.Handlers{
		Products: handler.NewProductHandler(service.NewProductService(productRepo, logger), logger),
		Bag:      handler.NewBagHandler(service.NewBagService(productRepo, sessions, rule, logger), logger),
		Checkout: handler.NewCheckoutHandler(checkoutService, webhookService, logger),
		Orders:   handler.NewOrderHandler(service.NewOrderService(orderRepo, productRepo, rule, logger), logger),
		Profile:  handler.NewProfileHandler(service.NewProfileService(profileRepo, orderRepo, logger), logger),
	}, router.Options{
		AdminAPIKey: testAdminKey,
		UserHeader:  testUserHeader,
		Session:     middleware.SessionConfig{CookieName: "storefront_session", TTL: time.Hour},
		Metrics:     recorder,
	}, logger)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &TestApp{
		Server:   server,
		Stripe:   fake,
		Notifier: notifier,
		Registry: registry,
	}
}

// Browser returns a client that keeps the session cookie and does not follow redirects.
func (a *TestApp) Browser(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{
		Jar:     jar,
		Timeout: 10 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}
