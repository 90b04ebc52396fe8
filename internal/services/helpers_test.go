package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"task-market.com/task-market/internal/constants"
	"task-market.com/task-market/internal/gateway"
	model "task-market.com/task-market/internal/models"
	"task-market.com/task-market/internal/notify"
	repository "task-market.com/task-market/internal/repositories"
)

const testWebhookSecret = "test-webhook-secret"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	if err := db.AutoMigrate(&model.Task{}, &model.Submission{}, &model.User{}); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	return db
}

// fakeGateway records every call so tests can assert on exactly how often
// money-moving endpoints were hit.
type fakeGateway struct {
	mu sync.Mutex

	orderCalls       int
	contactCalls     int
	fundAccountCalls int

	payoutAttempts int
	payoutKeys     []string
	payoutAmounts  []int64

	failPayouts int
	failOrders  bool
}

func (g *fakeGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string, notes map[string]string) (*gateway.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failOrders {
		return nil, errors.New("gateway unavailable")
	}

	g.orderCalls++
	return &gateway.Order{
		ID:       fmt.Sprintf("order_%d", g.orderCalls),
		Amount:   amountMinor,
		Currency: currency,
		Receipt:  receipt,
		Status:   "created",
	}, nil
}

func (g *fakeGateway) FetchPayment(ctx context.Context, paymentID string) (*gateway.PaymentDetail, error) {
	return &gateway.PaymentDetail{ID: paymentID, Status: "captured"}, nil
}

func (g *fakeGateway) CreateContact(ctx context.Context, name, email, phone, referenceID string) (*gateway.Contact, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.contactCalls++
	return &gateway.Contact{ID: fmt.Sprintf("cont_%d", g.contactCalls)}, nil
}

func (g *fakeGateway) CreateFundAccount(ctx context.Context, contactID, vpaAddress string) (*gateway.FundAccount, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.fundAccountCalls++
	return &gateway.FundAccount{ID: fmt.Sprintf("fa_%d", g.fundAccountCalls)}, nil
}

func (g *fakeGateway) CreatePayout(ctx context.Context, fundAccountID string, amountMinor int64, currency, narration, referenceID, idempotencyKey string) (*gateway.Payout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.payoutAttempts++
	g.payoutKeys = append(g.payoutKeys, idempotencyKey)

	if g.failPayouts > 0 {
		g.failPayouts--
		return nil, errors.New("gateway timeout")
	}

	g.payoutAmounts = append(g.payoutAmounts, amountMinor)
	return &gateway.Payout{ID: fmt.Sprintf("pout_%d", g.payoutAttempts), Status: "processed"}, nil
}

// memoryEventCache mirrors the redis-backed dedup cache semantics for
// tests: entries appear only via Mark.
type memoryEventCache struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemoryEventCache() *memoryEventCache {
	return &memoryEventCache{seen: make(map[string]bool)}
}

func (c *memoryEventCache) Seen(ctx context.Context, eventID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen[eventID]
}

func (c *memoryEventCache) Mark(ctx context.Context, eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen[eventID] = true
}

type fixture struct {
	db       *gorm.DB
	gw       *fakeGateway
	events   *memoryEventCache
	taskRepo *repository.TaskRepository
	subRepo  *repository.SubmissionRepository
	userRepo *repository.UserRepository

	tasks       *TaskService
	payments    *PaymentService
	webhook     *WebhookService
	payout      *PayoutService
	submissions *SubmissionService
	sweep       *SweepService

	uploader   *model.User
	freelancer *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	gw := &fakeGateway{}
	events := newMemoryEventCache()
	taskRepo := repository.NewTaskRepository(db)
	subRepo := repository.NewSubmissionRepository(db)
	userRepo := repository.NewUserRepository(db)
	notifier := notify.NewLogNotifier()

	payout := NewPayoutService(taskRepo, userRepo, gw, "INR", notifier)

	f := &fixture{
		db:          db,
		gw:          gw,
		events:      events,
		taskRepo:    taskRepo,
		subRepo:     subRepo,
		userRepo:    userRepo,
		tasks:       NewTaskService(taskRepo, 3),
		payments:    NewPaymentService(taskRepo, userRepo, gw, 10, "INR"),
		webhook:     NewWebhookService(taskRepo, events, testWebhookSecret, notifier),
		payout:      payout,
		submissions: NewSubmissionService(taskRepo, subRepo, payout, notifier),
		sweep:       NewSweepService(taskRepo, payout, 72*time.Hour, 50),
	}

	ctx := context.Background()

	f.uploader = &model.User{Name: "Uploader", Email: "uploader@example.com"}
	require.NoError(t, userRepo.Create(ctx, f.uploader))

	f.freelancer = &model.User{
		Name:  "Freelancer",
		Email: "freelancer@example.com",
		Phone: "9999999999",
		UpiID: "freelancer@upi",
	}
	require.NoError(t, userRepo.Create(ctx, f.freelancer))

	return f
}

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func capturedEvent(paymentID, orderID string, amountMinor, feeMinor int64) []byte {
	return []byte(fmt.Sprintf(
		`{"event":"payment.captured","payload":{"payment":{"entity":{"id":%q,"order_id":%q,"amount":%d,"fee":%d,"created_at":%d}}}}`,
		paymentID, orderID, amountMinor, feeMinor, time.Now().Unix(),
	))
}

func failedEvent(paymentID, orderID string) []byte {
	return []byte(fmt.Sprintf(
		`{"event":"payment.failed","payload":{"payment":{"entity":{"id":%q,"order_id":%q}}}}`,
		paymentID, orderID,
	))
}

// newOpenTask creates an open task owned by the fixture uploader.
func newOpenTask(t *testing.T, f *fixture, budget float64) *model.Task {
	t.Helper()

	task, err := f.tasks.CreateTask(
		context.Background(),
		f.uploader.ID,
		"Lab report",
		"Write up the measurements",
		"assignment",
		time.Now().Add(7*24*time.Hour),
		budget,
	)
	require.NoError(t, err)
	return task
}

// newCapturedTask drives a task through order creation and a captured
// webhook so it is assigned and in progress.
func newCapturedTask(t *testing.T, f *fixture, budget float64) *model.Task {
	t.Helper()
	ctx := context.Background()

	task := newOpenTask(t, f, budget)

	order, err := f.payments.CreateOrder(ctx, task.ID, f.uploader.ID, f.freelancer.ID)
	require.NoError(t, err)

	body := capturedEvent("pay_"+task.ID, order.OrderID, order.AmountMinor, 200)
	require.NoError(t, f.webhook.Handle(ctx, body, signBody(body), "evt_"+task.ID))

	fresh, err := f.taskRepo.FindByID(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, constants.StatusInProgress, fresh.Status)
	return fresh
}

// newSubmittedTask additionally files the first submission and backdates it
// past the payout grace window.
func newSubmittedTask(t *testing.T, f *fixture, budget float64, age time.Duration) *model.Task {
	t.Helper()
	ctx := context.Background()

	task := newCapturedTask(t, f, budget)

	_, err := f.submissions.CreateSubmission(ctx, task.ID, f.freelancer.ID, "first draft", nil)
	require.NoError(t, err)

	fresh, err := f.taskRepo.FindByID(ctx, task.ID)
	require.NoError(t, err)

	if age > 0 {
		backdated := time.Now().UTC().Add(-age)
		fresh.FirstSubmissionAt = &backdated
		require.NoError(t, f.taskRepo.Update(ctx, fresh))
	}

	return fresh
}
