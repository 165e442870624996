package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"expensetracker/config"
	"expensetracker/database"
	"expensetracker/events"
	"expensetracker/ledger"
	"expensetracker/logging"
	"expensetracker/models"
	"expensetracker/repository"

	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) kinds() []events.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Kind, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Kind)
	}
	return out
}

type recordingAlerter struct {
	sent []models.BudgetView
	to   []string
}

func (a *recordingAlerter) SendBudgetAlert(to, _ string, v models.BudgetView) error {
	a.to = append(a.to, to)
	a.sent = append(a.sent, v)
	return nil
}

type fakeTokens struct{}

func (fakeTokens) GenerateToken(username string) (string, error) {
	return "token-" + username, nil
}

type testEnv struct {
	store     *repository.Store
	expenses  *ExpenseService
	budgets   *BudgetService
	auth      *AuthService
	publisher *recordingPublisher
	alerter   *recordingAlerter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{URL: "sqlite://:memory:", LogLevel: "silent"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	log := logging.Discard()
	store := repository.New(db)
	pub := &recordingPublisher{}
	alerter := &recordingAlerter{}
	return &testEnv{
		store:     store,
		expenses:  NewExpenseService(store, pub, alerter, log),
		budgets:   NewBudgetService(store, log),
		auth:      NewAuthService(store, fakeTokens{}, log),
		publisher: pub,
		alerter:   alerter,
	}
}

// seedUser 直接写库创建用户，绕过 bcrypt
func (env *testEnv) seedUser(t *testing.T, name string, bank, cash int64) *models.User {
	t.Helper()
	u := &models.User{Username: name, HashedPassword: "x", IsActive: true, BankBalance: bank, CashBalance: cash}
	require.NoError(t, env.store.CreateUser(context.Background(), u))
	return u
}

func (env *testEnv) balances(t *testing.T, userID uint) models.BalanceView {
	t.Helper()
	v, err := env.expenses.Balances(context.Background(), userID)
	require.NoError(t, err)
	return v
}

func input(typ ledger.EntryType, amount int64, pm ledger.PaymentMethod) ExpenseInput {
	return ExpenseInput{
		Type:          typ,
		Amount:        amount,
		Category:      "General",
		Date:          time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		PaymentMethod: pm,
	}
}

func ptr[T any](v T) *T { return &v }
