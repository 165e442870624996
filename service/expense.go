package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"expensetracker/events"
	"expensetracker/ledger"
	"expensetracker/models"
	"expensetracker/repository"
)

// DefaultListLimit 列表默认条数
const DefaultListLimit = 100

// ExpenseInput 新建收支记录参数
type ExpenseInput struct {
	Type          ledger.EntryType
	Amount        int64
	Category      string
	Description   *string
	Date          time.Time
	PaymentMethod ledger.PaymentMethod
	BudgetID      *uint
}

// ExpensePatch 部分更新，nil 字段保持原值；BudgetID 指向 0 表示解除预算关联
type ExpensePatch struct {
	Type          *ledger.EntryType
	Amount        *int64
	Category      *string
	Description   *string
	Date          *time.Time
	PaymentMethod *ledger.PaymentMethod
	BudgetID      *uint
}

// ExpenseService 收支记录服务，每次变更在单个事务内锁定用户行后记账
type ExpenseService struct {
	store     *repository.Store
	publisher events.Publisher
	alerter   BudgetAlerter
	log       *slog.Logger
	now       func() time.Time
}

// NewExpenseService 创建收支记录服务，publisher 与 alerter 可为 nil
func NewExpenseService(store *repository.Store, publisher events.Publisher, alerter BudgetAlerter, log *slog.Logger) *ExpenseService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		alerter:   alerter,
		log:       log.With("component", "expense"),
		now:       time.Now,
	}
}

// lockUser 事务内锁定用户
func lockUser(ctx context.Context, tx *repository.Store, userID uint) (*models.User, error) {
	u, err := tx.LockUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return u, err
}

// ownBudget 校验预算属于该用户
func ownBudget(ctx context.Context, tx *repository.Store, budgetID, userID uint) error {
	_, err := tx.BudgetByID(ctx, budgetID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrBudgetNotFound
	}
	return err
}

// settle 校验结果余额并写回
func settle(ctx context.Context, tx *repository.Store, u *models.User, next ledger.Balances) error {
	if err := ledger.Verify(u.Balances(), next); err != nil {
		return err
	}
	u.SetBalances(next)
	return tx.SaveBalances(ctx, u)
}

// Create 新建记录并应用其对余额的影响；余额不足时记录与余额均不落库
func (s *ExpenseService) Create(ctx context.Context, userID uint, in ExpenseInput) (*models.Expense, error) {
	expense := &models.Expense{
		UserID:        userID,
		BudgetID:      in.BudgetID,
		Type:          in.Type,
		Amount:        in.Amount,
		Category:      in.Category,
		Description:   in.Description,
		Date:          in.Date,
		PaymentMethod: in.PaymentMethod,
	}
	if expense.PaymentMethod == "" {
		expense.PaymentMethod = ledger.PaymentCash
	}
	if expense.BudgetID != nil && *expense.BudgetID == 0 {
		expense.BudgetID = nil
	}

	var user *models.User
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		u, err := lockUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if expense.BudgetID != nil {
			if err := ownBudget(ctx, tx, *expense.BudgetID, userID); err != nil {
				return err
			}
		}

		next, err := ledger.Apply(u.Balances(), expense.Effect())
		if err != nil {
			return err
		}
		if err := settle(ctx, tx, u, next); err != nil {
			return err
		}
		if err := tx.CreateExpense(ctx, expense); err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		s.rejected(ctx, "create", userID, err)
		return nil, err
	}

	s.committed(ctx, events.KindExpenseCreated, expense, user)
	return expense, nil
}

// List 分页列出用户记录，按插入顺序
func (s *ExpenseService) List(ctx context.Context, userID uint, skip, limit int) ([]models.Expense, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.store.ListExpenses(ctx, userID, skip, limit)
}

// All 用户的全部记录
func (s *ExpenseService) All(ctx context.Context, userID uint) ([]models.Expense, error) {
	return s.store.AllExpenses(ctx, userID)
}

// Balances 当前余额；用户不存在时返回零值
func (s *ExpenseService) Balances(ctx context.Context, userID uint) (models.BalanceView, error) {
	u, err := s.store.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.NewBalanceView(ledger.Balances{}), nil
		}
		return models.BalanceView{}, err
	}
	return models.NewBalanceView(u.Balances()), nil
}

// Update 合并补丁后先冲回旧影响再应用新影响，任一步失败整体回滚
func (s *ExpenseService) Update(ctx context.Context, id, userID uint, patch ExpensePatch) (*models.Expense, error) {
	var (
		expense *models.Expense
		user    *models.User
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		u, err := lockUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		e, err := tx.ExpenseByID(ctx, id, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrExpenseNotFound
			}
			return err
		}

		old := e.Effect()
		if err := applyPatch(ctx, tx, e, patch); err != nil {
			return err
		}

		next, err := ledger.Replace(u.Balances(), old, e.Effect())
		if err != nil {
			return err
		}
		if err := settle(ctx, tx, u, next); err != nil {
			return err
		}
		if err := tx.SaveExpense(ctx, e); err != nil {
			return err
		}
		expense, user = e, u
		return nil
	})
	if err != nil {
		s.rejected(ctx, "update", userID, err)
		return nil, err
	}

	s.committed(ctx, events.KindExpenseUpdated, expense, user)
	return expense, nil
}

func applyPatch(ctx context.Context, tx *repository.Store, e *models.Expense, p ExpensePatch) error {
	if p.Type != nil {
		e.Type = *p.Type
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Category != nil {
		e.Category = *p.Category
	}
	if p.Description != nil {
		e.Description = p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.PaymentMethod != nil {
		e.PaymentMethod = *p.PaymentMethod
	}
	if p.BudgetID != nil {
		if *p.BudgetID == 0 {
			e.BudgetID = nil
			return nil
		}
		if err := ownBudget(ctx, tx, *p.BudgetID, e.UserID); err != nil {
			return err
		}
		id := *p.BudgetID
		e.BudgetID = &id
	}
	return nil
}

// Delete 冲回记录影响并删除记录
func (s *ExpenseService) Delete(ctx context.Context, id, userID uint) error {
	var (
		expense *models.Expense
		user    *models.User
	)
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		u, err := lockUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		e, err := tx.ExpenseByID(ctx, id, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrExpenseNotFound
			}
			return err
		}

		next, err := ledger.Reverse(u.Balances(), e.Effect())
		if err != nil {
			return err
		}
		if err := settle(ctx, tx, u, next); err != nil {
			return err
		}
		if err := tx.DeleteExpense(ctx, e.ID, userID); err != nil {
			return err
		}
		expense, user = e, u
		return nil
	})
	if err != nil {
		s.rejected(ctx, "delete", userID, err)
		return err
	}

	s.committed(ctx, events.KindExpenseDeleted, expense, user)
	return nil
}

func (s *ExpenseService) rejected(ctx context.Context, op string, userID uint, err error) {
	recordRejection(err)
	switch {
	case errors.Is(err, ledger.ErrBalanceInvariant),
		errors.Is(err, ledger.ErrInvalidPaymentMethod),
		errors.Is(err, ledger.ErrInvalidType):
		s.log.ErrorContext(ctx, "ledger invariant violated", "op", op, "user_id", userID, "error", err)
	case errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrNegativeBalance),
		errors.Is(err, ledger.ErrAmountOverflow):
		s.log.InfoContext(ctx, "expense rejected", "op", op, "user_id", userID, "error", err)
	}
}

// committed 事务提交后的通知，失败只记日志
func (s *ExpenseService) committed(ctx context.Context, kind events.Kind, e *models.Expense, u *models.User) {
	ev := events.Event{
		Kind:          kind,
		UserID:        u.ID,
		ExpenseID:     e.ID,
		Type:          e.Type,
		Amount:        e.Amount,
		PaymentMethod: e.PaymentMethod,
		BankBalance:   u.BankBalance,
		CashBalance:   u.CashBalance,
		At:            s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.log.WarnContext(ctx, "publish ledger event failed", "kind", kind, "expense_id", e.ID, "error", err)
	}

	if kind != events.KindExpenseDeleted {
		s.checkBudget(ctx, e, u)
	}
}

// checkBudget 关联预算超支时发送提醒
func (s *ExpenseService) checkBudget(ctx context.Context, e *models.Expense, u *models.User) {
	if s.alerter == nil || e.BudgetID == nil || e.Type != ledger.TypeExpense || u.Email == "" {
		return
	}
	budget, err := s.store.BudgetByID(ctx, *e.BudgetID, u.ID)
	if err != nil {
		s.log.WarnContext(ctx, "load budget for alert failed", "budget_id", *e.BudgetID, "error", err)
		return
	}
	spent, err := s.store.SpentByBudget(ctx, []uint{budget.ID})
	if err != nil {
		s.log.WarnContext(ctx, "sum budget spent failed", "budget_id", budget.ID, "error", err)
		return
	}

	view := models.BudgetView{Budget: *budget, Spent: spent[budget.ID]}
	if !view.OverLimit() {
		return
	}
	if err := s.alerter.SendBudgetAlert(u.Email, u.Username, view); err != nil {
		s.log.WarnContext(ctx, "budget alert failed", "budget_id", budget.ID, "error", err)
		return
	}
	s.log.InfoContext(ctx, "budget alert sent", "budget_id", budget.ID, "spent", view.Spent)
}
