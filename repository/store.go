// Package repository 持久化适配层，只做按条件过滤的读写，不包含记账逻辑
package repository

import (
	"context"
	"errors"

	"expensetracker/database"
	"expensetracker/ledger"
	"expensetracker/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound 记录不存在或不属于该用户
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 唯一约束冲突
	ErrDuplicate = errors.New("duplicate record")
)

// Store 基于 gorm 的存储，事务内通过 Transaction 回调拿到绑定 tx 的副本
type Store struct {
	db *gorm.DB
}

// New 创建存储
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB 底层句柄
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction 在单个事务中执行 fn，fn 返回错误或 panic 时回滚
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- users ---

// CreateUser 新建用户，用户名重复时返回 ErrDuplicate
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// UserByID 按 ID 查询用户
func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// UserByUsername 按用户名查询用户
func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// LockUser 读取用户并加行锁（SELECT ... FOR UPDATE），只应在事务内调用
// SQLite 在库级别串行化写事务，不支持 FOR UPDATE，此时退化为普通读取
func (s *Store) LockUser(ctx context.Context, id uint) (*models.User, error) {
	q := s.db.WithContext(ctx)
	if !database.IsSQLite(s.db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var u models.User
	if err := q.First(&u, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// SaveBalances 写回用户的两个余额字段，调用方应已通过 LockUser 取得该行
func (s *Store) SaveBalances(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"bank_balance": u.BankBalance,
			"cash_balance": u.CashBalance,
		}).Error
}

// SetUserActive 启用或停用用户
func (s *Store) SetUserActive(ctx context.Context, id uint, active bool) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- expenses ---

// CreateExpense 新建收支记录
func (s *Store) CreateExpense(ctx context.Context, e *models.Expense) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(e).Error
}

// ExpenseByID 查询属于该用户的记录
func (s *Store) ExpenseByID(ctx context.Context, id, userID uint) (*models.Expense, error) {
	var e models.Expense
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&e).Error; err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// ListExpenses 分页查询，按插入顺序
func (s *Store) ListExpenses(ctx context.Context, userID uint, skip, limit int) ([]models.Expense, error) {
	expenses := make([]models.Expense, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Offset(skip).
		Limit(limit).
		Find(&expenses).Error
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// AllExpenses 查询用户全部记录，导出使用
func (s *Store) AllExpenses(ctx context.Context, userID uint) ([]models.Expense, error) {
	expenses := make([]models.Expense, 0)
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("date ASC, id ASC").Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

// SaveExpense 保存记录的全部字段
func (s *Store) SaveExpense(ctx context.Context, e *models.Expense) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(e).Error
}

// DeleteExpense 删除属于该用户的记录
func (s *Store) DeleteExpense(ctx context.Context, id, userID uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Expense{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- budgets ---

// CreateBudget 新建预算，同一用户允许重复类别
func (s *Store) CreateBudget(ctx context.Context, b *models.Budget) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(b).Error
}

// BudgetByID 查询属于该用户的预算
func (s *Store) BudgetByID(ctx context.Context, id, userID uint) (*models.Budget, error) {
	var b models.Budget
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&b).Error; err != nil {
		return nil, notFound(err)
	}
	return &b, nil
}

// ListBudgets 查询用户全部预算
func (s *Store) ListBudgets(ctx context.Context, userID uint) ([]models.Budget, error) {
	budgets := make([]models.Budget, 0)
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&budgets).Error; err != nil {
		return nil, err
	}
	return budgets, nil
}

// SpentByBudget 汇总各预算关联的支出金额，收入不计入；没有关联支出的预算不出现在结果中
func (s *Store) SpentByBudget(ctx context.Context, budgetIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(budgetIDs))
	if len(budgetIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		BudgetID uint
		Spent    int64
	}
	err := s.db.WithContext(ctx).Model(&models.Expense{}).
		Select("budget_id, COALESCE(SUM(amount), 0) AS spent").
		Where("budget_id IN ? AND type = ?", budgetIDs, ledger.TypeExpense).
		Group("budget_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.BudgetID] = r.Spent
	}
	return out, nil
}
