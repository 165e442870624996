package service

import (
	"context"
	"log/slog"

	"expensetracker/models"
	"expensetracker/repository"

	"github.com/shopspring/decimal"
)

// BudgetService 预算服务，spent 每次读取时重新汇总
type BudgetService struct {
	store *repository.Store
	log   *slog.Logger
}

// NewBudgetService 创建预算服务
func NewBudgetService(store *repository.Store, log *slog.Logger) *BudgetService {
	if log == nil {
		log = slog.Default()
	}
	return &BudgetService{store: store, log: log.With("component", "budget")}
}

// Create 新建预算，同一用户允许重复类别
func (s *BudgetService) Create(ctx context.Context, userID uint, category string, limit decimal.Decimal) (*models.BudgetView, error) {
	if limit.IsNegative() {
		return nil, ErrInvalidLimit
	}
	b := &models.Budget{
		UserID:   userID,
		Category: category,
		Limit:    limit,
	}
	if err := s.store.CreateBudget(ctx, b); err != nil {
		return nil, err
	}
	return &models.BudgetView{Budget: *b}, nil
}

// ListWithSpent 用户全部预算及其已用金额
func (s *BudgetService) ListWithSpent(ctx context.Context, userID uint) ([]models.BudgetView, error) {
	budgets, err := s.store.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(budgets))
	for _, b := range budgets {
		ids = append(ids, b.ID)
	}
	spent, err := s.store.SpentByBudget(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.BudgetView, 0, len(budgets))
	for _, b := range budgets {
		views = append(views, models.BudgetView{Budget: b, Spent: spent[b.ID]})
	}
	return views, nil
}
