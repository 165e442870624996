package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// limit 以数字而非字符串输出
	decimal.MarshalJSONWithoutQuotes = true
}

// Budget 预算模型，已用金额不落库，每次读取时汇总
type Budget struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	UserID    uint            `json:"user_id" gorm:"index;not null"`
	Category  string          `json:"category" gorm:"size:50;not null;index"`
	Limit     decimal.Decimal `json:"limit" gorm:"column:limit;type:decimal(12,2);not null"`
	CreatedAt time.Time       `json:"-"`
	UpdatedAt time.Time       `json:"-"`
	User      User            `json:"-" gorm:"foreignKey:UserID"`
}

// TableName 设置表名
func (Budget) TableName() string {
	return "budgets"
}

// BudgetView 带已用金额的预算视图
type BudgetView struct {
	Budget
	Spent int64 `json:"spent"`
}

// OverLimit 已用金额是否超过预算上限，两者同为分
func (v BudgetView) OverLimit() bool {
	return decimal.NewFromInt(v.Spent).GreaterThan(v.Limit)
}
