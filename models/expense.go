package models

import (
	"time"

	"expensetracker/ledger"
)

// Expense 收支记录模型，Type 区分支出与收入，PaymentMethod 决定影响的余额
type Expense struct {
	ID            uint                 `json:"id" gorm:"primaryKey"`
	UserID        uint                 `json:"user_id" gorm:"index;not null"`
	BudgetID      *uint                `json:"budget_id" gorm:"index"`
	Type          ledger.EntryType     `json:"type" gorm:"size:10;not null"`
	Amount        int64                `json:"amount" gorm:"not null"`
	Category      string               `json:"category" gorm:"size:50;not null"`
	Description   *string              `json:"description" gorm:"size:200"`
	Date          time.Time            `json:"date" gorm:"not null"`
	PaymentMethod ledger.PaymentMethod `json:"payment_method" gorm:"size:10;not null;default:cash"`
	CreatedAt     time.Time            `json:"-"`
	UpdatedAt     time.Time            `json:"-"`
	User          User                 `json:"-" gorm:"foreignKey:UserID"`
	Budget        *Budget              `json:"-" gorm:"foreignKey:BudgetID"`
}

// TableName 设置表名
func (Expense) TableName() string {
	return "expenses"
}

// Effect 当前存储值对余额的影响
func (e *Expense) Effect() ledger.Effect {
	return ledger.Effect{
		Type:          e.Type,
		Amount:        e.Amount,
		PaymentMethod: e.PaymentMethod,
	}
}
