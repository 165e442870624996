package models

import (
	"time"

	"expensetracker/ledger"
)

// User 用户模型，余额单位为分，仅通过记账逻辑修改
type User struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Username       string    `json:"username" gorm:"uniqueIndex;size:50;not null"`
	HashedPassword string    `json:"-" gorm:"size:255;not null"`
	Email          string    `json:"email,omitempty" gorm:"size:100"`
	IsActive       bool      `json:"is_active" gorm:"not null;default:true"`
	BankBalance    int64     `json:"bank_balance" gorm:"not null;default:0"`
	CashBalance    int64     `json:"cash_balance" gorm:"not null;default:0"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// TableName 设置表名
func (User) TableName() string {
	return "users"
}

// Balances 当前余额快照
func (u *User) Balances() ledger.Balances {
	return ledger.Balances{Bank: u.BankBalance, Cash: u.CashBalance}
}

// SetBalances 写回余额
func (u *User) SetBalances(b ledger.Balances) {
	u.BankBalance = b.Bank
	u.CashBalance = b.Cash
}

// BalanceView 余额查询结果
type BalanceView struct {
	BankBalance  int64 `json:"bank_balance"`
	CashBalance  int64 `json:"cash_balance"`
	TotalBalance int64 `json:"total_balance"`
}

// NewBalanceView 由余额快照构造视图
func NewBalanceView(b ledger.Balances) BalanceView {
	return BalanceView{
		BankBalance:  b.Bank,
		CashBalance:  b.Cash,
		TotalBalance: b.Total(),
	}
}
