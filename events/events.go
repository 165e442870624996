// Package events 记账事件发布，事务提交后通知下游（对账、同步等）
package events

import (
	"context"
	"encoding/json"
	"time"

	"expensetracker/ledger"
)

// Kind 事件类型
type Kind string

const (
	KindExpenseCreated Kind = "expense.created"
	KindExpenseUpdated Kind = "expense.updated"
	KindExpenseDeleted Kind = "expense.deleted"
)

// Event 一次已提交的余额变更
type Event struct {
	Kind          Kind                 `json:"kind"`
	UserID        uint                 `json:"user_id"`
	ExpenseID     uint                 `json:"expense_id"`
	Type          ledger.EntryType     `json:"type"`
	Amount        int64                `json:"amount"`
	PaymentMethod ledger.PaymentMethod `json:"payment_method"`
	BankBalance   int64                `json:"bank_balance"`
	CashBalance   int64                `json:"cash_balance"`
	At            time.Time            `json:"at"`
}

// RoutingKey 按事件类型路由
func (e Event) RoutingKey() string {
	return "ledger." + string(e.Kind)
}

// ToJSON 序列化
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher 事件发布接口，失败只应记录日志，不影响已提交的请求
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop 未配置消息队列时使用
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
