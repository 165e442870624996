// Package ledger 实现收支记录对用户余额的记账规则：
// 支付方式决定影响银行余额还是现金余额，支出扣减、收入增加，
// 更新时先冲回旧记录的影响再应用新记录。
package ledger

import (
	"errors"
	"fmt"
	"math"
)

// EntryType 记录类型
type EntryType string

const (
	TypeExpense EntryType = "expense"
	TypeIncome  EntryType = "income"
)

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
)

// BalanceField 受影响的余额字段
type BalanceField int

const (
	BankBalance BalanceField = iota + 1
	CashBalance
)

func (f BalanceField) String() string {
	switch f {
	case BankBalance:
		return "bank_balance"
	case CashBalance:
		return "cash_balance"
	default:
		return fmt.Sprintf("BalanceField(%d)", int(f))
	}
}

var (
	// ErrInsufficientFunds 支出金额超过目标余额
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrNegativeBalance 删除或改小一笔已被花掉的收入，结果余额为负
	ErrNegativeBalance = errors.New("balance would become negative")
	// ErrAmountOverflow 收入使余额超出可表示范围
	ErrAmountOverflow = errors.New("amount exceeds balance range")
	// ErrInvalidPaymentMethod 支付方式不在 cash/transfer 之内，上游校验应已拦截
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	// ErrInvalidType 记录类型不在 expense/income 之内
	ErrInvalidType = errors.New("invalid entry type")
	// ErrInvalidAmount 金额必须为正
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrBalanceInvariant 操作前余额已为负，只可能来自库内数据被直接修改
	ErrBalanceInvariant = errors.New("balance invariant violated")
)

// FieldFor 返回支付方式对应的余额字段：cash → 现金，transfer → 银行
func FieldFor(pm PaymentMethod) (BalanceField, error) {
	switch pm {
	case PaymentCash:
		return CashBalance, nil
	case PaymentTransfer:
		return BankBalance, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, pm)
	}
}

// Balances 用户的两个资金池，单位为分
type Balances struct {
	Bank int64
	Cash int64
}

// Total 银行与现金之和
func (b Balances) Total() int64 {
	return b.Bank + b.Cash
}

// Get 读取指定字段
func (b Balances) Get(f BalanceField) int64 {
	switch f {
	case BankBalance:
		return b.Bank
	case CashBalance:
		return b.Cash
	}
	return 0
}

func (b *Balances) set(f BalanceField, v int64) {
	switch f {
	case BankBalance:
		b.Bank = v
	case CashBalance:
		b.Cash = v
	}
}

// Effect 一条记录对余额的影响
type Effect struct {
	Type          EntryType
	Amount        int64
	PaymentMethod PaymentMethod
}

// signed 返回 Apply 时对目标字段的带符号增量
func (e Effect) signed() (BalanceField, int64, error) {
	field, err := FieldFor(e.PaymentMethod)
	if err != nil {
		return 0, 0, err
	}
	if e.Amount <= 0 {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidAmount, e.Amount)
	}
	switch e.Type {
	case TypeExpense:
		return field, -e.Amount, nil
	case TypeIncome:
		return field, e.Amount, nil
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidType, e.Type)
	}
}

// Apply 应用记录影响。支出要求目标余额不小于金额，否则返回 ErrInsufficientFunds 且余额不变。
func Apply(b Balances, e Effect) (Balances, error) {
	field, delta, err := e.signed()
	if err != nil {
		return b, err
	}
	current := b.Get(field)
	if delta < 0 && current < -delta {
		return b, fmt.Errorf("%w: %s has %d, need %d", ErrInsufficientFunds, field, current, -delta)
	}
	next, err := add(current, delta)
	if err != nil {
		return b, err
	}
	b.set(field, next)
	return b, nil
}

// Reverse 冲回记录影响，不做余额充足性检查
func Reverse(b Balances, e Effect) (Balances, error) {
	field, delta, err := e.signed()
	if err != nil {
		return b, err
	}
	next, err := add(b.Get(field), -delta)
	if err != nil {
		return b, err
	}
	b.set(field, next)
	return b, nil
}

// Replace 更新协议：先按旧值冲回，再按新值应用。任一步失败返回原余额。
func Replace(b Balances, old, updated Effect) (Balances, error) {
	reversed, err := Reverse(b, old)
	if err != nil {
		return b, err
	}
	next, err := Apply(reversed, updated)
	if err != nil {
		return b, err
	}
	return next, nil
}

// Check 校验余额非负
func Check(b Balances) error {
	if b.Bank < 0 || b.Cash < 0 {
		return fmt.Errorf("%w: bank=%d cash=%d", ErrBalanceInvariant, b.Bank, b.Cash)
	}
	return nil
}

// Verify 校验一次操作的结果余额。操作前合法而结果为负返回 ErrNegativeBalance，
// 操作前已为负返回 ErrBalanceInvariant。
func Verify(prev, next Balances) error {
	if next.Bank >= 0 && next.Cash >= 0 {
		return nil
	}
	if err := Check(prev); err != nil {
		return err
	}
	return fmt.Errorf("%w: bank=%d cash=%d", ErrNegativeBalance, next.Bank, next.Cash)
}

func add(a, delta int64) (int64, error) {
	if (delta > 0 && a > math.MaxInt64-delta) || (delta < 0 && a < math.MinInt64-delta) {
		return a, fmt.Errorf("%w: %d%+d", ErrAmountOverflow, a, delta)
	}
	return a + delta, nil
}
