package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldFor(t *testing.T) {
	f, err := FieldFor(PaymentCash)
	require.NoError(t, err)
	assert.Equal(t, CashBalance, f)

	f, err = FieldFor(PaymentTransfer)
	require.NoError(t, err)
	assert.Equal(t, BankBalance, f)

	_, err = FieldFor("card")
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestBalanceFieldString(t *testing.T) {
	assert.Equal(t, "bank_balance", BankBalance.String())
	assert.Equal(t, "cash_balance", CashBalance.String())
	assert.Equal(t, "BalanceField(9)", BalanceField(9).String())
}

func TestApply(t *testing.T) {
	start := Balances{Bank: 10000, Cash: 5000}

	tests := []struct {
		name    string
		effect  Effect
		want    Balances
		wantErr error
	}{
		{"cash expense", Effect{TypeExpense, 500, PaymentCash}, Balances{10000, 4500}, nil},
		{"transfer expense", Effect{TypeExpense, 600, PaymentTransfer}, Balances{9400, 5000}, nil},
		{"transfer income", Effect{TypeIncome, 1000, PaymentTransfer}, Balances{11000, 5000}, nil},
		{"cash income", Effect{TypeIncome, 1, PaymentCash}, Balances{10000, 5001}, nil},
		{"drain exactly", Effect{TypeExpense, 5000, PaymentCash}, Balances{10000, 0}, nil},
		{"insufficient", Effect{TypeExpense, 5001, PaymentCash}, start, ErrInsufficientFunds},
		{"bad method", Effect{TypeExpense, 1, "card"}, start, ErrInvalidPaymentMethod},
		{"bad type", Effect{"refund", 1, PaymentCash}, start, ErrInvalidType},
		{"zero amount", Effect{TypeIncome, 0, PaymentCash}, start, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(start, tt.effect)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply_InsufficientIsDistinct(t *testing.T) {
	_, err := Apply(Balances{Bank: 100, Cash: 100}, Effect{TypeExpense, 200, PaymentCash})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.NotErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestReverse(t *testing.T) {
	b := Balances{Bank: 10000, Cash: 4500}

	got, err := Reverse(b, Effect{TypeExpense, 500, PaymentCash})
	require.NoError(t, err)
	assert.Equal(t, Balances{10000, 5000}, got)

	got, err = Reverse(b, Effect{TypeIncome, 1000, PaymentTransfer})
	require.NoError(t, err)
	assert.Equal(t, Balances{9000, 4500}, got)

	// 冲回收入不检查余额充足性
	got, err = Reverse(Balances{}, Effect{TypeIncome, 300, PaymentCash})
	require.NoError(t, err)
	assert.Equal(t, int64(-300), got.Cash)
	assert.ErrorIs(t, Check(got), ErrBalanceInvariant)
}

func TestApplyThenReverseIsIdentity(t *testing.T) {
	start := Balances{Bank: 700, Cash: 300}
	for _, e := range []Effect{
		{TypeExpense, 300, PaymentCash},
		{TypeExpense, 1, PaymentTransfer},
		{TypeIncome, 12345, PaymentCash},
		{TypeIncome, 9, PaymentTransfer},
	} {
		applied, err := Apply(start, e)
		require.NoError(t, err)
		back, err := Reverse(applied, e)
		require.NoError(t, err)
		assert.Equal(t, start, back, "%+v", e)
	}
}

func TestReplace(t *testing.T) {
	// 现金支出 500 已应用：10000/4500
	b := Balances{Bank: 10000, Cash: 4500}
	old := Effect{TypeExpense, 500, PaymentCash}

	got, err := Replace(b, old, Effect{TypeExpense, 600, PaymentTransfer})
	require.NoError(t, err)
	assert.Equal(t, Balances{9400, 5000}, got)

	// 冲回后余额足够即可
	got, err = Replace(b, old, Effect{TypeExpense, 5000, PaymentCash})
	require.NoError(t, err)
	assert.Equal(t, Balances{10000, 0}, got)

	// 新值失败时余额保持原样
	got, err = Replace(b, old, Effect{TypeExpense, 20000, PaymentTransfer})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, b, got)

	// 切换为收入
	got, err = Replace(b, old, Effect{TypeIncome, 500, PaymentCash})
	require.NoError(t, err)
	assert.Equal(t, Balances{10000, 5500}, got)
}

func TestReplaceEqualsDeleteThenCreate(t *testing.T) {
	base := Balances{Bank: 2000, Cash: 2000}
	old := Effect{TypeExpense, 800, PaymentTransfer}
	updated := Effect{TypeIncome, 250, PaymentCash}

	withOld, err := Apply(base, old)
	require.NoError(t, err)

	replaced, err := Replace(withOld, old, updated)
	require.NoError(t, err)

	fresh, err := Apply(base, updated)
	require.NoError(t, err)
	assert.Equal(t, fresh, replaced)
}

func TestOverflowIsRejected(t *testing.T) {
	b := Balances{Bank: math.MaxInt64}
	got, err := Apply(b, Effect{TypeIncome, 1, PaymentTransfer})
	assert.ErrorIs(t, err, ErrAmountOverflow)
	assert.NotErrorIs(t, err, ErrBalanceInvariant)
	assert.Equal(t, b, got)
}

func TestVerify(t *testing.T) {
	assert.NoError(t, Verify(Balances{0, 0}, Balances{0, 0}))
	assert.NoError(t, Verify(Balances{-5, 0}, Balances{10, 0}))

	// 花掉的收入被冲回
	err := Verify(Balances{Bank: 0, Cash: 0}, Balances{Bank: 0, Cash: -900})
	assert.ErrorIs(t, err, ErrNegativeBalance)
	assert.NotErrorIs(t, err, ErrBalanceInvariant)

	// 操作前就已为负
	err = Verify(Balances{Bank: -1, Cash: 0}, Balances{Bank: -1, Cash: -10})
	assert.ErrorIs(t, err, ErrBalanceInvariant)
}

func TestTotal(t *testing.T) {
	assert.Equal(t, int64(14500), Balances{Bank: 10000, Cash: 4500}.Total())
}
