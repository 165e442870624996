package ledger

import (
	"fmt"
	"strings"

	"github.com/govalues/money"
)

// FormatMinor 将最小货币单位格式化为带小数的金额，如 USD 1234 → "12.34"
func FormatMinor(units int64, currency string) (string, error) {
	a, err := money.NewAmountFromMinorUnits(currency, units)
	if err != nil {
		return "", fmt.Errorf("format amount: %w", err)
	}
	return a.Decimal().String(), nil
}

// MinorToFloat 最小货币单位转为浮点金额，用于表格中的数值单元格
func MinorToFloat(units int64, currency string) (float64, error) {
	a, err := money.NewAmountFromMinorUnits(currency, units)
	if err != nil {
		return 0, fmt.Errorf("convert amount: %w", err)
	}
	f, ok := a.Decimal().Float64()
	if !ok {
		return 0, fmt.Errorf("convert amount: %s out of float range", a.Decimal())
	}
	return f, nil
}

// NumberFormat 按币种小数位生成表格数字格式，如 USD → "0.00"，JPY → "0"
func NumberFormat(currency string) (string, error) {
	c, err := money.ParseCurr(currency)
	if err != nil {
		return "", err
	}
	if c.Scale() == 0 {
		return "0", nil
	}
	return "0." + strings.Repeat("0", c.Scale()), nil
}

// CurrencyCode 校验并规范化币种代码
func CurrencyCode(currency string) (string, error) {
	c, err := money.ParseCurr(currency)
	if err != nil {
		return "", err
	}
	return c.Code(), nil
}
