package api

import (
	"errors"

	"expensetracker/ledger"
	"expensetracker/service"

	"github.com/gin-gonic/gin"
)

const (
	msgInsufficientFunds = "Insufficient funds"
	msgNegativeBalance   = "Balance would become negative"
	msgAmountOverflow    = "Amount too large for balance"
	msgExpenseNotFound   = "Expense not found or not owned by user"
	msgBudgetNotFound    = "Budget not found or not owned by user"
	msgUsernameTaken     = "Username already registered"
	msgBadCredentials    = "Incorrect username or password"
	msgInactiveUser      = "Inactive user"
)

// handleError 领域错误到状态码的唯一映射点
func handleError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		BadRequest(c, msgInsufficientFunds)
	case errors.Is(err, ledger.ErrNegativeBalance):
		Conflict(c, msgNegativeBalance)
	case errors.Is(err, ledger.ErrAmountOverflow):
		BadRequest(c, msgAmountOverflow)
	case errors.Is(err, service.ErrExpenseNotFound):
		NotFound(c, msgExpenseNotFound)
	case errors.Is(err, service.ErrBudgetNotFound):
		NotFound(c, msgBudgetNotFound)
	case errors.Is(err, service.ErrUserNotFound):
		NotFound(c, "User not found")
	case errors.Is(err, service.ErrUsernameTaken):
		BadRequest(c, msgUsernameTaken)
	case errors.Is(err, service.ErrInvalidCredentials):
		Unauthorized(c, msgBadCredentials)
	case errors.Is(err, service.ErrUserInactive):
		Forbidden(c, msgInactiveUser)
	case errors.Is(err, service.ErrInvalidInitialBalance),
		errors.Is(err, service.ErrInvalidLimit),
		errors.Is(err, ledger.ErrInvalidAmount):
		BadRequest(c, err.Error())
	default:
		_ = c.Error(err)
		InternalError(c, SafeErrorMessage(err, fallback))
	}
}

// bindError 参数校验失败
func bindError(c *gin.Context, err error) {
	BadRequest(c, SafeErrorMessage(err, "Invalid request parameters"))
}
