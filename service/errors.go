package service

import "errors"

var (
	ErrUserNotFound          = errors.New("user not found")
	ErrExpenseNotFound       = errors.New("expense not found")
	ErrBudgetNotFound        = errors.New("budget not found")
	ErrUsernameTaken         = errors.New("username already registered")
	ErrInvalidCredentials    = errors.New("incorrect username or password")
	ErrUserInactive          = errors.New("inactive user")
	ErrInvalidInitialBalance = errors.New("initial balances must not be negative")
	ErrInvalidLimit          = errors.New("budget limit must not be negative")
)
