package domain

import "errors"

var (
	ErrFinancialNotFound  = errors.New("financial_not_found")
	ErrFinancialExists    = errors.New("financial_exists")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidDescription = errors.New("invalid_description")
	ErrInvalidPrice       = errors.New("invalid_price")
)
