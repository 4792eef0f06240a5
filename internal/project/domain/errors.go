package domain

import "errors"

var (
	ErrProjectNotFound   = errors.New("project_not_found")
	ErrCategoryNotFound  = errors.New("category_not_found")
	ErrCategoryExists    = errors.New("category_exists")
	ErrInvalidTitle      = errors.New("invalid_title")
	ErrInvalidBudget     = errors.New("invalid_budget")
	ErrInvalidDeadline   = errors.New("invalid_deadline")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidCategory   = errors.New("invalid_category")
	ErrInvalidName       = errors.New("invalid_name")
	ErrProjectTerminal   = errors.New("project_terminal")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
	ErrProjectHasLedger  = errors.New("project_has_ledger")
)
