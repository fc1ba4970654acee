package domain

import "errors"

var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBlocked             = errors.New("user is blocked")
	ErrAdminIdentity       = errors.New("admin identity has no wallet")
	ErrRateLimited         = errors.New("rate limit exceeded")
)
