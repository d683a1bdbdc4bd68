package service

import "errors"

var (
	ErrForbidden           = errors.New("caller lacks permission")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrBankAccountRequired = errors.New("profile has no bank account on file")
	ErrAlreadyDistributed  = errors.New("tip already distributed")
	ErrInvalidTransition   = errors.New("invalid status transition")
)
