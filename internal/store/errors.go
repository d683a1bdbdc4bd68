package store

import "errors"

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrAlreadyMember      = errors.New("user is already a member of this profile")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInviteNotFound     = errors.New("invite not found")
	ErrTipNotFound        = errors.New("tip not found")
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
)
