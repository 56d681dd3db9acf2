package errors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotAcceptedState   = errors.New("transaction is not in accepted status")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
