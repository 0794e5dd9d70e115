package domain

import "errors"

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrUnknownPackage = errors.New("invalid investment package")
	ErrAmountTooLow   = errors.New("amount below package minimum")
	ErrAmountTooHigh  = errors.New("amount above package maximum")
	ErrBelowMinimum   = errors.New("minimum investment amount is $100")
	ErrInvalidTerm    = errors.New("term must be a positive number of months")
	ErrNotFound       = errors.New("no matching investment")
	ErrGateway        = errors.New("payment gateway error")
	ErrPersistence    = errors.New("database error")
)
