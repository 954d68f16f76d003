package services

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFields        = errors.New("missing required fields")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthenticated      = errors.New("not authenticated")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrNotFound             = errors.New("not found")
	ErrUserExists           = errors.New("user already exists")
	ErrNicknameTaken        = errors.New("nickname already taken")
	ErrRateLimited          = errors.New("too many requests, slow down")
	ErrInsufficientBalance  = errors.New("insufficient wallet balance")
	ErrPayoutDetailsMissing = errors.New("add your bank details before withdrawing")
	ErrInvalidCode          = errors.New("invalid or expired verification code")
	ErrNotSuccessful        = errors.New("payment was not successful")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
)

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func missingFields(fields ...string) error {
	return fmt.Errorf("%w: %v", ErrMissingFields, fields)
}
