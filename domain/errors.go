package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound            ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized        ErrorCode = "UNAUTHORIZED"
	ErrCodeInactiveCampaign    ErrorCode = "INACTIVE_CAMPAIGN"
	ErrCodeInvalidAmount       ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidInput        ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidRecipient    ErrorCode = "INVALID_RECIPIENT"
	ErrCodeInsufficientBalance ErrorCode = "INSUFFICIENT_BALANCE"
	ErrCodeTransferFailed      ErrorCode = "TRANSFER_FAILED"
	ErrCodeInternal            ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common ledger errors. Every rejected operation surfaces exactly one of
// these classifications so the caller can render a specific message.
var (
	ErrCampaignNotFound    = NewError(ErrCodeNotFound, "campaign does not exist")
	ErrNotCampaignOwner    = NewError(ErrCodeUnauthorized, "only the campaign owner can perform this action")
	ErrCampaignInactive    = NewError(ErrCodeInactiveCampaign, "campaign is not active")
	ErrAmountNotPositive   = NewError(ErrCodeInvalidAmount, "amount must be greater than 0")
	ErrEmptyMetadata       = NewError(ErrCodeInvalidInput, "metadata cannot be empty")
	ErrEmptyDescription    = NewError(ErrCodeInvalidInput, "description cannot be empty")
	ErrBadRecipient        = NewError(ErrCodeInvalidRecipient, "recipient must be a valid non-zero address")
	ErrBadCaller           = NewError(ErrCodeUnauthorized, "caller must be a valid address")
	ErrInsufficientBalance = NewError(ErrCodeInsufficientBalance, "insufficient campaign balance")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
