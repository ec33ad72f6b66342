package errors

import (
	"errors"
	"fmt"
)

const (
	ErrFailedDispatchOutbox           = "Failed to dispatch outbox events"
	ErrorFailedToConnectToTheDatabase = "Failed to connect to the database"
	ErrorFailedToMigrateTheDatabase   = "Failed to migrate the database"
	ErrorFailedToRunTheServer         = "Failed to run the server"
	ErrorFailedToShutdownTheServer    = "Failed to shutdown the server"
	ErrFailedDecodeRequestBody        = "Failed to decode request body"
	ErrInvalidRequestBody             = "Invalid request body"
	ErrFailedUpdateStatus             = "Failed to update transaction status"
	ErrFailedCreateDeposit            = "Failed to create deposit"
	ErrFailedCreateOrder              = "Failed to create order"
	ErrFailedRefreshRates             = "Failed to refresh exchange rates"
	ErrInvalidStatus                  = "Invalid status"
	ErrInvalidCurrency                = "Invalid currency"
	ErrInvalidAmount                  = "Invalid amount"
	ErrInvalidUserID                  = "Invalid User ID"
	ErrDepositNotPending              = "Only pending deposits can be deleted"
	ErrAdminRequired                  = "Admin privileges required"
	ErrInvalidInternalToken           = "Invalid internal token"
)

// Machine readable codes carried in HTTP error bodies.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeInvalidAmount     = "INVALID_AMOUNT"
	CodeInvalidCurrency   = "INVALID_CURRENCY"
	CodeDepositNotPending = "DEPOSIT_NOT_PENDING"
	CodeUnsupportedPair   = "UNSUPPORTED_CURRENCY_PAIR"
	CodeNotFound          = "NOT_FOUND"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeDuplicate         = "DUPLICATE_TRANSACTION"
	CodeForbidden         = "FORBIDDEN"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL_ERROR"
)

// ValidationError is a rejected input. It never reaches the storage layer.
type ValidationError struct {
	Code    string
	Message string
}

func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// NewBadRequestError is a ValidationError with the generic code.
func NewBadRequestError(message string) *ValidationError {
	return &ValidationError{Code: CodeValidation, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Bad request: %s", e.Message)
}

type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// UserNotFoundError aborts the enclosing storage transaction.
type UserNotFoundError struct {
	UserID string
}

func NewUserNotFoundError(userID string) *UserNotFoundError {
	return &UserNotFoundError{UserID: userID}
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user %s not found", e.UserID)
}

type UnsupportedCurrencyPairError struct {
	From string
	To   string
}

func NewUnsupportedCurrencyPairError(from, to string) *UnsupportedCurrencyPairError {
	return &UnsupportedCurrencyPairError{From: from, To: to}
}

func (e *UnsupportedCurrencyPairError) Error() string {
	return fmt.Sprintf("unsupported currency pair %s/%s", e.From, e.To)
}

type InsufficientFundsError struct{}

func NewInsufficientFundsError() *InsufficientFundsError {
	return &InsufficientFundsError{}
}

func (e *InsufficientFundsError) Error() string {
	return "insufficient funds"
}

// Is makes every InsufficientFundsError match errors.Is regardless of pointer identity.
func (e *InsufficientFundsError) Is(target error) bool {
	_, ok := target.(*InsufficientFundsError)
	return ok
}

type TransactionDuplicateError struct{}

func NewTransactionDuplicateError() *TransactionDuplicateError {
	return &TransactionDuplicateError{}
}

func (e *TransactionDuplicateError) Error() string {
	return "transaction already exists"
}

func (e *TransactionDuplicateError) Is(target error) bool {
	_, ok := target.(*TransactionDuplicateError)
	return ok
}

type ForbiddenError struct {
	Message string
}

func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

type UnauthorizedError struct {
	Message string
}

func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

// NotificationDispatchError is logged where it happens and never returned to callers of the core.
type NotificationDispatchError struct {
	Sink    string
	EventID string
	Err     error
}

func NewNotificationDispatchError(sink, eventID string, err error) *NotificationDispatchError {
	return &NotificationDispatchError{Sink: sink, EventID: eventID, Err: err}
}

func (e *NotificationDispatchError) Error() string {
	return fmt.Sprintf("dispatch event %s to %s: %v", e.EventID, e.Sink, e.Err)
}

func (e *NotificationDispatchError) Unwrap() error {
	return e.Err
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
