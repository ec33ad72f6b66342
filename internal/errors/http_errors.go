package errors

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
)

type HTTPError struct {
	Status  int    `json:"-"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

var exposeDetails atomic.Bool

// ExposeInternalDetails makes HandleHTTPError include the error text of unexpected errors.
// Only meant for development environments.
func ExposeInternalDetails(expose bool) {
	exposeDetails.Store(expose)
}

// ToHTTPError maps an error to its HTTP representation.
func ToHTTPError(err error) *HTTPError {
	var (
		validationErr  *ValidationError
		notFoundErr    *NotFoundError
		userErr        *UserNotFoundError
		pairErr        *UnsupportedCurrencyPairError
		fundsErr       *InsufficientFundsError
		duplicateErr   *TransactionDuplicateError
		forbiddenErr   *ForbiddenError
		unauthorizedEr *UnauthorizedError
	)

	switch {
	case As(err, &validationErr):
		return &HTTPError{Status: http.StatusBadRequest, Code: validationErr.Code, Message: validationErr.Error()}
	case As(err, &pairErr):
		return &HTTPError{Status: http.StatusBadRequest, Code: CodeUnsupportedPair, Message: pairErr.Error()}
	case As(err, &fundsErr):
		return &HTTPError{Status: http.StatusBadRequest, Code: CodeInsufficientFunds, Message: fundsErr.Error()}
	case As(err, &notFoundErr):
		return &HTTPError{Status: http.StatusNotFound, Code: CodeNotFound, Message: notFoundErr.Error()}
	case As(err, &userErr):
		return &HTTPError{Status: http.StatusNotFound, Code: CodeUserNotFound, Message: userErr.Error()}
	case As(err, &duplicateErr):
		return &HTTPError{Status: http.StatusUnprocessableEntity, Code: CodeDuplicate, Message: duplicateErr.Error()}
	case As(err, &forbiddenErr):
		return &HTTPError{Status: http.StatusForbidden, Code: CodeForbidden, Message: forbiddenErr.Error()}
	case As(err, &unauthorizedEr):
		return &HTTPError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: unauthorizedEr.Error()}
	default:
		httpErr := &HTTPError{
			Status:  http.StatusInternalServerError,
			Code:    CodeInternal,
			Message: "Internal server error",
		}
		if exposeDetails.Load() && err != nil {
			httpErr.Detail = err.Error()
		}
		return httpErr
	}
}

// HandleHTTPError handles http errors
func HandleHTTPError(w http.ResponseWriter, err error) {
	httpErr := ToHTTPError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.Status)
	json.NewEncoder(w).Encode(httpErr)
}
