package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInvalidTransaction = &AppError{http.StatusBadRequest, "INVALID_TRANSACTION", "Transaction is invalid"}
	ErrInsufficientFunds  = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient funds"}
	ErrInsufficientShares = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_SHARES", "Insufficient shares"}
	ErrUnknownSymbol      = &AppError{http.StatusUnprocessableEntity, "UNKNOWN_SYMBOL", "Unknown symbol"}
	ErrAccountNotFound    = &AppError{http.StatusNotFound, "ACCOUNT_NOT_FOUND", "No account has been opened"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
	ErrIdempotencyInProgress = &AppError{http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "A request with this idempotency key is still being processed"}
	ErrRequestTooLarge       = &AppError{http.StatusRequestEntityTooLarge, "REQUEST_TOO_LARGE", "Request body is too large"}
)
