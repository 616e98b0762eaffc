package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound              = errors.New("entity not found")
	ErrAlreadyProcessed      = errors.New("transaction already in a terminal state")
	ErrInvalidArgument       = errors.New("invalid argument")
	ErrInvalidPhone          = errors.New("phone must match 254XXXXXXXXX")
	ErrNoMatchingPlan        = errors.New("no active plan matches the paid amount")
	ErrGatewayRejected       = errors.New("payment gateway rejected the request")
	ErrControllerUnavailable = errors.New("access controller unreachable")

	// Infra-level errors surfaced through repositories
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid transaction executor")
)
