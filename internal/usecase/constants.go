package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultExternalTimeout bounds a single external saga step
	DefaultExternalTimeout = 10 * time.Second

	// MaxExternalSteps is the maximum number of external steps in one saga
	MaxExternalSteps = 4

	// MaxCompanyEmailCandidates bounds the numeric suffix search for a company email
	MaxCompanyEmailCandidates = 50

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
