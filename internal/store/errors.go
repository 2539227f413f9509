package store

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateKey is returned when adding a record whose key already exists.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrNotFound is returned when a record with the given key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AppendStage identifies which half of a two-file ledger append failed.
type AppendStage string

const (
	AppendHeader AppendStage = "header"
	AppendItems  AppendStage = "items"
)

// LedgerAppendError reports a failed ledger append. When Stage is
// AppendItems the header line is already durable, so the ledger holds a
// sale with missing line items until an operator corrects it manually.
// There is no rollback across the two files.
type LedgerAppendError struct {
	Stage  AppendStage
	SaleID string
	Err    error
}

func (e *LedgerAppendError) Error() string {
	return fmt.Sprintf("ledger append (%s) for sale %s: %v", e.Stage, e.SaleID, e.Err)
}

func (e *LedgerAppendError) Unwrap() error { return e.Err }
