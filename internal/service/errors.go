package service

import (
	"errors"
	"fmt"

	"retailpos/internal/repository"
)

type ErrorKind string

const (
	KindInvalidRequest      ErrorKind = "invalid_request"
	KindNotFound            ErrorKind = "not_found"
	KindConflict            ErrorKind = "conflict"
	KindInsufficientStock   ErrorKind = "insufficient_stock"
	KindBelowMinimumPrice   ErrorKind = "below_minimum_price"
	KindSameBranchTransfer  ErrorKind = "same_branch_transfer"
	KindInvalidRedemption   ErrorKind = "invalid_redemption"
	KindBalanceConsistency  ErrorKind = "balance_consistency"
	KindSkuAllocationFailed ErrorKind = "sku_allocation_failed"
	KindPersistenceFailure  ErrorKind = "persistence_failure"
)

// EngineError is the typed error every service operation returns.
// errors.Is matches on Kind, so callers compare against the sentinels below.
type EngineError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *EngineError) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *EngineError) Unwrap() error { return e.Err }

func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidRequest      = &EngineError{Kind: KindInvalidRequest}
	ErrNotFound            = &EngineError{Kind: KindNotFound}
	ErrConflict            = &EngineError{Kind: KindConflict}
	ErrInsufficientStock   = &EngineError{Kind: KindInsufficientStock}
	ErrBelowMinimumPrice   = &EngineError{Kind: KindBelowMinimumPrice}
	ErrSameBranchTransfer  = &EngineError{Kind: KindSameBranchTransfer}
	ErrInvalidRedemption   = &EngineError{Kind: KindInvalidRedemption}
	ErrBalanceConsistency  = &EngineError{Kind: KindBalanceConsistency}
	ErrSkuAllocationFailed = &EngineError{Kind: KindSkuAllocationFailed}
	ErrPersistenceFailure  = &EngineError{Kind: KindPersistenceFailure}
)

func newError(kind ErrorKind, format string, args ...any) *EngineError {
	return &EngineError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of err, or "" when err is not an EngineError.
func KindOf(err error) ErrorKind {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return ""
}

// storeError classifies an error coming back from the store. Engine errors
// raised inside a transaction pass through untouched.
func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ee *EngineError
	if errors.As(err, &ee) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return &EngineError{Kind: KindNotFound, Msg: op + ": not found", Err: err}
	}
	return &EngineError{Kind: KindPersistenceFailure, Msg: op, Err: err}
}
