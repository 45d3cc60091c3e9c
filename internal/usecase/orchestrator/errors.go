package orchestrator

import (
	"errors"

	"github.com/bayuh-ra/bbglo-backend/internal/usecase/dispatch"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/expense"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/purchaseorder"
	"github.com/bayuh-ra/bbglo-backend/internal/usecase/salesorder"
)

// Kind classifies an error for callers. Transports map kinds to their own
// status codes; retryability is part of the contract.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindNotFound            Kind = "not_found"
	KindInvalidTransition   Kind = "invalid_transition"
	KindStaleState          Kind = "stale_state"
	KindCancellationExpired Kind = "cancellation_window_expired"
	KindNothingToRepurchase Kind = "nothing_to_repurchase"
	KindCascadeDeleteFailed Kind = "cascade_delete_failed"
	KindStoreUnavailable    Kind = "store_unavailable"
)

type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.cause }

// Retryable reports whether the caller may usefully retry the same request.
func (e *Error) Retryable() bool {
	return e.Kind == KindStaleState || e.Kind == KindStoreUnavailable
}

// Classify converts a component error into the typed error handed to
// callers. Unknown errors are treated as store trouble: safe to retry with
// backoff, never silently swallowed.
func Classify(err error) *Error {
	switch {
	case errors.Is(err, salesorder.ErrInvalidInput),
		errors.Is(err, purchaseorder.ErrInvalidInput),
		errors.Is(err, expense.ErrInvalidInput),
		errors.Is(err, dispatch.ErrInvalidInput):
		return &Error{Kind: KindInvalidInput, Message: "the request is missing or has malformed fields", cause: err}

	case errors.Is(err, salesorder.ErrOrderMissing):
		return &Error{Kind: KindNotFound, Message: "sales order not found", cause: err}

	case errors.Is(err, purchaseorder.ErrPOMissing):
		return &Error{Kind: KindNotFound, Message: "purchase order not found", cause: err}

	case errors.Is(err, salesorder.ErrInvalidTransition),
		errors.Is(err, purchaseorder.ErrInvalidTransition):
		return &Error{Kind: KindInvalidTransition, Message: "the requested status change is not allowed from the current status", cause: err}

	case errors.Is(err, salesorder.ErrStaleState),
		errors.Is(err, purchaseorder.ErrStaleState):
		return &Error{Kind: KindStaleState, Message: "the record was changed by someone else; reload and try again", cause: err}

	case errors.Is(err, salesorder.ErrCancellationWindowExpired):
		return &Error{Kind: KindCancellationExpired, Message: "the cancellation window for this order has expired", cause: err}

	case errors.Is(err, purchaseorder.ErrNothingToRepurchase):
		return &Error{Kind: KindNothingToRepurchase, Message: "all items on this purchase order are fully received", cause: err}

	case errors.Is(err, purchaseorder.ErrCascadeDeleteFailed):
		return &Error{Kind: KindCascadeDeleteFailed, Message: "the delete did not finish; the record may still exist", cause: err}

	default:
		return &Error{Kind: KindStoreUnavailable, Message: "the data store is temporarily unavailable; try again shortly", cause: err}
	}
}
