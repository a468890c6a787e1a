package rpc

import (
	"errors"
	"net/http"

	"credpool/core"
	"credpool/native/deposit"
	"credpool/native/loan"
)

// engineError translates ledger failures into JSON-RPC errors. Validation
// failures surface as invalid params; domain rejections keep their sentinel
// message under the generic server-error code so clients can branch on text
// without sniffing HTTP statuses.
func engineError(err error) *rpcError {
	switch {
	case errors.Is(err, core.ErrUnauthorized):
		return &rpcError{HTTPStatus: http.StatusUnauthorized, Code: codeUnauthorized, Message: err.Error()}
	case errors.Is(err, deposit.ErrInvalidAmount),
		errors.Is(err, deposit.ErrValueMismatch),
		errors.Is(err, loan.ErrInvalidAmount),
		errors.Is(err, loan.ErrInvalidTerm),
		errors.Is(err, loan.ErrValueMismatch):
		return &rpcError{HTTPStatus: http.StatusBadRequest, Code: codeInvalidParams, Message: err.Error()}
	case errors.Is(err, deposit.ErrLocked),
		errors.Is(err, deposit.ErrInsufficientBalance),
		errors.Is(err, deposit.ErrLiquidityLow),
		errors.Is(err, deposit.ErrTransferFailed),
		errors.Is(err, loan.ErrBorrowerBanned),
		errors.Is(err, loan.ErrUnpaidLoanExists),
		errors.Is(err, loan.ErrNoActiveLoan),
		errors.Is(err, loan.ErrRepayExceedsOutstanding),
		errors.Is(err, loan.ErrLiquidityLow),
		errors.Is(err, loan.ErrNoCredential),
		errors.Is(err, loan.ErrInvalidScore),
		errors.Is(err, loan.ErrScoreTooLow),
		errors.Is(err, loan.ErrNotBanned),
		errors.Is(err, loan.ErrTransferFailed):
		return &rpcError{HTTPStatus: http.StatusConflict, Code: codeServerError, Message: err.Error()}
	default:
		return &rpcError{HTTPStatus: http.StatusInternalServerError, Code: codeServerError, Message: "internal error", Data: err.Error()}
	}
}
