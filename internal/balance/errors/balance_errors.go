package balanceerrors

import (
	"net/http"

	"hrms/internal/shared/apperror"
)

var (
	ErrInvalidCompanyID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid company id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidAmount = apperror.New(
		apperror.CodeInvalidInput,
		"day amount must be greater than zero",
		http.StatusBadRequest,
	)
	ErrBalanceNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave balance not found",
		http.StatusNotFound,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInsufficientBalance,
		"insufficient leave balance",
		http.StatusConflict,
	)
	ErrInsufficientHistory = apperror.New(
		apperror.CodeInsufficientHistory,
		"cannot credit more days than were taken",
		http.StatusConflict,
	)
	ErrLedgerDrift = apperror.New(
		apperror.CodeInvariantViolation,
		"pending reservation does not cover the requested amount",
		http.StatusInternalServerError,
	)
	ErrUnknownOperation = apperror.New(
		apperror.CodeInvalidInput,
		"unknown ledger operation",
		http.StatusBadRequest,
	)
)
