package leaveerrors

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
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidRequestID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave request id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrHalfDayRange = apperror.New(
		apperror.CodeInvalidInput,
		"half_day is only valid for a single-day request",
		http.StatusBadRequest,
	)
	ErrEmployeeNotInCompany = apperror.New(
		apperror.CodeInvalidInput,
		"employee does not belong to this company",
		http.StatusBadRequest,
	)
	ErrLeaveOverlap = apperror.New(
		apperror.CodeConflict,
		"leave already requested in overlapping period",
		http.StatusConflict,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrAlreadyDecided = apperror.New(
		apperror.CodeInvalidState,
		"leave request has already been decided",
		http.StatusConflict,
	)
	ErrNotRequestApprover = apperror.New(
		apperror.CodeForbidden,
		"only the employee's manager may decide this request",
		http.StatusForbidden,
	)
	ErrCommentsRequired = apperror.New(
		apperror.CodeInvalidInput,
		"comments are required when rejecting",
		http.StatusBadRequest,
	)
	ErrNotRequestOwner = apperror.New(
		apperror.CodeForbidden,
		"only the requesting employee may ask for cancellation",
		http.StatusForbidden,
	)
	ErrOriginalNotCancellable = apperror.New(
		apperror.CodeInvalidState,
		"only pending or approved requests can be cancelled",
		http.StatusConflict,
	)
	ErrCancellationOfCancellation = apperror.New(
		apperror.CodeInvalidState,
		"a cancellation request cannot itself be cancelled",
		http.StatusConflict,
	)
	ErrCancellationAlreadyRequested = apperror.New(
		apperror.CodeConflict,
		"a cancellation request is already pending for this leave",
		http.StatusConflict,
	)
	ErrOriginalMissing = apperror.New(
		apperror.CodeInvariantViolation,
		"cancellation request references a missing original",
		http.StatusInternalServerError,
	)
)
