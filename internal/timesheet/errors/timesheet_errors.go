package timesheeterrors

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
	ErrInvalidTimesheetID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid timesheet id",
		http.StatusBadRequest,
	)
	ErrInvalidProjectID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid project id",
		http.StatusBadRequest,
	)
	ErrInvalidTaskID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid task id",
		http.StatusBadRequest,
	)
	ErrInvalidWeekStart = apperror.New(
		apperror.CodeInvalidInput,
		"week_start_date must be a Monday in YYYY-MM-DD format",
		http.StatusBadRequest,
	)
	ErrInvalidDayHours = apperror.New(
		apperror.CodeInvalidInput,
		"daily hours must be between 0 and 24",
		http.StatusBadRequest,
	)
	ErrEmployeeNotInCompany = apperror.New(
		apperror.CodeInvalidInput,
		"employee does not belong to this company",
		http.StatusBadRequest,
	)
	ErrTimesheetNotFound = apperror.New(
		apperror.CodeNotFound,
		"timesheet not found",
		http.StatusNotFound,
	)
	ErrDuplicateWeek = apperror.New(
		apperror.CodeConflict,
		"a timesheet already exists for this employee and week",
		http.StatusConflict,
	)
	ErrNotDraft = apperror.New(
		apperror.CodeInvalidState,
		"only draft timesheets can be edited or submitted",
		http.StatusConflict,
	)
	ErrNotSubmitted = apperror.New(
		apperror.CodeInvalidState,
		"only submitted timesheets can be decided",
		http.StatusConflict,
	)
	ErrNotRejected = apperror.New(
		apperror.CodeInvalidState,
		"only rejected timesheets can be resubmitted",
		http.StatusConflict,
	)
	ErrNotTimesheetApprover = apperror.New(
		apperror.CodeForbidden,
		"only the employee's manager may decide this timesheet",
		http.StatusForbidden,
	)
	ErrNotTimesheetOwner = apperror.New(
		apperror.CodeForbidden,
		"only the owning employee may edit this timesheet",
		http.StatusForbidden,
	)
	ErrCommentsRequired = apperror.New(
		apperror.CodeInvalidInput,
		"comments are required when rejecting",
		http.StatusBadRequest,
	)
)
