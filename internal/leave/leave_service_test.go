package leave_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"hrms/internal/balance"
	"hrms/internal/domain"
	"hrms/internal/leave"
	leaveerrors "hrms/internal/leave/errors"
	"hrms/internal/shared/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type recordedOp struct {
	op         balance.Op
	employeeID string
	leaveType  string
	year       int
	days       decimal.Decimal
}

// fakeLedger mimics the real ledger's transaction envelope without touching
// any balance rows. Ops are recorded for assertions.
type fakeLedger struct {
	db       *sql.DB
	mu       sync.Mutex
	ops      []recordedOp
	failWith error
}

func (f *fakeLedger) Apply(ctx context.Context, companyID, employeeID, leaveType string, year int, op balance.Op, days decimal.Decimal) error {
	return f.Execute(ctx, companyID, employeeID, leaveType, year, op, days, nil)
}

func (f *fakeLedger) Execute(ctx context.Context, companyID, employeeID, leaveType string, year int, op balance.Op, days decimal.Decimal, fn func(tx *sql.Tx) error) error {
	if f.failWith != nil {
		return f.failWith
	}

	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if fn != nil {
		if err := fn(tx); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	f.mu.Lock()
	f.ops = append(f.ops, recordedOp{op: op, employeeID: employeeID, leaveType: leaveType, year: year, days: days})
	f.mu.Unlock()
	return nil
}

func (f *fakeLedger) GetByOwnerAndType(ctx context.Context, companyID, employeeID, leaveType string, year int) (balance.BalanceResponse, error) {
	return balance.BalanceResponse{}, nil
}

func (f *fakeLedger) GetAllForEmployee(ctx context.Context, companyID, employeeID string) ([]balance.BalanceResponse, error) {
	return nil, nil
}

func (f *fakeLedger) Upsert(ctx context.Context, companyID string, req balance.UpsertBalanceRequest) (balance.BalanceResponse, error) {
	return balance.BalanceResponse{}, nil
}

type fakeCounter struct {
	mu   sync.Mutex
	next int64
}

func (f *fakeCounter) GetNextValue(ctx context.Context, companyID, counterType string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	return f.next, nil
}

type fakeLeaveRepository struct {
	mu                       sync.Mutex
	rows                     map[string]*leave.LeaveRequest
	employeeBelongsToCompany func(ctx context.Context, companyID, employeeID string) (bool, error)
	employeeReportsToManager func(ctx context.Context, companyID, employeeID, managerID string) (bool, error)
	hasOverlappingPeriodFn   func(ctx context.Context, companyID, employeeID string, startDate, endDate time.Time, excludeID *string) (bool, error)
	hasPendingCancellationFn func(ctx context.Context, companyID, originalID string) (bool, error)
}

func newFakeLeaveRepository() *fakeLeaveRepository {
	return &fakeLeaveRepository{rows: make(map[string]*leave.LeaveRequest)}
}

func (f *fakeLeaveRepository) put(l *leave.LeaveRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *l
	f.rows[l.ID.String()] = &cp
}

func (f *fakeLeaveRepository) WithTx(tx *sql.Tx) leave.Repository { return f }

func (f *fakeLeaveRepository) Create(ctx context.Context, l *leave.LeaveRequest) error {
	f.put(l)
	return nil
}

func (f *fakeLeaveRepository) FindAllByCompany(ctx context.Context, companyID string, filter leave.ListFilter) ([]leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.LeaveRequest
	for _, l := range f.rows {
		if l.CompanyID.String() != companyID {
			continue
		}
		if filter.EmployeeID != "" && l.EmployeeID.String() != filter.EmployeeID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

func (f *fakeLeaveRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*leave.LeaveRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.rows[id]
	if !ok || l.CompanyID.String() != companyID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLeaveRepository) Update(ctx context.Context, l *leave.LeaveRequest) error {
	f.put(l)
	return nil
}

func (f *fakeLeaveRepository) FindPendingForApprover(ctx context.Context, companyID, managerID string) ([]leave.LeaveRequest, error) {
	return nil, nil
}

func (f *fakeLeaveRepository) EmployeeBelongsToCompany(ctx context.Context, companyID, employeeID string) (bool, error) {
	if f.employeeBelongsToCompany != nil {
		return f.employeeBelongsToCompany(ctx, companyID, employeeID)
	}
	return true, nil
}

func (f *fakeLeaveRepository) EmployeeReportsToManager(ctx context.Context, companyID, employeeID, managerID string) (bool, error) {
	if f.employeeReportsToManager != nil {
		return f.employeeReportsToManager(ctx, companyID, employeeID, managerID)
	}
	return true, nil
}

func (f *fakeLeaveRepository) HasOverlappingPeriod(ctx context.Context, companyID, employeeID string, startDate, endDate time.Time, excludeID *string) (bool, error) {
	if f.hasOverlappingPeriodFn != nil {
		return f.hasOverlappingPeriodFn(ctx, companyID, employeeID, startDate, endDate, excludeID)
	}
	return false, nil
}

func (f *fakeLeaveRepository) HasPendingCancellation(ctx context.Context, companyID, originalID string) (bool, error) {
	if f.hasPendingCancellationFn != nil {
		return f.hasPendingCancellationFn(ctx, companyID, originalID)
	}
	return false, nil
}

type leaveServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service leave.Service
	repo    *fakeLeaveRepository
	ledger  *fakeLedger
}

func setupLeaveServiceTest(t *testing.T) *leaveServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := newFakeLeaveRepository()
	ledger := &fakeLedger{db: db}
	svc := leave.NewService(db, repo, ledger, &fakeCounter{}, nil)

	return &leaveServiceDeps{
		db:      db,
		sqlMock: sqlMock,
		service: svc,
		repo:    repo,
		ledger:  ledger,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	assert.NoError(t, err)
	return v
}

func seedRequest(t *testing.T, repo *fakeLeaveRepository, status string, days string) *leave.LeaveRequest {
	t.Helper()
	l := &leave.LeaveRequest{
		ID:            uuid.New(),
		CompanyID:     uuid.New(),
		EmployeeID:    uuid.New(),
		RequestNumber: "LR-000001",
		LeaveType:     "ANNUAL",
		StartDate:     time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC),
		TotalDays:     d(t, days),
		Status:        status,
		CreatedBy:     uuid.New(),
	}
	repo.put(l)
	return l
}

func TestLeaveService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New().String()
	employeeID := uuid.New().String()

	t.Run("reserves days and stores a pending request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.Create(ctx, companyID, employeeID, leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			LeaveType:  "ANNUAL",
			StartDate:  "2026-09-07",
			EndDate:    "2026-09-09",
			Reason:     "family visit",
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPending, resp.Status)
		assert.Equal(t, "LR-000001", resp.RequestNumber)
		assert.Equal(t, "3", resp.TotalDays)

		assert.Len(t, deps.ledger.ops, 1)
		op := deps.ledger.ops[0]
		assert.Equal(t, balance.OpReserve, op.op)
		assert.Equal(t, employeeID, op.employeeID)
		assert.Equal(t, "ANNUAL", op.leaveType)
		assert.Equal(t, 2026, op.year)
		assert.True(t, op.days.Equal(d(t, "3")))
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("half day books half a day", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.Create(ctx, companyID, employeeID, leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			LeaveType:  "ANNUAL",
			StartDate:  "2026-09-07",
			EndDate:    "2026-09-07",
			HalfDay:    true,
		})
		assert.NoError(t, err)
		assert.Equal(t, "0.5", resp.TotalDays)
	})

	t.Run("half day over a range is refused", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Create(ctx, companyID, employeeID, leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			LeaveType:  "ANNUAL",
			StartDate:  "2026-09-07",
			EndDate:    "2026-09-08",
			HalfDay:    true,
		})
		assert.ErrorIs(t, err, leaveerrors.ErrHalfDayRange)
		assert.Empty(t, deps.ledger.ops)
	})

	t.Run("overlap rolls the reservation back", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		deps.repo.hasOverlappingPeriodFn = func(ctx context.Context, companyID, employeeID string, startDate, endDate time.Time, excludeID *string) (bool, error) {
			return true, nil
		}

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.Create(ctx, companyID, employeeID, leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			LeaveType:  "ANNUAL",
			StartDate:  "2026-09-07",
			EndDate:    "2026-09-09",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveOverlap)
		assert.Empty(t, deps.ledger.ops)
		assert.Empty(t, deps.repo.rows)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("insufficient balance stores nothing", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		deps.ledger.failWith = apperror.New(apperror.CodeInsufficientBalance, "insufficient leave balance", 409)

		_, err := deps.service.Create(ctx, companyID, employeeID, leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			LeaveType:  "ANNUAL",
			StartDate:  "2026-09-07",
			EndDate:    "2026-09-09",
		})
		assert.Error(t, err)
		assert.Empty(t, deps.repo.rows)
	})

	t.Run("bad date range", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Create(ctx, companyID, employeeID, leave.CreateLeaveRequest{
			EmployeeID: employeeID,
			LeaveType:  "ANNUAL",
			StartDate:  "2026-09-09",
			EndDate:    "2026-09-07",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateRange)
	})
}

func TestLeaveService_Decide(t *testing.T) {
	ctx := context.Background()

	t.Run("approve commits the reservation", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		l := seedRequest(t, deps.repo, leave.StatusPending, "3")
		managerID := uuid.New().String()

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.Decide(ctx, l.CompanyID.String(), managerID, domain.RoleManager, l.ID.String(), leave.DecisionRequest{
			Action: leave.ActionApprove,
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.NotNil(t, resp.DecidedBy)
		assert.Equal(t, managerID, *resp.DecidedBy)

		assert.Len(t, deps.ledger.ops, 1)
		assert.Equal(t, balance.OpCommit, deps.ledger.ops[0].op)
		assert.True(t, deps.ledger.ops[0].days.Equal(d(t, "3")))
	})

	t.Run("reject releases the reservation", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		l := seedRequest(t, deps.repo, leave.StatusPending, "3")

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.Decide(ctx, l.CompanyID.String(), uuid.New().String(), domain.RoleManager, l.ID.String(), leave.DecisionRequest{
			Action:   leave.ActionReject,
			Comments: "short staffed that week",
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusRejected, resp.Status)
		assert.NotNil(t, resp.DecisionComments)

		assert.Len(t, deps.ledger.ops, 1)
		assert.Equal(t, balance.OpRelease, deps.ledger.ops[0].op)
	})

	t.Run("reject requires comments", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		l := seedRequest(t, deps.repo, leave.StatusPending, "3")

		_, err := deps.service.Decide(ctx, l.CompanyID.String(), uuid.New().String(), domain.RoleManager, l.ID.String(), leave.DecisionRequest{
			Action: leave.ActionReject,
		})
		assert.ErrorIs(t, err, leaveerrors.ErrCommentsRequired)
		assert.Empty(t, deps.ledger.ops)
	})

	t.Run("whitespace comments do not satisfy a rejection", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		l := seedRequest(t, deps.repo, leave.StatusPending, "3")

		_, err := deps.service.Decide(ctx, l.CompanyID.String(), uuid.New().String(), domain.RoleManager, l.ID.String(), leave.DecisionRequest{
			Action:   leave.ActionReject,
			Comments: "   ",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrCommentsRequired)
		assert.Empty(t, deps.ledger.ops)
	})

	t.Run("a decided request stays decided", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		l := seedRequest(t, deps.repo, leave.StatusApproved, "3")

		_, err := deps.service.Decide(ctx, l.CompanyID.String(), uuid.New().String(), domain.RoleManager, l.ID.String(), leave.DecisionRequest{
			Action: leave.ActionApprove,
		})
		assert.ErrorIs(t, err, leaveerrors.ErrAlreadyDecided)
		assert.Empty(t, deps.ledger.ops)
	})

	t.Run("manager outside the reporting line is refused", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		l := seedRequest(t, deps.repo, leave.StatusPending, "3")
		deps.repo.employeeReportsToManager = func(ctx context.Context, companyID, employeeID, managerID string) (bool, error) {
			return false, nil
		}

		_, err := deps.service.Decide(ctx, l.CompanyID.String(), uuid.New().String(), domain.RoleManager, l.ID.String(), leave.DecisionRequest{
			Action: leave.ActionApprove,
		})
		assert.ErrorIs(t, err, leaveerrors.ErrNotRequestApprover)
		assert.Empty(t, deps.ledger.ops)
	})

	t.Run("hr bypasses the reporting line", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		l := seedRequest(t, deps.repo, leave.StatusPending, "3")
		deps.repo.employeeReportsToManager = func(ctx context.Context, companyID, employeeID, managerID string) (bool, error) {
			return false, nil
		}

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.Decide(ctx, l.CompanyID.String(), uuid.New().String(), domain.RoleHR, l.ID.String(), leave.DecisionRequest{
			Action: leave.ActionApprove,
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
	})

	t.Run("unknown request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Decide(ctx, uuid.New().String(), uuid.New().String(), domain.RoleManager, uuid.New().String(), leave.DecisionRequest{
			Action: leave.ActionApprove,
		})
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	})
}

func TestLeaveService_CreateCancellation(t *testing.T) {
	ctx := context.Background()

	t.Run("files a pending cancellation without touching the ledger", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		original := seedRequest(t, deps.repo, leave.StatusApproved, "3")

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.CreateCancellation(ctx, original.CompanyID.String(), original.EmployeeID.String(), original.ID.String(), leave.CreateCancellationRequest{
			Reason: "trip fell through",
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusPending, resp.Status)
		assert.True(t, resp.IsCancellation)
		assert.NotNil(t, resp.OriginalRequestID)
		assert.Equal(t, original.ID.String(), *resp.OriginalRequestID)
		assert.Equal(t, original.TotalDays.String(), resp.TotalDays)

		assert.Empty(t, deps.ledger.ops)
	})

	t.Run("only the owner may cancel", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		original := seedRequest(t, deps.repo, leave.StatusApproved, "3")

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.CreateCancellation(ctx, original.CompanyID.String(), uuid.New().String(), original.ID.String(), leave.CreateCancellationRequest{
			Reason: "nope",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrNotRequestOwner)
	})

	t.Run("rejected original cannot be cancelled", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		original := seedRequest(t, deps.repo, leave.StatusRejected, "3")

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.CreateCancellation(ctx, original.CompanyID.String(), original.EmployeeID.String(), original.ID.String(), leave.CreateCancellationRequest{
			Reason: "changed plans",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrOriginalNotCancellable)
	})

	t.Run("one pending cancellation at a time", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		original := seedRequest(t, deps.repo, leave.StatusApproved, "3")
		deps.repo.hasPendingCancellationFn = func(ctx context.Context, companyID, originalID string) (bool, error) {
			return true, nil
		}

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.CreateCancellation(ctx, original.CompanyID.String(), original.EmployeeID.String(), original.ID.String(), leave.CreateCancellationRequest{
			Reason: "again",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrCancellationAlreadyRequested)
	})

	t.Run("cancellations cannot be cancelled", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		original := seedRequest(t, deps.repo, leave.StatusApproved, "3")
		cancel := seedRequest(t, deps.repo, leave.StatusPending, "3")
		cancel.IsCancellation = true
		cancel.EmployeeID = original.EmployeeID
		cancel.CompanyID = original.CompanyID
		origID := original.ID
		cancel.OriginalRequestID = &origID
		deps.repo.put(cancel)

		expectTx(t, deps.sqlMock, false)
		_, err := deps.service.CreateCancellation(ctx, cancel.CompanyID.String(), cancel.EmployeeID.String(), cancel.ID.String(), leave.CreateCancellationRequest{
			Reason: "meta",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrCancellationOfCancellation)
	})
}

func seedCancellationPair(t *testing.T, repo *fakeLeaveRepository, originalStatus string) (original, cancel *leave.LeaveRequest) {
	t.Helper()
	original = seedRequest(t, repo, originalStatus, "3")
	origID := original.ID
	cancel = &leave.LeaveRequest{
		ID:                uuid.New(),
		CompanyID:         original.CompanyID,
		EmployeeID:        original.EmployeeID,
		RequestNumber:     "LR-000002",
		LeaveType:         original.LeaveType,
		StartDate:         original.StartDate,
		EndDate:           original.EndDate,
		TotalDays:         original.TotalDays,
		Status:            leave.StatusPending,
		IsCancellation:    true,
		OriginalRequestID: &origID,
		CreatedBy:         original.EmployeeID,
	}
	repo.put(cancel)
	return original, cancel
}

func TestLeaveService_DecideCancellation(t *testing.T) {
	ctx := context.Background()

	t.Run("approving credits an approved original", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		original, cancel := seedCancellationPair(t, deps.repo, leave.StatusApproved)

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.Decide(ctx, cancel.CompanyID.String(), uuid.New().String(), domain.RoleManager, cancel.ID.String(), leave.DecisionRequest{
			Action: leave.ActionApprove,
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusCancellationApproved, resp.Status)

		stored, _ := deps.repo.FindByIDAndCompany(ctx, original.CompanyID.String(), original.ID.String())
		assert.Equal(t, leave.StatusCancelled, stored.Status)

		assert.Len(t, deps.ledger.ops, 1)
		assert.Equal(t, balance.OpCredit, deps.ledger.ops[0].op)
		assert.True(t, deps.ledger.ops[0].days.Equal(d(t, "3")))
	})

	t.Run("approving releases a still pending original", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		original, cancel := seedCancellationPair(t, deps.repo, leave.StatusPending)

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.Decide(ctx, cancel.CompanyID.String(), uuid.New().String(), domain.RoleManager, cancel.ID.String(), leave.DecisionRequest{
			Action: leave.ActionApprove,
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusCancellationApproved, resp.Status)

		stored, _ := deps.repo.FindByIDAndCompany(ctx, original.CompanyID.String(), original.ID.String())
		assert.Equal(t, leave.StatusCancelled, stored.Status)

		assert.Len(t, deps.ledger.ops, 1)
		assert.Equal(t, balance.OpRelease, deps.ledger.ops[0].op)
	})

	t.Run("rejecting keeps the original and the ledger untouched", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		original, cancel := seedCancellationPair(t, deps.repo, leave.StatusApproved)

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.Decide(ctx, cancel.CompanyID.String(), uuid.New().String(), domain.RoleManager, cancel.ID.String(), leave.DecisionRequest{
			Action:   leave.ActionReject,
			Comments: "leave stands",
		})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusCancellationRejected, resp.Status)

		stored, _ := deps.repo.FindByIDAndCompany(ctx, original.CompanyID.String(), original.ID.String())
		assert.Equal(t, leave.StatusApproved, stored.Status)
		assert.Empty(t, deps.ledger.ops)
	})

	t.Run("a decided cancellation cannot credit twice", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()
		_, cancel := seedCancellationPair(t, deps.repo, leave.StatusApproved)

		expectTx(t, deps.sqlMock, true)
		_, err := deps.service.Decide(ctx, cancel.CompanyID.String(), uuid.New().String(), domain.RoleManager, cancel.ID.String(), leave.DecisionRequest{
			Action: leave.ActionApprove,
		})
		assert.NoError(t, err)

		_, err = deps.service.Decide(ctx, cancel.CompanyID.String(), uuid.New().String(), domain.RoleManager, cancel.ID.String(), leave.DecisionRequest{
			Action: leave.ActionApprove,
		})
		assert.ErrorIs(t, err, leaveerrors.ErrAlreadyDecided)
		assert.Len(t, deps.ledger.ops, 1)
	})
}

func TestLeaveService_BulkDecide(t *testing.T) {
	ctx := context.Background()

	t.Run("items fail independently and in order", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		defer deps.db.Close()

		first := seedRequest(t, deps.repo, leave.StatusPending, "2")
		decided := seedRequest(t, deps.repo, leave.StatusApproved, "2")
		decided.CompanyID = first.CompanyID
		deps.repo.put(decided)
		third := seedRequest(t, deps.repo, leave.StatusPending, "2")
		third.CompanyID = first.CompanyID
		deps.repo.put(third)

		expectTx(t, deps.sqlMock, true)
		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.BulkDecide(ctx, first.CompanyID.String(), uuid.New().String(), domain.RoleHR, leave.BulkDecisionRequest{
			IDs:    []string{first.ID.String(), decided.ID.String(), third.ID.String()},
			Action: leave.ActionApprove,
		})
		assert.NoError(t, err)

		assert.Equal(t, []string{first.ID.String(), third.ID.String()}, resp.Successful)
		assert.Len(t, resp.Failed, 1)
		assert.Equal(t, decided.ID.String(), resp.Failed[0].ID)
		assert.Equal(t, apperror.CodeInvalidState, resp.Failed[0].Code)

		assert.Equal(t, 3, resp.Summary.Total)
		assert.Equal(t, 2, resp.Summary.Successful)
		assert.Equal(t, 1, resp.Summary.Failed)

		assert.Len(t, deps.ledger.ops, 2)
	})
}
