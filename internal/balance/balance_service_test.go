package balance_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"sync"
	"testing"
	"time"

	"hrms/internal/balance"
	balanceerrors "hrms/internal/balance/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

type fakeBalanceRepository struct {
	mu       sync.Mutex
	rows     map[string]*balance.Balance
	updateFn func(ctx context.Context, b *balance.Balance) error
}

func newFakeBalanceRepository() *fakeBalanceRepository {
	return &fakeBalanceRepository{rows: make(map[string]*balance.Balance)}
}

func rowKey(companyID, employeeID, leaveType string, year int) string {
	return companyID + "|" + employeeID + "|" + leaveType + "|" + strconv.Itoa(year)
}

func (f *fakeBalanceRepository) put(b *balance.Balance) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[rowKey(b.CompanyID.String(), b.EmployeeID.String(), b.LeaveType, b.Year)] = b
}

func (f *fakeBalanceRepository) WithTx(tx *sql.Tx) balance.Repository {
	return f
}

func (f *fakeBalanceRepository) Create(ctx context.Context, b *balance.Balance) error {
	f.put(b)
	return nil
}

func (f *fakeBalanceRepository) FindByOwnerAndType(ctx context.Context, companyID, employeeID, leaveType string, year int) (*balance.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.rows[rowKey(companyID, employeeID, leaveType, year)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBalanceRepository) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]balance.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []balance.Balance
	for _, b := range f.rows {
		if b.CompanyID.String() == companyID && b.EmployeeID.String() == employeeID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBalanceRepository) Update(ctx context.Context, b *balance.Balance) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, b)
	}
	f.put(b)
	return nil
}

type balanceServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service balance.Ledger
	repo    *fakeBalanceRepository
}

func setupBalanceServiceTest(t *testing.T) *balanceServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := newFakeBalanceRepository()
	svc := balance.NewService(db, repo, nil)

	return &balanceServiceDeps{
		db:      db,
		sqlMock: sqlMock,
		service: svc,
		repo:    repo,
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

func seedBalance(t *testing.T, repo *fakeBalanceRepository, accrued, carry string) (companyID, employeeID string) {
	t.Helper()
	companyUUID := uuid.New()
	employeeUUID := uuid.New()
	repo.put(&balance.Balance{
		ID:           uuid.New(),
		CompanyID:    companyUUID,
		EmployeeID:   employeeUUID,
		LeaveType:    "ANNUAL",
		Year:         2026,
		TotalAccrued: d(t, accrued),
		CarryForward: d(t, carry),
		TotalTaken:   decimal.Zero,
		TotalPending: decimal.Zero,
	})
	return companyUUID.String(), employeeUUID.String()
}

func TestBalanceService_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("moves days into pending", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID, employeeID := seedBalance(t, deps.repo, "12", "2.5")

		expectTx(t, deps.sqlMock, true)
		err := deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpReserve, d(t, "3"))
		assert.NoError(t, err)

		b, _ := deps.repo.FindByOwnerAndType(ctx, companyID, employeeID, "ANNUAL", 2026)
		assert.True(t, b.TotalPending.Equal(d(t, "3")))
		assert.True(t, b.Available().Equal(d(t, "11.5")))
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("refuses when available is short", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID, employeeID := seedBalance(t, deps.repo, "2", "0")

		expectTx(t, deps.sqlMock, false)
		err := deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpReserve, d(t, "2.5"))
		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)

		b, _ := deps.repo.FindByOwnerAndType(ctx, companyID, employeeID, "ANNUAL", 2026)
		assert.True(t, b.TotalPending.IsZero())
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("counts pending against available", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID, employeeID := seedBalance(t, deps.repo, "5", "0")

		expectTx(t, deps.sqlMock, true)
		assert.NoError(t, deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpReserve, d(t, "4")))

		expectTx(t, deps.sqlMock, false)
		err := deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpReserve, d(t, "2"))
		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
	})

	t.Run("unknown balance row", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		expectTx(t, deps.sqlMock, false)
		err := deps.service.Apply(ctx, uuid.New().String(), uuid.New().String(), "ANNUAL", 2026, balance.OpReserve, d(t, "1"))
		assert.ErrorIs(t, err, balanceerrors.ErrBalanceNotFound)
	})

	t.Run("rejects non positive amounts", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID, employeeID := seedBalance(t, deps.repo, "5", "0")

		err := deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpReserve, decimal.Zero)
		assert.ErrorIs(t, err, balanceerrors.ErrInvalidAmount)

		err = deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpReserve, d(t, "-1"))
		assert.ErrorIs(t, err, balanceerrors.ErrInvalidAmount)
	})
}

func TestBalanceService_CommitAndRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("commit converts pending into taken", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID, employeeID := seedBalance(t, deps.repo, "10", "0")

		expectTx(t, deps.sqlMock, true)
		assert.NoError(t, deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpReserve, d(t, "4")))

		expectTx(t, deps.sqlMock, true)
		assert.NoError(t, deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpCommit, d(t, "4")))

		b, _ := deps.repo.FindByOwnerAndType(ctx, companyID, employeeID, "ANNUAL", 2026)
		assert.True(t, b.TotalPending.IsZero())
		assert.True(t, b.TotalTaken.Equal(d(t, "4")))
		assert.True(t, b.Available().Equal(d(t, "6")))
	})

	t.Run("release restores the reserved days", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID, employeeID := seedBalance(t, deps.repo, "10", "0")

		expectTx(t, deps.sqlMock, true)
		assert.NoError(t, deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpReserve, d(t, "4")))
		expectTx(t, deps.sqlMock, true)
		assert.NoError(t, deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpRelease, d(t, "4")))

		b, _ := deps.repo.FindByOwnerAndType(ctx, companyID, employeeID, "ANNUAL", 2026)
		assert.True(t, b.TotalPending.IsZero())
		assert.True(t, b.TotalTaken.IsZero())
		assert.True(t, b.Available().Equal(d(t, "10")))
	})

	t.Run("commit beyond pending is drift", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID, employeeID := seedBalance(t, deps.repo, "10", "0")

		expectTx(t, deps.sqlMock, false)
		err := deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpCommit, d(t, "1"))
		assert.ErrorIs(t, err, balanceerrors.ErrLedgerDrift)
	})
}

func TestBalanceService_DebitAndCredit(t *testing.T) {
	ctx := context.Background()

	t.Run("debit takes days immediately", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID, employeeID := seedBalance(t, deps.repo, "6", "0")

		expectTx(t, deps.sqlMock, true)
		assert.NoError(t, deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpDebit, d(t, "2.5")))

		b, _ := deps.repo.FindByOwnerAndType(ctx, companyID, employeeID, "ANNUAL", 2026)
		assert.True(t, b.TotalTaken.Equal(d(t, "2.5")))
		assert.True(t, b.Available().Equal(d(t, "3.5")))
	})

	t.Run("debit refuses overdraft", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID, employeeID := seedBalance(t, deps.repo, "2", "0")

		expectTx(t, deps.sqlMock, false)
		err := deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpDebit, d(t, "3"))
		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
	})

	t.Run("credit undoes a debit", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID, employeeID := seedBalance(t, deps.repo, "6", "0")

		expectTx(t, deps.sqlMock, true)
		assert.NoError(t, deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpDebit, d(t, "4")))
		expectTx(t, deps.sqlMock, true)
		assert.NoError(t, deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpCredit, d(t, "4")))

		b, _ := deps.repo.FindByOwnerAndType(ctx, companyID, employeeID, "ANNUAL", 2026)
		assert.True(t, b.TotalTaken.IsZero())
		assert.True(t, b.Available().Equal(d(t, "6")))
	})

	t.Run("credit beyond taken history", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID, employeeID := seedBalance(t, deps.repo, "6", "0")

		expectTx(t, deps.sqlMock, false)
		err := deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpCredit, d(t, "1"))
		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientHistory)
	})
}

func TestBalanceService_ConcurrentReserves(t *testing.T) {
	ctx := context.Background()
	deps := setupBalanceServiceTest(t)
	defer deps.db.Close()
	companyID, employeeID := seedBalance(t, deps.repo, "5", "0")

	deps.sqlMock.MatchExpectationsInOrder(false)
	for i := 0; i < 10; i++ {
		deps.sqlMock.ExpectBegin()
	}
	for i := 0; i < 5; i++ {
		deps.sqlMock.ExpectCommit()
	}
	for i := 0; i < 5; i++ {
		deps.sqlMock.ExpectRollback()
	}

	var wg sync.WaitGroup
	results := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpReserve, d(t, "1"))
		}(i)
	}
	wg.Wait()

	var ok, refused int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		default:
			assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
			refused++
		}
	}
	assert.Equal(t, 5, ok)
	assert.Equal(t, 5, refused)

	b, _ := deps.repo.FindByOwnerAndType(ctx, companyID, employeeID, "ANNUAL", 2026)
	assert.True(t, b.Available().IsZero())
	assert.False(t, b.Available().IsNegative())
}

func TestBalanceService_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("runs callback in the same transaction", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID, employeeID := seedBalance(t, deps.repo, "10", "0")

		called := false
		expectTx(t, deps.sqlMock, true)
		err := deps.service.Execute(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpReserve, d(t, "2"), func(tx *sql.Tx) error {
			called = true
			assert.NotNil(t, tx)
			return nil
		})
		assert.NoError(t, err)
		assert.True(t, called)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("callback failure rolls everything back", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID, employeeID := seedBalance(t, deps.repo, "10", "0")

		boom := assert.AnError
		expectTx(t, deps.sqlMock, false)
		err := deps.service.Execute(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpReserve, d(t, "2"), func(tx *sql.Tx) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("op failure skips the callback", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID, employeeID := seedBalance(t, deps.repo, "1", "0")

		expectTx(t, deps.sqlMock, false)
		err := deps.service.Execute(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpReserve, d(t, "2"), func(tx *sql.Tx) error {
			t.Fatal("callback must not run after a refused op")
			return nil
		})
		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
	})
}

func TestBalanceService_Upsert(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a fresh row", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID := uuid.New().String()
		employeeID := uuid.New().String()

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.Upsert(ctx, companyID, balance.UpsertBalanceRequest{
			EmployeeID:   employeeID,
			LeaveType:    "ANNUAL",
			Year:         2026,
			TotalAccrued: "12",
			CarryForward: "1.5",
		})
		assert.NoError(t, err)
		assert.Equal(t, "13.5", resp.Available)
		assert.Equal(t, "0", resp.TotalTaken)
	})

	t.Run("updates allotment without touching taken or pending", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()
		companyID, employeeID := seedBalance(t, deps.repo, "10", "0")

		expectTx(t, deps.sqlMock, true)
		assert.NoError(t, deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpDebit, d(t, "3")))

		expectTx(t, deps.sqlMock, true)
		resp, err := deps.service.Upsert(ctx, companyID, balance.UpsertBalanceRequest{
			EmployeeID:   employeeID,
			LeaveType:    "ANNUAL",
			Year:         2026,
			TotalAccrued: "15",
		})
		assert.NoError(t, err)
		assert.Equal(t, "3", resp.TotalTaken)
		assert.Equal(t, "12", resp.Available)
	})

	t.Run("rejects malformed amounts", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Upsert(ctx, uuid.New().String(), balance.UpsertBalanceRequest{
			EmployeeID:   uuid.New().String(),
			LeaveType:    "ANNUAL",
			Year:         2026,
			TotalAccrued: "twelve",
		})
		assert.ErrorIs(t, err, balanceerrors.ErrInvalidAmount)

		_, err = deps.service.Upsert(ctx, uuid.New().String(), balance.UpsertBalanceRequest{
			EmployeeID:   uuid.New().String(),
			LeaveType:    "ANNUAL",
			Year:         2026,
			TotalAccrued: "-1",
		})
		assert.ErrorIs(t, err, balanceerrors.ErrInvalidAmount)
	})
}

func TestBalanceService_EmployeeCache(t *testing.T) {
	ctx := context.Background()

	setupWithRedis := func(t *testing.T) (*balanceServiceDeps, redismock.ClientMock) {
		t.Helper()
		db, sqlMock, err := sqlmock.New()
		assert.NoError(t, err)

		rdb, redisMock := redismock.NewClientMock()
		repo := newFakeBalanceRepository()
		svc := balance.NewService(db, repo, rdb)

		return &balanceServiceDeps{
			db:      db,
			sqlMock: sqlMock,
			service: svc,
			repo:    repo,
		}, redisMock
	}

	t.Run("a cache hit never touches the repository", func(t *testing.T) {
		deps, redisMock := setupWithRedis(t)
		companyID := uuid.NewString()
		employeeID := uuid.NewString()

		cached := []balance.BalanceResponse{{
			ID:         uuid.NewString(),
			CompanyID:  companyID,
			EmployeeID: employeeID,
			LeaveType:  "ANNUAL",
			Year:       2026,
		}}
		jsonData, err := json.Marshal(cached)
		assert.NoError(t, err)

		cacheKey := balance.GetBalanceCacheKey(companyID, employeeID)
		redisMock.ExpectGet(cacheKey).SetVal(string(jsonData))

		got, err := deps.service.GetAllForEmployee(ctx, companyID, employeeID)

		assert.NoError(t, err)
		assert.Equal(t, cached, got)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("a miss loads from the repository and caches for five minutes", func(t *testing.T) {
		deps, redisMock := setupWithRedis(t)
		companyID, employeeID := seedBalance(t, deps.repo, "12", "0")

		expected, err := deps.service.GetByOwnerAndType(ctx, companyID, employeeID, "ANNUAL", 2026)
		assert.NoError(t, err)
		jsonData, err := json.Marshal([]balance.BalanceResponse{expected})
		assert.NoError(t, err)

		cacheKey := balance.GetBalanceCacheKey(companyID, employeeID)
		redisMock.ExpectGet(cacheKey).RedisNil()
		redisMock.ExpectSet(cacheKey, jsonData, 5*time.Minute).SetVal("OK")

		got, err := deps.service.GetAllForEmployee(ctx, companyID, employeeID)

		assert.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, expected, got[0])
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("a committed ledger op invalidates the employee cache", func(t *testing.T) {
		deps, redisMock := setupWithRedis(t)
		companyID, employeeID := seedBalance(t, deps.repo, "10", "0")

		expectTx(t, deps.sqlMock, true)
		redisMock.ExpectDel(balance.GetBalanceCacheKey(companyID, employeeID)).SetVal(1)

		err := deps.service.Apply(ctx, companyID, employeeID, "ANNUAL", 2026, balance.OpReserve, d(t, "2"))

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}
