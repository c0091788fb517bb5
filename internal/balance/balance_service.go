package balance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	balanceerrors "hrms/internal/balance/errors"
	"hrms/internal/shared/keymutex"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Op is a ledger mutation. Every op moves days between the pending, taken
// and available buckets of exactly one balance row.
type Op string

const (
	OpReserve Op = "RESERVE"
	OpCommit  Op = "COMMIT"
	OpRelease Op = "RELEASE"
	OpDebit   Op = "DEBIT"
	OpCredit  Op = "CREDIT"
)

const BalanceCacheKeyPrefix = "balances:employee:"

func GetBalanceCacheKey(companyID, employeeID string) string {
	return BalanceCacheKeyPrefix + companyID + ":" + employeeID
}

//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Ledger interface {
	// Apply runs a single ledger op in its own transaction.
	Apply(ctx context.Context, companyID, employeeID, leaveType string, year int, op Op, days decimal.Decimal) error
	// Execute runs op and fn inside one transaction, with the
	// (employee, leave type) pair held exclusively for the duration. fn
	// only runs after the op succeeded; either both commit or neither does.
	Execute(ctx context.Context, companyID, employeeID, leaveType string, year int, op Op, days decimal.Decimal, fn func(tx *sql.Tx) error) error
	GetByOwnerAndType(ctx context.Context, companyID, employeeID, leaveType string, year int) (BalanceResponse, error)
	GetAllForEmployee(ctx context.Context, companyID, employeeID string) ([]BalanceResponse, error)
	Upsert(ctx context.Context, companyID string, req UpsertBalanceRequest) (BalanceResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	keys   *keymutex.KeyMutex
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, rdb *redis.Client, logger ...*zap.Logger) Ledger {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{
		db:     db,
		repo:   repo,
		keys:   keymutex.New(),
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func lockKey(employeeID, leaveType string) string {
	return employeeID + "|" + leaveType
}

func (s *service) Apply(ctx context.Context, companyID, employeeID, leaveType string, year int, op Op, days decimal.Decimal) error {
	return s.Execute(ctx, companyID, employeeID, leaveType, year, op, days, nil)
}

func (s *service) Execute(ctx context.Context, companyID, employeeID, leaveType string, year int, op Op, days decimal.Decimal, fn func(tx *sql.Tx) error) error {
	if _, err := uuid.Parse(companyID); err != nil {
		return balanceerrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(employeeID); err != nil {
		return balanceerrors.ErrInvalidEmployeeID
	}
	if !days.IsPositive() {
		return balanceerrors.ErrInvalidAmount
	}

	key := lockKey(employeeID, leaveType)
	s.keys.Lock(key)
	defer s.keys.Unlock(key)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("ledger begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	b, err := qtx.FindByOwnerAndType(ctx, companyID, employeeID, leaveType, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return balanceerrors.ErrBalanceNotFound
		}
		s.logger.Error("ledger load balance failed", zap.Error(err))
		return err
	}

	if err := applyOp(b, op, days); err != nil {
		s.logger.Warn("ledger op refused",
			zap.String("employee_id", employeeID),
			zap.String("leave_type", leaveType),
			zap.String("op", string(op)),
			zap.String("days", days.String()),
			zap.Error(err),
		)
		return err
	}

	if err := qtx.Update(ctx, b); err != nil {
		s.logger.Error("ledger persist failed", zap.Error(err))
		return err
	}

	if fn != nil {
		if err := fn(tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("ledger commit failed", zap.Error(err))
		return err
	}

	s.invalidateCache(ctx, companyID, employeeID)

	s.logger.Info("ledger op applied",
		zap.String("employee_id", employeeID),
		zap.String("leave_type", leaveType),
		zap.String("op", string(op)),
		zap.String("days", days.String()),
		zap.String("available", b.Available().String()),
	)
	return nil
}

// applyOp mutates b in place. Guards run against the pre-op state, so a
// refused op leaves the row untouched.
func applyOp(b *Balance, op Op, days decimal.Decimal) error {
	switch op {
	case OpReserve:
		if b.Available().LessThan(days) {
			return balanceerrors.ErrInsufficientBalance
		}
		b.TotalPending = b.TotalPending.Add(days)
	case OpCommit:
		if b.TotalPending.LessThan(days) {
			return balanceerrors.ErrLedgerDrift
		}
		b.TotalPending = b.TotalPending.Sub(days)
		b.TotalTaken = b.TotalTaken.Add(days)
	case OpRelease:
		if b.TotalPending.LessThan(days) {
			return balanceerrors.ErrLedgerDrift
		}
		b.TotalPending = b.TotalPending.Sub(days)
	case OpDebit:
		if b.Available().LessThan(days) {
			return balanceerrors.ErrInsufficientBalance
		}
		b.TotalTaken = b.TotalTaken.Add(days)
	case OpCredit:
		if b.TotalTaken.LessThan(days) {
			return balanceerrors.ErrInsufficientHistory
		}
		b.TotalTaken = b.TotalTaken.Sub(days)
	default:
		return balanceerrors.ErrUnknownOperation
	}
	return nil
}

func (s *service) GetByOwnerAndType(ctx context.Context, companyID, employeeID, leaveType string, year int) (BalanceResponse, error) {
	b, err := s.repo.FindByOwnerAndType(ctx, companyID, employeeID, leaveType, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BalanceResponse{}, balanceerrors.ErrBalanceNotFound
		}
		return BalanceResponse{}, err
	}
	return mapToResponse(*b), nil
}

func (s *service) GetAllForEmployee(ctx context.Context, companyID, employeeID string) ([]BalanceResponse, error) {
	cacheKey := GetBalanceCacheKey(companyID, employeeID)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp []BalanceResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		balances, err := s.repo.FindAllByEmployee(ctx, companyID, employeeID)
		if err != nil {
			return nil, err
		}
		resp := mapToListResponse(balances)

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, 5*time.Minute)
			}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]BalanceResponse), nil
}

func (s *service) Upsert(ctx context.Context, companyID string, req UpsertBalanceRequest) (BalanceResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return BalanceResponse{}, balanceerrors.ErrInvalidEmployeeID
	}

	accrued, err := decimal.NewFromString(req.TotalAccrued)
	if err != nil || accrued.IsNegative() {
		return BalanceResponse{}, balanceerrors.ErrInvalidAmount
	}
	carry := decimal.Zero
	if req.CarryForward != "" {
		carry, err = decimal.NewFromString(req.CarryForward)
		if err != nil || carry.IsNegative() {
			return BalanceResponse{}, balanceerrors.ErrInvalidAmount
		}
	}

	key := lockKey(req.EmployeeID, req.LeaveType)
	s.keys.Lock(key)
	defer s.keys.Unlock(key)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("upsert balance begin tx failed", zap.Error(err))
		return BalanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	b, err := qtx.FindByOwnerAndType(ctx, companyID, req.EmployeeID, req.LeaveType, req.Year)
	switch {
	case err == nil:
		b.TotalAccrued = accrued
		b.CarryForward = carry
		if err := qtx.Update(ctx, b); err != nil {
			s.logger.Error("upsert balance update failed", zap.Error(err))
			return BalanceResponse{}, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		b = &Balance{
			ID:           uuid.New(),
			CompanyID:    companyUUID,
			EmployeeID:   employeeUUID,
			LeaveType:    req.LeaveType,
			Year:         req.Year,
			TotalAccrued: accrued,
			CarryForward: carry,
			TotalTaken:   decimal.Zero,
			TotalPending: decimal.Zero,
		}
		if err := qtx.Create(ctx, b); err != nil {
			s.logger.Error("upsert balance create failed", zap.Error(err))
			return BalanceResponse{}, err
		}
	default:
		s.logger.Error("upsert balance load failed", zap.Error(err))
		return BalanceResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("upsert balance commit failed", zap.Error(err))
		return BalanceResponse{}, err
	}

	s.invalidateCache(ctx, companyID, req.EmployeeID)

	s.logger.Info("upsert balance success",
		zap.String("balance_id", b.ID.String()),
		zap.String("employee_id", req.EmployeeID),
		zap.String("leave_type", req.LeaveType),
		zap.Int("year", req.Year),
	)
	return mapToResponse(*b), nil
}

func (s *service) invalidateCache(ctx context.Context, companyID, employeeID string) {
	if s.rdb == nil {
		return
	}
	cacheKey := GetBalanceCacheKey(companyID, employeeID)
	if err := s.rdb.Del(ctx, cacheKey).Err(); err != nil {
		s.logger.Error("failed to invalidate balance cache",
			zap.Error(err),
			zap.String("key", cacheKey),
		)
	}
}

func mapToResponse(b Balance) BalanceResponse {
	return BalanceResponse{
		ID:           b.ID.String(),
		CompanyID:    b.CompanyID.String(),
		EmployeeID:   b.EmployeeID.String(),
		LeaveType:    b.LeaveType,
		Year:         b.Year,
		TotalAccrued: b.TotalAccrued.String(),
		CarryForward: b.CarryForward.String(),
		TotalTaken:   b.TotalTaken.String(),
		TotalPending: b.TotalPending.String(),
		Available:    b.Available().String(),
	}
}

func mapToListResponse(balances []Balance) []BalanceResponse {
	resp := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = mapToResponse(b)
	}
	return resp
}
