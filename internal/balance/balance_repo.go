package balance

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, b *Balance) error
	FindByOwnerAndType(ctx context.Context, companyID, employeeID, leaveType string, year int) (*Balance, error)
	FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]Balance, error)
	Update(ctx context.Context, b *Balance) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// WithTx rebinds the repository onto an open transaction so ledger writes
// and the caller's own statements commit or roll back together.
func (r *repository) WithTx(tx *sql.Tx) Repository {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: tx}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		// Returning the pooled handle would detach writes from the caller's tx.
		panic(fmt.Sprintf("balance repository: rebind onto tx: %v", err))
	}
	return &repository{db: gdb}
}

func (r *repository) Create(ctx context.Context, b *Balance) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *repository) FindByOwnerAndType(ctx context.Context, companyID, employeeID, leaveType string, year int) (*Balance, error) {
	var b Balance
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("employee_id = ?", employeeID).
		Where("leave_type = ?", leaveType).
		Where("year = ?", year).
		First(&b).Error
	return &b, err
}

func (r *repository) FindAllByEmployee(ctx context.Context, companyID, employeeID string) ([]Balance, error) {
	var balances []Balance
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("employee_id = ?", employeeID).
		Order("year DESC, leave_type ASC").
		Find(&balances).Error
	return balances, err
}

func (r *repository) Update(ctx context.Context, b *Balance) error {
	return r.db.WithContext(ctx).Save(b).Error
}
