package timesheet

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type ListFilter struct {
	EmployeeID string
	Status     string
}

//go:generate mockgen -source=timesheet_repo.go -destination=mock/timesheet_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, t *Timesheet) error
	FindAllByCompany(ctx context.Context, companyID string, filter ListFilter) ([]Timesheet, error)
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Timesheet, error)
	Update(ctx context.Context, t *Timesheet) error
	FindPendingForApprover(ctx context.Context, companyID, managerID string) ([]Timesheet, error)
	EmployeeBelongsToCompany(ctx context.Context, companyID, employeeID string) (bool, error)
	EmployeeReportsToManager(ctx context.Context, companyID, employeeID, managerID string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: tx}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		// Returning the pooled handle would detach writes from the caller's tx.
		panic(fmt.Sprintf("timesheet repository: rebind onto tx: %v", err))
	}
	return &repository{db: gdb}
}

func (r *repository) Create(ctx context.Context, t *Timesheet) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string, filter ListFilter) ([]Timesheet, error) {
	db := r.db.WithContext(ctx).
		Where("company_id = ?", companyID)
	if filter.EmployeeID != "" {
		db = db.Where("employee_id = ?", filter.EmployeeID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	var sheets []Timesheet
	err := db.Order("week_start_date DESC").Find(&sheets).Error
	return sheets, err
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Timesheet, error) {
	var t Timesheet
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		First(&t, "id = ?", id).Error
	return &t, err
}

func (r *repository) Update(ctx context.Context, t *Timesheet) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *repository) FindPendingForApprover(ctx context.Context, companyID, managerID string) ([]Timesheet, error) {
	var sheets []Timesheet
	err := r.db.WithContext(ctx).
		Joins("JOIN employees ON employees.id = timesheets.employee_id").
		Where("timesheets.company_id = ?", companyID).
		Where("timesheets.status = ?", StatusSubmitted).
		Where("employees.manager_id = ?", managerID).
		Where("employees.deleted_at IS NULL").
		Order("timesheets.week_start_date ASC").
		Find(&sheets).Error
	return sheets, err
}

func (r *repository) EmployeeBelongsToCompany(ctx context.Context, companyID, employeeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("employees").
		Where("id = ?", employeeID).
		Where("company_id = ?", companyID).
		Where("deleted_at IS NULL").
		Count(&count).Error
	return count > 0, err
}

func (r *repository) EmployeeReportsToManager(ctx context.Context, companyID, employeeID, managerID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("employees").
		Where("id = ?", employeeID).
		Where("company_id = ?", companyID).
		Where("manager_id = ?", managerID).
		Where("deleted_at IS NULL").
		Count(&count).Error
	return count > 0, err
}
