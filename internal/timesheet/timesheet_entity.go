package timesheet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Timesheet is one employee week. The seven day columns are stored, the
// weekly total is always derived from them. One row per employee, week and
// year, enforced by uq_timesheet_week.
type Timesheet struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_timesheets_company_status"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_timesheet_week"`

	ProjectID *uuid.UUID `gorm:"type:uuid;index:idx_timesheets_project"`
	TaskID    *uuid.UUID `gorm:"type:uuid"`

	WeekStartDate time.Time `gorm:"type:date;not null;uniqueIndex:uq_timesheet_week"`
	Year          int       `gorm:"type:int;not null;uniqueIndex:uq_timesheet_week"`
	WeekNumber    int       `gorm:"type:int;not null"`

	Description string `gorm:"type:text"`

	MondayHours    decimal.Decimal `gorm:"type:decimal(4,2);not null;default:0"`
	TuesdayHours   decimal.Decimal `gorm:"type:decimal(4,2);not null;default:0"`
	WednesdayHours decimal.Decimal `gorm:"type:decimal(4,2);not null;default:0"`
	ThursdayHours  decimal.Decimal `gorm:"type:decimal(4,2);not null;default:0"`
	FridayHours    decimal.Decimal `gorm:"type:decimal(4,2);not null;default:0"`
	SaturdayHours  decimal.Decimal `gorm:"type:decimal(4,2);not null;default:0"`
	SundayHours    decimal.Decimal `gorm:"type:decimal(4,2);not null;default:0"`

	Status string `gorm:"type:varchar(20);not null;default:'DRAFT';index:idx_timesheets_company_status"`

	CreatedBy        uuid.UUID  `gorm:"type:uuid;not null"`
	DecidedBy        *uuid.UUID `gorm:"type:uuid"`
	DecisionComments *string    `gorm:"type:text"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	SubmittedAt *time.Time
	DecidedAt   *time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index:idx_timesheets_deleted_at"`
}

// TotalHoursWorked sums the seven day columns.
func (t *Timesheet) TotalHoursWorked() decimal.Decimal {
	return t.MondayHours.
		Add(t.TuesdayHours).
		Add(t.WednesdayHours).
		Add(t.ThursdayHours).
		Add(t.FridayHours).
		Add(t.SaturdayHours).
		Add(t.SundayHours)
}

func (t *Timesheet) dayColumns() []*decimal.Decimal {
	return []*decimal.Decimal{
		&t.MondayHours, &t.TuesdayHours, &t.WednesdayHours,
		&t.ThursdayHours, &t.FridayHours, &t.SaturdayHours, &t.SundayHours,
	}
}
