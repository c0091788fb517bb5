package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LeaveRequest is one row in the request store. A cancellation request is a
// separate row pointing back at the original via OriginalRequestID; the
// original row is never edited in place until the cancellation is approved.
type LeaveRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_company_status"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee_dates"`

	RequestNumber string `gorm:"type:varchar(20);not null;uniqueIndex:idx_leave_requests_number"`

	LeaveType string          `gorm:"type:varchar(30);not null;default:'ANNUAL'"`
	StartDate time.Time       `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	EndDate   time.Time       `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	HalfDay   bool            `gorm:"not null;default:false"`
	TotalDays decimal.Decimal `gorm:"type:decimal(6,2);not null"`
	Reason    string          `gorm:"type:text"`

	Status string `gorm:"type:varchar(30);not null;default:'PENDING';index:idx_leave_requests_company_status"`

	IsCancellation    bool       `gorm:"not null;default:false"`
	OriginalRequestID *uuid.UUID `gorm:"type:uuid;index:idx_leave_requests_original"`

	CreatedBy        uuid.UUID  `gorm:"type:uuid;not null"`
	DecidedBy        *uuid.UUID `gorm:"type:uuid"`
	DecisionComments *string    `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DecidedAt *time.Time
	DeletedAt gorm.DeletedAt `gorm:"index:idx_leave_requests_deleted_at"`
}
