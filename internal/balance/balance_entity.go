package balance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Balance is the per employee, per leave type ledger row for one calendar
// year. All day amounts are DECIMAL(6,2) so half-day bookings stay exact.
type Balance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_balances_owner_type_year"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_balances_owner_type_year"`

	LeaveType string `gorm:"type:varchar(30);not null;uniqueIndex:idx_balances_owner_type_year"`
	Year      int    `gorm:"type:int;not null;uniqueIndex:idx_balances_owner_type_year"`

	TotalAccrued decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0"`
	CarryForward decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0"`
	TotalTaken   decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0"`
	TotalPending decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Available is derived, never stored:
// totalAccrued + carryForward - totalTaken - totalPending.
func (b *Balance) Available() decimal.Decimal {
	return b.TotalAccrued.
		Add(b.CarryForward).
		Sub(b.TotalTaken).
		Sub(b.TotalPending)
}
