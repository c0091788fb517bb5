package events

import "time"

const LeaveDecidedTopic = "hr.leave.decision.v1"

type LeaveDecidedEvent struct {
	EventType    string    `json:"event_type"`
	RequestID    string    `json:"request_id"`
	LeaveID      string    `json:"leave_id"`
	EmployeeID   string    `json:"employee_id"`
	CompanyID    string    `json:"company_id"`
	Status       string    `json:"status"`
	DecidedBy    string    `json:"decided_by"`
	Cancellation bool      `json:"cancellation"`
	OccurredAt   time.Time `json:"occurred_at"`
}
