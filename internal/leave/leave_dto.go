package leave

import "hrms/internal/bulk"

type CreateLeaveRequest struct {
	EmployeeID string `json:"employee_id" binding:"required,uuid"`
	LeaveType  string `json:"leave_type" binding:"required,oneof=ANNUAL SICK UNPAID"`
	StartDate  string `json:"start_date" binding:"required"`
	EndDate    string `json:"end_date" binding:"required"`
	HalfDay    bool   `json:"half_day"`
	Reason     string `json:"reason" binding:"required,min=3"`
}

type CreateCancellationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type DecisionRequest struct {
	Action   string `json:"action" binding:"required,oneof=APPROVE REJECT"`
	Comments string `json:"comments"`
}

type BulkDecisionRequest struct {
	IDs      []string `json:"ids" binding:"required,min=1,max=100,dive,uuid"`
	Action   string   `json:"action" binding:"required,oneof=APPROVE REJECT"`
	Comments string   `json:"comments"`
}

type BulkDecisionSummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

type BulkDecisionResponse struct {
	Successful []string            `json:"successful"`
	Failed     []bulk.Failure      `json:"failed"`
	Summary    BulkDecisionSummary `json:"summary"`
}

type LeaveResponse struct {
	ID                string  `json:"id"`
	CompanyID         string  `json:"company_id"`
	EmployeeID        string  `json:"employee_id"`
	RequestNumber     string  `json:"request_number"`
	LeaveType         string  `json:"leave_type"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	HalfDay           bool    `json:"half_day"`
	TotalDays         string  `json:"total_days"`
	Reason            string  `json:"reason"`
	Status            string  `json:"status"`
	IsCancellation    bool    `json:"is_cancellation"`
	OriginalRequestID *string `json:"original_request_id,omitempty"`
	CreatedBy         string  `json:"created_by"`
	DecidedBy         *string `json:"decided_by,omitempty"`
	DecidedAt         *string `json:"decided_at,omitempty"`
	DecisionComments  *string `json:"decision_comments,omitempty"`
}
