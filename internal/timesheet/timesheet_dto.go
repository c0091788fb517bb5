package timesheet

import "hrms/internal/bulk"

type DayHours struct {
	Monday    float64 `json:"monday" binding:"gte=0,lte=24"`
	Tuesday   float64 `json:"tuesday" binding:"gte=0,lte=24"`
	Wednesday float64 `json:"wednesday" binding:"gte=0,lte=24"`
	Thursday  float64 `json:"thursday" binding:"gte=0,lte=24"`
	Friday    float64 `json:"friday" binding:"gte=0,lte=24"`
	Saturday  float64 `json:"saturday" binding:"gte=0,lte=24"`
	Sunday    float64 `json:"sunday" binding:"gte=0,lte=24"`
}

type CreateTimesheetRequest struct {
	WeekStartDate string   `json:"week_start_date" binding:"required"`
	ProjectID     string   `json:"project_id" binding:"omitempty,uuid"`
	TaskID        string   `json:"task_id" binding:"omitempty,uuid"`
	Description   string   `json:"description"`
	Hours         DayHours `json:"hours"`
}

type UpdateTimesheetRequest struct {
	Description string   `json:"description"`
	Hours       DayHours `json:"hours"`
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

type TimesheetResponse struct {
	ID               string   `json:"id"`
	CompanyID        string   `json:"company_id"`
	EmployeeID       string   `json:"employee_id"`
	ProjectID        *string  `json:"project_id,omitempty"`
	TaskID           *string  `json:"task_id,omitempty"`
	WeekStartDate    string   `json:"week_start_date"`
	Year             int      `json:"year"`
	WeekNumber       int      `json:"week_number"`
	Description      string   `json:"description,omitempty"`
	Hours            DayHours `json:"hours"`
	TotalHoursWorked string   `json:"total_hours_worked"`
	Status           string   `json:"status"`
	SubmittedAt      *string  `json:"submitted_at,omitempty"`
	DecidedBy        *string  `json:"decided_by,omitempty"`
	DecidedAt        *string  `json:"decided_at,omitempty"`
	DecisionComments *string  `json:"decision_comments,omitempty"`
}
