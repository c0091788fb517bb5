package balance

type UpsertBalanceRequest struct {
	EmployeeID   string `json:"employee_id" binding:"required,uuid"`
	LeaveType    string `json:"leave_type" binding:"required,oneof=ANNUAL SICK UNPAID"`
	Year         int    `json:"year" binding:"required,min=2000,max=2200"`
	TotalAccrued string `json:"total_accrued" binding:"required"`
	CarryForward string `json:"carry_forward"`
}

type BalanceResponse struct {
	ID           string `json:"id"`
	CompanyID    string `json:"company_id"`
	EmployeeID   string `json:"employee_id"`
	LeaveType    string `json:"leave_type"`
	Year         int    `json:"year"`
	TotalAccrued string `json:"total_accrued"`
	CarryForward string `json:"carry_forward"`
	TotalTaken   string `json:"total_taken"`
	TotalPending string `json:"total_pending"`
	Available    string `json:"available"`
}
