package timesheet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"hrms/internal/bulk"
	"hrms/internal/domain"
	"hrms/internal/events"
	"hrms/internal/messaging/kafka"
	"hrms/internal/shared/contextutil"
	timesheeterrors "hrms/internal/timesheet/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusDraft     = "DRAFT"
	StatusSubmitted = "SUBMITTED"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"

	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
)

//go:generate mockgen -source=timesheet_service.go -destination=mock/timesheet_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID, actorEmployeeID string, req CreateTimesheetRequest) (TimesheetResponse, error)
	Update(ctx context.Context, companyID, actorEmployeeID, id string, req UpdateTimesheetRequest) (TimesheetResponse, error)
	Submit(ctx context.Context, companyID, actorEmployeeID, id string) (TimesheetResponse, error)
	Decide(ctx context.Context, companyID, actorID, actorRole, id string, req DecisionRequest) (TimesheetResponse, error)
	Resubmit(ctx context.Context, companyID, actorEmployeeID, id string) (TimesheetResponse, error)
	BulkDecide(ctx context.Context, companyID, actorID, actorRole string, req BulkDecisionRequest) (BulkDecisionResponse, error)
	GetAll(ctx context.Context, companyID string, filter ListFilter) ([]TimesheetResponse, error)
	GetByID(ctx context.Context, companyID, id string) (TimesheetResponse, error)
	GetPendingForApprover(ctx context.Context, companyID, managerID string) ([]TimesheetResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, outbox kafka.OutboxRepository, logger ...*zap.Logger) Service {
	l := zap.L().Named("timesheet.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("timesheet.service")
	}
	return &service{db: db, repo: repo, outbox: outbox, logger: l}
}

func (s *service) Create(ctx context.Context, companyID, actorEmployeeID string, req CreateTimesheetRequest) (TimesheetResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return TimesheetResponse{}, timesheeterrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(actorEmployeeID)
	if err != nil {
		return TimesheetResponse{}, timesheeterrors.ErrInvalidEmployeeID
	}
	weekStart, err := parseWeekStart(req.WeekStartDate)
	if err != nil {
		return TimesheetResponse{}, err
	}
	hours, err := hoursFromDTO(req.Hours)
	if err != nil {
		return TimesheetResponse{}, err
	}
	projectUUID, err := parseOptionalUUID(req.ProjectID)
	if err != nil {
		return TimesheetResponse{}, timesheeterrors.ErrInvalidProjectID
	}
	taskUUID, err := parseOptionalUUID(req.TaskID)
	if err != nil {
		return TimesheetResponse{}, timesheeterrors.ErrInvalidTaskID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create timesheet begin tx failed", zap.Error(err))
		return TimesheetResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	belongs, err := qtx.EmployeeBelongsToCompany(ctx, companyID, actorEmployeeID)
	if err != nil {
		return TimesheetResponse{}, err
	}
	if !belongs {
		return TimesheetResponse{}, timesheeterrors.ErrEmployeeNotInCompany
	}

	_, weekNumber := weekStart.ISOWeek()
	t := &Timesheet{
		ID:            uuid.New(),
		CompanyID:     companyUUID,
		EmployeeID:    employeeUUID,
		ProjectID:     projectUUID,
		TaskID:        taskUUID,
		WeekStartDate: weekStart,
		Year:          weekStart.Year(),
		WeekNumber:    weekNumber,
		Description:   req.Description,
		Status:        StatusDraft,
		CreatedBy:     employeeUUID,
	}
	applyHours(t, hours)

	if err := qtx.Create(ctx, t); err != nil {
		s.logger.Warn("create timesheet persist failed",
			zap.String("employee_id", actorEmployeeID),
			zap.String("week_start_date", req.WeekStartDate),
			zap.Error(err),
		)
		return TimesheetResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create timesheet commit failed", zap.Error(err))
		return TimesheetResponse{}, err
	}

	s.logger.Info("create timesheet success",
		zap.String("timesheet_id", t.ID.String()),
		zap.String("employee_id", actorEmployeeID),
		zap.String("week_start_date", req.WeekStartDate),
	)
	return mapToResponse(*t), nil
}

func (s *service) Update(ctx context.Context, companyID, actorEmployeeID, id string, req UpdateTimesheetRequest) (TimesheetResponse, error) {
	hours, err := hoursFromDTO(req.Hours)
	if err != nil {
		return TimesheetResponse{}, err
	}

	return s.mutateOwn(ctx, companyID, actorEmployeeID, id, func(t *Timesheet) error {
		if t.Status != StatusDraft {
			return timesheeterrors.ErrNotDraft
		}
		applyHours(t, hours)
		t.Description = req.Description
		return nil
	})
}

func (s *service) Submit(ctx context.Context, companyID, actorEmployeeID, id string) (TimesheetResponse, error) {
	return s.mutateOwn(ctx, companyID, actorEmployeeID, id, func(t *Timesheet) error {
		if t.Status != StatusDraft {
			return timesheeterrors.ErrNotDraft
		}
		t.Status = StatusSubmitted
		now := time.Now().UTC()
		t.SubmittedAt = &now
		return nil
	})
}

// Resubmit turns a rejected week back into an editable draft. The recorded
// hours survive; the previous decision does not.
func (s *service) Resubmit(ctx context.Context, companyID, actorEmployeeID, id string) (TimesheetResponse, error) {
	return s.mutateOwn(ctx, companyID, actorEmployeeID, id, func(t *Timesheet) error {
		if t.Status != StatusRejected {
			return timesheeterrors.ErrNotRejected
		}
		t.Status = StatusDraft
		t.SubmittedAt = nil
		t.DecidedBy = nil
		t.DecidedAt = nil
		t.DecisionComments = nil
		return nil
	})
}

// mutateOwn loads the actor's own timesheet, applies change and saves it,
// all inside one transaction.
func (s *service) mutateOwn(ctx context.Context, companyID, actorEmployeeID, id string, change func(t *Timesheet) error) (TimesheetResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return TimesheetResponse{}, timesheeterrors.ErrInvalidCompanyID
	}
	if _, err := uuid.Parse(actorEmployeeID); err != nil {
		return TimesheetResponse{}, timesheeterrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return TimesheetResponse{}, timesheeterrors.ErrInvalidTimesheetID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("timesheet begin tx failed", zap.Error(err))
		return TimesheetResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	t, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return TimesheetResponse{}, mapRepositoryError(err)
	}
	if t.EmployeeID.String() != actorEmployeeID {
		return TimesheetResponse{}, timesheeterrors.ErrNotTimesheetOwner
	}

	if err := change(t); err != nil {
		return TimesheetResponse{}, err
	}

	if err := qtx.Update(ctx, t); err != nil {
		s.logger.Error("timesheet persist failed",
			zap.String("timesheet_id", id),
			zap.Error(err),
		)
		return TimesheetResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("timesheet commit failed", zap.Error(err))
		return TimesheetResponse{}, err
	}

	s.logger.Info("timesheet updated",
		zap.String("timesheet_id", t.ID.String()),
		zap.String("status", t.Status),
	)
	return mapToResponse(*t), nil
}

func (s *service) Decide(ctx context.Context, companyID, actorID, actorRole, id string, req DecisionRequest) (TimesheetResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return TimesheetResponse{}, timesheeterrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return TimesheetResponse{}, timesheeterrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return TimesheetResponse{}, timesheeterrors.ErrInvalidTimesheetID
	}
	if req.Action == ActionReject && strings.TrimSpace(req.Comments) == "" {
		return TimesheetResponse{}, timesheeterrors.ErrCommentsRequired
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("decide timesheet begin tx failed", zap.Error(err))
		return TimesheetResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	t, err := qtx.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return TimesheetResponse{}, mapRepositoryError(err)
	}
	if t.Status != StatusSubmitted {
		return TimesheetResponse{}, timesheeterrors.ErrNotSubmitted
	}

	if !domain.CanDecideForAnyEmployee(actorRole) {
		reports, err := qtx.EmployeeReportsToManager(ctx, companyID, t.EmployeeID.String(), actorID)
		if err != nil {
			return TimesheetResponse{}, err
		}
		if !reports {
			s.logger.Warn("decide timesheet refused, actor is not the manager",
				zap.String("timesheet_id", id),
				zap.String("actor_id", actorID),
			)
			return TimesheetResponse{}, timesheeterrors.ErrNotTimesheetApprover
		}
	}

	t.Status = StatusApproved
	if req.Action == ActionReject {
		t.Status = StatusRejected
	}
	t.DecidedBy = &actorUUID
	now := time.Now().UTC()
	t.DecidedAt = &now
	if req.Comments != "" {
		t.DecisionComments = &req.Comments
	}

	if err := qtx.Update(ctx, t); err != nil {
		s.logger.Error("decide timesheet persist failed",
			zap.String("timesheet_id", id),
			zap.Error(err),
		)
		return TimesheetResponse{}, mapRepositoryError(err)
	}

	if err := s.queueDecisionEvent(ctx, tx, t); err != nil {
		return TimesheetResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("decide timesheet commit failed", zap.Error(err))
		return TimesheetResponse{}, err
	}

	s.logger.Info("decide timesheet success",
		zap.String("timesheet_id", t.ID.String()),
		zap.String("status", t.Status),
	)
	return mapToResponse(*t), nil
}

func (s *service) BulkDecide(ctx context.Context, companyID, actorID, actorRole string, req BulkDecisionRequest) (BulkDecisionResponse, error) {
	result := bulk.Apply(ctx, s.logger, req.IDs, func(ctx context.Context, id string) error {
		_, err := s.Decide(ctx, companyID, actorID, actorRole, id, DecisionRequest{
			Action:   req.Action,
			Comments: req.Comments,
		})
		return err
	})

	s.logger.Info("bulk decide timesheets finished",
		zap.String("action", req.Action),
		zap.Int("total", len(req.IDs)),
		zap.Int("successful", result.SuccessCount()),
		zap.Int("failed", result.FailureCount()),
	)
	return BulkDecisionResponse{
		Successful: result.Successful,
		Failed:     result.Failed,
		Summary: BulkDecisionSummary{
			Total:      len(req.IDs),
			Successful: result.SuccessCount(),
			Failed:     result.FailureCount(),
		},
	}, nil
}

func (s *service) GetAll(ctx context.Context, companyID string, filter ListFilter) ([]TimesheetResponse, error) {
	sheets, err := s.repo.FindAllByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(sheets), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (TimesheetResponse, error) {
	t, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return TimesheetResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*t), nil
}

func (s *service) GetPendingForApprover(ctx context.Context, companyID, managerID string) ([]TimesheetResponse, error) {
	sheets, err := s.repo.FindPendingForApprover(ctx, companyID, managerID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(sheets), nil
}

func (s *service) queueDecisionEvent(ctx context.Context, tx *sql.Tx, t *Timesheet) error {
	if s.outbox == nil {
		return nil
	}

	decidedBy := ""
	if t.DecidedBy != nil {
		decidedBy = t.DecidedBy.String()
	}
	evt := events.TimesheetDecidedEvent{
		EventType:   "timesheet.decided",
		RequestID:   contextutil.GetRequestID(ctx),
		TimesheetID: t.ID.String(),
		EmployeeID:  t.EmployeeID.String(),
		CompanyID:   t.CompanyID.String(),
		Status:      t.Status,
		DecidedBy:   decidedBy,
		OccurredAt:  time.Now().UTC(),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     evt.RequestID,
		AggregateType: "timesheet",
		AggregateID:   t.ID.String(),
		EventType:     evt.EventType,
		Topic:         events.TimesheetDecidedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return timesheeterrors.ErrTimesheetNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" && pgErr.ConstraintName == "uq_timesheet_week" {
			return timesheeterrors.ErrDuplicateWeek
		}
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "duplicate key value") && strings.Contains(errMsg, "uq_timesheet_week") {
		return timesheeterrors.ErrDuplicateWeek
	}

	return err
}

func parseOptionalUUID(v string) (*uuid.UUID, error) {
	if v == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(v)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseWeekStart(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, timesheeterrors.ErrInvalidWeekStart
	}
	if t.Weekday() != time.Monday {
		return time.Time{}, timesheeterrors.ErrInvalidWeekStart
	}
	return t, nil
}

func hoursFromDTO(h DayHours) ([]decimal.Decimal, error) {
	raw := []float64{h.Monday, h.Tuesday, h.Wednesday, h.Thursday, h.Friday, h.Saturday, h.Sunday}
	out := make([]decimal.Decimal, len(raw))
	for i, v := range raw {
		if v < 0 || v > 24 {
			return nil, timesheeterrors.ErrInvalidDayHours
		}
		out[i] = decimal.NewFromFloat(v)
	}
	return out, nil
}

func applyHours(t *Timesheet, hours []decimal.Decimal) {
	cols := t.dayColumns()
	for i := range cols {
		*cols[i] = hours[i]
	}
}

func mapToResponse(t Timesheet) TimesheetResponse {
	resp := TimesheetResponse{
		ID:            t.ID.String(),
		CompanyID:     t.CompanyID.String(),
		EmployeeID:    t.EmployeeID.String(),
		WeekStartDate: t.WeekStartDate.Format("2006-01-02"),
		Year:          t.Year,
		WeekNumber:    t.WeekNumber,
		Description:   t.Description,
		Hours: DayHours{
			Monday:    t.MondayHours.InexactFloat64(),
			Tuesday:   t.TuesdayHours.InexactFloat64(),
			Wednesday: t.WednesdayHours.InexactFloat64(),
			Thursday:  t.ThursdayHours.InexactFloat64(),
			Friday:    t.FridayHours.InexactFloat64(),
			Saturday:  t.SaturdayHours.InexactFloat64(),
			Sunday:    t.SundayHours.InexactFloat64(),
		},
		TotalHoursWorked: t.TotalHoursWorked().String(),
		Status:           t.Status,
	}
	if t.ProjectID != nil {
		v := t.ProjectID.String()
		resp.ProjectID = &v
	}
	if t.TaskID != nil {
		v := t.TaskID.String()
		resp.TaskID = &v
	}
	if t.SubmittedAt != nil {
		v := t.SubmittedAt.Format(time.RFC3339)
		resp.SubmittedAt = &v
	}
	if t.DecidedBy != nil {
		v := t.DecidedBy.String()
		resp.DecidedBy = &v
	}
	if t.DecidedAt != nil {
		v := t.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &v
	}
	resp.DecisionComments = t.DecisionComments
	return resp
}

func mapToListResponse(sheets []Timesheet) []TimesheetResponse {
	resp := make([]TimesheetResponse, len(sheets))
	for i, t := range sheets {
		resp[i] = mapToResponse(t)
	}
	return resp
}
