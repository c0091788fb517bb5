package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hrms/internal/balance"
	"hrms/internal/bulk"
	"hrms/internal/domain"
	"hrms/internal/events"
	leaveerrors "hrms/internal/leave/errors"
	"hrms/internal/messaging/kafka"
	"hrms/internal/shared/contextutil"
	"hrms/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	StatusPending              = "PENDING"
	StatusApproved             = "APPROVED"
	StatusRejected             = "REJECTED"
	StatusCancelled            = "CANCELLED"
	StatusCancellationApproved = "CANCELLATION_APPROVED"
	StatusCancellationRejected = "CANCELLATION_REJECTED"

	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
)

const requestNumberCounter = "leave_request"

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID, actorID string, req CreateLeaveRequest) (LeaveResponse, error)
	CreateCancellation(ctx context.Context, companyID, actorEmployeeID, originalID string, req CreateCancellationRequest) (LeaveResponse, error)
	Decide(ctx context.Context, companyID, actorID, actorRole, id string, req DecisionRequest) (LeaveResponse, error)
	BulkDecide(ctx context.Context, companyID, actorID, actorRole string, req BulkDecisionRequest) (BulkDecisionResponse, error)
	GetAll(ctx context.Context, companyID string, filter ListFilter) ([]LeaveResponse, error)
	GetByID(ctx context.Context, companyID, id string) (LeaveResponse, error)
	GetPendingForApprover(ctx context.Context, companyID, managerID string) ([]LeaveResponse, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	ledger  balance.Ledger
	counter counter.Repository
	outbox  kafka.OutboxRepository
	logger  *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	ledger balance.Ledger,
	counterRepo counter.Repository,
	outbox kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	return &service{
		db:      db,
		repo:    repo,
		ledger:  ledger,
		counter: counterRepo,
		outbox:  outbox,
		logger:  l,
	}
}

// Create reserves the requested days and persists the request in one
// transaction. If the reservation is refused nothing is written.
func (s *service) Create(ctx context.Context, companyID, actorID string, req CreateLeaveRequest) (LeaveResponse, error) {
	s.logger.Debug("create leave requested",
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.String("employee_id", req.EmployeeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	companyUUID, employeeUUID, createdByUUID, startDate, endDate, err := validateCreateRequest(companyID, actorID, req)
	if err != nil {
		s.logger.Warn("create leave validation failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	totalDays, err := totalDaysFor(startDate, endDate, req.HalfDay)
	if err != nil {
		return LeaveResponse{}, err
	}

	requestNumber, err := s.nextRequestNumber(ctx, companyID)
	if err != nil {
		s.logger.Error("create leave request number failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	var created *LeaveRequest
	err = s.ledger.Execute(ctx, companyID, req.EmployeeID, req.LeaveType, startDate.Year(), balance.OpReserve, totalDays, func(tx *sql.Tx) error {
		qtx := s.repo.WithTx(tx)

		belongs, err := qtx.EmployeeBelongsToCompany(ctx, companyID, req.EmployeeID)
		if err != nil {
			return err
		}
		if !belongs {
			return leaveerrors.ErrEmployeeNotInCompany
		}

		overlap, err := qtx.HasOverlappingPeriod(ctx, companyID, req.EmployeeID, startDate, endDate, nil)
		if err != nil {
			return err
		}
		if overlap {
			return leaveerrors.ErrLeaveOverlap
		}

		l := &LeaveRequest{
			ID:            uuid.New(),
			CompanyID:     companyUUID,
			EmployeeID:    employeeUUID,
			RequestNumber: requestNumber,
			LeaveType:     req.LeaveType,
			StartDate:     startDate,
			EndDate:       endDate,
			HalfDay:       req.HalfDay,
			TotalDays:     totalDays,
			Reason:        req.Reason,
			Status:        StatusPending,
			CreatedBy:     createdByUUID,
		}
		if err := qtx.Create(ctx, l); err != nil {
			return err
		}
		created = l
		return nil
	})
	if err != nil {
		s.logger.Warn("create leave failed",
			zap.String("employee_id", req.EmployeeID),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	s.logger.Info("create leave success",
		zap.String("leave_id", created.ID.String()),
		zap.String("request_number", created.RequestNumber),
		zap.String("employee_id", req.EmployeeID),
		zap.String("total_days", created.TotalDays.String()),
	)
	return mapToResponse(*created), nil
}

// CreateCancellation files a new pending request that references the
// original. The ledger is untouched until an approver decides it.
func (s *service) CreateCancellation(ctx context.Context, companyID, actorEmployeeID, originalID string, req CreateCancellationRequest) (LeaveResponse, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorEmployeeID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	originalUUID, err := uuid.Parse(originalID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidRequestID
	}

	requestNumber, err := s.nextRequestNumber(ctx, companyID)
	if err != nil {
		s.logger.Error("create cancellation request number failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create cancellation begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	original, err := qtx.FindByIDAndCompany(ctx, companyID, originalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if original.IsCancellation {
		return LeaveResponse{}, leaveerrors.ErrCancellationOfCancellation
	}
	if original.EmployeeID != actorUUID {
		return LeaveResponse{}, leaveerrors.ErrNotRequestOwner
	}
	if original.Status != StatusPending && original.Status != StatusApproved {
		return LeaveResponse{}, leaveerrors.ErrOriginalNotCancellable
	}

	pending, err := qtx.HasPendingCancellation(ctx, companyID, originalID)
	if err != nil {
		return LeaveResponse{}, err
	}
	if pending {
		return LeaveResponse{}, leaveerrors.ErrCancellationAlreadyRequested
	}

	c := &LeaveRequest{
		ID:                uuid.New(),
		CompanyID:         companyUUID,
		EmployeeID:        original.EmployeeID,
		RequestNumber:     requestNumber,
		LeaveType:         original.LeaveType,
		StartDate:         original.StartDate,
		EndDate:           original.EndDate,
		HalfDay:           original.HalfDay,
		TotalDays:         original.TotalDays,
		Reason:            req.Reason,
		Status:            StatusPending,
		IsCancellation:    true,
		OriginalRequestID: &originalUUID,
		CreatedBy:         actorUUID,
	}
	if err := qtx.Create(ctx, c); err != nil {
		s.logger.Error("create cancellation persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create cancellation commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("create cancellation success",
		zap.String("cancellation_id", c.ID.String()),
		zap.String("original_id", originalID),
	)
	return mapToResponse(*c), nil
}

// Decide settles one pending request. Approving or rejecting an ordinary
// request moves its reserved days; deciding a cancellation settles the
// original row in the same transaction.
func (s *service) Decide(ctx context.Context, companyID, actorID, actorRole, id string, req DecisionRequest) (LeaveResponse, error) {
	if _, err := uuid.Parse(companyID); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidRequestID
	}
	if req.Action == ActionReject && strings.TrimSpace(req.Comments) == "" {
		return LeaveResponse{}, leaveerrors.ErrCommentsRequired
	}

	l, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if l.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.ErrAlreadyDecided
	}

	if !domain.CanDecideForAnyEmployee(actorRole) {
		reports, err := s.repo.EmployeeReportsToManager(ctx, companyID, l.EmployeeID.String(), actorID)
		if err != nil {
			return LeaveResponse{}, err
		}
		if !reports {
			s.logger.Warn("decide leave refused, actor is not the manager",
				zap.String("leave_id", id),
				zap.String("actor_id", actorID),
			)
			return LeaveResponse{}, leaveerrors.ErrNotRequestApprover
		}
	}

	if l.IsCancellation {
		return s.decideCancellation(ctx, companyID, actorUUID, l, req)
	}
	return s.decideOrdinary(ctx, companyID, actorUUID, l, req)
}

func (s *service) decideOrdinary(ctx context.Context, companyID string, actorUUID uuid.UUID, l *LeaveRequest, req DecisionRequest) (LeaveResponse, error) {
	op := balance.OpCommit
	target := StatusApproved
	if req.Action == ActionReject {
		op = balance.OpRelease
		target = StatusRejected
	}

	var decided *LeaveRequest
	err := s.ledger.Execute(ctx, companyID, l.EmployeeID.String(), l.LeaveType, l.StartDate.Year(), op, l.TotalDays, func(tx *sql.Tx) error {
		qtx := s.repo.WithTx(tx)

		cur, err := qtx.FindByIDAndCompany(ctx, companyID, l.ID.String())
		if err != nil {
			return err
		}
		if cur.Status != StatusPending {
			return leaveerrors.ErrAlreadyDecided
		}

		markDecided(cur, target, actorUUID, req.Comments)
		if err := qtx.Update(ctx, cur); err != nil {
			return err
		}
		if err := s.queueDecisionEvent(ctx, tx, cur); err != nil {
			return err
		}
		decided = cur
		return nil
	})
	if err != nil {
		s.logger.Warn("decide leave failed",
			zap.String("leave_id", l.ID.String()),
			zap.String("action", req.Action),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	s.logger.Info("decide leave success",
		zap.String("leave_id", decided.ID.String()),
		zap.String("status", decided.Status),
	)
	return mapToResponse(*decided), nil
}

func (s *service) decideCancellation(ctx context.Context, companyID string, actorUUID uuid.UUID, c *LeaveRequest, req DecisionRequest) (LeaveResponse, error) {
	if c.OriginalRequestID == nil {
		return LeaveResponse{}, leaveerrors.ErrOriginalMissing
	}

	if req.Action == ActionReject {
		return s.rejectCancellation(ctx, companyID, actorUUID, c, req.Comments)
	}

	original, err := s.repo.FindByIDAndCompany(ctx, companyID, c.OriginalRequestID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrOriginalMissing
		}
		return LeaveResponse{}, err
	}

	// Approved days were already taken, so cancelling credits them back.
	// A still-pending original only holds a reservation, which is released.
	var op balance.Op
	switch original.Status {
	case StatusApproved:
		op = balance.OpCredit
	case StatusPending:
		op = balance.OpRelease
	default:
		return LeaveResponse{}, leaveerrors.ErrOriginalNotCancellable
	}

	var decided *LeaveRequest
	err = s.ledger.Execute(ctx, companyID, original.EmployeeID.String(), original.LeaveType, original.StartDate.Year(), op, original.TotalDays, func(tx *sql.Tx) error {
		qtx := s.repo.WithTx(tx)

		curCancel, err := qtx.FindByIDAndCompany(ctx, companyID, c.ID.String())
		if err != nil {
			return err
		}
		if curCancel.Status != StatusPending {
			return leaveerrors.ErrAlreadyDecided
		}
		curOriginal, err := qtx.FindByIDAndCompany(ctx, companyID, original.ID.String())
		if err != nil {
			return err
		}
		if curOriginal.Status != original.Status {
			return leaveerrors.ErrOriginalNotCancellable
		}

		markDecided(curCancel, StatusCancellationApproved, actorUUID, req.Comments)
		if err := qtx.Update(ctx, curCancel); err != nil {
			return err
		}

		curOriginal.Status = StatusCancelled
		if err := qtx.Update(ctx, curOriginal); err != nil {
			return err
		}

		if err := s.queueDecisionEvent(ctx, tx, curCancel); err != nil {
			return err
		}
		decided = curCancel
		return nil
	})
	if err != nil {
		s.logger.Warn("decide cancellation failed",
			zap.String("cancellation_id", c.ID.String()),
			zap.Error(err),
		)
		return LeaveResponse{}, err
	}

	s.logger.Info("cancellation approved",
		zap.String("cancellation_id", decided.ID.String()),
		zap.String("original_id", original.ID.String()),
		zap.String("ledger_op", string(op)),
	)
	return mapToResponse(*decided), nil
}

// rejectCancellation leaves the original and the ledger untouched.
func (s *service) rejectCancellation(ctx context.Context, companyID string, actorUUID uuid.UUID, c *LeaveRequest, comments string) (LeaveResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("reject cancellation begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	cur, err := qtx.FindByIDAndCompany(ctx, companyID, c.ID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	if cur.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.ErrAlreadyDecided
	}

	markDecided(cur, StatusCancellationRejected, actorUUID, comments)
	if err := qtx.Update(ctx, cur); err != nil {
		return LeaveResponse{}, err
	}
	if err := s.queueDecisionEvent(ctx, tx, cur); err != nil {
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("reject cancellation commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	s.logger.Info("cancellation rejected", zap.String("cancellation_id", cur.ID.String()))
	return mapToResponse(*cur), nil
}

// BulkDecide applies one decision to many requests. Items fail
// independently; a refused or conflicting item never aborts the rest.
func (s *service) BulkDecide(ctx context.Context, companyID, actorID, actorRole string, req BulkDecisionRequest) (BulkDecisionResponse, error) {
	result := bulk.Apply(ctx, s.logger, req.IDs, func(ctx context.Context, id string) error {
		_, err := s.Decide(ctx, companyID, actorID, actorRole, id, DecisionRequest{
			Action:   req.Action,
			Comments: req.Comments,
		})
		return err
	})

	s.logger.Info("bulk decide finished",
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

func (s *service) GetAll(ctx context.Context, companyID string, filter ListFilter) ([]LeaveResponse, error) {
	requests, err := s.repo.FindAllByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (LeaveResponse, error) {
	l, err := s.repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
		}
		return LeaveResponse{}, err
	}
	return mapToResponse(*l), nil
}

func (s *service) GetPendingForApprover(ctx context.Context, companyID, managerID string) ([]LeaveResponse, error) {
	requests, err := s.repo.FindPendingForApprover(ctx, companyID, managerID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

func (s *service) nextRequestNumber(ctx context.Context, companyID string) (string, error) {
	next, err := s.counter.GetNextValue(ctx, companyID, requestNumberCounter)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("LR-%06d", next), nil
}

func (s *service) queueDecisionEvent(ctx context.Context, tx *sql.Tx, l *LeaveRequest) error {
	if s.outbox == nil {
		return nil
	}

	decidedBy := ""
	if l.DecidedBy != nil {
		decidedBy = l.DecidedBy.String()
	}
	evt := events.LeaveDecidedEvent{
		EventType:    "leave.decided",
		RequestID:    contextutil.GetRequestID(ctx),
		LeaveID:      l.ID.String(),
		EmployeeID:   l.EmployeeID.String(),
		CompanyID:    l.CompanyID.String(),
		Status:       l.Status,
		DecidedBy:    decidedBy,
		Cancellation: l.IsCancellation,
		OccurredAt:   time.Now().UTC(),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	return s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     evt.RequestID,
		AggregateType: "leave_request",
		AggregateID:   l.ID.String(),
		EventType:     evt.EventType,
		Topic:         events.LeaveDecidedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func markDecided(l *LeaveRequest, target string, actorUUID uuid.UUID, comments string) {
	l.Status = target
	l.DecidedBy = &actorUUID
	now := time.Now().UTC()
	l.DecidedAt = &now
	if comments != "" {
		l.DecisionComments = &comments
	}
}

func totalDaysFor(startDate, endDate time.Time, halfDay bool) (decimal.Decimal, error) {
	if halfDay {
		if !startDate.Equal(endDate) {
			return decimal.Decimal{}, leaveerrors.ErrHalfDayRange
		}
		return decimal.NewFromFloat(0.5), nil
	}
	days := int64(endDate.Sub(startDate).Hours()/24) + 1
	return decimal.NewFromInt(days), nil
}

func validateCreateRequest(companyID, actorID string, req CreateLeaveRequest) (uuid.UUID, uuid.UUID, uuid.UUID, time.Time, time.Time, error) {
	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidCompanyID
	}
	employeeUUID, err := uuid.Parse(req.EmployeeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidEmployeeID
	}
	createdByUUID, err := uuid.Parse(actorID)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidActorID
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, err
	}
	if startDate.After(endDate) {
		return uuid.Nil, uuid.Nil, uuid.Nil, time.Time{}, time.Time{}, leaveerrors.ErrInvalidDateRange
	}
	return companyUUID, employeeUUID, createdByUUID, startDate, endDate, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:             l.ID.String(),
		CompanyID:      l.CompanyID.String(),
		EmployeeID:     l.EmployeeID.String(),
		RequestNumber:  l.RequestNumber,
		LeaveType:      l.LeaveType,
		StartDate:      l.StartDate.Format("2006-01-02"),
		EndDate:        l.EndDate.Format("2006-01-02"),
		HalfDay:        l.HalfDay,
		TotalDays:      l.TotalDays.String(),
		Reason:         l.Reason,
		Status:         l.Status,
		IsCancellation: l.IsCancellation,
		CreatedBy:      l.CreatedBy.String(),
	}
	if l.OriginalRequestID != nil {
		v := l.OriginalRequestID.String()
		resp.OriginalRequestID = &v
	}
	if l.DecidedBy != nil {
		v := l.DecidedBy.String()
		resp.DecidedBy = &v
	}
	if l.DecidedAt != nil {
		v := l.DecidedAt.Format(time.RFC3339)
		resp.DecidedAt = &v
	}
	resp.DecisionComments = l.DecisionComments
	return resp
}

func mapToListResponse(requests []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(requests))
	for i, l := range requests {
		resp[i] = mapToResponse(l)
	}
	return resp
}
