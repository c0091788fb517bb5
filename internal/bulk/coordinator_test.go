package bulk_test

import (
	"context"
	"net/http"
	"testing"

	"hrms/internal/bulk"
	"hrms/internal/shared/apperror"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestApply_AllSucceed(t *testing.T) {
	ids := []string{"a", "b", "c"}

	var applied []string
	result := bulk.Apply(context.Background(), zap.NewNop(), ids, func(ctx context.Context, id string) error {
		applied = append(applied, id)
		return nil
	})

	assert.Equal(t, ids, applied)
	assert.Equal(t, ids, result.Successful)
	assert.Empty(t, result.Failed)
	assert.Equal(t, 3, result.SuccessCount())
	assert.Equal(t, 0, result.FailureCount())
}

func TestApply_OneFailureDoesNotAbortBatch(t *testing.T) {
	errInvalidState := apperror.New(apperror.CodeInvalidState, "invalid leave status transition", http.StatusBadRequest)

	result := bulk.Apply(context.Background(), zap.NewNop(), []string{"a", "b", "c"}, func(ctx context.Context, id string) error {
		if id == "b" {
			return errInvalidState
		}
		return nil
	})

	assert.Equal(t, []string{"a", "c"}, result.Successful)
	assert.Len(t, result.Failed, 1)
	assert.Equal(t, "b", result.Failed[0].ID)
	assert.Equal(t, apperror.CodeInvalidState, result.Failed[0].Code)
	assert.Equal(t, "invalid leave status transition", result.Failed[0].Reason)
}

func TestApply_UnknownErrorMapsToInternalCode(t *testing.T) {
	result := bulk.Apply(context.Background(), zap.NewNop(), []string{"a"}, func(ctx context.Context, id string) error {
		return assert.AnError
	})

	assert.Empty(t, result.Successful)
	assert.Len(t, result.Failed, 1)
	assert.Equal(t, apperror.CodeInternalError, result.Failed[0].Code)
}

func TestApply_DuplicateIDsProcessedSequentially(t *testing.T) {
	calls := 0
	result := bulk.Apply(context.Background(), zap.NewNop(), []string{"a", "a"}, func(ctx context.Context, id string) error {
		calls++
		if calls > 1 {
			// The second pass sees the state left by the first.
			return apperror.New(apperror.CodeInvalidState, "already decided", http.StatusBadRequest)
		}
		return nil
	})

	assert.Equal(t, []string{"a"}, result.Successful)
	assert.Len(t, result.Failed, 1)
	assert.Equal(t, "a", result.Failed[0].ID)
}

func TestApply_PreservesSuppliedOrder(t *testing.T) {
	ids := []string{"z", "m", "a"}
	var applied []string

	bulk.Apply(context.Background(), zap.NewNop(), ids, func(ctx context.Context, id string) error {
		applied = append(applied, id)
		return nil
	})

	assert.Equal(t, ids, applied)
}
