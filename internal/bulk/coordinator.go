package bulk

import (
	"context"
	"errors"

	"hrms/internal/shared/apperror"

	"go.uber.org/zap"
)

// Failure records why one item of a batch could not be applied.
type Failure struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Result summarizes a batch: every id lands in exactly one of the two lists,
// in the order it was supplied.
type Result struct {
	Successful []string  `json:"successful"`
	Failed     []Failure `json:"failed"`
}

func (r Result) SuccessCount() int { return len(r.Successful) }
func (r Result) FailureCount() int { return len(r.Failed) }

// ItemFunc applies one decision to one request id.
type ItemFunc func(ctx context.Context, id string) error

// Apply runs fn for each id sequentially and in order, isolating per-item
// failure from the rest of the batch. A failed item never aborts the
// remaining items; its error is recorded as a structured failure entry.
// Duplicate ids are applied one after another, so the second sees the state
// left by the first.
func Apply(ctx context.Context, logger *zap.Logger, ids []string, fn ItemFunc) Result {
	result := Result{
		Successful: make([]string, 0, len(ids)),
		Failed:     make([]Failure, 0),
	}

	for _, id := range ids {
		if err := fn(ctx, id); err != nil {
			code := apperror.CodeInternalError
			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				code = appErr.Code
			}

			logger.Warn("bulk item failed",
				zap.String("id", id),
				zap.String("code", code),
				zap.Error(err),
			)

			result.Failed = append(result.Failed, Failure{
				ID:     id,
				Code:   code,
				Reason: err.Error(),
			})
			continue
		}

		result.Successful = append(result.Successful, id)
	}

	logger.Info("bulk operation completed",
		zap.Int("total", len(ids)),
		zap.Int("successful", result.SuccessCount()),
		zap.Int("failed", result.FailureCount()),
	)

	return result
}
