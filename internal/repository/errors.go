package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/darave/studio/internal/model"
)

// PostgreSQLのエラーコード
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgQueryCanceled       = "57014"
)

// defaultQueryTimeout はタイムアウト未指定時のクエリ上限時間。
const defaultQueryTimeout = 5 * time.Second

var (
	// ErrUniqueViolation は一意制約違反を示す。サービス層でDuplicateResourceに変換する。
	ErrUniqueViolation = errors.New("unique constraint violation")
	// ErrForeignKeyViolation は参照先が存在しないことを示す。
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// ConstraintError は違反した制約名を保持する。
type ConstraintError struct {
	Kind       error
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%v (%s): %v", e.Kind, e.Constraint, e.Err)
}

// Is はerrors.Isで種別（ErrUniqueViolation等）と比較できるようにする。
func (e *ConstraintError) Is(target error) bool {
	return target == e.Kind
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// withTimeout はクエリ1回分のタイムアウト付きcontextを返す。
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = defaultQueryTimeout
	}
	return context.WithTimeout(ctx, d)
}

// wrapErr はドライバのエラーをリポジトリのエラーに変換する。
// タイムアウトはUpstreamTimeout、制約違反はConstraintErrorになる。
func wrapErr(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return model.NewUpstreamTimeoutError(fmt.Errorf("failed to %s: %w", op, err))
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return &ConstraintError{Kind: ErrUniqueViolation, Constraint: pqErr.Constraint, Err: err}
		case pgForeignKeyViolation:
			return &ConstraintError{Kind: ErrForeignKeyViolation, Constraint: pqErr.Constraint, Err: err}
		case pgQueryCanceled:
			return model.NewUpstreamTimeoutError(fmt.Errorf("failed to %s: %w", op, err))
		}
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}
