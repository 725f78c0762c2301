package store

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// Querier is the part of *sql.DB the stores run statements with.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// loggingQuerier logs each statement with its bound args and duration.
type loggingQuerier struct {
	db     *sql.DB
	logger *zap.SugaredLogger
}

func newLoggingQuerier(db *sql.DB) *loggingQuerier {
	return &loggingQuerier{
		db:     db,
		logger: zap.S().Named("store"),
	}
}

func (q *loggingQuerier) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	defer q.trace("query row", query, args, time.Now(), nil)
	return q.db.QueryRowContext(ctx, query, args...)
}

func (q *loggingQuerier) QueryContext(ctx context.Context, query string, args ...any) (rows *sql.Rows, err error) {
	defer func(start time.Time) { q.trace("query", query, args, start, err) }(time.Now())
	return q.db.QueryContext(ctx, query, args...)
}

func (q *loggingQuerier) ExecContext(ctx context.Context, query string, args ...any) (res sql.Result, err error) {
	defer func(start time.Time) { q.trace("exec", query, args, start, err) }(time.Now())
	return q.db.ExecContext(ctx, query, args...)
}

func (q *loggingQuerier) trace(kind, query string, args []any, start time.Time, err error) {
	if err != nil {
		q.logger.Debugw(kind+" failed", "query", query, "args", args, "error", err)
		return
	}
	q.logger.Debugw(kind, "query", query, "args", args, "duration", time.Since(start))
}
