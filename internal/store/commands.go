package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/dcos/dcos-test-utils/internal/models"
	srvErrors "github.com/dcos/dcos-test-utils/pkg/errors"
)

const (
	commandsTable      = "command_results"
	commandColID       = "id"
	commandColRunID    = "run_id"
	commandColHost     = "host"
	commandColCmd      = "cmd"
	commandColStdout   = "stdout"
	commandColStderr   = "stderr"
	commandColCode     = "return_code"
	commandColPID      = "pid"
	commandColCreateAt = "created_at"
)

var commandColumns = []string{
	commandColID, commandColRunID, commandColHost, commandColCmd,
	commandColStdout, commandColStderr, commandColCode, commandColPID, commandColCreateAt,
}

type CommandStore struct {
	db Querier
}

func NewCommandStore(db Querier) *CommandStore {
	return &CommandStore{db: db}
}

// Insert records results. Missing ids are generated and missing creation
// times set to now. It returns the stored results.
func (s *CommandStore) Insert(ctx context.Context, results ...models.CommandResult) ([]models.CommandResult, error) {
	if len(results) == 0 {
		return nil, nil
	}

	builder := sq.Insert(commandsTable).Columns(commandColumns...)
	stored := make([]models.CommandResult, 0, len(results))
	for _, r := range results {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = time.Now().UTC()
		}

		cmd, err := json.Marshal(r.Cmd)
		if err != nil {
			return nil, err
		}
		stdout, err := json.Marshal(r.Stdout)
		if err != nil {
			return nil, err
		}
		stderr, err := json.Marshal(r.Stderr)
		if err != nil {
			return nil, err
		}

		builder = builder.Values(r.ID, r.RunID, r.Host, string(cmd), string(stdout), string(stderr), r.ReturnCode, r.PID, r.CreatedAt)
		stored = append(stored, r)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("inserting command results: %w", err)
	}
	return stored, nil
}

func (s *CommandStore) Get(ctx context.Context, id string) (*models.CommandResult, error) {
	query, args, err := sq.Select(commandColumns...).
		From(commandsTable).
		Where(sq.Eq{commandColID: id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query for command %s: %w", id, err)
	}

	r, err := scanCommand(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewResourceNotFoundError("command result", id)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning command %s: %w", id, err)
	}
	return r, nil
}

// List returns results matching the filter. If filter is nil, returns all
// in insertion time order.
func (s *CommandStore) List(ctx context.Context, filter *CommandQueryFilter) ([]models.CommandResult, error) {
	builder := sq.Select(commandColumns...).From(commandsTable)
	if filter != nil {
		builder = filter.Apply(builder)
	}
	builder = builder.OrderBy(commandColCreateAt+" ASC", commandColHost+" ASC")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing list query: %w", err)
	}
	defer rows.Close()

	results := []models.CommandResult{}
	for rows.Next() {
		r, err := scanCommand(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning command: %w", err)
		}
		results = append(results, *r)
	}
	return results, rows.Err()
}

// Runs summarizes results per run, most recent first.
func (s *CommandStore) Runs(ctx context.Context) ([]models.RunSummary, error) {
	query, args, err := sq.Select(
		commandColRunID,
		fmt.Sprintf("count(DISTINCT %s)", commandColHost),
		"count(*)",
		fmt.Sprintf("count(*) FILTER (WHERE %s <> 0)", commandColCode),
		fmt.Sprintf("min(%s)", commandColCreateAt),
	).
		From(commandsTable).
		GroupBy(commandColRunID).
		OrderBy(fmt.Sprintf("min(%s) DESC", commandColCreateAt)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building runs query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing runs query: %w", err)
	}
	defer rows.Close()

	runs := []models.RunSummary{}
	for rows.Next() {
		var r models.RunSummary
		if err := rows.Scan(&r.RunID, &r.Hosts, &r.Results, &r.Failed, &r.StartedAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes every result of a run.
func (s *CommandStore) DeleteRun(ctx context.Context, runID string) error {
	query, args, err := sq.Delete(commandsTable).Where(sq.Eq{commandColRunID: runID}).ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCommand(row scanner) (*models.CommandResult, error) {
	var (
		r                   models.CommandResult
		cmd, stdout, stderr string
	)
	if err := row.Scan(&r.ID, &r.RunID, &r.Host, &cmd, &stdout, &stderr, &r.ReturnCode, &r.PID, &r.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(cmd), &r.Cmd); err != nil {
		return nil, fmt.Errorf("decoding cmd: %w", err)
	}
	if err := json.Unmarshal([]byte(stdout), &r.Stdout); err != nil {
		return nil, fmt.Errorf("decoding stdout: %w", err)
	}
	if err := json.Unmarshal([]byte(stderr), &r.Stderr); err != nil {
		return nil, fmt.Errorf("decoding stderr: %w", err)
	}
	return &r, nil
}
