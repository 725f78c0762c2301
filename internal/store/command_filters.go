package store

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/dcos/dcos-test-utils/pkg/filter"
)

// CommandFilterFields are the fields of command filter expressions. Output
// fields match against the encoded line lists.
var CommandFilterFields = filter.Fields{
	"run_id":      commandColRunID,
	"host":        commandColHost,
	"cmd":         commandColCmd,
	"stdout":      commandColStdout,
	"stderr":      commandColStderr,
	"return_code": commandColCode,
	"returncode":  commandColCode,
	"pid":         commandColPID,
	"created_at":  commandColCreateAt,
}

type CommandFilterFunc func(sq.SelectBuilder) sq.SelectBuilder

type CommandQueryFilter struct {
	filters []CommandFilterFunc
}

func NewCommandQueryFilter() *CommandQueryFilter {
	return &CommandQueryFilter{
		filters: make([]CommandFilterFunc, 0),
	}
}

func (f *CommandQueryFilter) Add(filter CommandFilterFunc) *CommandQueryFilter {
	f.filters = append(f.filters, filter)
	return f
}

func (f *CommandQueryFilter) ByRunID(runID string) *CommandQueryFilter {
	if runID == "" {
		return f
	}
	return f.Add(func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(sq.Eq{commandColRunID: runID})
	})
}

func (f *CommandQueryFilter) ByHosts(hosts ...string) *CommandQueryFilter {
	if len(hosts) == 0 {
		return f
	}
	return f.Add(func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(sq.Eq{commandColHost: hosts})
	})
}

func (f *CommandQueryFilter) FailedOnly() *CommandQueryFilter {
	return f.Add(func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(sq.NotEq{commandColCode: 0})
	})
}

// Where adds a compiled filter expression. A nil cond is ignored.
func (f *CommandQueryFilter) Where(cond sq.Sqlizer) *CommandQueryFilter {
	if cond == nil {
		return f
	}
	return f.Add(func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(cond)
	})
}

func (f *CommandQueryFilter) Limit(limit int) *CommandQueryFilter {
	return f.Add(func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Limit(uint64(limit))
	})
}

func (f *CommandQueryFilter) Apply(builder sq.SelectBuilder) sq.SelectBuilder {
	for _, apply := range f.filters {
		builder = apply(builder)
	}
	return builder
}
