package cli

import (
	"context"
	"io"
)

//go:generate mockgen -source=runner.go -destination=mock/runner.go -package=mock

// Runner runs CLI commands.
type Runner interface {
	Exec(ctx context.Context, args []string, opts ExecOptions) (*CompletedProcess, error)
}

type ExecOptions struct {
	Stdin io.Reader
	// Check turns a non-zero exit code into a CommandError.
	Check bool
}

// CompletedProcess is a finished command with its decoded output.
type CompletedProcess struct {
	Args       []string
	Stdout     string
	Stderr     string
	ReturnCode int
}
