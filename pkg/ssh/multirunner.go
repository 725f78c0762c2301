package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/creack/pty"

	"github.com/dcos/dcos-test-utils/pkg/scheduler"
)

const (
	DefaultProcessTimeout = 120 * time.Second
	DefaultParallelism    = 10

	knownHostsWarning = "Warning: Permanently added"
	killDelay         = 5 * time.Second
)

// CommandResult is the outcome of one ssh or scp process.
type CommandResult struct {
	Host       string   `json:"host"`
	Cmd        []string `json:"cmd"`
	Stdout     []string `json:"stdout"`
	Stderr     []string `json:"stderr"`
	ReturnCode int      `json:"returncode"`
	PID        int      `json:"pid"`
}

// Action runs against one host.
type Action func(ctx context.Context, host string) (CommandResult, error)

// Step is one element of a command chain.
type Step interface {
	run(ctx context.Context, r *MultiRunner, host string) (CommandResult, error)
}

// RunStep runs Cmd on the host.
type RunStep struct {
	Cmd []string
}

func (s RunStep) run(ctx context.Context, r *MultiRunner, host string) (CommandResult, error) {
	return r.Run(ctx, host, s.Cmd...)
}

// CopyStep copies Local to Remote on the host.
type CopyStep struct {
	Local     string
	Remote    string
	Recursive bool
}

func (s CopyStep) run(ctx context.Context, r *MultiRunner, host string) (CommandResult, error) {
	return r.Copy(ctx, host, s.Local, s.Remote, s.Recursive)
}

// Chain is run in order on each host.
type Chain []Step

// MultiRunner dispatches commands to a fixed set of hosts, at most
// Parallelism at a time.
type MultiRunner struct {
	*Client

	ProcessTimeout time.Duration
	Parallelism    int

	targets []string
}

// NewMultiRunner returns a runner for targets given as "host" or "host:port".
func NewMultiRunner(client *Client, targets []string) *MultiRunner {
	return &MultiRunner{
		Client:         client,
		ProcessTimeout: DefaultProcessTimeout,
		Parallelism:    DefaultParallelism,
		targets:        targets,
	}
}

func (r *MultiRunner) Targets() []string {
	return r.targets
}

// Run runs cmd on host through a tunnel.
func (r *MultiRunner) Run(ctx context.Context, host string, cmd ...string) (CommandResult, error) {
	hostname, port, err := ParseHost(host)
	if err != nil {
		return CommandResult{}, err
	}

	var result CommandResult
	err = r.WithTunnel(ctx, hostname, port, func(t *Tunnel) error {
		args := append(append(append([]string{}, t.BaseCmd...), t.Target), cmd...)
		r.logger.Debugw("executing command", "host", host, "cmd", strings.Join(args, " "))

		var err error
		result, err = r.runProcess(ctx, args)
		return err
	})
	result.Host = host
	return result, err
}

// Copy copies localPath to remotePath on host with scp.
func (r *MultiRunner) Copy(ctx context.Context, host, localPath, remotePath string, recursive bool) (CommandResult, error) {
	hostname, port, err := ParseHost(host)
	if err != nil {
		return CommandResult{}, err
	}

	args := append(append([]string{r.scpBinary}, SharedOpts...), "-P", strconv.Itoa(port), "-i", r.KeyPath)
	if recursive {
		args = append(args, "-r")
	}
	args = append(args, localPath, fmt.Sprintf("%s@%s:%s", r.User, hostname, remotePath))
	r.logger.Debugw("copying", "host", host, "cmd", strings.Join(args, " "))

	result, err := r.runProcess(ctx, args)
	result.Host = host
	return result, err
}

// RunOnHosts runs action on every target. Results are in target order.
func (r *MultiRunner) RunOnHosts(ctx context.Context, action Action) ([]CommandResult, error) {
	return fanOut(ctx, r, action)
}

// RunCommandChain runs chain on every target. A host's chain stops at the
// first step with a non-zero return code.
func (r *MultiRunner) RunCommandChain(ctx context.Context, chain Chain) ([][]CommandResult, error) {
	return fanOut(ctx, r, func(ctx context.Context, host string) ([]CommandResult, error) {
		results := make([]CommandResult, 0, len(chain))
		for _, step := range chain {
			result, err := step.run(ctx, r, host)
			results = append(results, result)
			if err != nil {
				return results, err
			}
			if result.ReturnCode != 0 {
				r.logger.Warnw("command chain stopped", "host", host, "cmd", result.Cmd, "returncode", result.ReturnCode)
				break
			}
		}
		return results, nil
	})
}

func fanOut[T any](ctx context.Context, r *MultiRunner, fn func(ctx context.Context, host string) (T, error)) ([]T, error) {
	sched := scheduler.NewScheduler[T](ctx, r.Parallelism)
	defer sched.Close()

	futures := make([]*scheduler.Future[T], 0, len(r.targets))
	for _, host := range r.targets {
		futures = append(futures, sched.AddWork(func(ctx context.Context) (T, error) {
			return fn(ctx, host)
		}))
	}

	results := make([]T, 0, len(futures))
	var errs []error
	for i, f := range futures {
		res := f.Wait(ctx)
		results = append(results, res.Data)
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.targets[i], res.Err))
		}
	}
	return results, errors.Join(errs...)
}

// runProcess runs args with a pseudo-terminal as stdin. A process running
// past ProcessTimeout is terminated and its result returned without error.
func (r *MultiRunner) runProcess(ctx context.Context, args []string) (CommandResult, error) {
	result := CommandResult{Cmd: args}

	ptmx, tty, err := pty.Open()
	if err != nil {
		return result, fmt.Errorf("opening pty: %w", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	procCtx, cancel := context.WithTimeout(ctx, r.ProcessTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(procCtx, args[0], args[1:]...)
	cmd.Stdin = tty
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = []string{"TERM=linux"}
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = killDelay

	if err := cmd.Start(); err != nil {
		return result, fmt.Errorf("starting %s: %w", args[0], err)
	}
	result.PID = cmd.Process.Pid

	waitErr := cmd.Wait()
	result.ReturnCode = cmd.ProcessState.ExitCode()
	result.Stdout = strings.Split(stdout.String(), "\n")
	result.Stderr = filterStderr(stderr.String())

	switch {
	case ctx.Err() != nil:
		return result, ctx.Err()
	case procCtx.Err() != nil:
		r.logger.Errorf("timeout of %s reached. PID %d killed", r.ProcessTimeout, result.PID)
		return result, nil
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return result, waitErr
	}
	return result, nil
}

// filterStderr drops the known hosts warning ssh prints for every new host.
func filterStderr(s string) []string {
	lines := strings.Split(s, "\r")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if !strings.HasPrefix(line, knownHostsWarning) {
			kept = append(kept, line)
		}
	}
	return strings.Split(strings.Join(kept, "\n"), "\n")
}
