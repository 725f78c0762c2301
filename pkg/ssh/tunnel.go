// Package ssh runs commands on cluster hosts through the ssh and scp
// binaries.
package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	srvErrors "github.com/dcos/dcos-test-utils/pkg/errors"
)

const (
	DefaultSSHBinary = "/usr/bin/ssh"
	DefaultSCPBinary = "/usr/bin/scp"
	DefaultPort      = 22
)

// SharedOpts are passed to every ssh and scp invocation.
var SharedOpts = []string{
	"-oConnectTimeout=10",
	"-oStrictHostKeyChecking=no",
	"-oUserKnownHostsFile=/dev/null",
	"-oLogLevel=ERROR",
	"-oBatchMode=yes",
	"-oPasswordAuthentication=no",
}

// Tunnel is an ssh control master connection. Commands sent through
// BaseCmd reuse it.
type Tunnel struct {
	BaseCmd []string
	Target  string

	logger *zap.SugaredLogger
}

// OpenTunnel starts a control master for user@host listening on controlPath.
func OpenTunnel(ctx context.Context, user, host string, port int, controlPath, keyPath string) (*Tunnel, error) {
	return openTunnel(ctx, DefaultSSHBinary, user, host, port, controlPath, keyPath)
}

func openTunnel(ctx context.Context, binary, user, host string, port int, controlPath, keyPath string) (*Tunnel, error) {
	t := &Tunnel{
		BaseCmd: append(append([]string{binary}, SharedOpts...),
			"-oControlPath="+controlPath,
			"-oControlMaster=auto",
			"-p", strconv.Itoa(port),
		),
		Target: user + "@" + host,
		logger: zap.S().Named("ssh"),
	}

	start := append(append([]string{}, t.BaseCmd...), "-fnN", "-i", keyPath, t.Target)
	t.logger.Debugw("starting ssh tunnel", "cmd", strings.Join(start, " "))
	if _, err := run(ctx, start, nil); err != nil {
		return nil, fmt.Errorf("starting tunnel to %s: %w", t.Target, err)
	}
	t.logger.Debugw("ssh tunnel established", "target", t.Target)
	return t, nil
}

// Command runs cmd on the target and returns its stdout.
func (t *Tunnel) Command(ctx context.Context, cmd ...string) ([]byte, error) {
	args := append(append(append([]string{}, t.BaseCmd...), t.Target), cmd...)
	t.logger.Debugw("running socket cmd", "cmd", strings.Join(args, " "))
	return run(ctx, args, nil)
}

// CopyFile copies the local file src to dst on the target.
func (t *Tunnel) CopyFile(ctx context.Context, src, dst string) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	args := append(append([]string{}, t.BaseCmd...), "-C", t.Target, "cat>"+dst)
	t.logger.Debugw("copying file", "src", src, "target", t.Target, "dst", dst)
	_, err = run(ctx, args, f)
	return err
}

// Close stops the control master.
func (t *Tunnel) Close(ctx context.Context) error {
	args := append(append([]string{}, t.BaseCmd...), "-O", "exit", t.Target)
	t.logger.Debugw("closing ssh tunnel", "cmd", strings.Join(args, " "))
	_, err := run(ctx, args, nil)
	return err
}

// run executes args and fails with a CommandError on a non-zero exit code.
func run(ctx context.Context, args []string, stdin *os.File) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if stdin != nil {
		cmd.Stdin = stdin
	}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return stdout.Bytes(), srvErrors.NewCommandError(args, exitErr.ExitCode(), stdout.String(), stderr.String())
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// ParseHost splits "host" or "host:port". IPv6 addresses are not supported.
func ParseHost(s string) (string, int, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		return s, DefaultPort, nil
	case 2:
		port, err := strconv.Atoi(parts[1])
		if err != nil {
			return "", 0, srvErrors.NewInvalidHostError(s)
		}
		return parts[0], port, nil
	default:
		return "", 0, srvErrors.NewInvalidHostError(s)
	}
}
