// Package cli wraps the cluster command line binary.
//
// The CLI keeps state between calls in ~/.dcos, so most tests are better
// served by the API clients. This package is for tests exercising the
// binary itself.
package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	srvErrors "github.com/dcos/dcos-test-utils/pkg/errors"
)

const (
	DefaultDownloadURL = "https://downloads.dcos.io/cli/releases/binaries/dcos/linux/x86-64/latest/dcos"

	binaryName    = "dcos"
	stateDir      = ".dcos"
	osReleaseFile = "/etc/os-release"
)

// DownloadURL returns DCOS_CLI_URL or the latest release.
func DownloadURL() string {
	if u := os.Getenv("DCOS_CLI_URL"); u != "" {
		return u
	}
	return DefaultDownloadURL
}

// CLI runs commands with the binary at Path first on the PATH.
type CLI struct {
	Path string
	Env  []string

	logger *zap.SugaredLogger
}

var _ Runner = (*CLI)(nil)

// New wraps the binary at path. The binary must already be executable.
func New(path string) (*CLI, error) {
	abs, err := expandPath(path)
	if err != nil {
		return nil, err
	}

	env := map[string]string{}
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		env[k] = v
	}
	env["PATH"] = fmt.Sprintf("%s:%s", filepath.Dir(abs), os.Getenv("PATH"))
	env["PYTHONIOENCODING"] = "utf-8"
	env["PYTHONUNBUFFERED"] = "x"
	if isCoreOS() {
		env["LC_ALL"] = "C.UTF-8"
	}
	if _, ok := env["LANG"]; !ok {
		env["LANG"] = "C.UTF-8"
	}

	c := &CLI{
		Path:   abs,
		Env:    make([]string, 0, len(env)),
		logger: zap.S().Named("cli"),
	}
	for k, v := range env {
		c.Env = append(c.Env, k+"="+v)
	}
	return c, nil
}

// Download fetches the binary from url into dir/dcos and makes it
// executable. An empty dir means a new temporary directory.
func Download(ctx context.Context, url, dir string) (*CLI, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "dcos-cli-")
		if err != nil {
			return nil, fmt.Errorf("creating cli directory: %w", err)
		}
		dir = tmp
	}
	path := filepath.Join(dir, binaryName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading cli: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, srvErrors.NewHTTPError(http.MethodGet, url, resp.StatusCode, string(body))
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("creating cli binary: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing cli binary: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(path, st.Mode()|0o100); err != nil {
		return nil, fmt.Errorf("making cli executable: %w", err)
	}

	return New(path)
}

// ClearCLIDir removes the CLI state directory, resetting attached clusters
// and installed plugins.
func ClearCLIDir() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	return os.RemoveAll(filepath.Join(home, stateDir))
}

// Exec runs args and waits for it. Output is logged and decoded. With
// opts.Check a non-zero exit code is returned as a CommandError along with
// the completed process.
func (c *CLI) Exec(ctx context.Context, args []string, opts ExecOptions) (*CompletedProcess, error) {
	if len(args) == 0 {
		return nil, errors.New("no command given")
	}
	c.logger.Infof("CMD: %q", args)

	var stdout, stderr bytes.Buffer
	cmd := c.command(ctx, args)
	cmd.Stdin = opts.Stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	code := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("running %s: %w", args[0], err)
		}
		code = exitErr.ExitCode()
	}

	p := &CompletedProcess{
		Args:       args,
		Stdout:     safeDecode(stdout.Bytes()),
		Stderr:     safeDecode(stderr.Bytes()),
		ReturnCode: code,
	}

	if code != 0 && opts.Check {
		c.logger.Errorf("STDERR: %s", p.Stderr)
		c.logger.Errorf("STDOUT: %s", p.Stdout)
		return p, srvErrors.NewCommandError(args, code, p.Stdout, p.Stderr)
	}

	c.logger.Infof("STDOUT: %s", p.Stdout)
	c.logger.Infof("STDERR: %s", p.Stderr)
	return p, nil
}

// ExecCommand runs args and fails on a non-zero exit code.
//
// Deprecated: use Exec.
func (c *CLI) ExecCommand(ctx context.Context, args ...string) (string, string, error) {
	p, err := c.Exec(ctx, args, ExecOptions{Check: true})
	if p == nil {
		return "", "", err
	}
	return p.Stdout, p.Stderr, err
}

// Process is a started CLI command. The caller owns the pipes and must
// call Wait.
type Process struct {
	Cmd    *exec.Cmd
	Stdin  io.WriteCloser
	Stdout io.ReadCloser
	Stderr io.ReadCloser
}

func (p *Process) Wait() error {
	return p.Cmd.Wait()
}

// StartCommand starts args without waiting, for commands reading stdin or
// streaming output.
func (c *CLI) StartCommand(ctx context.Context, args ...string) (*Process, error) {
	if len(args) == 0 {
		return nil, errors.New("no command given")
	}
	c.logger.Infof("CMD: %q", args)

	cmd := c.command(ctx, args)
	p := &Process{Cmd: cmd}

	var err error
	if p.Stdin, err = cmd.StdinPipe(); err != nil {
		return nil, err
	}
	if p.Stdout, err = cmd.StdoutPipe(); err != nil {
		return nil, err
	}
	if p.Stderr, err = cmd.StderrPipe(); err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", args[0], err)
	}
	return p, nil
}

// Setup attaches the CLI to the cluster at url.
func (c *CLI) Setup(ctx context.Context, url, username, password string) error {
	username, password = loginDefaults(username, password)
	_, _, err := c.ExecCommand(ctx, binaryName, "cluster", "setup", url, "--no-check",
		"--username="+username, "--password="+password)
	return err
}

// SetupEnterprise attaches the CLI to an enterprise cluster and installs
// the enterprise plugin. It can only run once per CLI state directory.
func (c *CLI) SetupEnterprise(ctx context.Context, url, username, password string) error {
	if err := c.Setup(ctx, url, username, password); err != nil {
		return err
	}
	_, _, err := c.ExecCommand(ctx, binaryName, "--debug", "package", "install", "dcos-enterprise-cli", "--cli", "--yes")
	return err
}

// Login authenticates the CLI against the attached cluster.
func (c *CLI) Login(ctx context.Context, username, password, provider string) error {
	username, password = loginDefaults(username, password)
	args := []string{binaryName, "auth", "login", "--username=" + username, "--password=" + password}
	if provider != "" {
		args = append(args, "--provider="+provider)
	}
	_, _, err := c.ExecCommand(ctx, args...)
	return err
}

func (c *CLI) command(ctx context.Context, args []string) *exec.Cmd {
	name := args[0]
	// The child PATH does not drive the lookup of the command itself.
	if name == filepath.Base(c.Path) {
		name = c.Path
	}
	cmd := exec.CommandContext(ctx, name, args[1:]...)
	cmd.Env = c.Env
	return cmd
}

func loginDefaults(username, password string) (string, string) {
	if username == "" {
		username = os.Getenv("DCOS_LOGIN_UNAME")
	}
	if password == "" {
		password = os.Getenv("DCOS_LOGIN_PW")
	}
	return username, password
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}

func isCoreOS() bool {
	data, err := os.ReadFile(osReleaseFile)
	if err != nil {
		return false
	}
	return bytes.Contains(bytes.ToLower(data), []byte("coreos"))
}

// safeDecode returns b as a string when it is valid UTF-8, otherwise bytes
// outside ASCII are written as \xNN.
func safeDecode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb strings.Builder
	for _, c := range b {
		if c < utf8.RuneSelf {
			sb.WriteByte(c)
			continue
		}
		fmt.Fprintf(&sb, `\x%02x`, c)
	}
	return sb.String()
}
