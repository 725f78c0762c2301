package ssh

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"
)

const connectionRetryInterval = time.Second

type Option func(*Client)

// WithBinaries overrides the ssh and scp executables.
func WithBinaries(ssh, scp string) Option {
	return func(c *Client) {
		c.sshBinary = ssh
		c.scpBinary = scp
	}
}

// Client binds an ssh user to a private key.
type Client struct {
	User    string
	KeyPath string

	sshBinary string
	scpBinary string
	logger    *zap.SugaredLogger
}

// NewClient writes key to a temporary file readable by the owner only.
func NewClient(user string, key []byte, opts ...Option) (*Client, error) {
	f, err := os.CreateTemp("", "ssh-key-")
	if err != nil {
		return nil, fmt.Errorf("creating key file: %w", err)
	}
	defer f.Close()

	if err := f.Chmod(0o600); err != nil {
		return nil, err
	}
	if _, err := f.Write(key); err != nil {
		return nil, fmt.Errorf("writing key file: %w", err)
	}

	c := &Client{
		User:      user,
		KeyPath:   f.Name(),
		sshBinary: DefaultSSHBinary,
		scpBinary: DefaultSCPBinary,
		logger:    zap.S().Named("ssh"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close removes the key file.
func (c *Client) Close() error {
	return os.Remove(c.KeyPath)
}

// WithTunnel opens a tunnel to host, calls fn and closes the tunnel.
func (c *Client) WithTunnel(ctx context.Context, host string, port int, fn func(*Tunnel) error) (err error) {
	dir, err := os.MkdirTemp("", "ssh-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	t, err := openTunnel(ctx, c.sshBinary, c.User, host, port, filepath.Join(dir, "control"), c.KeyPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := t.Close(context.WithoutCancel(ctx)); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return fn(t)
}

// Command runs cmd on host and returns its stdout.
func (c *Client) Command(ctx context.Context, host string, port int, cmd ...string) ([]byte, error) {
	var out []byte
	err := c.WithTunnel(ctx, host, port, func(t *Tunnel) error {
		var err error
		out, err = t.Command(ctx, cmd...)
		return err
	})
	return out, err
}

// HomeDir returns the working directory of the ssh user on host.
func (c *Client) HomeDir(ctx context.Context, host string, port int) (string, error) {
	out, err := c.Command(ctx, host, port, "pwd")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// WaitForConnection retries every second until host accepts a connection
// or ctx is done.
func (c *Client) WaitForConnection(ctx context.Context, host string, port int) error {
	return wait.PollUntilContextCancel(ctx, connectionRetryInterval, true, func(ctx context.Context) (bool, error) {
		if _, err := c.HomeDir(ctx, host, port); err != nil {
			c.logger.Debugw("ssh connection not ready", "host", host, "error", err)
			return false, nil
		}
		return true, nil
	})
}

func (c *Client) AddUserToDockerGroup(ctx context.Context, host string, port int) error {
	_, err := c.Command(ctx, host, port, "sudo", "usermod", "-aG", "docker", c.User)
	return err
}
