package cli

import (
	"context"
	"fmt"
	"strings"

	srvErrors "github.com/dcos/dcos-test-utils/pkg/errors"
)

const notFoundMsg = "Property '%s' doesn't exist"

// Configuration reads and writes the CLI configuration.
type Configuration struct {
	runner Runner
}

func NewConfiguration(r Runner) *Configuration {
	return &Configuration{runner: r}
}

// Get returns the value of key, or def when the CLI does not know the key.
func (c *Configuration) Get(ctx context.Context, key, def string) (string, error) {
	p, err := c.runner.Exec(ctx, []string{binaryName, "config", "show", key}, ExecOptions{Check: true})
	if err != nil {
		if p != nil && strings.Contains(p.Stderr, fmt.Sprintf(notFoundMsg, key)) {
			return def, nil
		}
		return "", err
	}
	return strings.Trim(p.Stdout, "\n "), nil
}

// MustGet is Get failing with a KeyNotFoundError for unknown keys.
func (c *Configuration) MustGet(ctx context.Context, key string) (string, error) {
	p, err := c.runner.Exec(ctx, []string{binaryName, "config", "show", key}, ExecOptions{Check: true})
	if err != nil {
		if p != nil && strings.Contains(p.Stderr, fmt.Sprintf(notFoundMsg, key)) {
			return "", srvErrors.NewKeyNotFoundError(key)
		}
		return "", err
	}
	return strings.Trim(p.Stdout, "\n "), nil
}

func (c *Configuration) Set(ctx context.Context, name, value string) error {
	_, err := c.runner.Exec(ctx, []string{binaryName, "config", "set", name, value}, ExecOptions{Check: true})
	return err
}
