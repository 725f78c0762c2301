package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dcos/dcos-test-utils/internal/config"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// flagNames maps configuration fields to the flags setting them.
var flagNames = map[string]string{
	"LogLevel":          "log-level",
	"LogFormat":         "log-format",
	"Output":            "output",
	"WaitTimeout":       "wait-timeout",
	"RetryInterval":     "retry-interval",
	"RetryAttempts":     "retry-attempts",
	"Parallelism":       "ssh-parallelism",
	"ProcessTimeout":    "ssh-process-timeout",
	"CredentialsFolder": "credentials-folder",
}

func validateConfiguration(cfg *config.Configuration) error {
	err := validate.Struct(cfg)
	if err == nil {
		return validateCluster(cfg.Cluster)
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name, ok := flagNames[fe.Field()]
		if !ok {
			name = strings.ToLower(fe.Field())
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s cannot be empty", name))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("invalid %s %q, must be one of: %s", name, fe.Value(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("invalid %s: %v", name, fe.Value()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func validateCluster(c config.Cluster) error {
	if c.Password != "" && c.Username == "" {
		return errors.New("password requires a username")
	}
	if c.ServiceAccount != "" && (c.Username != "" || c.Token != "") {
		return errors.New("service-account cannot be combined with username or token")
	}
	if c.Enterprise && c.Username == "" && c.Token == "" && c.ServiceAccount == "" {
		return errors.New("enterprise clusters require a username and password, a token or a service-account")
	}
	return nil
}
