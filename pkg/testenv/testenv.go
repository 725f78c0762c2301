// Package testenv wires the cluster clients into test suites: a session
// built from the environment, flags for post-run diagnostics and the known
// flaky test report.
package testenv

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dcos/dcos-test-utils/pkg/cluster"
)

const DefaultWaitTimeout = 30 * time.Minute

// Factory builds a cluster session.
type Factory func(args cluster.Args, opts ...cluster.Option) (*cluster.Session, error)

// LoadEnv loads .env style files into the environment without overriding
// variables already set. Missing files are ignored.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// SessionFactory returns the enterprise factory when DCOS_ENTERPRISE is true.
func SessionFactory() Factory {
	enterprise, _ := strconv.ParseBool(os.Getenv("DCOS_ENTERPRISE"))
	if enterprise {
		return EnterpriseSession
	}
	return cluster.New
}

// EnterpriseSession requires a user and defaults to https.
func EnterpriseSession(args cluster.Args, opts ...cluster.Option) (*cluster.Session, error) {
	if args.User == nil {
		return nil, errors.New("enterprise clusters require DCOS_LOGIN_UNAME and DCOS_LOGIN_PW or DCOS_ACS_TOKEN")
	}
	if !strings.Contains(args.DNSAddress, "://") {
		args.DNSAddress = "https://" + args.DNSAddress
	}
	args.Enterprise = true
	return cluster.New(args, opts...)
}

// NewSession builds a session from the environment and waits for the
// cluster to come up.
func NewSession(ctx context.Context, opts ...cluster.Option) (*cluster.Session, error) {
	args, err := cluster.ArgsFromEnv()
	if err != nil {
		return nil, err
	}

	s, err := SessionFactory()(args, opts...)
	if err != nil {
		return nil, err
	}

	if err := s.WaitForDCOS(ctx, DefaultWaitTimeout); err != nil {
		return nil, err
	}
	return s, nil
}

// diagnosticsFlag is a flag with an optional value: -diagnostics alone means
// the home directory.
type diagnosticsFlag struct {
	dir string
}

func (f *diagnosticsFlag) String() string {
	if f == nil {
		return ""
	}
	return f.dir
}

func (f *diagnosticsFlag) Set(value string) error {
	if value == "true" {
		value = homeDir()
	}
	if value == "false" {
		value = ""
	}
	f.dir = value
	return nil
}

func (f *diagnosticsFlag) IsBoolFlag() bool { return true }

// Options are the suite flags.
type Options struct {
	diagnostics      diagnosticsFlag
	XFailFlakeReport bool
}

// RegisterFlags adds the suite flags to fs, flag.CommandLine when nil.
func RegisterFlags(fs *flag.FlagSet) *Options {
	if fs == nil {
		fs = flag.CommandLine
	}
	o := &Options{}
	fs.Var(&o.diagnostics, "diagnostics",
		"Download a diagnostics bundle from the cluster at the end of the run into this directory. Without a value the home directory is used.")
	fs.BoolVar(&o.XFailFlakeReport, "xfailflake-report", false,
		"Write "+XFailFlakeReportFile+" listing the known flaky tests of the run.")
	return o
}

// Diagnostics returns the diagnostics directory and whether collection is enabled.
func (o *Options) Diagnostics() (string, bool) {
	return o.diagnostics.dir, o.diagnostics.dir != ""
}

// Teardown runs the end of suite steps enabled by the flags.
func (o *Options) Teardown(ctx context.Context, s *cluster.Session) error {
	var errs []error
	if dir, ok := o.Diagnostics(); ok && s != nil {
		errs = append(errs, CollectDiagnostics(ctx, s, DiagnosticsDir(dir)))
	} else {
		zap.S().Named("testenv").Info("not downloading diagnostics bundle for this session")
	}
	if o.XFailFlakeReport {
		errs = append(errs, WriteXFailFlakeReport(XFailFlakeReportFile))
	}
	return errors.Join(errs...)
}

// DiagnosticsDir returns value when it is a directory, the home directory
// otherwise.
func DiagnosticsDir(value string) string {
	if st, err := os.Stat(value); err == nil && st.IsDir() {
		return value
	}
	home := homeDir()
	zap.S().Named("testenv").Warnf("%s is not a directory. Writing diagnostics report to home directory %s instead.", value, home)
	return home
}

// CollectDiagnostics creates a bundle for every node, waits for it and
// downloads every available bundle into dir.
func CollectDiagnostics(ctx context.Context, s *cluster.Session, dir string) error {
	logger := zap.S().Named("testenv")

	logger.Info("create diagnostics report for all nodes")
	if _, err := s.Health.StartDiagnosticsJob(ctx); err != nil {
		return err
	}

	logger.Info("wait for diagnostics job to complete")
	if _, err := s.Health.WaitForDiagnosticsJob(ctx, nil); err != nil {
		return err
	}

	logger.Info("wait for diagnostics report to become available")
	if _, err := s.Health.WaitForDiagnosticsReports(ctx); err != nil {
		return err
	}

	logger.Info("download diagnostics reports")
	bundles, err := s.Health.GetDiagnosticsReports(ctx)
	if err != nil {
		return err
	}
	return s.Health.DownloadDiagnosticsReports(ctx, bundles, dir)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
