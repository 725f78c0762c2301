package cluster

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/dcos/dcos-test-utils/pkg/diagnostics"
	srvErrors "github.com/dcos/dcos-test-utils/pkg/errors"
	"github.com/dcos/dcos-test-utils/pkg/iam"
	"github.com/dcos/dcos-test-utils/pkg/jobs"
	"github.com/dcos/dcos-test-utils/pkg/packages"
	"github.com/dcos/dcos-test-utils/pkg/session"
)

const (
	loginPath   = iam.BasePath + "/auth/login"
	versionPath = "/dcos-metadata/dcos-version.json"

	defaultWaitInterval = 5 * time.Second
)

type Option func(*options)

type options struct {
	sessionOpts    []session.Option
	retry          session.RetryPolicy
	pollInterval   time.Duration
	jobsOpts       []jobs.Option
	diagnosticOpts []diagnostics.Option
}

// WithSessionOptions configures the underlying HTTP session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(o *options) {
		o.sessionOpts = append(o.sessionOpts, opts...)
	}
}

// WithRetryPolicy sets the retry policy of the clients retrying common errors.
func WithRetryPolicy(policy session.RetryPolicy) Option {
	return func(o *options) {
		o.retry = policy
	}
}

// WithPollInterval sets the interval of WaitForDCOS.
func WithPollInterval(interval time.Duration) Option {
	return func(o *options) {
		o.pollInterval = interval
	}
}

func WithJobsOptions(opts ...jobs.Option) Option {
	return func(o *options) {
		o.jobsOpts = append(o.jobsOpts, opts...)
	}
}

func WithDiagnosticsOptions(opts ...diagnostics.Option) Option {
	return func(o *options) {
		o.diagnosticOpts = append(o.diagnosticOpts, opts...)
	}
}

// Session is an authenticated session against a cluster. It embeds the
// session rooted at the cluster url and exposes one client per API.
type Session struct {
	*session.Session
	Args

	Health  *diagnostics.Client
	Jobs    *jobs.Client
	Package *packages.Client
	IAM     *iam.Client

	opts   options
	logger *zap.SugaredLogger
}

func New(args Args, opts ...Option) (*Session, error) {
	o := options{
		retry:        session.DefaultRetryPolicy,
		pollInterval: defaultWaitInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}

	u, err := session.ParseURL(args.DNSAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid cluster address: %w", err)
	}

	sessionOpts := o.sessionOpts
	if args.InsecureSkipVerify {
		sessionOpts = append(sessionOpts, session.WithInsecureSkipVerify())
	}

	s := &Session{
		Session: session.New(u, sessionOpts...),
		Args:    args,
		opts:    o,
		logger:  zap.S().Named("cluster"),
	}
	s.buildClients()
	return s, nil
}

// buildClients derives every API client from the current session so they
// share its token.
func (s *Session) buildClients() {
	root := s.DefaultURL()

	s.Health = diagnostics.New(s.service(root, diagnostics.BasePath, false), s.Masters, s.opts.diagnosticOpts...)
	s.Jobs = jobs.New(s.service(root, jobs.BasePath, true), s.opts.jobsOpts...)
	s.Package = packages.New(s.service(root, packages.BasePath, true))
	s.IAM = iam.New(s.service(root, iam.BasePath, false))
}

func (s *Session) service(root session.URL, path string, retry bool) *session.Session {
	c := s.WithDefaultURL(root.WithPath(root.Path + path))
	if retry {
		c.SetRetryPolicy(&s.opts.retry)
	}
	return c
}

// Login logs the user in and hands the token to every client.
func (s *Session) Login(ctx context.Context) error {
	if s.User == nil {
		return errors.New("cannot login without a user")
	}

	body, err := iam.LoginCredentials(s.User.Credentials)
	if err != nil {
		return err
	}

	result, err := session.Decode[struct {
		Token string `json:"token"`
	}](s.Post(ctx, loginPath, session.WithJSON(body)))
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	s.SetAuthToken(result.Token)
	s.buildClients()
	s.logger.Infow("logged in", "cluster", s.DNSAddress)
	return nil
}

func (s *Session) copy() *Session {
	c := &Session{
		Session: s.Session.Copy(),
		Args:    s.Args,
		opts:    s.opts,
		logger:  s.logger,
	}
	c.buildClients()
	return c
}

// GetUserSession returns a copy of the session without auth and cookies,
// logged in as user when user is not nil.
func (s *Session) GetUserSession(ctx context.Context, user *User) (*Session, error) {
	c := s.copy()
	c.ClearAuth()
	c.User = user
	c.buildClients()

	if user == nil {
		return c, nil
	}
	if err := c.Login(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// AllAgents returns private then public agents.
func (s *Session) AllAgents() []string {
	return slices.Concat(s.Agents, s.PublicAgents)
}

// AllNodes returns masters then every agent.
func (s *Session) AllNodes() []string {
	return slices.Concat(s.Masters, s.AllAgents())
}

// WaitForDCOS waits for the cluster to serve its version, logs in when a
// user is set, then waits until the health API reports every known node.
func (s *Session) WaitForDCOS(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := wait.PollUntilContextCancel(ctx, s.opts.pollInterval, true, func(ctx context.Context) (bool, error) {
		resp, err := s.Get(ctx, versionPath)
		if err != nil {
			s.logger.Debugw("cluster is not answering yet", "error", err)
			return false, nil
		}
		return resp.StatusCode == http.StatusOK, nil
	})
	if err != nil {
		return s.waitError(ctx, err, "DC/OS version", timeout)
	}

	if s.User != nil {
		if err := s.Login(ctx); err != nil {
			return err
		}
	}

	err = wait.PollUntilContextCancel(ctx, s.opts.pollInterval, true, func(ctx context.Context) (bool, error) {
		reported, err := s.reportedNodes(ctx)
		if err != nil {
			s.logger.Debugw("health API is not ready", "error", err)
			return false, nil
		}

		for _, node := range s.AllNodes() {
			if !slices.Contains(reported, node) {
				s.logger.Infow("waiting for node to be reported", "node", node)
				return false, nil
			}
		}
		return true, nil
	})
	if err != nil {
		return s.waitError(ctx, err, "DC/OS nodes", timeout)
	}

	s.logger.Infow("cluster is up", "cluster", s.DNSAddress, "nodes", len(s.AllNodes()))
	return nil
}

func (s *Session) reportedNodes(ctx context.Context) ([]string, error) {
	result, err := session.Decode[struct {
		Nodes []struct {
			HostIP string `json:"host_ip"`
		} `json:"nodes"`
	}](s.Health.Session().Get(ctx, "/nodes"))
	if err != nil {
		return nil, err
	}

	ips := make([]string, 0, len(result.Nodes))
	for _, n := range result.Nodes {
		ips = append(ips, n.HostIP)
	}
	return ips, nil
}

func (s *Session) waitError(ctx context.Context, err error, operation string, timeout time.Duration) error {
	if wait.Interrupted(err) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return srvErrors.NewTimeoutError(operation, timeout)
	}
	return err
}
