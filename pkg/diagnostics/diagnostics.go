package diagnostics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"

	srvErrors "github.com/dcos/dcos-test-utils/pkg/errors"
	"github.com/dcos/dcos-test-utils/pkg/session"
)

// BasePath is the path of the cluster health and diagnostics API.
const BasePath = "/system/health/v1"

const (
	StatusStarted    = "Started"
	StatusInProgress = "InProgress"
	StatusDone       = "Done"
	StatusDeleted    = "Deleted"

	defaultPollInterval = 2 * time.Second
	defaultJobTimeout   = 10 * time.Minute
	defaultReportWait   = 5 * time.Minute
)

// Bundle is a diagnostics bundle as listed by the API.
type Bundle struct {
	ID        string   `json:"id"`
	Status    string   `json:"status"`
	StartedAt string   `json:"started_at,omitempty"`
	StoppedAt string   `json:"stopped_at,omitempty"`
	Size      int64    `json:"size,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

func (b Bundle) running() bool {
	return b.Status == StatusStarted || b.Status == StatusInProgress
}

// Datapoint is the number of unfinished bundles and when it last changed.
type Datapoint struct {
	Time  time.Time
	Value int
}

type Option func(*Client)

func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = interval
	}
}

func WithJobTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.jobTimeout = timeout
	}
}

func WithReportTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.reportTimeout = timeout
	}
}

// WithIDGenerator replaces the time based bundle id generator.
func WithIDGenerator(fn func() (uuid.UUID, error)) Option {
	return func(c *Client) {
		c.newID = fn
	}
}

// Client talks to the cluster health and diagnostics API.
type Client struct {
	session       *session.Session
	masters       []string
	pollInterval  time.Duration
	jobTimeout    time.Duration
	reportTimeout time.Duration
	newID         func() (uuid.UUID, error)
	logger        *zap.SugaredLogger
}

// New returns a diagnostics client. s must be rooted at the health base url.
// Bundles are downloaded from masters.
func New(s *session.Session, masters []string, opts ...Option) *Client {
	c := &Client{
		session:       s,
		masters:       masters,
		pollInterval:  defaultPollInterval,
		jobTimeout:    defaultJobTimeout,
		reportTimeout: defaultReportWait,
		newID:         uuid.NewUUID,
		logger:        zap.S().Named("diagnostics"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *session.Session {
	return c.session
}

// Units returns the health of the systemd units of the cluster.
func (c *Client) Units(ctx context.Context) (map[string]any, error) {
	return session.Object(c.session.Get(ctx, "/units"))
}

// Nodes returns the health of every node of the cluster.
func (c *Client) Nodes(ctx context.Context) (map[string]any, error) {
	return session.Object(c.session.Get(ctx, "/nodes"))
}

// StartDiagnosticsJob creates a bundle with a time based id.
func (c *Client) StartDiagnosticsJob(ctx context.Context) (Bundle, error) {
	id, err := c.newID()
	if err != nil {
		return Bundle{}, fmt.Errorf("generating bundle id: %w", err)
	}

	bundle, err := session.Decode[Bundle](c.session.Put(ctx, "/diagnostics/"+id.String()))
	if err != nil {
		return Bundle{}, err
	}
	c.logger.Infow("diagnostics job started", "bundle", bundle.ID, "status", bundle.Status)
	return bundle, nil
}

func (c *Client) Bundles(ctx context.Context) ([]Bundle, error) {
	return session.Decode[[]Bundle](c.session.Get(ctx, "/diagnostics"))
}

// WaitForDiagnosticsJob waits until no bundle is started or in progress.
// lastDatapoint may be nil.
func (c *Client) WaitForDiagnosticsJob(ctx context.Context, lastDatapoint *Datapoint) (bool, error) {
	if lastDatapoint == nil {
		lastDatapoint = &Datapoint{}
	}

	err := wait.PollUntilContextTimeout(ctx, c.pollInterval, c.jobTimeout, true, func(ctx context.Context) (bool, error) {
		bundles, err := c.Bundles(ctx)
		if err != nil {
			return false, err
		}

		running := 0
		for _, b := range bundles {
			if b.running() {
				running++
			}
		}
		if lastDatapoint.Time.IsZero() || running != lastDatapoint.Value {
			lastDatapoint.Time = time.Now()
			lastDatapoint.Value = running
		}

		if running > 0 {
			c.logger.Infow("waiting for diagnostics jobs", "running", running, "since", lastDatapoint.Time)
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		return false, c.timeout(ctx, err, "Diagnostics job", c.jobTimeout)
	}
	return true, nil
}

// GetDiagnosticsReports returns the ids of bundles that are not deleted, in
// listing order without duplicates.
func (c *Client) GetDiagnosticsReports(ctx context.Context) ([]string, error) {
	bundles, err := c.Bundles(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(bundles))
	ids := []string{}
	for _, b := range bundles {
		if b.Status == StatusDeleted {
			continue
		}
		if _, ok := seen[b.ID]; ok {
			continue
		}
		seen[b.ID] = struct{}{}
		ids = append(ids, b.ID)
	}
	return ids, nil
}

// WaitForDiagnosticsReports waits until at least one report is available.
func (c *Client) WaitForDiagnosticsReports(ctx context.Context) ([]string, error) {
	var reports []string
	err := wait.PollUntilContextTimeout(ctx, c.pollInterval, c.reportTimeout, true, func(ctx context.Context) (bool, error) {
		ids, err := c.GetDiagnosticsReports(ctx)
		if err != nil {
			return false, err
		}
		reports = ids
		return len(ids) > 0, nil
	})
	if err != nil {
		return nil, c.timeout(ctx, err, "Diagnostics reports", c.reportTimeout)
	}
	return reports, nil
}

// DownloadDiagnosticsReports writes every bundle to dir/{id}, trying each
// master in order.
func (c *Client) DownloadDiagnosticsReports(ctx context.Context, bundleIDs []string, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating diagnostics directory: %w", err)
	}

	for _, id := range bundleIDs {
		if err := c.download(ctx, id, dir); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) download(ctx context.Context, id, dir string) error {
	for _, master := range c.masters {
		resp, err := c.session.Get(ctx, "/diagnostics/"+id+"/file", session.WithNode(master))
		if err == nil {
			err = resp.CheckStatus()
		}
		if err != nil {
			c.logger.Warnw("could not download bundle from master", "bundle", id, "master", master, "error", err)
			continue
		}

		dst := filepath.Join(dir, id)
		if err := os.WriteFile(dst, resp.Body, 0o644); err != nil {
			return fmt.Errorf("writing bundle %s: %w", id, err)
		}
		c.logger.Infow("bundle downloaded", "bundle", id, "master", master, "path", dst)
		return nil
	}
	return fmt.Errorf("bundle %s could not be downloaded from any master", id)
}

func (c *Client) timeout(ctx context.Context, err error, operation string, timeout time.Duration) error {
	if ctx.Err() == nil && wait.Interrupted(err) {
		return srvErrors.NewTimeoutError(operation, timeout)
	}
	return err
}
