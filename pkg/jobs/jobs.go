package jobs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/wait"

	srvErrors "github.com/dcos/dcos-test-utils/pkg/errors"
	"github.com/dcos/dcos-test-utils/pkg/session"
)

const (
	// BasePath is the path of the job scheduler on the cluster.
	BasePath   = "/service/metronome"
	apiVersion = "/v1"

	DefaultTimeout      = 600 * time.Second
	defaultPollInterval = time.Second
)

var requiredHeaders = map[string]string{
	"Accept": "application/json, text/plain, */*",
}

type Option func(*Client)

func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		c.pollInterval = interval
	}
}

// Client talks to the job scheduler API.
type Client struct {
	session      *session.Session
	pollInterval time.Duration
	logger       *zap.SugaredLogger
}

// New returns a jobs client. s must be rooted at the job scheduler base url.
func New(s *session.Session, opts ...Option) *Client {
	for k, v := range requiredHeaders {
		s.Header().Set(k, v)
	}

	c := &Client{
		session:      s,
		pollInterval: defaultPollInterval,
		logger:       zap.S().Named("jobs"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Session() *session.Session {
	return c.session
}

// RunResult is the outcome of a finished run.
type RunResult struct {
	Success bool
	Run     map[string]any
	Job     map[string]any
}

func jobPath(jobID string) string {
	return fmt.Sprintf("%s/jobs/%s", apiVersion, jobID)
}

func runPath(jobID, runID string) string {
	return fmt.Sprintf("%s/runs/%s", jobPath(jobID), runID)
}

// Create creates a new job with the given definition.
func (c *Client) Create(ctx context.Context, definition map[string]any) (map[string]any, error) {
	return session.Object(c.session.Post(ctx, apiVersion+"/jobs", session.WithJSON(definition)))
}

// Details returns the job. With history the run history is embedded.
func (c *Client) Details(ctx context.Context, jobID string, history bool) (map[string]any, error) {
	var opts []session.RequestOption
	if history {
		opts = append(opts, session.WithQuery(url.Values{"embed": []string{"history"}}))
	}
	return session.Object(c.session.Get(ctx, jobPath(jobID), opts...))
}

// Destroy deletes the job and stops its current runs.
func (c *Client) Destroy(ctx context.Context, jobID string) error {
	resp, err := c.session.Delete(ctx, jobPath(jobID), session.WithQuery(url.Values{"stopCurrentJobRuns": []string{"true"}}))
	if err != nil {
		return err
	}
	return resp.CheckStatus()
}

// Start creates a run of the job.
func (c *Client) Start(ctx context.Context, jobID string) (map[string]any, error) {
	run, err := session.Object(c.session.Post(ctx, jobPath(jobID)+"/runs"))
	if err != nil {
		return nil, err
	}

	runID, ok := run["id"].(string)
	if !ok {
		return nil, fmt.Errorf("run of job %s has no id", jobID)
	}
	c.logger.Infow("started job", "job", jobID, "run", runID)
	return run, nil
}

func (c *Client) RunDetails(ctx context.Context, jobID, runID string) (map[string]any, error) {
	return session.Object(c.session.Get(ctx, runPath(jobID, runID)))
}

func (c *Client) RunStop(ctx context.Context, jobID, runID string) (map[string]any, error) {
	return session.Object(c.session.Post(ctx, runPath(jobID, runID)+"/actions/stop"))
}

// WaitForRun waits until the run is no longer active. The scheduler answers
// 404 for a finished run and 200 while it is still running.
func (c *Client) WaitForRun(ctx context.Context, jobID, runID string, timeout time.Duration) error {
	err := wait.PollUntilContextTimeout(ctx, c.pollInterval, timeout, true, func(ctx context.Context) (bool, error) {
		resp, err := c.session.Get(ctx, runPath(jobID, runID))
		if err != nil {
			return false, err
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			c.logger.Infow("job run finished", "job", jobID, "run", runID)
			return true, nil
		case http.StatusOK:
			c.logger.Infow("waiting on job run to finish", "job", jobID, "run", runID)
			return false, nil
		}

		if err := resp.CheckStatus(); err != nil {
			return false, err
		}
		return false, fmt.Errorf("unexpected status code for job run %s: %d", runID, resp.StatusCode)
	})
	if err == nil {
		return nil
	}
	if ctx.Err() == nil && wait.Interrupted(err) {
		return srvErrors.NewTimeoutError("Job run failed", timeout)
	}
	return err
}

// Run starts the job, waits for the run and looks it up in the job history.
func (c *Client) Run(ctx context.Context, jobID string, timeout time.Duration) (RunResult, error) {
	run, err := c.Start(ctx, jobID)
	if err != nil {
		return RunResult{}, err
	}
	runID := run["id"].(string)

	if err := c.WaitForRun(ctx, jobID, runID, timeout); err != nil {
		return RunResult{}, err
	}

	job, err := c.Details(ctx, jobID, true)
	if err != nil {
		return RunResult{}, err
	}

	history, _ := job["history"].(map[string]any)
	for _, field := range []struct {
		success bool
		name    string
	}{
		{true, "successfulFinishedRuns"},
		{false, "failedFinishedRuns"},
	} {
		runs, _ := history[field.name].([]any)
		for _, r := range runs {
			finished, ok := r.(map[string]any)
			if ok && finished["id"] == runID {
				return RunResult{Success: field.success, Run: finished, Job: job}, nil
			}
		}
	}

	return RunResult{Success: false, Job: job}, nil
}
