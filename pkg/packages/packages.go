package packages

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dcos/dcos-test-utils/pkg/session"
)

// BasePath is the path of the package manager on the cluster.
const BasePath = "/package"

// versions of the package manager response media types that differ from v1.
var responseVersions = map[string]int{
	"install": 2,
}

func mediaType(endpoint, action string, version int) string {
	return fmt.Sprintf("application/vnd.dcos.package.%s-%s+json;charset=utf-8;version=v%d", endpoint, action, version)
}

// Client talks to the package manager API.
type Client struct {
	session *session.Session
	logger  *zap.SugaredLogger
}

// New returns a package manager client. s must be rooted at the package manager base url.
func New(s *session.Session) *Client {
	return &Client{
		session: s,
		logger:  zap.S().Named("packages"),
	}
}

// Repository returns the repository client sharing this client's session.
func (c *Client) Repository() *Repository {
	return &Repository{client: c}
}

// post sends body to path with the media types named after endpoint.
func (c *Client) post(ctx context.Context, endpoint, path string, body map[string]any) (map[string]any, error) {
	version, ok := responseVersions[endpoint]
	if !ok {
		version = 1
	}

	resp, err := c.session.Post(ctx, path,
		session.WithJSON(body),
		session.WithRequestHeader("Content-Type", mediaType(endpoint, "request", 1)),
		session.WithRequestHeader("Accept", mediaType(endpoint, "response", version)),
	)
	if err != nil {
		return nil, err
	}
	c.logger.Infow("response from package manager", "endpoint", endpoint, "status", resp.StatusCode, "body", resp.Text())

	return session.Object(resp, nil)
}

type InstallOptions struct {
	Version string
	Options map[string]any
	AppID   string
}

func (c *Client) Install(ctx context.Context, name string, opts InstallOptions) (map[string]any, error) {
	body := map[string]any{"packageName": name}
	if opts.Version != "" {
		body["packageVersion"] = opts.Version
	}
	if opts.Options != nil {
		body["options"] = opts.Options
	}
	if opts.AppID != "" {
		body["appId"] = opts.AppID
	}
	return c.post(ctx, "install", "/install", body)
}

func (c *Client) Uninstall(ctx context.Context, name, appID string) (map[string]any, error) {
	body := map[string]any{"packageName": name}
	if appID != "" {
		body["appId"] = appID
	}
	return c.post(ctx, "uninstall", "/uninstall", body)
}

// List lists installed packages, optionally filtered by name and app id.
func (c *Client) List(ctx context.Context, name, appID string) (map[string]any, error) {
	body := map[string]any{}
	if name != "" {
		body["packageName"] = name
	}
	if appID != "" {
		body["appId"] = appID
	}
	return c.post(ctx, "list", "/list", body)
}

func (c *Client) ListVersions(ctx context.Context, name string, includePackageVersions bool) (map[string]any, error) {
	return c.post(ctx, "list-versions", "/list-versions", map[string]any{
		"packageName":            name,
		"includePackageVersions": includePackageVersions,
	})
}

func (c *Client) Describe(ctx context.Context, name, version string) (map[string]any, error) {
	body := map[string]any{"packageName": name}
	if version != "" {
		body["packageVersion"] = version
	}
	return c.post(ctx, "describe", "/describe", body)
}

func (c *Client) Search(ctx context.Context, query string) (map[string]any, error) {
	body := map[string]any{}
	if query != "" {
		body["query"] = query
	}
	return c.post(ctx, "search", "/search", body)
}

// Repository manages package repositories.
type Repository struct {
	client *Client
}

func (r *Repository) List(ctx context.Context) (map[string]any, error) {
	return r.client.post(ctx, "repository.list", "/repository/list", map[string]any{})
}

// Add adds a repository. A nil index appends it at the end.
func (r *Repository) Add(ctx context.Context, name, uri string, index *int) (map[string]any, error) {
	body := map[string]any{"name": name, "uri": uri}
	if index != nil {
		body["index"] = *index
	}
	return r.client.post(ctx, "repository.add", "/repository/add", body)
}

func (r *Repository) Delete(ctx context.Context, name, uri string) (map[string]any, error) {
	body := map[string]any{}
	if name != "" {
		body["name"] = name
	}
	if uri != "" {
		body["uri"] = uri
	}
	return r.client.post(ctx, "repository.delete", "/repository/delete", body)
}
