package iam

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"go.uber.org/zap"

	srvErrors "github.com/dcos/dcos-test-utils/pkg/errors"
	"github.com/dcos/dcos-test-utils/pkg/session"
)

// BasePath is the path of the identity and access management API.
const BasePath = "/acs/api/v1"

// Client manages service accounts and ACLs. Every operation asserts the
// exact status code the API documents.
type Client struct {
	session *session.Session
	logger  *zap.SugaredLogger
}

// New returns an IAM client. s must be rooted at the IAM base url.
func New(s *session.Session) *Client {
	return &Client{
		session: s,
		logger:  zap.S().Named("iam"),
	}
}

// EscapeRID escapes a resource id for use as a single path segment.
// Slashes are double escaped because the API decodes the path once.
func EscapeRID(rid string) string {
	return strings.ReplaceAll(strings.ReplaceAll(rid, "%", "%25"), "/", "%252F")
}

func expect(operation string, resp *session.Response, err error, codes ...int) error {
	if err != nil {
		return err
	}
	if !slices.Contains(codes, resp.StatusCode) {
		return srvErrors.NewUnexpectedStatusError(operation, resp.StatusCode, resp.Text(), codes...)
	}
	return nil
}

// CreateServiceAccount creates a service account authenticated by publicKey.
func (c *Client) CreateServiceAccount(ctx context.Context, uid, publicKey, description string) error {
	resp, err := c.session.Put(ctx, "/users/"+uid, session.WithJSON(map[string]string{
		"description": description,
		"public_key":  publicKey,
	}))
	if err := expect("Service not created", resp, err, http.StatusCreated); err != nil {
		return err
	}
	c.logger.Infow("service account created", "uid", uid)
	return nil
}

// DeleteServiceAccount deletes a service account and verifies that it is no
// longer listed.
func (c *Client) DeleteServiceAccount(ctx context.Context, uid string) error {
	resp, err := c.session.Delete(ctx, "/users/"+uid)
	if err := expect("Service not deleted", resp, err, http.StatusNoContent); err != nil {
		return err
	}

	uids, err := c.ListServiceAccounts(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(uids, uid) {
		return fmt.Errorf("service account %s is still listed after deletion", uid)
	}
	c.logger.Infow("service account deleted", "uid", uid)
	return nil
}

// ListServiceAccounts returns the uids of every service account.
func (c *Client) ListServiceAccounts(ctx context.Context) ([]string, error) {
	users, err := session.Decode[struct {
		Array []struct {
			UID string `json:"uid"`
		} `json:"array"`
	}](c.session.Get(ctx, "/users", session.WithQuery(url.Values{"type": []string{"service"}})))
	if err != nil {
		return nil, err
	}

	uids := make([]string, 0, len(users.Array))
	for _, u := range users.Array {
		uids = append(uids, u.UID)
	}
	return uids, nil
}

// CreateACL creates the ACL unless it already exists.
func (c *Client) CreateACL(ctx context.Context, rid, description string) error {
	resp, err := c.session.Put(ctx, "/acls/"+EscapeRID(rid), session.WithJSON(map[string]string{"description": description}))
	return expect("ACL was not created", resp, err, http.StatusCreated, http.StatusConflict)
}

func (c *Client) DeleteACL(ctx context.Context, rid string) error {
	resp, err := c.session.Delete(ctx, "/acls/"+EscapeRID(rid))
	return expect("ACL was not deleted", resp, err, http.StatusNoContent)
}

// CreateUserPermission creates the ACL a permission is granted on. uid and
// action are not part of the request.
func (c *Client) CreateUserPermission(ctx context.Context, uid, action, rid, description string) error {
	resp, err := c.session.Put(ctx, "/acls/"+EscapeRID(rid), session.WithJSON(map[string]string{"description": description}))
	return expect("Permission was not created", resp, err, http.StatusCreated)
}

func (c *Client) GrantUserPermission(ctx context.Context, uid, action, rid string) error {
	resp, err := c.session.Put(ctx, permissionPath(uid, action, rid))
	if err := expect("Permission was not granted", resp, err, http.StatusNoContent); err != nil {
		return err
	}
	c.logger.Infow("permission granted", "uid", uid, "action", action, "rid", rid)
	return nil
}

func (c *Client) DeleteUserPermission(ctx context.Context, uid, action, rid string) error {
	resp, err := c.session.Delete(ctx, permissionPath(uid, action, rid))
	return expect("Permission was not deleted", resp, err, http.StatusNoContent)
}

func permissionPath(uid, action, rid string) string {
	return fmt.Sprintf("/acls/%s/users/%s/%s", EscapeRID(rid), uid, action)
}

// ServiceAccountCredentials are the login credentials of a service account.
type ServiceAccountCredentials struct {
	Scheme        string `json:"scheme"`
	UID           string `json:"uid"`
	LoginEndpoint string `json:"login_endpoint"`
	PrivateKey    string `json:"private_key"`
}

// Map returns the credentials in the form used by cluster users.
func (s ServiceAccountCredentials) Map() map[string]any {
	return map[string]any{
		"scheme":         s.Scheme,
		"uid":            s.UID,
		"login_endpoint": s.LoginEndpoint,
		"private_key":    s.PrivateKey,
	}
}

// ServiceAccountCredentials returns RS256 credentials logging in at this client's auth endpoint.
func (c *Client) ServiceAccountCredentials(uid, privateKey string) ServiceAccountCredentials {
	return ServiceAccountCredentials{
		Scheme:        "RS256",
		UID:           uid,
		LoginEndpoint: c.session.DefaultURL().String() + "/auth/login",
		PrivateKey:    privateKey,
	}
}
