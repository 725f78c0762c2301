package session

import (
	"encoding/json"
	"fmt"
	"net/http"

	srvErrors "github.com/dcos/dcos-test-utils/pkg/errors"
)

// Response is a fully read HTTP response.
type Response struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// CheckStatus returns an HTTPError unless the status is 2xx.
func (r *Response) CheckStatus() error {
	if r.StatusCode < 200 || r.StatusCode >= 300 {
		return srvErrors.NewHTTPError(r.Method, r.URL, r.StatusCode, string(r.Body))
	}
	return nil
}

func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response of %s %s: %w", r.Method, r.URL, err)
	}
	return nil
}

func (r *Response) Text() string {
	return string(r.Body)
}

// Decode checks the status of a response and decodes its JSON body into T.
func Decode[T any](resp *Response, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if err := resp.CheckStatus(); err != nil {
		return out, err
	}
	if err := resp.JSON(&out); err != nil {
		return out, err
	}
	return out, nil
}

// Object is Decode for a JSON object.
func Object(resp *Response, err error) (map[string]any, error) {
	return Decode[map[string]any](resp, err)
}
