package session

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

type request struct {
	url    URL
	header http.Header
	body   []byte
}

// RequestOption modifies a single request.
type RequestOption func(*request) error

// WithJSON sends v as the JSON request body.
func WithJSON(v any) RequestOption {
	return func(r *request) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		r.body = data
		if r.header.Get("Content-Type") == "" {
			r.header.Set("Content-Type", "application/json")
		}
		return nil
	}
}

// WithBody sends raw bytes with the given content type.
func WithBody(contentType string, body []byte) RequestOption {
	return func(r *request) error {
		r.body = body
		r.header.Set("Content-Type", contentType)
		return nil
	}
}

// WithQuery appends the encoded values to the query of the default URL.
func WithQuery(values url.Values) RequestOption {
	return func(r *request) error {
		encoded := values.Encode()
		switch {
		case encoded == "":
		case r.url.Query == "":
			r.url.Query = encoded
		default:
			r.url.Query = r.url.Query + "&" + encoded
		}
		return nil
	}
}

// WithRawQuery replaces the query string.
func WithRawQuery(query string) RequestOption {
	return func(r *request) error {
		r.url.Query = query
		return nil
	}
}

// WithNode sends the request to another host of the cluster, keeping scheme and port.
func WithNode(host string) RequestOption {
	return func(r *request) error {
		r.url.Host = host
		return nil
	}
}

func WithPort(port int) RequestOption {
	return func(r *request) error {
		r.url.Port = port
		return nil
	}
}

func WithRequestHeader(key, value string) RequestOption {
	return func(r *request) error {
		r.header.Set(key, value)
		return nil
	}
}
