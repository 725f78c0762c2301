// Package fakecluster is an HTTP server standing in for a cluster in client tests.
//
// Responses are queued up front and replayed in order, whatever the request.
// Every request is recorded so tests can assert on method, path, query,
// headers and body.
package fakecluster

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dcos/dcos-test-utils/pkg/session"
)

// Response is a canned reply. Body is written as is when it is a string or
// []byte, otherwise it is encoded as JSON.
type Response struct {
	Status int
	Body   any
	Header map[string]string
}

func JSON(status int, body any) Response {
	return Response{Status: status, Body: body}
}

func Status(status int) Response {
	return Response{Status: status}
}

// Request is a recorded request.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// JSON decodes the recorded body.
func (r Request) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Server replays queued responses in order. An empty queue answers 500.
type Server struct {
	lock     sync.Mutex
	queue    []Response
	requests []Request
	srv      *httptest.Server
}

func New(responses ...Response) *Server {
	gin.SetMode(gin.TestMode)
	logger := zap.S().Desugar().Named("fakecluster")

	s := &Server{queue: responses}

	engine := gin.New()
	engine.Use(
		ginzap.Ginzap(logger, time.RFC3339, true),
		ginzap.RecoveryWithZap(logger, true),
	)
	engine.NoRoute(s.handle)

	s.srv = httptest.NewServer(engine)
	return s
}

// Queue appends responses to the replay queue.
func (s *Server) Queue(responses ...Response) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.queue = append(s.queue, responses...)
}

// Requests returns the recorded requests in arrival order.
func (s *Server) Requests() []Request {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request, or an empty one.
func (s *Server) LastRequest() Request {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

// Pending returns how many queued responses were not served yet.
func (s *Server) Pending() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.queue)
}

// URL returns the root URL of the server.
func (s *Server) URL() session.URL {
	return session.MustParseURL(s.srv.URL)
}

func (s *Server) Close() {
	s.srv.Close()
}

func (s *Server) handle(c *gin.Context) {
	body, _ := io.ReadAll(c.Request.Body)

	s.lock.Lock()
	s.requests = append(s.requests, Request{
		Method:   c.Request.Method,
		Path:     c.Request.URL.EscapedPath(),
		RawQuery: c.Request.URL.RawQuery,
		Header:   c.Request.Header.Clone(),
		Body:     body,
	})
	var resp Response
	if len(s.queue) == 0 {
		resp = JSON(http.StatusInternalServerError, gin.H{"error": "no response queued"})
	} else {
		resp = s.queue[0]
		s.queue = s.queue[1:]
	}
	s.lock.Unlock()

	for k, v := range resp.Header {
		c.Header(k, v)
	}

	switch b := resp.Body.(type) {
	case nil:
		c.Status(resp.Status)
	case string:
		c.Data(resp.Status, contentType(resp, "text/plain"), []byte(b))
	case []byte:
		c.Data(resp.Status, contentType(resp, "application/octet-stream"), b)
	default:
		c.JSON(resp.Status, b)
	}
}

func contentType(resp Response, fallback string) string {
	if ct, ok := resp.Header["Content-Type"]; ok {
		return ct
	}
	return fallback
}
