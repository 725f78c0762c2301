package session_test

import (
	"context"
	"net/http"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	srvErrors "github.com/dcos/dcos-test-utils/pkg/errors"
	"github.com/dcos/dcos-test-utils/pkg/session"
	"github.com/dcos/dcos-test-utils/test/fakecluster"
)

var _ = Describe("Session", func() {
	var (
		ctx    context.Context
		server *fakecluster.Server
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = fakecluster.New()
	})

	AfterEach(func() {
		server.Close()
	})

	Context("Do", func() {
		// Given a session rooted at a base path
		// When we send a request to a relative path
		// Then the request should hit base path + path
		It("should join the default path and the request path", func() {
			// Arrange
			server.Queue(fakecluster.JSON(http.StatusOK, map[string]any{"ok": true}))
			s := session.New(server.URL().WithPath("/service/metronome"))

			// Act
			resp, err := s.Get(ctx, "/v1/jobs")

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(server.LastRequest().Path).To(Equal("/service/metronome/v1/jobs"))
			Expect(server.LastRequest().Method).To(Equal(http.MethodGet))
		})

		It("should send the auth token and persistent headers", func() {
			server.Queue(fakecluster.Status(http.StatusOK))
			s := session.New(server.URL(), session.WithAuthToken("abc"), session.WithHeader("Accept", "application/json"))

			_, err := s.Get(ctx, "/")

			Expect(err).NotTo(HaveOccurred())
			req := server.LastRequest()
			Expect(req.Header.Get("Authorization")).To(Equal("token=abc"))
			Expect(req.Header.Get("Accept")).To(Equal("application/json"))
		})

		It("should let request headers override session headers", func() {
			server.Queue(fakecluster.Status(http.StatusOK))
			s := session.New(server.URL(), session.WithHeader("Accept", "application/json"))

			_, err := s.Post(ctx, "/x", session.WithRequestHeader("Accept", "text/plain"))

			Expect(err).NotTo(HaveOccurred())
			Expect(server.LastRequest().Header.Get("Accept")).To(Equal("text/plain"))
		})

		It("should encode a JSON body and the query", func() {
			server.Queue(fakecluster.Status(http.StatusCreated))
			s := session.New(server.URL())

			_, err := s.Put(ctx, "/acls/x",
				session.WithJSON(map[string]string{"description": "d"}),
				session.WithQuery(url.Values{"type": []string{"service"}}))

			Expect(err).NotTo(HaveOccurred())
			req := server.LastRequest()
			Expect(req.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(req.RawQuery).To(Equal("type=service"))
			var body map[string]string
			Expect(req.JSON(&body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("description", "d"))
		})

		It("should not fail on non-2xx until checked", func() {
			server.Queue(fakecluster.JSON(http.StatusNotFound, map[string]any{"message": "missing"}))
			s := session.New(server.URL())

			resp, err := s.Get(ctx, "/v1/jobs/a")

			Expect(err).NotTo(HaveOccurred())
			checkErr := resp.CheckStatus()
			Expect(srvErrors.IsNotFound(checkErr)).To(BeTrue())
			Expect(checkErr.Error()).To(ContainSubstring("missing"))
		})
	})

	Context("Decode", func() {
		It("should decode a 2xx JSON object", func() {
			server.Queue(fakecluster.JSON(http.StatusOK, map[string]any{"id": "run-1"}))
			s := session.New(server.URL())

			obj, err := session.Object(s.Post(ctx, "/runs"))

			Expect(err).NotTo(HaveOccurred())
			Expect(obj).To(HaveKeyWithValue("id", "run-1"))
		})

		It("should return the status error before decoding", func() {
			server.Queue(fakecluster.Response{Status: http.StatusBadRequest, Body: "bad"})
			s := session.New(server.URL())

			_, err := session.Object(s.Post(ctx, "/runs"))

			Expect(srvErrors.StatusCode(err)).To(Equal(http.StatusBadRequest))
		})
	})

	Context("Retry on common errors", func() {
		policy := session.RetryPolicy{Interval: 10 * time.Millisecond, Attempts: 3}

		// Given a server answering 503 once
		// When a retrying session sends a request
		// Then the request should be sent again and succeed
		It("should retry 503 and succeed", func() {
			// Arrange
			server.Queue(
				fakecluster.Status(http.StatusServiceUnavailable),
				fakecluster.JSON(http.StatusOK, map[string]any{}),
			)
			s := session.New(server.URL(), session.WithRetryOnCommonErrors(policy))

			// Act
			resp, err := s.Post(ctx, "/v1/jobs", session.WithJSON(map[string]string{"id": "a"}))

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			requests := server.Requests()
			Expect(requests).To(HaveLen(2))
			Expect(requests[1].Body).To(Equal(requests[0].Body))
		})

		It("should return the last response once attempts are exhausted", func() {
			server.Queue(
				fakecluster.Status(http.StatusBadGateway),
				fakecluster.Status(http.StatusGatewayTimeout),
				fakecluster.Status(http.StatusServiceUnavailable),
			)
			s := session.New(server.URL(), session.WithRetryOnCommonErrors(policy))

			resp, err := s.Get(ctx, "/")

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
			Expect(server.Requests()).To(HaveLen(3))
		})

		// Given a cluster answering 503
		// When the context ends while the session waits to retry
		// Then the context error should be returned instead of the last response
		It("should stop retrying when the context ends", func() {
			// Arrange
			server.Queue(
				fakecluster.Status(http.StatusServiceUnavailable),
				fakecluster.Status(http.StatusServiceUnavailable),
			)
			s := session.New(server.URL(), session.WithRetryOnCommonErrors(session.RetryPolicy{
				Interval: 500 * time.Millisecond,
				Attempts: 3,
			}))
			shortCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
			defer cancel()

			// Act
			resp, err := s.Get(shortCtx, "/")

			// Assert
			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(resp).To(BeNil())
			Expect(server.Requests()).To(HaveLen(1))
		})

		It("should not retry other errors", func() {
			server.Queue(fakecluster.Status(http.StatusInternalServerError))
			s := session.New(server.URL(), session.WithRetryOnCommonErrors(policy))

			resp, err := s.Get(ctx, "/")

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(server.Requests()).To(HaveLen(1))
		})
	})

	Context("WithHTTPClient", func() {
		// Given a client shared with other code
		// When a session is built on it with more options
		// Then the shared client should stay untouched
		It("should not modify the given client", func() {
			// Arrange
			shared := &http.Client{Timeout: 5 * time.Second}

			// Act
			s := session.New(server.URL(),
				session.WithHTTPClient(shared),
				session.WithTimeout(time.Second),
				session.WithInsecureSkipVerify(),
			)

			// Assert
			Expect(s).NotTo(BeNil())
			Expect(shared.Jar).To(BeNil())
			Expect(shared.Transport).To(BeNil())
			Expect(shared.Timeout).To(Equal(5 * time.Second))
		})

		It("should send requests through the copied client", func() {
			server.Queue(fakecluster.Status(http.StatusOK))
			transport := &countingTransport{next: http.DefaultTransport}
			s := session.New(server.URL(), session.WithHTTPClient(&http.Client{Transport: transport}))

			_, err := s.Get(ctx, "/")

			Expect(err).NotTo(HaveOccurred())
			Expect(transport.calls).To(Equal(1))
		})
	})

	Context("Copy", func() {
		It("should copy headers and token independently", func() {
			s := session.New(server.URL(), session.WithAuthToken("abc"), session.WithHeader("X-A", "1"))

			c := s.Copy()
			c.Header().Set("X-A", "2")
			c.ClearAuth()

			Expect(s.Header().Get("X-A")).To(Equal("1"))
			Expect(s.AuthToken()).To(Equal("abc"))
			Expect(c.AuthToken()).To(BeEmpty())
		})

		It("should point a copy at another base url", func() {
			server.Queue(fakecluster.Status(http.StatusOK))
			s := session.New(server.URL())

			c := s.WithDefaultURL(server.URL().WithPath("/package"))
			_, err := c.Post(ctx, "/list")

			Expect(err).NotTo(HaveOccurred())
			Expect(server.LastRequest().Path).To(Equal("/package/list"))
			Expect(s.DefaultURL().Path).To(BeEmpty())
		})
	})
})

type countingTransport struct {
	next  http.RoundTripper
	calls int
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls++
	return t.next.RoundTrip(req)
}
