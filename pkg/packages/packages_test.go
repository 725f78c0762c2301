package packages_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	srvErrors "github.com/dcos/dcos-test-utils/pkg/errors"
	"github.com/dcos/dcos-test-utils/pkg/packages"
	"github.com/dcos/dcos-test-utils/pkg/session"
	"github.com/dcos/dcos-test-utils/test/fakecluster"
)

func ok(n int) []fakecluster.Response {
	responses := make([]fakecluster.Response, 0, n)
	for range n {
		responses = append(responses, fakecluster.JSON(http.StatusOK, map[string]any{}))
	}
	return responses
}

func body(req fakecluster.Request) map[string]any {
	var b map[string]any
	Expect(req.JSON(&b)).To(Succeed())
	return b
}

var _ = Describe("Packages", func() {
	var (
		ctx    context.Context
		server *fakecluster.Server
		client *packages.Client
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = fakecluster.New()
		client = packages.New(session.New(server.URL().WithPath(packages.BasePath)))
	})

	AfterEach(func() {
		server.Close()
	})

	Context("Install", func() {
		// Given install calls with more and more fields set
		// When we install the package
		// Then only the fields that are set should be sent
		It("should only send the fields that are set", func() {
			// Arrange
			server.Queue(ok(4)...)

			// Act
			_, err1 := client.Install(ctx, "hello-world", packages.InstallOptions{})
			_, err2 := client.Install(ctx, "hello-world", packages.InstallOptions{Version: "23"})
			_, err3 := client.Install(ctx, "hello-world", packages.InstallOptions{Version: "23", Options: map[string]any{"a": "b"}})
			_, err4 := client.Install(ctx, "hello-world", packages.InstallOptions{Version: "23", Options: map[string]any{"a": "b"}, AppID: "/app"})

			// Assert
			for _, err := range []error{err1, err2, err3, err4} {
				Expect(err).NotTo(HaveOccurred())
			}
			requests := server.Requests()
			Expect(requests[0].Path).To(Equal("/package/install"))
			Expect(body(requests[0])).To(Equal(map[string]any{"packageName": "hello-world"}))
			Expect(body(requests[1])).To(Equal(map[string]any{"packageName": "hello-world", "packageVersion": "23"}))
			Expect(body(requests[2])).To(Equal(map[string]any{
				"packageName": "hello-world", "packageVersion": "23", "options": map[string]any{"a": "b"},
			}))
			Expect(body(requests[3])).To(HaveKeyWithValue("appId", "/app"))
		})

		It("should use the install media types", func() {
			server.Queue(ok(1)...)

			_, err := client.Install(ctx, "hello-world", packages.InstallOptions{})

			Expect(err).NotTo(HaveOccurred())
			req := server.LastRequest()
			Expect(req.Method).To(Equal(http.MethodPost))
			Expect(req.Header.Get("Content-Type")).To(Equal("application/vnd.dcos.package.install-request+json;charset=utf-8;version=v1"))
			Expect(req.Header.Get("Accept")).To(Equal("application/vnd.dcos.package.install-response+json;charset=utf-8;version=v2"))
		})

		It("should fail on error status", func() {
			server.Queue(fakecluster.JSON(http.StatusBadRequest, map[string]any{"type": "JsonSchemaMismatch"}))

			_, err := client.Install(ctx, "hello-world", packages.InstallOptions{})

			Expect(srvErrors.StatusCode(err)).To(Equal(http.StatusBadRequest))
		})
	})

	Context("Uninstall", func() {
		It("should send the app id when set", func() {
			server.Queue(ok(2)...)

			_, err := client.Uninstall(ctx, "hello-world", "")
			Expect(err).NotTo(HaveOccurred())
			_, err = client.Uninstall(ctx, "hello-world", "myapp1")
			Expect(err).NotTo(HaveOccurred())

			requests := server.Requests()
			Expect(requests[0].Path).To(Equal("/package/uninstall"))
			Expect(body(requests[0])).To(Equal(map[string]any{"packageName": "hello-world"}))
			Expect(body(requests[1])).To(Equal(map[string]any{"packageName": "hello-world", "appId": "myapp1"}))
			Expect(requests[1].Header.Get("Accept")).To(HaveSuffix("version=v1"))
		})
	})

	Context("List", func() {
		It("should filter by name or app id", func() {
			server.Queue(ok(3)...)

			_, _ = client.List(ctx, "", "")
			_, _ = client.List(ctx, "a", "")
			_, _ = client.List(ctx, "", "b")

			requests := server.Requests()
			Expect(requests).To(HaveLen(3))
			Expect(requests[0].Path).To(Equal("/package/list"))
			Expect(body(requests[0])).To(BeEmpty())
			Expect(body(requests[1])).To(Equal(map[string]any{"packageName": "a"}))
			Expect(body(requests[2])).To(Equal(map[string]any{"appId": "b"}))
		})
	})

	DescribeTable("other endpoints",
		func(call func(c *packages.Client) error, path string, expected map[string]any) {
			server.Queue(ok(1)...)

			Expect(call(client)).To(Succeed())

			req := server.LastRequest()
			Expect(req.Path).To(Equal(path))
			Expect(body(req)).To(Equal(expected))
		},
		Entry("list versions", func(c *packages.Client) error {
			_, err := c.ListVersions(context.Background(), "hello-world", false)
			return err
		}, "/package/list-versions", map[string]any{"packageName": "hello-world", "includePackageVersions": false}),
		Entry("list versions with package versions", func(c *packages.Client) error {
			_, err := c.ListVersions(context.Background(), "hello-world", true)
			return err
		}, "/package/list-versions", map[string]any{"packageName": "hello-world", "includePackageVersions": true}),
		Entry("describe", func(c *packages.Client) error {
			_, err := c.Describe(context.Background(), "hello-world", "")
			return err
		}, "/package/describe", map[string]any{"packageName": "hello-world"}),
		Entry("describe a version", func(c *packages.Client) error {
			_, err := c.Describe(context.Background(), "hello-world", "v3")
			return err
		}, "/package/describe", map[string]any{"packageName": "hello-world", "packageVersion": "v3"}),
		Entry("search", func(c *packages.Client) error {
			_, err := c.Search(context.Background(), "hello-world")
			return err
		}, "/package/search", map[string]any{"query": "hello-world"}),
		Entry("search everything", func(c *packages.Client) error {
			_, err := c.Search(context.Background(), "")
			return err
		}, "/package/search", map[string]any{}),
	)

	Context("Repository", func() {
		It("should list repositories", func() {
			server.Queue(ok(1)...)

			r, err := client.Repository().List(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(r).To(BeEmpty())
			req := server.LastRequest()
			Expect(req.Path).To(Equal("/package/repository/list"))
			Expect(req.Header.Get("Content-Type")).To(Equal("application/vnd.dcos.package.repository.list-request+json;charset=utf-8;version=v1"))
		})

		It("should add a repository with an optional index", func() {
			server.Queue(ok(2)...)
			index := 0

			_, err := client.Repository().Add(ctx, "universe", "https://universe.example.com", nil)
			Expect(err).NotTo(HaveOccurred())
			_, err = client.Repository().Add(ctx, "universe", "https://universe.example.com", &index)
			Expect(err).NotTo(HaveOccurred())

			requests := server.Requests()
			Expect(requests[0].Path).To(Equal("/package/repository/add"))
			Expect(body(requests[0])).To(Equal(map[string]any{"name": "universe", "uri": "https://universe.example.com"}))
			Expect(body(requests[1])).To(HaveKeyWithValue("index", BeEquivalentTo(0)))
		})

		It("should delete a repository", func() {
			server.Queue(ok(1)...)

			_, err := client.Repository().Delete(ctx, "universe", "")

			Expect(err).NotTo(HaveOccurred())
			Expect(server.LastRequest().Path).To(Equal("/package/repository/delete"))
			Expect(body(server.LastRequest())).To(Equal(map[string]any{"name": "universe"}))
		})
	})
})
