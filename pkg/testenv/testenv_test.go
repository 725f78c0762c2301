package testenv_test

import (
	"context"
	"flag"
	"net/http"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dcos/dcos-test-utils/pkg/cluster"
	"github.com/dcos/dcos-test-utils/pkg/diagnostics"
	"github.com/dcos/dcos-test-utils/pkg/testenv"
	"github.com/dcos/dcos-test-utils/test/fakecluster"
)

var _ = Describe("Flags", func() {
	var (
		fs   *flag.FlagSet
		opts *testenv.Options
		home string
	)

	BeforeEach(func() {
		home = GinkgoT().TempDir()
		setenv("HOME", home)
		fs = flag.NewFlagSet("suite", flag.ContinueOnError)
		opts = testenv.RegisterFlags(fs)
	})

	It("should disable diagnostics by default", func() {
		Expect(fs.Parse(nil)).To(Succeed())

		_, ok := opts.Diagnostics()
		Expect(ok).To(BeFalse())
		Expect(opts.XFailFlakeReport).To(BeFalse())
	})

	It("should use the home directory without a value", func() {
		Expect(fs.Parse([]string{"-diagnostics", "-xfailflake-report"})).To(Succeed())

		dir, ok := opts.Diagnostics()
		Expect(ok).To(BeTrue())
		Expect(dir).To(Equal(home))
		Expect(opts.XFailFlakeReport).To(BeTrue())
	})

	It("should use the given directory", func() {
		Expect(fs.Parse([]string{"-diagnostics=/tmp/bundles"})).To(Succeed())

		dir, ok := opts.Diagnostics()
		Expect(ok).To(BeTrue())
		Expect(dir).To(Equal("/tmp/bundles"))
	})

	It("should do nothing on teardown when nothing is enabled", func() {
		Expect(fs.Parse(nil)).To(Succeed())

		Expect(opts.Teardown(context.Background(), nil)).To(Succeed())
	})
})

var _ = Describe("DiagnosticsDir", func() {
	It("should keep an existing directory", func() {
		dir := GinkgoT().TempDir()

		Expect(testenv.DiagnosticsDir(dir)).To(Equal(dir))
	})

	It("should fall back to the home directory", func() {
		home := GinkgoT().TempDir()
		setenv("HOME", home)
		file := filepath.Join(home, "file")
		Expect(os.WriteFile(file, nil, 0o644)).To(Succeed())

		Expect(testenv.DiagnosticsDir(file)).To(Equal(home))
		Expect(testenv.DiagnosticsDir(filepath.Join(home, "missing"))).To(Equal(home))
	})
})

var _ = Describe("LoadEnv", func() {
	It("should load variables from the file", func() {
		unsetenv("TESTENV_LOADED")
		path := filepath.Join(GinkgoT().TempDir(), ".env")
		Expect(os.WriteFile(path, []byte("TESTENV_LOADED=yes\n"), 0o644)).To(Succeed())
		DeferCleanup(os.Unsetenv, "TESTENV_LOADED")

		Expect(testenv.LoadEnv(path)).To(Succeed())

		Expect(os.Getenv("TESTENV_LOADED")).To(Equal("yes"))
	})

	It("should ignore a missing file", func() {
		Expect(testenv.LoadEnv(filepath.Join(GinkgoT().TempDir(), ".env"))).To(Succeed())
	})
})

var _ = Describe("SessionFactory", func() {
	It("should build open sessions by default", func() {
		unsetenv("DCOS_ENTERPRISE")

		s, err := testenv.SessionFactory()(cluster.Args{DNSAddress: "http://mydcos"})

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Enterprise).To(BeFalse())
	})

	It("should require a user for enterprise sessions", func() {
		setenv("DCOS_ENTERPRISE", "true")

		_, err := testenv.SessionFactory()(cluster.Args{DNSAddress: "mydcos"})

		Expect(err).To(MatchError(ContainSubstring("require")))
	})

	It("should default enterprise sessions to https", func() {
		setenv("DCOS_ENTERPRISE", "true")
		user := cluster.NewUser(map[string]any{"uid": "u", "password": "p"})

		s, err := testenv.SessionFactory()(cluster.Args{DNSAddress: "mydcos", User: user})

		Expect(err).NotTo(HaveOccurred())
		Expect(s.Enterprise).To(BeTrue())
		Expect(s.DefaultURL().Scheme).To(Equal("https"))
	})
})

var _ = Describe("CollectDiagnostics", func() {
	var server *fakecluster.Server

	BeforeEach(func() {
		server = fakecluster.New()
	})

	AfterEach(func() {
		server.Close()
	})

	// Given a cluster creating one bundle
	// When we collect diagnostics
	// Then the bundle should be created, waited for and downloaded
	It("should download the bundles of the run", func() {
		// Arrange
		done := fakecluster.JSON(http.StatusOK, []map[string]any{{"id": "bundle-1", "status": "Done"}})
		server.Queue(
			fakecluster.JSON(http.StatusOK, map[string]any{"id": "bundle-1", "status": "Started"}),
			done,
			done,
			done,
			fakecluster.Response{Status: http.StatusOK, Body: []byte("zip")},
		)
		s, err := cluster.New(cluster.Args{
			DNSAddress: server.URL().String(),
			Masters:    []string{"127.0.0.1"},
		}, cluster.WithDiagnosticsOptions(diagnostics.WithPollInterval(10*time.Millisecond)))
		Expect(err).NotTo(HaveOccurred())
		dir := GinkgoT().TempDir()

		// Act
		err = testenv.CollectDiagnostics(context.Background(), s, dir)

		// Assert
		Expect(err).NotTo(HaveOccurred())
		Expect(os.ReadFile(filepath.Join(dir, "bundle-1"))).To(Equal([]byte("zip")))
		requests := server.Requests()
		Expect(requests).To(HaveLen(5))
		Expect(requests[0].Method).To(Equal(http.MethodPut))
		Expect(requests[0].Path).To(HavePrefix("/system/health/v1/diagnostics/"))
		Expect(requests[4].Path).To(Equal("/system/health/v1/diagnostics/bundle-1/file"))
	})
})
