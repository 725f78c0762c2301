package cli_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/dcos/dcos-test-utils/pkg/cli"
	"github.com/dcos/dcos-test-utils/pkg/cli/mock"
	srvErrors "github.com/dcos/dcos-test-utils/pkg/errors"
)

var _ = Describe("Configuration", func() {
	var (
		ctx    context.Context
		runner *mock.MockRunner
		config *cli.Configuration
	)

	BeforeEach(func() {
		ctx = context.Background()
		runner = mock.NewMockRunner(gomock.NewController(GinkgoT()))
		config = cli.NewConfiguration(runner)
	})

	showArgs := func(key string) []string {
		return []string{"dcos", "config", "show", key}
	}

	notFound := func(key string) (*cli.CompletedProcess, error) {
		p := &cli.CompletedProcess{
			Args:       showArgs(key),
			Stderr:     "Property '" + key + "' doesn't exist\n",
			ReturnCode: 1,
		}
		return p, srvErrors.NewCommandError(p.Args, 1, "", p.Stderr)
	}

	It("should return the trimmed value", func() {
		runner.EXPECT().
			Exec(ctx, showArgs("core.dcos_url"), cli.ExecOptions{Check: true}).
			Return(&cli.CompletedProcess{Stdout: "https://cluster\n"}, nil)

		value, err := config.Get(ctx, "core.dcos_url", "")

		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal("https://cluster"))
	})

	It("should return the default for an unknown key", func() {
		runner.EXPECT().Exec(ctx, showArgs("core.missing"), gomock.Any()).Return(notFound("core.missing"))

		value, err := config.Get(ctx, "core.missing", "fallback")

		Expect(err).NotTo(HaveOccurred())
		Expect(value).To(Equal("fallback"))
	})

	It("should pass other failures through", func() {
		p := &cli.CompletedProcess{Stderr: "boom", ReturnCode: 2}
		runner.EXPECT().Exec(ctx, showArgs("core.ssl_verify"), gomock.Any()).
			Return(p, srvErrors.NewCommandError(nil, 2, "", "boom"))

		_, err := config.Get(ctx, "core.ssl_verify", "x")

		Expect(srvErrors.IsCommandError(err)).To(BeTrue())
	})

	It("should fail MustGet for an unknown key", func() {
		runner.EXPECT().Exec(ctx, showArgs("core.missing"), gomock.Any()).Return(notFound("core.missing"))

		_, err := config.MustGet(ctx, "core.missing")

		Expect(srvErrors.IsKeyNotFoundError(err)).To(BeTrue())
		Expect(err.Error()).To(Equal("'core.missing' wasn't found"))
	})

	It("should set a value", func() {
		runner.EXPECT().
			Exec(ctx, []string{"dcos", "config", "set", "core.timeout", "5"}, cli.ExecOptions{Check: true}).
			Return(&cli.CompletedProcess{}, nil)

		Expect(config.Set(ctx, "core.timeout", "5")).To(Succeed())
	})
})
