package integration_test

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/uuid"

	"github.com/dcos/dcos-test-utils/pkg/jobs"
)

var _ = Describe("Cluster", func() {
	It("should report every node", func(ctx SpecContext) {
		nodes, err := dcos.Health.Nodes(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(nodes).To(HaveKey("nodes"))
		Expect(nodes["nodes"]).To(HaveLen(len(dcos.AllNodes())))
	})

	It("should report the health of its units", func(ctx SpecContext) {
		units, err := dcos.Health.Units(ctx)

		Expect(err).NotTo(HaveOccurred())
		Expect(units).To(HaveKey("units"))
	})

	// Given a job printing to stdout
	// When the job runs
	// Then the run should be found in the successful runs of the job
	It("should run a job to completion", func(ctx SpecContext) {
		// Arrange
		id := fmt.Sprintf("integration-%s", uuid.NewString()[:8])
		_, err := dcos.Jobs.Create(ctx, map[string]any{
			"id": id,
			"run": map[string]any{
				"cmd":  "echo hello",
				"cpus": 0.1,
				"mem":  32,
				"disk": 0,
			},
		})
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func(ctx SpecContext) {
			Expect(dcos.Jobs.Destroy(ctx, id)).To(Succeed())
		})

		// Act
		result, err := dcos.Jobs.Run(ctx, id, jobs.DefaultTimeout)

		// Assert
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Success).To(BeTrue())
		Expect(result.Run).To(HaveKeyWithValue("id", Not(BeEmpty())))
	}, NodeTimeout(jobs.DefaultTimeout+time.Minute))

	It("should list installed packages", func(ctx SpecContext) {
		installed, err := dcos.Package.List(ctx, "", "")

		Expect(err).NotTo(HaveOccurred())
		Expect(installed).To(HaveKey("packages"))
	})
})
