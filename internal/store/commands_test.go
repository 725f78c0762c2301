package store_test

import (
	"context"
	"database/sql"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dcos/dcos-test-utils/internal/models"
	"github.com/dcos/dcos-test-utils/internal/store"
	"github.com/dcos/dcos-test-utils/internal/store/migrations"
	srvErrors "github.com/dcos/dcos-test-utils/pkg/errors"
	"github.com/dcos/dcos-test-utils/pkg/filter"
)

var _ = Describe("CommandStore", func() {
	var (
		ctx context.Context
		s   *store.Store
		db  *sql.DB
	)

	result := func(runID, host string, code int) models.CommandResult {
		return models.CommandResult{
			RunID:      runID,
			Host:       host,
			Cmd:        []string{"/usr/bin/ssh", "core@" + host, "uptime"},
			Stdout:     []string{"up 3 days", ""},
			Stderr:     []string{""},
			ReturnCode: code,
			PID:        4242,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		db, err = store.NewDB(":memory:")
		Expect(err).NotTo(HaveOccurred())

		err = migrations.Run(ctx, db)
		Expect(err).NotTo(HaveOccurred())

		s = store.NewStore(db)
	})

	AfterEach(func() {
		if db != nil {
			db.Close()
		}
	})

	Describe("Insert", func() {
		// Given results without ids
		// When we insert them
		// Then ids and creation times should be set and the rows readable back
		It("should store results and read them back", func() {
			// Arrange
			r := result("run-1", "10.0.0.1", 0)

			// Act
			stored, err := s.Commands().Insert(ctx, r)

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(HaveLen(1))
			Expect(stored[0].ID).NotTo(BeEmpty())
			Expect(stored[0].CreatedAt).NotTo(BeZero())

			got, err := s.Commands().Get(ctx, stored[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.RunID).To(Equal("run-1"))
			Expect(got.Host).To(Equal("10.0.0.1"))
			Expect(got.Cmd).To(Equal(r.Cmd))
			Expect(got.Stdout).To(Equal(r.Stdout))
			Expect(got.Stderr).To(Equal(r.Stderr))
			Expect(got.PID).To(Equal(4242))
		})

		It("should do nothing without results", func() {
			stored, err := s.Commands().Insert(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(stored).To(BeEmpty())
		})

		It("should reject a duplicate id", func() {
			r := result("run-1", "10.0.0.1", 0)
			r.ID = "fixed"
			_, err := s.Commands().Insert(ctx, r)
			Expect(err).NotTo(HaveOccurred())

			_, err = s.Commands().Insert(ctx, r)

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Get", func() {
		It("should return not found for an unknown id", func() {
			_, err := s.Commands().Get(ctx, "missing")

			Expect(srvErrors.IsResourceNotFoundError(err)).To(BeTrue())
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			_, err := s.Commands().Insert(ctx,
				result("run-1", "10.0.0.1", 0),
				result("run-1", "10.0.0.2", 1),
				result("run-2", "10.0.0.1", 0),
			)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should list everything without filter", func() {
			results, err := s.Commands().List(ctx, nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
		})

		It("should filter by run", func() {
			results, err := s.Commands().List(ctx, store.NewCommandQueryFilter().ByRunID("run-1"))

			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			for _, r := range results {
				Expect(r.RunID).To(Equal("run-1"))
			}
		})

		It("should filter by host and failure", func() {
			results, err := s.Commands().List(ctx, store.NewCommandQueryFilter().ByHosts("10.0.0.2").FailedOnly())

			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Failed()).To(BeTrue())
		})

		// Given recorded results
		// When we filter with an expression
		// Then only the matching rows should be returned
		It("should filter with an expression", func() {
			// Arrange
			cond, err := filter.Compile(`host = "10.0.0.1" and return_code = 0 and stdout ~ /days/`, store.CommandFilterFields)
			Expect(err).NotTo(HaveOccurred())

			// Act
			results, err := s.Commands().List(ctx, store.NewCommandQueryFilter().ByRunID("run-2").Where(cond))

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Host).To(Equal("10.0.0.1"))
			Expect(results[0].RunID).To(Equal("run-2"))
		})

		It("should ignore a nil expression", func() {
			results, err := s.Commands().List(ctx, store.NewCommandQueryFilter().Where(nil))

			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))
		})

		It("should limit the results", func() {
			results, err := s.Commands().List(ctx, store.NewCommandQueryFilter().Limit(1))

			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
		})
	})

	Describe("Runs", func() {
		It("should summarize each run, most recent first", func() {
			first := result("run-1", "10.0.0.1", 0)
			first.CreatedAt = time.Now().Add(-time.Hour).UTC()
			failed := result("run-1", "10.0.0.2", 2)
			failed.CreatedAt = first.CreatedAt
			_, err := s.Commands().Insert(ctx, first, failed, result("run-2", "10.0.0.1", 0))
			Expect(err).NotTo(HaveOccurred())

			runs, err := s.Commands().Runs(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(2))
			Expect(runs[0].RunID).To(Equal("run-2"))
			Expect(runs[1].RunID).To(Equal("run-1"))
			Expect(runs[1].Results).To(Equal(2))
			Expect(runs[1].Failed).To(Equal(1))
			Expect(runs[1].Hosts).To(Equal(2))
			Expect(runs[0].Hosts).To(Equal(1))
		})

		// Given a chain of two commands on one host
		// When runs are summarized
		// Then the host should be counted once
		It("should count each host once", func() {
			// Arrange
			_, err := s.Commands().Insert(ctx,
				result("run-1", "10.0.0.1", 0),
				result("run-1", "10.0.0.1", 0),
				result("run-1", "10.0.0.2", 0),
			)
			Expect(err).NotTo(HaveOccurred())

			// Act
			runs, err := s.Commands().Runs(ctx)

			// Assert
			Expect(err).NotTo(HaveOccurred())
			Expect(runs).To(HaveLen(1))
			Expect(runs[0].Hosts).To(Equal(2))
			Expect(runs[0].Results).To(Equal(3))
		})
	})

	Describe("DeleteRun", func() {
		It("should remove only that run", func() {
			_, err := s.Commands().Insert(ctx, result("run-1", "10.0.0.1", 0), result("run-2", "10.0.0.1", 0))
			Expect(err).NotTo(HaveOccurred())

			Expect(s.Commands().DeleteRun(ctx, "run-1")).To(Succeed())

			results, err := s.Commands().List(ctx, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].RunID).To(Equal("run-2"))
		})
	})
})
