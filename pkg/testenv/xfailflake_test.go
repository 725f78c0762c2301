package testenv_test

import (
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/dcos/dcos-test-utils/pkg/testenv"
)

var _ = Describe("XFailFlake", func() {
	meta := testenv.XFailFlakeMeta{Jira: "DCOS-1337", Reason: "A reason", Since: "2019-01-25"}

	BeforeEach(func() {
		testenv.ResetXFailFlakes()
	})

	It("should not fail the test on assertion failures", func() {
		failures := testenv.XFailFlake(meta, func() {
			Expect(false).To(BeTrue())
		})

		Expect(failures).To(HaveLen(1))
	})

	// Given a known flaky body failing twice
	// When it runs
	// Then the failures should be attached to the report of the running test
	It("should attach the failures to the test report", func() {
		// Act
		failures := testenv.XFailFlake(meta, func() {
			Expect(1).To(Equal(2))
			Expect("a").To(Equal("b"))
		})

		// Assert
		Expect(failures).To(HaveLen(2))
		entries := CurrentSpecReport().ReportEntries
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Name).To(Equal("xfailflake"))
		Expect(entries[0].StringRepresentation()).To(HavePrefix("DCOS-1337: A reason\n"))
		Expect(entries[0].StringRepresentation()).To(ContainSubstring(failures[1]))
	})

	It("should record the test", func() {
		failures := testenv.XFailFlake(meta, func() {})

		Expect(failures).To(BeEmpty())
		records := testenv.XFailFlakeRecords()
		Expect(records).To(HaveLen(1))
		Expect(records[0].Name).To(Equal("should record the test"))
		Expect(records[0].Module).To(Equal("xfailflake_test"))
		Expect(filepath.IsAbs(records[0].Path)).To(BeTrue())
		Expect(records[0].XFailFlake).To(Equal(meta))
	})

	It("should write the report", func() {
		testenv.XFailFlake(meta, func() {
			Expect(1).To(Equal(2))
		})
		path := filepath.Join(GinkgoT().TempDir(), testenv.XFailFlakeReportFile)

		Expect(testenv.WriteXFailFlakeReport(path)).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		var report []map[string]any
		Expect(json.Unmarshal(data, &report)).To(Succeed())
		Expect(report).To(HaveLen(1))
		Expect(report[0]).To(HaveKeyWithValue("module", "xfailflake_test"))
		Expect(report[0]).To(HaveKeyWithValue("name", "should write the report"))
		Expect(report[0]).To(HaveKeyWithValue("xfailflake", map[string]any{
			"jira":   "DCOS-1337",
			"reason": "A reason",
			"since":  "2019-01-25",
		}))
	})

	It("should write an empty report", func() {
		path := filepath.Join(GinkgoT().TempDir(), testenv.XFailFlakeReportFile)

		Expect(testenv.WriteXFailFlakeReport(path)).To(Succeed())

		Expect(os.ReadFile(path)).To(Equal([]byte("[]")))
	})
})
