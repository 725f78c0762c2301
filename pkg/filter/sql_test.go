package filter

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var testFields = Fields{
	"host":        "host",
	"return_code": "return_code",
	"stderr":      "stderr",
	"size":        "size",
}

var _ = Describe("Compile", func() {
	DescribeTable("conditions",
		func(input, sql string, args ...any) {
			cond, err := Compile(input, testFields)
			Expect(err).NotTo(HaveOccurred())

			query, queryArgs, err := cond.ToSql()
			Expect(err).NotTo(HaveOccurred())
			Expect(query).To(Equal(sql))
			Expect(queryArgs).To(Equal(args))
		},
		Entry("equality", "host = 'a'", "host = ?", "a"),
		Entry("inequality", "return_code != 0", "return_code <> ?", int64(0)),
		Entry("greater", "size > 10MB", "size > ?", int64(10<<20)),
		Entry("less or equal", "size <= 1.5", "size <= ?", 1.5),
		Entry("regex", "stderr ~ /timeout/", "regexp_matches(stderr, ?)", "timeout"),
		Entry("negated regex", "stderr !~ /timeout/", "NOT regexp_matches(stderr, ?)", "timeout"),
		Entry("case insensitive fields", "HOST = 'a'", "host = ?", "a"),
		Entry("and", "host = 'a' and return_code = 1", "(host = ? AND return_code = ?)", "a", int64(1)),
		Entry("or inside and",
			"host = 'a' and (return_code != 0 or stderr ~ /x/)",
			"(host = ? AND (return_code <> ? OR regexp_matches(stderr, ?)))",
			"a", int64(0), "x"),
	)

	It("should keep values out of the query", func() {
		cond, err := Compile(`host = "'; DROP TABLE command_results; --"`, testFields)
		Expect(err).NotTo(HaveOccurred())

		query, args, err := cond.ToSql()
		Expect(err).NotTo(HaveOccurred())
		Expect(query).To(Equal("host = ?"))
		Expect(args).To(ConsistOf("'; DROP TABLE command_results; --"))
	})

	It("should reject unknown fields", func() {
		_, err := Compile("vm_name = 'a'", testFields)
		Expect(err).To(MatchError(`unknown field "vm_name"`))
	})

	It("should return no condition for an empty filter", func() {
		cond, err := Compile("", testFields)
		Expect(err).NotTo(HaveOccurred())
		Expect(cond).To(BeNil())
	})

	It("should return parse errors", func() {
		_, err := Compile("host =", testFields)
		Expect(err).To(BeAssignableToTypeOf(ParseError{}))
	})
})
