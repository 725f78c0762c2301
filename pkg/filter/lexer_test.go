package filter

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func scanAll(src string) string {
	l := &lexer{src: src}
	var out []string
	for {
		lx := l.scan()
		out = append(out, lx.tok.String())
		if lx.tok == tokEOF || lx.tok == tokIllegal {
			break
		}
	}
	return strings.Join(out, " ")
}

var _ = Describe("Lexer", func() {
	DescribeTable("tokens",
		func(input, output string) {
			Expect(scanAll(input)).To(Equal(output))
		},
		Entry("comparison operators", "= != < <= > >=", "= != < <= > >= end of input"),
		Entry("regex operators", "~ !~", "~ !~ end of input"),
		Entry("keywords in any case", "and OR And", "and or and end of input"),
		Entry("brackets", "( )", "( ) end of input"),
		Entry("fields", "host return_code run_id2", "field field field end of input"),
		Entry("strings", `'a b' "c"`, "string string end of input"),
		Entry("numbers", "1 1.5 10MB 2gb", "number number number number end of input"),
		Entry("regex", `/^err.*/`, "regex end of input"),
		Entry("no whitespace", "code!=0", "field != number end of input"),
		Entry("whitespace only", " \t\n", "end of input"),
	)

	DescribeTable("values",
		func(input, value string) {
			l := &lexer{src: input}
			Expect(l.scan().val).To(Equal(value))
		},
		Entry("single quoted string", "'hello world'", "hello world"),
		Entry("double quoted string with quote", `"it's"`, "it's"),
		Entry("regex with escaped slash", `/a\/b/`, "a/b"),
		Entry("number with unit", "10MB ", "10MB"),
	)

	DescribeTable("illegal input",
		func(input, reason string) {
			l := &lexer{src: input}
			lx := l.scan()
			Expect(lx.tok).To(Equal(tokIllegal))
			Expect(lx.val).To(Equal(reason))
		},
		Entry("unclosed string", "'abc", "unclosed string"),
		Entry("unclosed regex", "/abc", "unclosed regex"),
		Entry("unknown unit", "10XB", "malformed unit"),
		Entry("bang alone", "!", "unexpected character !"),
		Entry("unexpected character", "#", "unexpected character #"),
	)

	It("should report positions", func() {
		l := &lexer{src: "host  = 'a'"}
		Expect(l.scan().pos).To(Equal(0))
		Expect(l.scan().pos).To(Equal(6))
		Expect(l.scan().pos).To(Equal(8))
	})
})
