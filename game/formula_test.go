package game_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/autosplit/game"
	"github.com/sarchlab/autosplit/memory"
	"github.com/sarchlab/autosplit/watcher"
)

func flagBank(names ...string) *watcher.Bank {
	specs := make([]watcher.Spec, 0, len(names))
	for _, n := range names {
		specs = append(specs, watcher.Spec{Name: n, Kind: memory.KindU8})
	}

	b, err := watcher.NewBank(specs)
	Expect(err).NotTo(HaveOccurred())

	return b
}

var _ = Describe("Formula", func() {
	It("should bind && tighter than ||", func() {
		f := game.MustParseFormula("checkpoint == 0 && load == 1 || load == 3")
		b := flagBank("checkpoint", "load")

		b.UpdateUint("checkpoint", 1)
		b.UpdateUint("load", 3)

		v, known := f.Eval(b)
		Expect(known).To(BeTrue())
		Expect(v).To(BeTrue())

		b.UpdateUint("load", 1)
		v, _ = f.Eval(b)
		Expect(v).To(BeFalse())

		b.UpdateUint("checkpoint", 0)
		v, _ = f.Eval(b)
		Expect(v).To(BeTrue())
	})

	It("should honor parentheses", func() {
		f := game.MustParseFormula("checkpoint == 0 && (load == 1 || load == 3)")
		b := flagBank("checkpoint", "load")

		b.UpdateUint("checkpoint", 1)
		b.UpdateUint("load", 3)

		v, _ := f.Eval(b)
		Expect(v).To(BeFalse())
	})

	It("should accept words, negation and hex literals", func() {
		f := game.MustParseFormula("not (a == 0x10) and b != 2 or c == 7")
		b := flagBank("a", "b", "c")

		b.UpdateUint("a", 1)
		b.UpdateUint("b", 3)
		b.UpdateUint("c", 0)

		v, _ := f.Eval(b)
		Expect(v).To(BeTrue())

		b.UpdateUint("a", 16)
		v, _ = f.Eval(b)
		Expect(v).To(BeFalse())
	})

	It("should be indeterminate until every cell is observed", func() {
		f := game.MustParseFormula("load == 0 || load2 == 0")
		b := flagBank("load", "load2")

		_, known := f.Eval(b)
		Expect(known).To(BeFalse())

		b.UpdateUint("load", 0)
		_, known = f.Eval(b)
		Expect(known).To(BeFalse())

		b.UpdateUint("load2", 1)
		v, known := f.Eval(b)
		Expect(known).To(BeTrue())
		Expect(v).To(BeTrue())
	})

	It("should accept the literal on either side", func() {
		f := game.MustParseFormula("1 == load || !(load != 3)")
		b := flagBank("load")

		b.UpdateUint("load", 3)
		v, known := f.Eval(b)
		Expect(known).To(BeTrue())
		Expect(v).To(BeTrue())

		b.UpdateUint("load", 2)
		v, _ = f.Eval(b)
		Expect(v).To(BeFalse())
	})

	It("should list its cells once", func() {
		f := game.MustParseFormula("load == 1 || load == 3 || other == 2")
		Expect(f.Cells()).To(Equal([]string{"load", "other"}))
		Expect(f.String()).To(Equal("load == 1 || load == 3 || other == 2"))
	})

	DescribeTable("should reject malformed text",
		func(text string) {
			_, err := game.ParseFormula(text)
			Expect(err).To(HaveOccurred())
		},
		Entry("empty", ""),
		Entry("dangling or", "a == 1 ||"),
		Entry("missing value", "a =="),
		Entry("missing operator", "a 1"),
		Entry("unbalanced", "(a == 1"),
		Entry("trailing", "a == 1 )"),
		Entry("bad char", "a == 1 ^ b == 2"),
		Entry("bad number", "a == 0xZZ"),
		Entry("blank", "   "),
		Entry("arithmetic", "a + 1 == 2"),
		Entry("two cells", "a == b"),
		Entry("negative", "a == -1"),
		Entry("bare cell", "a && b == 1"),
		Entry("call", "len(a) == 1"),
	)
})
