package game_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/autosplit/game"
	"github.com/sarchlab/autosplit/memory"
	"github.com/sarchlab/autosplit/process"
	"github.com/sarchlab/autosplit/watcher"
)

type tick struct {
	cuts, load, load2 uint64
	level, outro      string
}

var _ = Describe("Version", func() {
	var (
		v *game.Version
		b *watcher.Bank
	)

	step := func(t tick) {
		b.UpdateUint("cuts", t.cuts)
		b.UpdateUint("load", t.load)
		b.UpdateUint("load2", t.load2)
		b.UpdateText("level", t.level)
		b.UpdateText("outro", t.outro)
	}

	BeforeEach(func() {
		v = game.V10()

		var err error
		b, err = v.NewBank()
		Expect(err).NotTo(HaveOccurred())
	})

	Context("start", func() {
		It("should not start before anything is observed", func() {
			Expect(v.Start(b)).To(BeFalse())
		})

		It("should fire once on the inactive to active edge", func() {
			step(tick{cuts: 0, level: "L1"})
			Expect(v.Start(b)).To(BeFalse())

			step(tick{cuts: 1, level: "L1"})
			Expect(v.Start(b)).To(BeTrue())

			step(tick{cuts: 1, level: "L1"})
			Expect(v.Start(b)).To(BeFalse())
		})

		It("should not fire when there is no level", func() {
			step(tick{cuts: 0})
			step(tick{cuts: 1})
			Expect(v.Start(b)).To(BeFalse())
		})

		It("should not fire on other edges", func() {
			step(tick{cuts: 2, level: "L1"})
			step(tick{cuts: 1, level: "L1"})
			Expect(v.Start(b)).To(BeFalse())
		})

		It("should not fire from the first observation alone", func() {
			step(tick{cuts: 1, level: "L1"})
			Expect(v.Start(b)).To(BeFalse())
		})
	})

	Context("split", func() {
		It("should split once per non-empty level change", func() {
			var splits []bool
			for _, level := range []string{"", "L1", "L1", "L2"} {
				step(tick{level: level})
				splits = append(splits, v.Split(b))
			}

			Expect(splits).To(Equal([]bool{false, true, false, true}))
		})

		It("should not split when the level is cleared", func() {
			step(tick{level: "L1"})
			step(tick{level: ""})
			Expect(v.Split(b)).To(BeFalse())
		})

		It("should split once when the outro leaves the sentinel", func() {
			var splits []bool
			for _, outro := range []string{"", "Outro_2", "Outro_2", "", ""} {
				step(tick{level: "L9", outro: outro})
				splits = append(splits, v.Split(b))
			}

			Expect(splits).To(Equal([]bool{false, false, false, true, false}))
		})

		It("should not split when the outro changes from another value", func() {
			step(tick{level: "L9", outro: "Outro_1"})
			step(tick{level: "L9", outro: "Outro_2"})
			Expect(v.Split(b)).To(BeFalse())
		})
	})

	Context("across failed reads", func() {
		var (
			fake   *process.Fake
			layout *game.Layout
		)

		leaf := func(name string) uint64 {
			path, ok := layout.Path(name)
			Expect(ok).To(BeTrue())

			addr, err := fake.Materialize(path, layout.PointerSize())
			Expect(err).NotTo(HaveOccurred())

			return addr
		}

		write := func(name string, data []byte) {
			Expect(fake.Write(leaf(name), data)).To(Succeed())
		}

		// refresh applies writes, fails the listed cells for one refresh and
		// returns Split and Start as seen right after it.
		refresh := func(fail ...string) (split, start bool) {
			for _, name := range fail {
				fake.FailReads(leaf(name), true)
			}

			b.Refresh(fake, layout)
			fake.ClearFailures()

			return v.Split(b), v.Start(b)
		}

		BeforeEach(func() {
			fake = process.NewFake(1)
			fake.AddModule("game.exe", 0x400000)
			fake.AddModule("GameClient.dll", 0x10000000)

			var err error
			layout, err = game.Resolve(context.Background(), fake, v, time.Millisecond)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should split on a level change hidden behind a failed read", func() {
			var splits []bool

			write("level", []byte("L1"))
			split, _ := refresh()
			splits = append(splits, split)

			split, _ = refresh("level")
			splits = append(splits, split)

			write("level", []byte("L2"))
			split, _ = refresh()
			splits = append(splits, split)

			split, _ = refresh()
			splits = append(splits, split)

			Expect(splits).To(Equal([]bool{false, false, true, false}))
		})

		It("should not split when the level reads the same after a failure", func() {
			write("level", []byte("L1"))

			var splits []bool
			for _, fail := range [][]string{nil, {"level"}, nil, nil} {
				split, _ := refresh(fail...)
				splits = append(splits, split)
			}

			Expect(splits).To(Equal([]bool{false, false, false, false}))
		})

		It("should not split on the fallback of an armed outro", func() {
			write("level", []byte("L9"))
			write("outro", []byte("Outro_2"))

			var splits []bool
			for _, fail := range [][]string{nil, nil, {"outro"}, nil} {
				split, _ := refresh(fail...)
				splits = append(splits, split)
			}

			Expect(splits).To(Equal([]bool{false, false, false, false}))
		})

		It("should start on an activation hidden behind a failed read", func() {
			write("level", []byte("L1"))
			write("cuts", []byte{0})

			var starts []bool

			_, start := refresh()
			starts = append(starts, start)

			_, start = refresh("cuts")
			starts = append(starts, start)

			write("cuts", []byte{1})
			_, start = refresh()
			starts = append(starts, start)

			_, start = refresh()
			starts = append(starts, start)

			Expect(starts).To(Equal([]bool{false, false, true, false}))
		})
	})

	Context("isLoading", func() {
		It("should be indeterminate before observation", func() {
			_, known := v.IsLoading(b)
			Expect(known).To(BeFalse())
		})

		It("should follow the formula", func() {
			step(tick{load: 1, load2: 1})
			loading, known := v.IsLoading(b)
			Expect(known).To(BeTrue())
			Expect(loading).To(BeFalse())

			step(tick{load: 1, load2: 0})
			loading, _ = v.IsLoading(b)
			Expect(loading).To(BeTrue())

			step(tick{load: 0, load2: 1})
			loading, _ = v.IsLoading(b)
			Expect(loading).To(BeTrue())
		})
	})

	Context("Validate", func() {
		var custom *game.Version

		BeforeEach(func() {
			custom = &game.Version{
				Name:          "test",
				Process:       "game.exe",
				PrimaryModule: "game.exe",
				PointerSize:   memory.Bit32,
				Cells: []game.CellSpec{
					{
						Spec:    watcher.Spec{Name: "go", Kind: memory.KindU8},
						Module:  "game.exe",
						Offsets: []uint64{0x10},
					},
					{
						Spec: watcher.Spec{
							Name: "map", Kind: memory.KindCString, Width: 4,
						},
						Module:  "game.exe",
						Offsets: []uint64{0x20},
					},
				},
				StartRule: game.StartRule{Cell: "go", Active: 1, Level: "map"},
				SplitRule: game.SplitRule{Level: "map"},
				Loading:   "go == 3",
			}
		})

		It("should accept a consistent record", func() {
			Expect(custom.Validate()).To(Succeed())
			Expect(custom.LoadingFormula().Cells()).To(Equal([]string{"go"}))
		})

		It("should reject a formula over a string cell", func() {
			custom.Loading = "map == 1"
			Expect(custom.Validate()).To(MatchError(ContainSubstring("must be numeric")))
		})

		It("should reject unknown cells in rules", func() {
			custom.SplitRule.Outro = "nope"
			Expect(custom.Validate()).To(MatchError(ContainSubstring("unknown cell")))
		})

		It("should reject cells of unknown modules", func() {
			custom.Cells[0].Module = "other.dll"
			Expect(custom.Validate()).To(MatchError(ContainSubstring("unknown module")))
		})

		It("should reject an empty start edge", func() {
			custom.StartRule.Active = 0
			Expect(custom.Validate()).To(MatchError(ContainSubstring("start")))
		})

		It("should reject string cells without width", func() {
			custom.Cells[1].Width = 0
			Expect(custom.Validate()).To(HaveOccurred())
		})
	})

	Context("Registry", func() {
		It("should hold the built-in version", func() {
			r := game.NewRegistry()

			got, err := r.Lookup("v1.0")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Loading).To(Equal("load == 0 || load2 == 0"))
			Expect(r.Names()).To(Equal([]string{"v1.0"}))

			_, err = r.Lookup("v9")
			Expect(err).To(HaveOccurred())
		})
	})
})
