package splitter

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/autosplit/game"
	"github.com/sarchlab/autosplit/hooking"
	"github.com/sarchlab/autosplit/memory"
	"github.com/sarchlab/autosplit/process"
	"github.com/sarchlab/autosplit/timer"
)

func newGame(pid int32) *process.Fake {
	fake := process.NewFake(pid)
	fake.AddModule("game.exe", 0x400000)
	fake.AddModule("GameClient.dll", 0x10000000)

	return fake
}

type switchSettings struct {
	slow atomic.Bool
}

func (s *switchSettings) Settings() Settings {
	return Settings{SlowPCMode: s.slow.Load()}
}

type hookLog struct {
	commands    []CommandEvent
	timerErrors []error
	cadence     []Freq
}

func (l *hookLog) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosCommand:
		l.commands = append(l.commands, ctx.Item.(CommandEvent))
	case HookPosTimerError:
		l.timerErrors = append(l.timerErrors, ctx.Item.(error))
	case HookPosCadence:
		l.cadence = append(l.cadence, ctx.Item.(Freq))
	}
}

var _ = Describe("Session", func() {
	var (
		fake     *process.Fake
		rec      *timer.Recorder
		settings *switchSettings
		hooks    *hookLog
		s        *Splitter
		sess     *Session
	)

	leaf := func(name string) uint64 {
		p, ok := sess.Layout().Path(name)
		Expect(ok).To(BeTrue())

		addr, err := fake.Materialize(p, memory.Bit32)
		Expect(err).NotTo(HaveOccurred())

		return addr
	}

	writeU8 := func(name string, v uint64) {
		Expect(fake.Write(leaf(name), memory.EncodeUint(memory.KindU8, v))).
			To(Succeed())
	}

	writeText := func(name, v string, width int) {
		Expect(fake.Write(leaf(name), memory.EncodeCString(v, width))).
			To(Succeed())
	}

	BeforeEach(func() {
		fake = newGame(7)
		attacher := &process.FakeAttacher{}
		attacher.Push(fake)

		rec = timer.NewRecorder(0)
		settings = &switchSettings{}
		hooks = &hookLog{}

		var err error
		s, err = MakeBuilder().
			WithVersion(game.V10()).
			WithAttacher(attacher).
			WithTimer(rec).
			WithSettings(settings).
			WithRetryInterval(time.Millisecond).
			WithHook(hooks).
			Build()
		Expect(err).NotTo(HaveOccurred())

		sess, err = s.Attach(context.Background())
		Expect(err).NotTo(HaveOccurred())

		writeU8("cuts", 0)
		writeU8("load", 1)
		writeU8("load2", 1)
		writeText("level", "L1", 2)
		writeText("outro", "", 7)
	})

	It("should start the run once on the cutscene edge", func() {
		Expect(sess.Step()).To(BeEmpty())

		writeU8("cuts", 1)
		Expect(sess.Step()).To(BeEmpty())
		Expect(sess.Step()).To(Equal([]timer.Command{timer.Start}))

		state, _ := rec.State()
		Expect(state).To(Equal(timer.Running))

		Expect(sess.Step()).NotTo(ContainElement(timer.Start))
		Expect(hooks.commands[0].SessionID).To(Equal(sess.ID()))
	})

	It("should not start without a level", func() {
		writeText("level", "", 2)
		sess.Step()

		writeU8("cuts", 1)
		sess.Step()
		sess.Step()

		Expect(rec.Commands()).To(BeEmpty())
	})

	It("should keep game time in step with the loading bytes", func() {
		rec.SetState(timer.Running)

		var got [][]timer.Command
		for _, load := range []uint64{1, 1, 3, 0, 0} {
			writeU8("load", load)
			got = append(got, sess.Step())
		}

		Expect(got).To(Equal([][]timer.Command{
			nil,
			{timer.ResumeGameTime},
			{timer.ResumeGameTime},
			{timer.ResumeGameTime},
			{timer.PauseGameTime},
		}))
		Expect(rec.GameTimePaused()).To(BeTrue())

		var repeats []bool
		for _, c := range hooks.commands {
			repeats = append(repeats, c.Repeat)
		}
		Expect(repeats).To(Equal([]bool{false, true, true, false}))
		Expect(s.Snapshot().LastCommands).To(Equal([]string{
			"ResumeGameTime", "PauseGameTime",
		}))
	})

	It("should follow a formula one tick behind the memory writes", func() {
		v := game.V10()
		v.Loading = "load == 1 || load == 3"

		fake = newGame(8)
		attacher := &process.FakeAttacher{}
		attacher.Push(fake)
		rec = timer.NewRecorder(0)
		rec.SetState(timer.Running)

		var err error
		s, err = MakeBuilder().
			WithVersion(v).
			WithAttacher(attacher).
			WithTimer(rec).
			Build()
		Expect(err).NotTo(HaveOccurred())

		sess, err = s.Attach(context.Background())
		Expect(err).NotTo(HaveOccurred())

		var got [][]timer.Command
		for _, load := range []uint64{1, 1, 3, 0, 0} {
			writeU8("load", load)
			got = append(got, sess.Step())
		}

		Expect(got).To(Equal([][]timer.Command{
			nil,
			{timer.PauseGameTime},
			{timer.PauseGameTime},
			{timer.PauseGameTime},
			{timer.ResumeGameTime},
		}))
		Expect(sess.Step()).To(Equal([]timer.Command{timer.ResumeGameTime}))
		Expect(rec.GameTimePaused()).To(BeFalse())
	})

	It("should leave game time alone unless the run is going", func() {
		writeU8("load2", 0)

		for _, state := range []timer.State{timer.NotRunning, timer.Ended} {
			rec.SetState(state)
			sess.Step()
			sess.Step()
		}

		Expect(rec.Commands()).To(BeEmpty())
	})

	It("should split when the level changes", func() {
		rec.SetState(timer.Running)
		sess.Step()

		writeText("level", "L2", 2)
		sess.Step()
		Expect(sess.Step()).To(ContainElement(timer.Split))

		sess.Step()
		Expect(rec.Splits()).To(Equal(1))
	})

	It("should split when the outro leaves its sentinel", func() {
		rec.SetState(timer.Running)
		writeText("outro", "Outro_2", 7)
		sess.Step()
		sess.Step()

		writeText("outro", "", 7)
		sess.Step()
		Expect(sess.Step()).To(ContainElement(timer.Split))
	})

	It("should never split or start because of failed reads", func() {
		rec.SetState(timer.Running)
		writeText("outro", "Outro_2", 7)
		sess.Step()
		sess.Step()

		for _, name := range []string{"outro", "level"} {
			fake.FailReads(leaf(name), true)
			sess.Step()
			sess.Step()
			fake.FailReads(leaf(name), false)
			sess.Step()
			sess.Step()
			sess.Step()
		}

		Expect(rec.Splits()).To(BeZero())
		Expect(rec.Commands()).NotTo(ContainElement(timer.Start))
	})

	It("should still split when the level changes during a failed read", func() {
		rec.SetState(timer.Running)
		sess.Step()
		sess.Step()

		fake.FailReads(leaf("level"), true)
		sess.Step()
		fake.FailReads(leaf("level"), false)

		writeText("level", "L2", 2)
		sess.Step()
		Expect(sess.Step()).To(ContainElement(timer.Split))
		Expect(sess.Step()).NotTo(ContainElement(timer.Split))
		Expect(rec.Splits()).To(Equal(1))
	})

	It("should pause game time while the loading bytes cannot be read", func() {
		rec.SetState(timer.Running)
		sess.Step()

		fake.FailReads(leaf("load2"), true)
		sess.Step()
		Expect(sess.Step()).To(Equal([]timer.Command{timer.PauseGameTime}))
	})

	It("should publish a snapshot after each tick", func() {
		sess.Step()

		snap := s.Snapshot()
		Expect(snap.State).To(Equal("Running"))
		Expect(snap.SessionID).To(Equal(sess.ID()))
		Expect(snap.PID).To(Equal(int32(7)))
		Expect(snap.Modules).To(HaveKeyWithValue("game.exe", uint64(0x400000)))
		Expect(snap.Tick).To(Equal(uint64(1)))
		Expect(snap.Rate).To(Equal(60.0))
		Expect(snap.TimerState).To(Equal("NotRunning"))
		Expect(snap.Cells).To(HaveLen(5))
		Expect(snap.Cells[0].Observed).To(BeTrue())
	})

	It("should pick up the slow PC setting on the next tick", func() {
		sess.Step()
		Expect(sess.Rate()).To(Equal(NormalRate))

		settings.slow.Store(true)
		sess.Step()
		Expect(sess.Rate()).To(Equal(SlowRate))
		Expect(hooks.cadence).To(Equal([]Freq{SlowRate}))

		settings.slow.Store(false)
		sess.Step()
		Expect(hooks.cadence).To(Equal([]Freq{SlowRate, NormalRate}))
	})
})

var _ = Describe("Session with a failing timer", func() {
	var (
		mockCtrl *gomock.Controller
		ctrl     *MockController
		hooks    *hookLog
		sess     *Session
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		ctrl = NewMockController(mockCtrl)
		hooks = &hookLog{}

		fake := newGame(8)
		attacher := &process.FakeAttacher{}
		attacher.Push(fake)

		s, err := MakeBuilder().
			WithVersion(game.V10()).
			WithAttacher(attacher).
			WithTimer(ctrl).
			WithHook(hooks).
			Build()
		Expect(err).NotTo(HaveOccurred())

		sess, err = s.Attach(context.Background())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should skip the tick when the state cannot be read", func() {
		ctrl.EXPECT().State().Return(timer.NotRunning, errors.New("down")).Times(2)

		Expect(sess.Step()).To(BeEmpty())
		Expect(sess.Step()).To(BeEmpty())
		Expect(hooks.timerErrors).To(HaveLen(2))
		Expect(sess.Ticks()).To(Equal(uint64(2)))
	})

	It("should carry on when a command is refused", func() {
		ctrl.EXPECT().State().Return(timer.Running, nil).Times(2)
		ctrl.EXPECT().PauseGameTime().Return(errors.New("refused"))

		sess.Step()
		Expect(sess.Step()).To(Equal([]timer.Command{timer.PauseGameTime}))

		Expect(hooks.commands).To(HaveLen(1))
		Expect(hooks.commands[0].Err).To(MatchError("refused"))
	})
})
