package splitter

import (
	"bytes"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/autosplit/hooking"
	"github.com/sarchlab/autosplit/timer"
)

var _ = Describe("LogHook", func() {
	var (
		buf  *bytes.Buffer
		hook *LogHook
	)

	BeforeEach(func() {
		buf = &bytes.Buffer{}
		hook = NewLogHook(slog.New(slog.NewTextHandler(buf,
			&slog.HandlerOptions{Level: slog.LevelDebug})))
	})

	command := func(cmd timer.Command, repeat bool, err error) {
		hook.Func(hooking.HookCtx{
			Pos: HookPosCommand,
			Item: CommandEvent{
				SessionID: "s1", Tick: 3, Command: cmd, Repeat: repeat, Err: err,
			},
		})
	}

	It("should log state changes", func() {
		hook.Func(hooking.HookCtx{
			Pos:  HookPosStateChange,
			Item: Transition{From: Attaching, To: ResolvingLayout, SessionID: "s1"},
		})

		Expect(buf.String()).To(ContainSubstring("from=Attaching to=ResolvingLayout"))
		Expect(buf.String()).To(ContainSubstring("session_id=s1"))
	})

	It("should log game time edges but not their repeats", func() {
		command(timer.ResumeGameTime, false, nil)
		command(timer.ResumeGameTime, true, nil)
		command(timer.ResumeGameTime, true, nil)

		Expect(bytes.Count(buf.Bytes(), []byte("command=ResumeGameTime"))).To(Equal(1))
	})

	It("should warn about refused commands", func() {
		command(timer.Split, false, errors.New("connection refused"))

		Expect(buf.String()).To(ContainSubstring("level=WARN"))
		Expect(buf.String()).To(ContainSubstring("connection refused"))
	})

	It("should ignore items of the wrong type", func() {
		Expect(func() {
			hook.Func(hooking.HookCtx{Pos: HookPosStateChange, Item: "nope"})
			hook.Func(hooking.HookCtx{Pos: HookPosCadence})
		}).NotTo(Panic())
		Expect(buf.Len()).To(BeZero())
	})
})
