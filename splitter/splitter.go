// Package splitter is the poll loop. It attaches to the game, resolves its
// memory layout, and on every tick turns the observed cells into timer
// commands.
package splitter

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/autosplit/game"
	"github.com/sarchlab/autosplit/hooking"
	"github.com/sarchlab/autosplit/process"
	"github.com/sarchlab/autosplit/timer"
)

// A Splitter runs the session state machine
//
//	Disconnected -> Attaching -> ResolvingLayout -> Running -> Disconnected
//
// on a single goroutine.
type Splitter struct {
	*hooking.HookableBase

	version   *game.Version
	attacher  process.Attacher
	timer     timer.Controller
	settings  SettingsSource
	retry     time.Duration
	newTicker TickerFactory

	state    State
	snapshot atomic.Pointer[Snapshot]
}

// Version returns the game version the splitter watches.
func (s *Splitter) Version() *game.Version {
	return s.version
}

// Snapshot returns the latest published snapshot. It is safe to call from
// any goroutine.
func (s *Splitter) Snapshot() Snapshot {
	if snap := s.snapshot.Load(); snap != nil {
		return *snap
	}

	return Snapshot{State: Disconnected.String(), Version: s.version.Name}
}

func (s *Splitter) setState(to State, sessionID string, err error) {
	from := s.state
	s.state = to

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    HookPosStateChange,
		Item: Transition{
			From:      from,
			To:        to,
			SessionID: sessionID,
			Err:       err,
		},
	})

	snap := s.Snapshot()
	snap.State = to.String()
	snap.SessionID = sessionID
	snap.Time = time.Now()

	if to != Running {
		snap.Cells = nil
		snap.PID = 0
		snap.Modules = nil
	}

	s.publish(snap)
}

func (s *Splitter) publish(snap Snapshot) {
	s.snapshot.Store(&snap)
}

// Run drives the state machine until ctx is done, in which case it returns
// nil. Process exit and transient failures send the machine back to
// Disconnected and it attaches again. The only error returned is one
// wrapping game.ErrFatalAttach.
func (s *Splitter) Run(ctx context.Context) error {
	for {
		err := s.runOnce(ctx)

		if ctx.Err() != nil {
			return nil
		}

		if errors.Is(err, game.ErrFatalAttach) {
			return err
		}

		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(s.retry):
			}
		}
	}
}

func (s *Splitter) runOnce(ctx context.Context) error {
	sess, err := s.Attach(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	err = s.loop(ctx, sess)
	s.setState(Disconnected, sess.id, err)

	return err
}

// Attach blocks until the game is running, resolves its layout and returns a
// session with a fresh, empty bank. The splitter is Running when Attach
// returns without error, and Disconnected otherwise.
func (s *Splitter) Attach(ctx context.Context) (*Session, error) {
	s.setState(Attaching, "", nil)

	p, err := s.attacher.Attach(ctx, s.version.Process)
	if err != nil {
		s.setState(Disconnected, "", err)
		return nil, err
	}

	id := xid.New().String()
	s.setState(ResolvingLayout, id, nil)

	layout, err := game.Resolve(ctx, p, s.version, s.retry)
	if err != nil {
		_ = p.Close()
		s.setState(Disconnected, id, err)

		return nil, err
	}

	bank, err := s.version.NewBank()
	if err != nil {
		_ = p.Close()
		err = fmt.Errorf("%w: %v", game.ErrFatalAttach, err)
		s.setState(Disconnected, id, err)

		return nil, err
	}

	sess := &Session{
		id:       id,
		splitter: s,
		proc:     p,
		layout:   layout,
		bank:     bank,
	}

	s.setState(Running, id, nil)
	sess.publish("")

	return sess, nil
}

// loop runs ticks until the process exits or ctx is done. Process exit is
// observed at the tick boundary.
func (s *Splitter) loop(ctx context.Context, sess *Session) error {
	sess.rate = s.settings.Settings().Rate()

	ticker := s.newTicker(sess.rate.Period())
	defer ticker.Stop()

	for {
		before := sess.rate
		sess.Step()

		if sess.rate != before {
			ticker.Reset(sess.rate.Period())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
		}

		if !sess.proc.IsOpen() {
			return nil
		}
	}
}
