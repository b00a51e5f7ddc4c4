package timer

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

// DefaultLiveSplitAddress is where the LiveSplit Server component listens by
// default.
const DefaultLiveSplitAddress = "localhost:16834"

// LiveSplit drives LiveSplit through its Server component. The protocol is
// one command per line; only getcurrenttimerphase answers.
type LiveSplit struct {
	addr    string
	timeout time.Duration

	mu   sync.Mutex
	conn net.Conn
	rd   *bufio.Reader
}

// NewLiveSplit creates a client for the server at addr. The connection is
// opened lazily and reopened after any failure.
func NewLiveSplit(addr string, timeout time.Duration) *LiveSplit {
	if addr == "" {
		addr = DefaultLiveSplitAddress
	}

	if timeout <= 0 {
		timeout = time.Second
	}

	return &LiveSplit{addr: addr, timeout: timeout}
}

// Start starts the run and initializes game time.
func (l *LiveSplit) Start() error {
	if err := l.send("starttimer"); err != nil {
		return err
	}

	return l.send("initgametime")
}

// Split ends the current segment.
func (l *LiveSplit) Split() error {
	return l.send("split")
}

// PauseGameTime freezes game time.
func (l *LiveSplit) PauseGameTime() error {
	return l.send("pausegametime")
}

// ResumeGameTime lets game time run again.
func (l *LiveSplit) ResumeGameTime() error {
	return l.send("unpausegametime")
}

// State asks LiveSplit for the current timer phase.
func (l *LiveSplit) State() (State, error) {
	rsp, err := l.query("getcurrenttimerphase")
	if err != nil {
		return NotRunning, err
	}

	return ParseState(rsp)
}

// Close closes the connection.
func (l *LiveSplit) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.dropLocked()
}

func (l *LiveSplit) dropLocked() error {
	if l.conn == nil {
		return nil
	}

	err := l.conn.Close()
	l.conn = nil
	l.rd = nil

	return err
}

func (l *LiveSplit) connectLocked() error {
	if l.conn != nil {
		return nil
	}

	conn, err := net.DialTimeout("tcp", l.addr, l.timeout)
	if err != nil {
		return fmt.Errorf("connect to livesplit at %s: %w", l.addr, err)
	}

	l.conn = conn
	l.rd = bufio.NewReader(conn)

	return nil
}

func (l *LiveSplit) writeLocked(cmd string) error {
	if err := l.connectLocked(); err != nil {
		return err
	}

	if err := l.conn.SetDeadline(time.Now().Add(l.timeout)); err != nil {
		return err
	}

	_, err := l.conn.Write([]byte(cmd + "\r\n"))

	return err
}

func (l *LiveSplit) send(cmd string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.writeLocked(cmd)
	if err != nil {
		_ = l.dropLocked()

		// The server drops idle clients, try once more on a new connection.
		err = l.writeLocked(cmd)
	}

	if err != nil {
		_ = l.dropLocked()
		return fmt.Errorf("livesplit %s: %w", cmd, err)
	}

	return nil
}

func (l *LiveSplit) query(cmd string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writeLocked(cmd); err != nil {
		_ = l.dropLocked()
		return "", fmt.Errorf("livesplit %s: %w", cmd, err)
	}

	line, err := l.rd.ReadString('\n')
	if err != nil {
		_ = l.dropLocked()
		return "", fmt.Errorf("livesplit %s: %w", cmd, err)
	}

	return strings.TrimSpace(line), nil
}
