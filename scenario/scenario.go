// Package scenario replays scripted game memory against the splitter. A
// scenario lists, tick by tick, what the game writes, which reads fail and
// what the timer reports, and the runner collects the commands issued.
package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/autosplit/timer"
)

// A Scenario is a scripted session.
type Scenario struct {
	Version string            `yaml:"version"`
	PID     int32             `yaml:"pid"`
	Modules map[string]uint64 `yaml:"modules"`

	// Segments ends the run on that split, like a LiveSplit layout with
	// that many segments. Zero never ends the run.
	Segments int    `yaml:"segments"`
	Ticks    []Tick `yaml:"ticks"`
}

// A Tick is what happens before one splitter tick.
type Tick struct {
	// Timer forces the timer state, such as "Running".
	Timer string `yaml:"timer"`

	// Write sets cell values in the game memory. Numbers are written to
	// numeric cells; text to string cells.
	Write map[string]any `yaml:"write"`

	// Fail lists cells whose reads fail on this tick only.
	Fail []string `yaml:"fail"`

	// Exit makes the game exit after the tick.
	Exit bool `yaml:"exit"`

	// Repeat runs the tick that many times. Writes happen on the first.
	Repeat int `yaml:"repeat"`

	// Expect lists the commands the tick must issue, if set.
	Expect []string `yaml:"expect"`
}

// Parse decodes a scenario.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	s := &Scenario{}
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return s, nil
}

// Load reads and decodes a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(data)
}

func (s *Scenario) validate() error {
	if s.Version == "" {
		s.Version = "v1.0"
	}

	if s.PID == 0 {
		s.PID = 4242
	}

	for i, t := range s.Ticks {
		if t.Timer != "" {
			if _, err := timer.ParseState(t.Timer); err != nil {
				return fmt.Errorf("scenario: tick %d: %w", i, err)
			}
		}

		if t.Repeat < 0 {
			return fmt.Errorf("scenario: tick %d: negative repeat", i)
		}
	}

	return nil
}
