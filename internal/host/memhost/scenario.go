package memhost

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/scriptbridge/internal/host"
)

// Scenario is a scripted sequence of engine events.
//
// Scenario files are YAML:
//
//	events:
//	  - event: file-loaded
//	  - event: client-message
//	    args: [key-binding, __keybinding1, d]
//	  - event: property-change
//	    data: {name: pause, value: true}
//	  - event: shutdown
type Scenario struct {
	Name  string      `yaml:"name"`
	Steps []StepEvent `yaml:"events"`
}

// StepEvent is one event of a scenario.
type StepEvent struct {
	Event  string   `yaml:"event"`
	Args   []string `yaml:"args,omitempty"`
	Data   any      `yaml:"data,omitempty"`
	Repeat int      `yaml:"repeat,omitempty"`
}

// LoadScenario reads a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}
	sc, err := ParseScenario(data)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return sc, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks every step names a known event.
func (s *Scenario) Validate() error {
	var errs []error
	for i, step := range s.Steps {
		if _, err := host.ParseEventID(step.Event); err != nil {
			errs = append(errs, fmt.Errorf("event %d: %w", i, err))
		}
		if step.Repeat < 0 {
			errs = append(errs, fmt.Errorf("event %d: negative repeat", i))
		}
	}
	return errors.Join(errs...)
}

// Events converts the scenario into engine events. Client messages carry
// their args as a []string payload; other events carry Data.
func (s *Scenario) Events() []host.Event {
	events := make([]host.Event, 0, len(s.Steps))
	for _, step := range s.Steps {
		id, err := host.ParseEventID(step.Event)
		if err != nil {
			continue
		}

		var payload any
		switch {
		case id == host.EventClientMessage:
			payload = append([]string(nil), step.Args...)
		case step.Data != nil:
			payload = step.Data
		case len(step.Args) > 0:
			payload = append([]string(nil), step.Args...)
		}

		n := step.Repeat
		if n == 0 {
			n = 1
		}
		for range n {
			events = append(events, host.Event{ID: id, Payload: payload})
		}
	}
	return events
}

// EndsWithShutdown reports whether the last event is a shutdown.
func (s *Scenario) EndsWithShutdown() bool {
	if len(s.Steps) == 0 {
		return false
	}
	id, err := host.ParseEventID(s.Steps[len(s.Steps)-1].Event)
	return err == nil && id == host.EventShutdown
}
