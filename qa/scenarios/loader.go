// Package scenarios replays YAML dispatch scenarios against a controller
// driven by a fake clock.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/vppsim/core/dispatch"
)

// SubmitDef is one dispatch request.
type SubmitDef struct {
	Asset    string  `yaml:"asset"`
	TargetMW float64 `yaml:"target_mw"`
}

// Step either submits a command or advances the clock.
type Step struct {
	Submit      *SubmitDef `yaml:"submit,omitempty"`
	ExpectError string     `yaml:"expect_error,omitempty"`
	AdvanceMS   int        `yaml:"advance_ms,omitempty"`
	// WaitIdle blocks until no command is in flight.
	WaitIdle bool `yaml:"wait_idle,omitempty"`
}

// Expected are the end-of-scenario assertions.
type Expected struct {
	Completed int `yaml:"completed"`
	Rejected  int `yaml:"rejected"`
}

type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Dispatch    dispatch.Config `yaml:"dispatch,omitempty"`
	Steps       []Step          `yaml:"steps"`
	Expected    Expected        `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	for i, st := range sc.Steps {
		if _, err := expectedError(st.ExpectError); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}
	return &sc, nil
}

func expectedError(name string) (error, error) {
	switch name {
	case "":
		return nil, nil
	case "busy":
		return dispatch.ErrBusy, nil
	case "unknown_asset":
		return dispatch.ErrUnknownAsset, nil
	case "invalid_target":
		return dispatch.ErrInvalidTarget, nil
	default:
		return nil, fmt.Errorf("unknown expected error %q", name)
	}
}
