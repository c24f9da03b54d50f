package scenarios

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/liftsim/core/model"
)

// CallDef is a hall button press.
type CallDef struct {
	Direction string      `yaml:"direction"`
	Floor     model.Floor `yaml:"floor"`
}

// PanelDef is a press on the panel inside a car.
type PanelDef struct {
	Car   string      `yaml:"car"`
	Floor model.Floor `yaml:"floor"`
}

// Step is one timed button press. Exactly one of Call and Panel is set.
type Step struct {
	AtMS  int       `yaml:"at_ms"`
	Call  *CallDef  `yaml:"call,omitempty"`
	Panel *PanelDef `yaml:"panel,omitempty"`
}

// Request converts the step into the request it presses.
func (s Step) Request() (model.Request, error) {
	switch {
	case s.Call != nil && s.Panel != nil:
		return model.Request{}, errors.New("step sets both call and panel")
	case s.Call != nil:
		dir, err := model.ParseDirection(s.Call.Direction)
		if err != nil {
			return model.Request{}, err
		}
		return model.CallRequest(dir, s.Call.Floor), nil
	case s.Panel != nil:
		return model.PanelRequest(s.Panel.Car, s.Panel.Floor), nil
	default:
		return model.Request{}, errors.New("step sets neither call nor panel")
	}
}

// Expected lists the checks applied once the scenario ran. Unset fields are
// not checked.
type Expected struct {
	FinalFloors         map[string]model.Floor   `yaml:"final_floors,omitempty"`
	Pending             *int                     `yaml:"pending,omitempty"`
	MaxConcurrentMoving int                      `yaml:"max_concurrent_moving,omitempty"`
	Visits              map[string][]model.Floor `yaml:"visits,omitempty"`
}

type Scenario struct {
	Name            string                `yaml:"name"`
	Description     string                `yaml:"description,omitempty"`
	Building        *model.BuildingConfig `yaml:"building,omitempty"`
	ConcurrentTrips bool                  `yaml:"concurrent_trips,omitempty"`
	Steps           []Step                `yaml:"steps"`
	RunMS           int                   `yaml:"run_ms"`
	Expected        Expected              `yaml:"expected"`
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a YAML scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks that every step is well formed.
func (sc *Scenario) Validate() error {
	if sc.RunMS < 0 {
		return errors.New("run_ms must not be negative")
	}
	for i, st := range sc.Steps {
		if st.AtMS < 0 {
			return fmt.Errorf("step %d: at_ms must not be negative", i)
		}
		if _, err := st.Request(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	if sc.Building != nil {
		sc.Building.SetDefaults()
		if err := sc.Building.Validate(); err != nil {
			return fmt.Errorf("building: %w", err)
		}
	}
	return nil
}
